// Package importer reads bookmarks out of browser profile databases so
// users can seed their library from an existing collection.
package importer

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Importer errors.
var (
	ErrNotPlacesDB = errors.New("not a Firefox places database")
)

// Bookmark is one entry extracted from a browser profile.
type Bookmark struct {
	URL     string
	Title   string
	Folder  string
	AddedAt time.Time
}

// ParseFirefoxPlaces reads all HTTP(S) bookmarks from a Firefox
// places.sqlite file. The file is expected to be an uploaded copy, not a
// live profile database, which Firefox keeps WAL-locked.
func ParseFirefoxPlaces(path string, logger *slog.Logger) ([]Bookmark, error) {
	start := time.Now()

	// Pure Go driver, no CGO.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// moz_bookmarks type 1 is a bookmark, 2 a folder. The parent join
	// recovers the folder name; dateAdded is microseconds since epoch.
	query := `
		SELECT
			p.url,
			COALESCE(b.title, p.title, ''),
			COALESCE(parent.title, ''),
			COALESCE(b.dateAdded, 0)
		FROM moz_bookmarks b
		JOIN moz_places p ON b.fk = p.id
		LEFT JOIN moz_bookmarks parent ON b.parent = parent.id
		WHERE b.type = 1
		ORDER BY b.dateAdded
	`

	rows, err := db.Query(query)
	if err != nil {
		if isMissingTableErr(err) {
			return nil, fmt.Errorf("%w: %v", ErrNotPlacesDB, err)
		}
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		var bm Bookmark
		var dateAddedMicros int64

		if err := rows.Scan(&bm.URL, &bm.Title, &bm.Folder, &dateAddedMicros); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}

		// Skip place:, about:, javascript: and other internal schemes.
		if !strings.HasPrefix(bm.URL, "http://") && !strings.HasPrefix(bm.URL, "https://") {
			continue
		}

		if dateAddedMicros > 0 {
			bm.AddedAt = time.UnixMicro(dateAddedMicros)
		}

		bookmarks = append(bookmarks, bm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}

	logger.Info("parsed places database",
		"path", path,
		"bookmarks", len(bookmarks),
		"duration", time.Since(start),
	)

	return bookmarks, nil
}

func isMissingTableErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
