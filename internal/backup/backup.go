// Package backup provides archive export and restore of the data store.
package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/linkstashapp/linkstash-server/internal/store"
)

const archiveSuffix = ".linkstash.zip"

// Entity file names inside the archive.
const (
	manifestFile      = "manifest.json"
	usersFile         = "users.jsonl"
	linksFile         = "links.jsonl"
	tagsFile          = "tags.jsonl"
	subscriptionsFile = "subscriptions.jsonl"
	usageFile         = "usage.jsonl"
)

// BackupService manages backup creation and listing.
type BackupService struct {
	store      *store.Store
	backupDir  string
	serverName string
	version    string
	logger     *slog.Logger
}

// NewBackupService creates a BackupService.
func NewBackupService(s *store.Store, backupDir, serverName, version string, logger *slog.Logger) *BackupService {
	return &BackupService{
		store:      s,
		backupDir:  backupDir,
		serverName: serverName,
		version:    version,
		logger:     logger,
	}
}

// Create creates a new backup archive.
func (s *BackupService) Create(ctx context.Context, opts BackupOptions) (*BackupResult, error) {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		timestamp := time.Now().Format("2006-01-02-150405")
		outputPath = filepath.Join(s.backupDir, "backup-"+timestamp+archiveSuffix)
	}

	s.logger.Info("creating backup",
		"output", outputPath,
		"include_usage", opts.IncludeUsage)

	start := time.Now()
	counts, err := s.writeArchive(ctx, outputPath, opts)
	if err != nil {
		os.Remove(outputPath)
		return nil, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, err
	}

	checksum, err := fileChecksum(outputPath)
	if err != nil {
		return nil, err
	}

	result := &BackupResult{
		Path:     outputPath,
		Size:     info.Size(),
		Counts:   counts,
		Duration: time.Since(start),
		Checksum: checksum,
	}

	s.logger.Info("backup complete",
		"path", result.Path,
		"size", result.Size,
		"duration", result.Duration,
		"checksum", result.Checksum)

	return result, nil
}

// writeArchive streams every entity into a zip at path.
func (s *BackupService) writeArchive(ctx context.Context, path string, opts BackupOptions) (EntityCounts, error) {
	var counts EntityCounts

	f, err := os.Create(path)
	if err != nil {
		return counts, fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return counts, fmt.Errorf("list users: %w", err)
	}

	uw, err := zw.Create(usersFile)
	if err != nil {
		return counts, err
	}
	for _, u := range users {
		if err := writeJSONLine(uw, u); err != nil {
			return counts, err
		}
		counts.Users++
	}

	lw, err := zw.Create(linksFile)
	if err != nil {
		return counts, err
	}
	tw, err := zw.Create(tagsFile)
	if err != nil {
		return counts, err
	}

	for _, u := range users {
		links, err := s.store.ListLinks(ctx, u.ID)
		if err != nil {
			return counts, fmt.Errorf("list links for %s: %w", u.ID, err)
		}
		for _, link := range links {
			if err := writeJSONLine(lw, link); err != nil {
				return counts, err
			}
			counts.Links++
		}

		tags, err := s.store.ListTags(ctx, u.ID)
		if err != nil {
			return counts, fmt.Errorf("list tags for %s: %w", u.ID, err)
		}
		for _, tag := range tags {
			if err := writeJSONLine(tw, tag); err != nil {
				return counts, err
			}
			counts.Tags++
		}
	}

	sw, err := zw.Create(subscriptionsFile)
	if err != nil {
		return counts, err
	}
	for _, u := range users {
		sub, err := s.store.GetSubscription(ctx, u.ID)
		if err != nil {
			continue
		}
		if err := writeJSONLine(sw, sub); err != nil {
			return counts, err
		}
		counts.Subscriptions++
	}

	if opts.IncludeUsage {
		rw, err := zw.Create(usageFile)
		if err != nil {
			return counts, err
		}
		for _, u := range users {
			records, err := s.store.ListAllUsageRecords(ctx, u.ID)
			if err != nil {
				return counts, fmt.Errorf("list usage for %s: %w", u.ID, err)
			}
			for _, rec := range records {
				if err := writeJSONLine(rw, rec); err != nil {
					return counts, err
				}
				counts.UsageRecords++
			}
		}
	}

	// Manifest last so counts are final.
	mw, err := zw.Create(manifestFile)
	if err != nil {
		return counts, err
	}
	manifest := Manifest{
		Version:       FormatVersion,
		CreatedAt:     time.Now(),
		ServerName:    s.serverName,
		ServerVersion: s.version,
		Counts:        counts,
		IncludesUsage: opts.IncludeUsage,
	}
	if err := json.MarshalWrite(mw, manifest); err != nil {
		return counts, err
	}

	if err := zw.Close(); err != nil {
		return counts, fmt.Errorf("finalize archive: %w", err)
	}
	return counts, f.Close()
}

// List returns all available backups, newest first.
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), archiveSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			ID:        strings.TrimSuffix(entry.Name(), archiveSuffix),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Get returns a backup by ID.
func (s *BackupService) Get(ctx context.Context, id string) (*BackupInfo, error) {
	path := s.GetPath(id)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}

	return &BackupInfo{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// Delete removes a backup.
func (s *BackupService) Delete(ctx context.Context, id string) error {
	path := s.GetPath(id)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return err
	}

	return os.Remove(path)
}

// GetPath returns the file path for a backup ID.
func (s *BackupService) GetPath(id string) string {
	return filepath.Join(s.backupDir, id+archiveSuffix)
}

func writeJSONLine(w io.Writer, v any) error {
	if err := json.MarshalWrite(w, v); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
