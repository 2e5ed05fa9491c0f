package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json/v2"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

// Key prefixes for link storage. Links are user-owned, so the user ID is
// part of the primary key and listing is a prefix scan.
const (
	linkPrefix      = "link:"         // link:{userID}:{linkID} → Link JSON
	linkByURLPrefix = "idx:link:url:" // idx:link:url:{userID}:{urlHash} → linkID
)

// Link errors.
var ErrLinkNotFound = errors.New("link not found")

// urlHash returns a fixed-length key-safe digest of a URL.
func urlHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func linkKey(userID, linkID string) []byte {
	return []byte(linkPrefix + userID + ":" + linkID)
}

func linkURLKey(userID, url string) []byte {
	return []byte(linkByURLPrefix + userID + ":" + urlHash(url))
}

// CreateLink stores a new link and indexes it by URL.
func (s *Store) CreateLink(ctx context.Context, link *domain.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, linkKey(link.UserID, link.ID), link); err != nil {
			return err
		}
		return txn.Set(linkURLKey(link.UserID, link.URL), []byte(link.ID))
	})
	if err != nil {
		return err
	}

	s.indexLink(ctx, link)
	return nil
}

// GetLink retrieves one of the user's links by ID.
func (s *Store) GetLink(ctx context.Context, userID, linkID string) (*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var link domain.Link
	err := s.get(linkKey(userID, linkID), &link)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetLinkByURL retrieves one of the user's links by exact URL.
func (s *Store) GetLinkByURL(ctx context.Context, userID, url string) (*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var linkID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(linkURLKey(userID, url))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrLinkNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			linkID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetLink(ctx, userID, linkID)
}

// UpdateLink overwrites an existing link record.
// The URL index is rewritten if the URL changed.
func (s *Store) UpdateLink(ctx context.Context, link *domain.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := linkKey(link.UserID, link.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		var existing domain.Link
		if err := getInTxn(txn, key, &existing); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrLinkNotFound
		} else if err != nil {
			return err
		}

		if existing.URL != link.URL {
			if err := txn.Delete(linkURLKey(link.UserID, existing.URL)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(linkURLKey(link.UserID, link.URL), []byte(link.ID)); err != nil {
				return err
			}
		}

		return setInTxn(txn, key, link)
	})
	if err != nil {
		return err
	}

	s.indexLink(ctx, link)
	return nil
}

// DeleteLink removes a link and its URL index.
func (s *Store) DeleteLink(ctx context.Context, userID, linkID string) error {
	link, err := s.GetLink(ctx, userID, linkID)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(linkKey(userID, linkID)); err != nil {
			return err
		}
		if err := txn.Delete(linkURLKey(userID, link.URL)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.searchIndexer != nil {
		if err := s.searchIndexer.DeleteLink(ctx, linkID); err != nil && s.logger != nil {
			s.logger.Warn("failed to remove link from search index", "link_id", linkID, "error", err)
		}
	}
	return nil
}

// ListLinks returns all of a user's links, newest first.
func (s *Store) ListLinks(ctx context.Context, userID string) ([]*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(linkPrefix + userID + ":")
	var links []*domain.Link

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var link domain.Link
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &link)
			})
			if err != nil {
				continue
			}
			links = append(links, &link)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	return links, nil
}

// CountLinks returns how many links a user has saved.
func (s *Store) CountLinks(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(linkPrefix + userID + ":")
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// indexLink pushes a link into the search index, best effort.
func (s *Store) indexLink(ctx context.Context, link *domain.Link) {
	if s.searchIndexer == nil {
		return
	}

	tagNames := make([]string, 0, len(link.TagIDs))
	for _, tagID := range link.TagIDs {
		t, err := s.GetTag(ctx, link.UserID, tagID)
		if err != nil {
			continue
		}
		tagNames = append(tagNames, t.Name)
	}

	if err := s.searchIndexer.IndexLink(ctx, link, tagNames); err != nil && s.logger != nil {
		s.logger.Warn("failed to index link", "link_id", link.ID, "error", err)
	}
}
