package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	"github.com/linkstashapp/linkstash-server/internal/id"
)

// Key prefixes for tag storage. Tags are user-owned.
const (
	tagPrefix       = "tag:"          // tag:{userID}:{tagID} → Tag JSON
	tagByNamePrefix = "idx:tag:name:" // idx:tag:name:{userID}:{normalizedName} → tagID
)

// Tag errors.
var (
	ErrTagNotFound = errors.New("tag not found")
	ErrTagExists   = errors.New("tag already exists")
)

// normalizeTagName folds a tag name for case-insensitive matching.
// Display casing is preserved on the Tag record itself.
func normalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func tagKey(userID, tagID string) []byte {
	return []byte(tagPrefix + userID + ":" + tagID)
}

func tagNameKey(userID, name string) []byte {
	return []byte(tagByNamePrefix + userID + ":" + normalizeTagName(name))
}

// CreateTag creates a new tag for a user.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		nameKey := tagNameKey(t.UserID, t.Name)
		if _, err := txn.Get(nameKey); err == nil {
			return ErrTagExists
		}

		if err := setInTxn(txn, tagKey(t.UserID, t.ID), t); err != nil {
			return err
		}
		return txn.Set(nameKey, []byte(t.ID))
	})
}

// GetTag retrieves one of the user's tags by ID.
func (s *Store) GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	err := s.get(tagKey(userID, tagID), &t)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTagByName retrieves one of the user's tags by name, case-insensitively.
func (s *Store) GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tagID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tagNameKey(userID, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetTag(ctx, userID, tagID)
}

// ListTags returns all of a user's tags ordered by link count (descending).
func (s *Store) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(tagPrefix + userID + ":")
	var tags []*domain.Tag

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var t domain.Tag
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			})
			if err != nil {
				continue
			}
			tags = append(tags, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by link count descending, then by name for stability.
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].LinkCount != tags[j].LinkCount {
			return tags[i].LinkCount > tags[j].LinkCount
		}
		return normalizeTagName(tags[i].Name) < normalizeTagName(tags[j].Name)
	})

	return tags, nil
}

// CountTags returns how many tags a user has.
func (s *Store) CountTags(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(tagPrefix + userID + ":")
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

// UpdateTag overwrites an existing tag record.
// The name index is rewritten if the normalized name changed.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := tagKey(t.UserID, t.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		var existing domain.Tag
		if err := getInTxn(txn, key, &existing); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		} else if err != nil {
			return err
		}

		if normalizeTagName(existing.Name) != normalizeTagName(t.Name) {
			newNameKey := tagNameKey(t.UserID, t.Name)
			if _, err := txn.Get(newNameKey); err == nil {
				return ErrTagExists
			}
			if err := txn.Delete(tagNameKey(t.UserID, existing.Name)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(newNameKey, []byte(t.ID)); err != nil {
				return err
			}
		}

		return setInTxn(txn, key, t)
	})
}

// DeleteTag hard-deletes a tag and its name index.
// The caller is responsible for detaching the tag from links first.
func (s *Store) DeleteTag(ctx context.Context, userID, tagID string) error {
	t, err := s.GetTag(ctx, userID, tagID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(tagKey(userID, tagID)); err != nil {
			return err
		}
		if err := txn.Delete(tagNameKey(userID, t.Name)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}

// FindOrCreateTag atomically finds an existing tag by name or creates a new one.
// Returns (tag, created, error) where created is true if a new tag was made.
func (s *Store) FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	// Try to find existing tag first (optimistic read).
	existing, err := s.GetTagByName(ctx, userID, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrTagNotFound) {
		return nil, false, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	t := &domain.Tag{
		ID:        tagID,
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.CreateTag(ctx, t); err != nil {
		if errors.Is(err, ErrTagExists) {
			// Race condition: another goroutine created it.
			existing, err := s.GetTagByName(ctx, userID, name)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return t, true, nil
}

// AdjustTagLinkCount changes a tag's link count by delta and stamps usage.
func (s *Store) AdjustTagLinkCount(ctx context.Context, userID, tagID string, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := tagKey(userID, tagID)

	return s.db.Update(func(txn *badger.Txn) error {
		var t domain.Tag
		if err := getInTxn(txn, key, &t); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		} else if err != nil {
			return err
		}

		t.LinkCount += delta
		if t.LinkCount < 0 {
			t.LinkCount = 0 // Safety guard.
		}
		if delta > 0 {
			t.MarkUsed()
		}
		t.UpdatedAt = time.Now()

		return setInTxn(txn, key, &t)
	})
}
