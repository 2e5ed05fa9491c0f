package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

// Key prefix for tag suggestion cache entries.
// Entries are user-scoped: the same page content cached for one user is
// never served to another.
const suggestionCachePrefix = "tagcache:" // tagcache:{userID}:{contentHash} → SuggestionCacheEntry JSON

// Cache errors.
var ErrCacheMiss = errors.New("cache miss")

func suggestionCacheKey(userID, contentHash string) []byte {
	return []byte(suggestionCachePrefix + userID + ":" + contentHash)
}

// GetSuggestionCache retrieves a cached tag suggestion for the user and content hash.
// Returns ErrCacheMiss for absent or expired entries. Badger's TTL reclaims
// expired entries lazily, so freshness is re-checked on read.
func (s *Store) GetSuggestionCache(ctx context.Context, userID, contentHash string) (*domain.SuggestionCacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry domain.SuggestionCacheEntry
	err := s.get(suggestionCacheKey(userID, contentHash), &entry)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	if !entry.IsFresh(time.Now()) {
		return nil, ErrCacheMiss
	}

	return &entry, nil
}

// PutSuggestionCache stores a tag suggestion with the standard TTL.
func (s *Store) PutSuggestionCache(ctx context.Context, userID string, entry *domain.SuggestionCacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(suggestionCacheKey(userID, entry.ContentHash), data).
			WithTTL(domain.SuggestionCacheTTL)
		return txn.SetEntry(e)
	})
}

// TouchSuggestionCache records a cache hit, bumping usage count and last-used
// time without extending the entry's expiry.
func (s *Store) TouchSuggestionCache(ctx context.Context, userID, contentHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := suggestionCacheKey(userID, contentHash)

	return s.db.Update(func(txn *badger.Txn) error {
		var entry domain.SuggestionCacheEntry
		if err := getInTxn(txn, key, &entry); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCacheMiss
		} else if err != nil {
			return err
		}

		now := time.Now()
		entry.UsageCount++
		entry.LastUsedAt = now

		remaining := entry.CreatedAt.Add(domain.SuggestionCacheTTL).Sub(now)
		if remaining <= 0 {
			return ErrCacheMiss
		}

		data, err := json.Marshal(&entry)
		if err != nil {
			return err
		}

		e := badger.NewEntry(key, data).WithTTL(remaining)
		return txn.SetEntry(e)
	})
}

// ClearSuggestionCache removes all cached suggestions for a user.
func (s *Store) ClearSuggestionCache(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(suggestionCachePrefix + userID + ":")
	var keys [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keyCopy := make([]byte, len(it.Item().Key()))
			copy(keyCopy, it.Item().Key())
			keys = append(keys, keyCopy)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(keys), nil
}
