package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

// Key prefixes for session storage.
const (
	sessionPrefix        = "session:"           // session:{id} → Session JSON
	sessionByTokenPrefix = "idx:session:token:" // idx:session:token:{refreshTokenHash} → sessionID
	sessionByUserPrefix  = "idx:session:user:"  // idx:session:user:{userID}:{sessionID} → empty
)

// Session errors.
var ErrSessionNotFound = errors.New("session not found")

// CreateSession stores a new session with refresh token and user indexes.
func (s *Store) CreateSession(ctx context.Context, sess *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, []byte(sessionPrefix+sess.ID), sess); err != nil {
			return err
		}
		if err := txn.Set([]byte(sessionByTokenPrefix+sess.RefreshTokenHash), []byte(sess.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(sessionByUserPrefix+sess.UserID+":"+sess.ID), []byte{})
	})
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sess domain.Session
	err := s.get([]byte(sessionPrefix+sessionID), &sess)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetSessionByTokenHash retrieves a session by its refresh token hash.
func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sessionID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionByTokenPrefix + tokenHash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			sessionID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetSession(ctx, sessionID)
}

// DeleteSession removes a session and its indexes.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(sessionPrefix + sessionID)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(sessionByTokenPrefix + sess.RefreshTokenHash)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Delete([]byte(sessionByUserPrefix + sess.UserID + ":" + sessionID)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}

// DeleteUserSessions removes all sessions for a user.
// Used on logout-everywhere and account-level revocation.
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := sessionByUserPrefix + userID + ":"
	var sessionIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			key := string(it.Item().Key())
			sessionIDs = append(sessionIDs, strings.TrimPrefix(key, prefix))
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, sessionID := range sessionIDs {
		if err := s.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return err
		}
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose refresh window has passed.
// Returns how many were deleted.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := time.Now()
	var expired []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(sessionPrefix)); it.ValidForPrefix([]byte(sessionPrefix)); it.Next() {
			var sess domain.Session
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sess)
			})
			if err != nil {
				continue
			}
			if sess.ExpiresAt.Before(now) {
				expired = append(expired, sess.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, sessionID := range expired {
		if err := s.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
