package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

// Key prefixes for user storage.
const (
	userPrefix        = "user:"           // user:{id} → User JSON
	userByEmailPrefix = "idx:user:email:" // idx:user:email:{email} → userID
)

// User errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// normalizeEmail lowercases and trims an email for case-insensitive lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new user and indexes them by email.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	emailKey := []byte(userByEmailPrefix + normalizeEmail(u.Email))

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey); err == nil {
			return ErrUserExists
		}

		if err := setInTxn(txn, []byte(userPrefix+u.ID), u); err != nil {
			return err
		}

		return txn.Set(emailKey, []byte(u.ID))
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var u domain.User
	err := s.get([]byte(userPrefix+userID), &u)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by their email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userByEmailPrefix + normalizeEmail(email)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, userID)
}

// ListUsers returns every user. Used by admin backup export.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var users []*domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(userPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(userPrefix)); it.ValidForPrefix([]byte(userPrefix)); it.Next() {
			var u domain.User
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &u)
			})
			if err != nil {
				continue
			}
			users = append(users, &u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser overwrites an existing user record.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(userPrefix + u.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		} else if err != nil {
			return err
		}
		return setInTxn(txn, key, u)
	})
}
