package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

// Key prefix for subscription storage. One subscription record per user.
const subscriptionPrefix = "sub:" // sub:{userID} → Subscription JSON

// Subscription errors.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// GetSubscription retrieves a user's subscription record.
func (s *Store) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sub domain.Subscription
	err := s.get([]byte(subscriptionPrefix+userID), &sub)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// PutSubscription stores or replaces a user's subscription record.
func (s *Store) PutSubscription(ctx context.Context, sub *domain.Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte(subscriptionPrefix+sub.UserID), sub)
}
