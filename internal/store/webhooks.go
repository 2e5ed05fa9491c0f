package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

// Key prefix for processed webhook notifications, used for replay detection.
const processedNotificationPrefix = "webhook:seen:" // webhook:seen:{notificationUUID} → ProcessedNotification JSON

// Webhook errors.
var ErrNotificationProcessed = errors.New("notification already processed")

// MarkNotificationProcessed records a webhook notification UUID.
// Returns ErrNotificationProcessed if the UUID was already recorded; the
// check and the write happen in one transaction so concurrent deliveries of
// the same notification can't both claim it.
func (s *Store) MarkNotificationProcessed(ctx context.Context, n *domain.ProcessedNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(processedNotificationPrefix + n.NotificationUUID)

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrNotificationProcessed
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setInTxn(txn, key, n)
	})
}

// IsNotificationProcessed reports whether a notification UUID has been seen.
func (s *Store) IsNotificationProcessed(ctx context.Context, notificationUUID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists([]byte(processedNotificationPrefix + notificationUUID))
}
