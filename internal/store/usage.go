package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

// Key prefixes for AI usage metering.
const (
	usageSummaryPrefix = "usage:sum:" // usage:sum:{userID}:{month} → UsageSummary JSON
	usageRecordPrefix  = "usage:rec:" // usage:rec:{userID}:{month}:{recordID} → UsageRecord JSON
)

func usageSummaryKey(userID, month string) []byte {
	return []byte(usageSummaryPrefix + userID + ":" + month)
}

// RecordUsage stores a usage record and increments the monthly summary in
// the same transaction, so the counters a quota check reads can never drift
// from the records behind them.
func (s *Store) RecordUsage(ctx context.Context, rec *domain.UsageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	recKey := []byte(usageRecordPrefix + rec.UserID + ":" + rec.Month + ":" + rec.ID)
	sumKey := usageSummaryKey(rec.UserID, rec.Month)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, recKey, rec); err != nil {
			return err
		}

		var summary domain.UsageSummary
		err := getInTxn(txn, sumKey, &summary)
		if errors.Is(err, badger.ErrKeyNotFound) {
			summary = domain.UsageSummary{
				UserID: rec.UserID,
				Month:  rec.Month,
			}
		} else if err != nil {
			return err
		}

		if summary.DailyRequests == nil {
			summary.DailyRequests = make(map[string]int)
		}

		summary.TotalRequests++
		summary.TotalTokens += rec.Tokens
		summary.TotalCost += rec.Cost
		summary.DailyRequests[rec.Day]++
		summary.UpdatedAt = time.Now()

		return setInTxn(txn, sumKey, &summary)
	})
}

// GetUsageSummary returns the user's usage summary for a month.
// A user with no recorded usage gets a zero-valued summary, not an error.
func (s *Store) GetUsageSummary(ctx context.Context, userID, month string) (*domain.UsageSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var summary domain.UsageSummary
	err := s.get(usageSummaryKey(userID, month), &summary)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &domain.UsageSummary{
			UserID:        userID,
			Month:         month,
			DailyRequests: make(map[string]int),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if summary.DailyRequests == nil {
		summary.DailyRequests = make(map[string]int)
	}

	return &summary, nil
}

// ListUsageRecords returns a user's usage records for a month, oldest first.
func (s *Store) ListUsageRecords(ctx context.Context, userID, month string) ([]*domain.UsageRecord, error) {
	return s.listUsageRecords(ctx, usageRecordPrefix+userID+":"+month+":")
}

// ListAllUsageRecords returns every usage record of a user across months.
// Used by admin backup export.
func (s *Store) ListAllUsageRecords(ctx context.Context, userID string) ([]*domain.UsageRecord, error) {
	return s.listUsageRecords(ctx, usageRecordPrefix+userID+":")
}

func (s *Store) listUsageRecords(ctx context.Context, keyPrefix string) ([]*domain.UsageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(keyPrefix)
	var records []*domain.UsageRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec domain.UsageRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				continue
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	return records, nil
}
