package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	"github.com/linkstashapp/linkstash-server/internal/id"
	"github.com/linkstashapp/linkstash-server/internal/store"
)

// UsageService meters AI invocations and answers quota questions.
//
// CheckQuota is advisory: it reads the monthly summary without locking, so a
// burst of concurrent requests can land slightly over the ceiling. The
// ceilings are cost controls, not billing guarantees, and the overshoot is
// bounded by the number of in-flight requests.
type UsageService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewUsageService creates a new usage service.
func NewUsageService(store *store.Store, logger *slog.Logger) *UsageService {
	return &UsageService{store: store, logger: logger}
}

// QuotaResult is the outcome of a quota check.
type QuotaResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CheckQuota reports whether the user may make a paid AI call right now.
func (s *UsageService) CheckQuota(ctx context.Context, userID string, plan domain.Plan) (*QuotaResult, error) {
	now := time.Now()
	limits := plan.Limits()

	summary, err := s.store.GetUsageSummary(ctx, userID, domain.MonthKey(now))
	if err != nil {
		return nil, fmt.Errorf("get usage summary: %w", err)
	}

	if summary.TotalRequests >= limits.MonthlyAIRequests {
		return &QuotaResult{
			Allowed: false,
			Reason:  fmt.Sprintf("monthly AI request limit reached (%d)", limits.MonthlyAIRequests),
		}, nil
	}

	if summary.RequestsOn(domain.DayKey(now)) >= limits.DailyAIRequests {
		return &QuotaResult{
			Allowed: false,
			Reason:  fmt.Sprintf("daily AI request limit reached (%d)", limits.DailyAIRequests),
		}, nil
	}

	return &QuotaResult{Allowed: true}, nil
}

// Record writes one usage record and bumps the monthly summary.
func (s *UsageService) Record(ctx context.Context, userID string, usageType domain.UsageType, tokens int, plan domain.Plan) error {
	recordID, err := id.Generate("usage")
	if err != nil {
		return fmt.Errorf("generate usage ID: %w", err)
	}

	now := time.Now()
	rec := &domain.UsageRecord{
		ID:        recordID,
		UserID:    userID,
		Type:      usageType,
		Tokens:    tokens,
		Cost:      plan.Limits().CostPerRequest,
		Day:       domain.DayKey(now),
		Month:     domain.MonthKey(now),
		CreatedAt: now,
	}

	if err := s.store.RecordUsage(ctx, rec); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}

	s.logger.Debug("recorded usage",
		"user_id", userID,
		"type", usageType,
		"tokens", tokens,
	)
	return nil
}

// GetSummary returns the usage summary for a month, defaulting to the
// current month when month is empty.
func (s *UsageService) GetSummary(ctx context.Context, userID, month string) (*domain.UsageSummary, error) {
	if month == "" {
		month = domain.MonthKey(time.Now())
	}
	return s.store.GetUsageSummary(ctx, userID, month)
}

// ListRecords returns the individual usage records for a month.
func (s *UsageService) ListRecords(ctx context.Context, userID, month string) ([]*domain.UsageRecord, error) {
	if month == "" {
		month = domain.MonthKey(time.Now())
	}
	return s.store.ListUsageRecords(ctx, userID, month)
}
