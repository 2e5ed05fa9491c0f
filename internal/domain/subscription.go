package domain

import "time"

// SubscriptionStatus is the provider-reported lifecycle state.
type SubscriptionStatus string

// Subscription statuses.
const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusRevoked  SubscriptionStatus = "revoked"
	SubscriptionStatusGrace    SubscriptionStatus = "grace_period"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

// SubscriptionProvider identifies the payment provider of record.
type SubscriptionProvider string

// Subscription providers.
const (
	ProviderApple  SubscriptionProvider = "apple"
	ProviderStripe SubscriptionProvider = "stripe"
)

// Subscription is the single billing record for a user.
// It is mutated only by webhook lifecycle events and drives plan-limit
// enforcement everywhere else.
type Subscription struct {
	UserID         string               `json:"user_id"`
	Plan           Plan                 `json:"plan"`
	Status         SubscriptionStatus   `json:"status"`
	ExpirationDate time.Time            `json:"expiration_date,omitzero"`
	Provider       SubscriptionProvider `json:"provider,omitempty"`
	// ProviderRef is the provider-side identity: an Apple original
	// transaction ID or a Stripe subscription ID.
	ProviderRef string    `json:"provider_ref,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsActive reports whether the subscription currently grants its plan.
func (s *Subscription) IsActive(now time.Time) bool {
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusGrace {
		return false
	}
	return s.ExpirationDate.IsZero() || now.Before(s.ExpirationDate)
}

// EffectivePlan returns the plan the user should be treated as having now.
func (s *Subscription) EffectivePlan(now time.Time) Plan {
	if s == nil || !s.IsActive(now) {
		return PlanFree
	}
	return s.Plan
}

// ProcessedNotification records a handled webhook delivery for idempotency.
// A replayed notification UUID is acknowledged without reapplying changes.
type ProcessedNotification struct {
	NotificationUUID string    `json:"notification_uuid"`
	Type             string    `json:"type"`
	ProcessedAt      time.Time `json:"processed_at"`
}
