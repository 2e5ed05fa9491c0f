package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
	"github.com/linkstashapp/linkstash-server/internal/store"
	"github.com/linkstashapp/linkstash-server/internal/webhook"
)

// SubscriptionService tracks billing state and applies provider webhook
// lifecycle events. Webhooks are the only writer of subscription records;
// the rest of the app reads user.Plan, which this service keeps in sync.
type SubscriptionService struct {
	store         *store.Store
	tagService    *TagService
	logger        *slog.Logger
	webhookSecret string
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(store *store.Store, tagService *TagService, webhookSecret string, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:         store,
		tagService:    tagService,
		logger:        logger,
		webhookSecret: webhookSecret,
	}
}

// GetSubscription returns the user's billing record. Users without one get
// a synthesized inactive free record rather than an error.
func (s *SubscriptionService) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			return &domain.Subscription{
				UserID: userID,
				Plan:   domain.PlanFree,
				Status: domain.SubscriptionStatusInactive,
			}, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// ProcessWebhook verifies and applies one billing notification.
//
// Error contract: a signature or parse failure is Unauthenticated (the
// provider retries with correct signing, an attacker gets nothing), a
// replayed notification is acknowledged as success without reapplying, and
// a processing failure is a plain error so the provider retries delivery.
func (s *SubscriptionService) ProcessWebhook(ctx context.Context, body []byte, signature string) error {
	if err := webhook.VerifySignature(body, signature, s.webhookSecret); err != nil {
		return domainerrors.Unauthenticated("webhook signature verification failed").WithCause(err)
	}

	notification, err := webhook.ParseNotification(body)
	if err != nil {
		return domainerrors.Unauthenticated("malformed webhook payload").WithCause(err)
	}

	processed, err := s.store.IsNotificationProcessed(ctx, notification.NotificationUUID)
	if err != nil {
		return fmt.Errorf("check notification: %w", err)
	}
	if processed {
		s.logger.Info("replayed webhook acknowledged",
			"notification_uuid", notification.NotificationUUID,
			"type", notification.Type,
		)
		return nil
	}

	tx, err := notification.DecodeTransaction()
	if err != nil {
		return domainerrors.Unauthenticated("malformed signed transaction").WithCause(err)
	}

	// The app account token carries our user ID, set at purchase time.
	userID := tx.AppAccountToken
	if userID == "" {
		return fmt.Errorf("transaction has no app account token")
	}

	if err := s.applyNotification(ctx, userID, notification, tx); err != nil {
		return fmt.Errorf("apply %s notification: %w", notification.Type, err)
	}

	// Marked last so a failed apply is retried by the provider. The
	// check-and-set runs in one transaction; a concurrent duplicate
	// delivery loses the race and is treated as a replay.
	if err := s.store.MarkNotificationProcessed(ctx, &domain.ProcessedNotification{
		NotificationUUID: notification.NotificationUUID,
		Type:             notification.Type,
		ProcessedAt:      time.Now(),
	}); err != nil && !errors.Is(err, store.ErrNotificationProcessed) {
		return fmt.Errorf("mark notification processed: %w", err)
	}

	s.logger.Info("webhook processed",
		"notification_uuid", notification.NotificationUUID,
		"type", notification.Type,
		"user_id", userID,
	)
	return nil
}

// applyNotification mutates the subscription and user plan for one event.
func (s *SubscriptionService) applyNotification(ctx context.Context, userID string, n *webhook.Notification, tx *webhook.Transaction) error {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return err
	}

	sub.Provider = domain.ProviderApple
	if tx.OriginalTransactionID != "" {
		sub.ProviderRef = tx.OriginalTransactionID
	}
	if !tx.ExpiresDate.IsZero() {
		sub.ExpirationDate = tx.ExpiresDate
	}

	switch n.Type {
	case webhook.TypeSubscribed, webhook.TypeDidRenew:
		sub.Plan = domain.PlanPlus
		sub.Status = domain.SubscriptionStatusActive
	case webhook.TypeDidFailToRenew:
		sub.Status = domain.SubscriptionStatusGrace
	case webhook.TypeExpired:
		sub.Status = domain.SubscriptionStatusExpired
	case webhook.TypeRefund, webhook.TypeRevoke:
		sub.Status = domain.SubscriptionStatusRevoked
	case webhook.TypeDidChangeStatus:
		// Auto-renew toggle, no entitlement change until expiry.
	default:
		s.logger.Warn("unhandled webhook type", "type", n.Type)
		return nil
	}

	sub.UpdatedAt = time.Now()
	if err := s.store.PutSubscription(ctx, sub); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}

	return s.syncUserPlan(ctx, userID, sub)
}

// syncUserPlan mirrors the subscription's effective plan onto the user and
// runs downgrade cleanup when the plan drops.
func (s *SubscriptionService) syncUserPlan(ctx context.Context, userID string, sub *domain.Subscription) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	effective := sub.EffectivePlan(time.Now())
	if user.Plan == effective {
		return nil
	}

	downgraded := user.Plan == domain.PlanPlus && effective == domain.PlanFree

	user.Plan = effective
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user plan: %w", err)
	}

	if downgraded {
		evicted, err := s.tagService.EnforceTagLimit(ctx, userID, effective)
		if err != nil {
			return fmt.Errorf("enforce tag limit: %w", err)
		}
		s.logger.Info("plan downgraded",
			"user_id", userID,
			"plan", effective,
			"tags_evicted", evicted,
		)
	} else {
		s.logger.Info("plan changed", "user_id", userID, "plan", effective)
	}

	return nil
}
