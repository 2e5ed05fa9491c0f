package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSubscriptionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSubscription",
		Method:      http.MethodGet,
		Path:        "/api/v1/subscription",
		Summary:     "Get subscription",
		Description: "Returns the user's subscription state",
		Tags:        []string{"Subscriptions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSubscription)

	huma.Register(s.api, huma.Operation{
		OperationID: "subscriptionWebhook",
		Method:      http.MethodPost,
		Path:        "/api/v1/webhooks/subscription",
		Summary:     "Subscription webhook",
		Description: "Receives signed subscription lifecycle notifications from the payment provider",
		Tags:        []string{"Subscriptions"},
	}, s.handleSubscriptionWebhook)
}

// === DTOs ===

// GetSubscriptionInput contains parameters for the subscription lookup.
type GetSubscriptionInput struct {
	Authorization string `header:"Authorization"`
}

// SubscriptionResponse contains subscription state in API responses.
type SubscriptionResponse struct {
	Plan           string    `json:"plan" doc:"Subscribed plan (free, plus)"`
	Status         string    `json:"status" doc:"Lifecycle status (active, grace_period, expired, revoked, inactive)"`
	ExpirationDate time.Time `json:"expiration_date,omitzero" doc:"When the current period ends"`
	Provider       string    `json:"provider,omitempty" doc:"Payment provider of record"`
}

// SubscriptionOutput wraps the subscription response for Huma.
type SubscriptionOutput struct {
	Body SubscriptionResponse
}

// WebhookInput carries the raw notification body and its detached signature.
// The body must stay untouched; the signature covers the exact bytes sent.
type WebhookInput struct {
	Signature string `header:"X-Signature" doc:"Hex HMAC-SHA256 of the request body"`
	RawBody   []byte
}

// === Handlers ===

func (s *Server) handleGetSubscription(ctx context.Context, input *GetSubscriptionInput) (*SubscriptionOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	sub, err := s.services.Subscription.GetSubscription(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &SubscriptionOutput{
		Body: SubscriptionResponse{
			Plan:           string(sub.Plan),
			Status:         string(sub.Status),
			ExpirationDate: sub.ExpirationDate,
			Provider:       string(sub.Provider),
		},
	}, nil
}

// handleSubscriptionWebhook acknowledges processed notifications with 200 so
// the provider stops retrying. Signature failures are 401; processing
// failures are 500 and the provider redelivers.
func (s *Server) handleSubscriptionWebhook(ctx context.Context, input *WebhookInput) (*MessageOutput, error) {
	if err := s.services.Subscription.ProcessWebhook(ctx, input.RawBody, input.Signature); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Notification processed"}}, nil
}
