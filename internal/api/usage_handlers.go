package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerUsageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getUsageSummary",
		Method:      http.MethodGet,
		Path:        "/api/v1/usage/summary",
		Summary:     "Get usage summary",
		Description: "Returns the user's AI usage for a month (defaults to the current month)",
		Tags:        []string{"Usage"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetUsageSummary)
}

// GetUsageSummaryInput contains parameters for the usage summary.
type GetUsageSummaryInput struct {
	Authorization string `header:"Authorization"`
	Month         string `query:"month" doc:"Month bucket (2006-01), defaults to current"`
}

// UsageSummaryResponse contains aggregated AI usage for one month.
type UsageSummaryResponse struct {
	Month         string         `json:"month" doc:"Month bucket (2006-01)"`
	TotalRequests int            `json:"total_requests" doc:"AI requests this month"`
	TotalTokens   int            `json:"total_tokens" doc:"Model tokens this month"`
	TotalCost     float64        `json:"total_cost" doc:"Metered cost this month"`
	DailyRequests map[string]int `json:"daily_requests,omitempty" doc:"Requests per day"`
}

// UsageSummaryOutput wraps the usage summary for Huma.
type UsageSummaryOutput struct {
	Body UsageSummaryResponse
}

func (s *Server) handleGetUsageSummary(ctx context.Context, input *GetUsageSummaryInput) (*UsageSummaryOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	summary, err := s.services.Usage.GetSummary(ctx, user.ID, input.Month)
	if err != nil {
		return nil, err
	}

	return &UsageSummaryOutput{
		Body: UsageSummaryResponse{
			Month:         summary.Month,
			TotalRequests: summary.TotalRequests,
			TotalTokens:   summary.TotalTokens,
			TotalCost:     summary.TotalCost,
			DailyRequests: summary.DailyRequests,
		},
	}, nil
}
