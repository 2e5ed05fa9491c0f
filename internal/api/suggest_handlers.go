package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linkstashapp/linkstash-server/internal/service"
)

func (s *Server) registerSuggestRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "suggestTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/suggest/tags",
		Summary:     "Suggest tags",
		Description: "Runs the tag suggestion pipeline for a URL: cache, content fetch, heuristics, quota-gated model calls, and merge",
		Tags:        []string{"Suggestions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSuggestTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearSuggestionCache",
		Method:      http.MethodDelete,
		Path:        "/api/v1/suggest/cache",
		Summary:     "Clear suggestion cache",
		Description: "Drops all cached suggestions for the current user",
		Tags:        []string{"Suggestions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleClearSuggestionCache)
}

// === DTOs ===

// SuggestTagsRequest is the request body for tag suggestions.
type SuggestTagsRequest struct {
	URL         string `json:"url" validate:"required,max=2048" doc:"URL to suggest tags for"`
	Title       string `json:"title,omitempty" validate:"omitempty,max=500" doc:"Known title, if any"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000" doc:"Known description, if any"`
}

// SuggestTagsInput wraps the suggest request for Huma.
type SuggestTagsInput struct {
	Authorization string `header:"Authorization"`
	Body          SuggestTagsRequest
}

// SuggestTagsResponse contains the suggestion pipeline output.
type SuggestTagsResponse struct {
	Tags       []string `json:"tags" doc:"Suggested tags, highest priority first"`
	FromCache  bool     `json:"from_cache" doc:"Whether the result came from the suggestion cache"`
	TokensUsed int      `json:"tokens_used" doc:"Model tokens consumed by this request"`
	Cost       float64  `json:"cost" doc:"Metered cost of this request"`
}

// SuggestTagsOutput wraps the suggest response for Huma.
type SuggestTagsOutput struct {
	Body SuggestTagsResponse
}

// ClearCacheInput contains parameters for clearing the suggestion cache.
type ClearCacheInput struct {
	Authorization string `header:"Authorization"`
}

// ClearCacheResponse reports how many cache entries were dropped.
type ClearCacheResponse struct {
	Cleared int `json:"cleared" doc:"Number of cache entries removed"`
}

// ClearCacheOutput wraps the clear cache response for Huma.
type ClearCacheOutput struct {
	Body ClearCacheResponse
}

// === Handlers ===

func (s *Server) handleSuggestTags(ctx context.Context, input *SuggestTagsInput) (*SuggestTagsOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Suggest.Suggest(ctx, user, service.SuggestRequest{
		URL:         input.Body.URL,
		Title:       input.Body.Title,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}

	return &SuggestTagsOutput{
		Body: SuggestTagsResponse{
			Tags:       resp.Tags,
			FromCache:  resp.FromCache,
			TokensUsed: resp.TokensUsed,
			Cost:       resp.Cost,
		},
	}, nil
}

func (s *Server) handleClearSuggestionCache(ctx context.Context, input *ClearCacheInput) (*ClearCacheOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	cleared, err := s.services.Suggest.ClearCache(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &ClearCacheOutput{Body: ClearCacheResponse{Cleared: cleared}}, nil
}
