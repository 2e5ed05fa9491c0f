package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linkstashapp/linkstash-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchLinks",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search links",
		Description: "Full-text search over the user's links",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchLinks)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexLinks",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/reindex",
		Summary:     "Reindex links",
		Description: "Rebuilds the search index entries for the current user",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReindexLinks)
}

// === DTOs ===

// SearchInput contains search parameters.
type SearchInput struct {
	Authorization   string   `header:"Authorization"`
	Query           string   `query:"q" doc:"Search query"`
	Tags            []string `query:"tags" doc:"Filter to links carrying any of these tag names"`
	IncludeArchived bool     `query:"include_archived" doc:"Include archived links"`
	Limit           int      `query:"limit" doc:"Page size (default 20, max 100)"`
	Offset          int      `query:"offset" doc:"Result offset"`
	SortBy          string   `query:"sort" doc:"Sort order: relevance, recent, or title"`
}

// SearchHitResponse is a single search result.
type SearchHitResponse struct {
	ID          string            `json:"id" doc:"Link ID"`
	Score       float64           `json:"score" doc:"Relevance score"`
	URL         string            `json:"url" doc:"Link URL"`
	Title       string            `json:"title" doc:"Link title"`
	Description string            `json:"description,omitempty" doc:"Link description"`
	Tags        []string          `json:"tags,omitempty" doc:"Tag names"`
	Highlights  map[string]string `json:"highlights,omitempty" doc:"Highlighted fragments per field"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string              `json:"query" doc:"Echoed query"`
	Total  uint64              `json:"total" doc:"Total matching links"`
	TookMs int64               `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResponse `json:"hits" doc:"Matching links"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// ReindexInput contains parameters for a reindex.
type ReindexInput struct {
	Authorization string `header:"Authorization"`
}

// ReindexResponse reports how many links were reindexed.
type ReindexResponse struct {
	Indexed int `json:"indexed" doc:"Number of links reindexed"`
}

// ReindexOutput wraps the reindex response for Huma.
type ReindexOutput struct {
	Body ReindexResponse
}

// === Handlers ===

func (s *Server) handleSearchLinks(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Tags = input.Tags
	params.IncludeArchived = input.IncludeArchived
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset
	if input.SortBy != "" {
		params.SortBy = input.SortBy
	}

	result, err := s.services.Search.Search(ctx, user.ID, params)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResponse, len(result.Hits))
	for i, hit := range result.Hits {
		hits[i] = SearchHitResponse{
			ID:          hit.ID,
			Score:       hit.Score,
			URL:         hit.URL,
			Title:       hit.Title,
			Description: hit.Description,
			Tags:        hit.Tags,
			Highlights:  hit.Highlights,
		}
	}

	return &SearchOutput{
		Body: SearchResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}

func (s *Server) handleReindexLinks(ctx context.Context, input *ReindexInput) (*ReindexOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	indexed, err := s.services.Search.ReindexUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &ReindexOutput{Body: ReindexResponse{Indexed: indexed}}, nil
}
