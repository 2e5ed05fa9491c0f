package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query. UserID is mandatory; the index is
// shared across users and every query is filtered to the owner.
type SearchParams struct {
	UserID string
	Query  string

	// Filters
	Tags            []string // Exact tag names, OR across values
	IncludeArchived bool

	// Pagination
	Limit  int
	Offset int

	// Sorting: "relevance", "recent", "title"
	SortBy    string
	SortOrder string // "asc", "desc"

	Highlight bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Offset:    0,
		SortBy:    "relevance",
		SortOrder: "desc",
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID          string            `json:"id"`
	Score       float64           `json:"score"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query scoped to one user.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.UserID == "" {
		return nil, fmt.Errorf("search requires a user ID")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	addSorting(searchRequest, params)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("description")
	}

	searchRequest.Fields = []string{"id", "url", "title", "description", "tags"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if u, ok := hit.Fields["url"].(string); ok {
			searchHit.URL = u
		}
		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if d, ok := hit.Fields["description"].(string); ok {
			searchHit.Description = d
		}
		// A single stored tag comes back as a string, multiple as a slice.
		switch tags := hit.Fields["tags"].(type) {
		case string:
			searchHit.Tags = []string{tags}
		case []interface{}:
			for _, tag := range tags {
				if name, ok := tag.(string); ok {
					searchHit.Tags = append(searchHit.Tags, name)
				}
			}
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Owner filter always applies first.
	userQuery := bleve.NewTermQuery(params.UserID)
	userQuery.SetField("user_id")
	queries = append(queries, userQuery)

	if params.Query != "" {
		textQueries := []query.Query{}

		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		tagMatch := bleve.NewTermQuery(params.Query)
		tagMatch.SetField("tags")
		tagMatch.SetBoost(2.0)
		textQueries = append(textQueries, tagMatch)

		// Typo tolerance on the title.
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars).
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Tag filter (exact match, OR across names).
	if len(params.Tags) > 0 {
		tagQueries := make([]query.Query, len(params.Tags))
		for i, tag := range params.Tags {
			tq := bleve.NewTermQuery(tag)
			tq.SetField("tags")
			tagQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(tagQueries...))
	}

	if !params.IncludeArchived {
		archived := false
		boolQuery := bleve.NewBoolFieldQuery(archived)
		boolQuery.SetField("is_archived")
		queries = append(queries, boolQuery)
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "title":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-title"})
		} else {
			req.SortBy([]string{"title"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	default:
		req.SortBy([]string{"-_score"})
	}
}
