package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	"github.com/linkstashapp/linkstash-server/internal/search"
	"github.com/linkstashapp/linkstash-server/internal/store"
)

// SearchService runs user-scoped link searches and reindexing.
type SearchService struct {
	store  *store.Store
	index  *search.SearchIndex
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(store *store.Store, index *search.SearchIndex, logger *slog.Logger) *SearchService {
	return &SearchService{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// Search executes a full-text query over the user's links.
func (s *SearchService) Search(ctx context.Context, userID string, params search.SearchParams) (*search.SearchResult, error) {
	params.UserID = userID
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	return s.index.Search(ctx, params)
}

// DocumentCount returns the number of indexed documents. Used by health
// checks.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexUser re-indexes every link of a user, resolving current tag names.
// Used after an import or to repair drift between the store and the index.
func (s *SearchService) ReindexUser(ctx context.Context, userID string) (int, error) {
	links, err := s.store.ListLinks(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list links: %w", err)
	}

	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list tags: %w", err)
	}
	tagNames := lo.SliceToMap(tags, func(t *domain.Tag) (string, string) {
		return t.ID, t.Name
	})

	docs := make([]*search.LinkDocument, 0, len(links))
	for _, link := range links {
		names := make([]string, 0, len(link.TagIDs))
		for _, tagID := range link.TagIDs {
			if name, ok := tagNames[tagID]; ok {
				names = append(names, name)
			}
		}
		docs = append(docs, search.LinkToDocument(link, names))
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return 0, fmt.Errorf("index documents: %w", err)
	}

	s.logger.Info("reindexed user links", "user_id", userID, "count", len(docs))
	return len(docs), nil
}
