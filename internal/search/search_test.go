package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{
		DataPath: t.TempDir(),
		Logger:   nil,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func TestNewSearchIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_IndexAndDeleteLink(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	link := &domain.Link{
		ID:        "link_1",
		UserID:    "user_1",
		URL:       "https://example.com/go-concurrency",
		Title:     "Go Concurrency Patterns",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	require.NoError(t, index.IndexLink(ctx, link, []string{"golang", "concurrency"}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	require.NoError(t, index.DeleteLink(ctx, "link_1"))

	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Search_UserScoped(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	docs := []*LinkDocument{
		{ID: "link_1", UserID: "user_1", URL: "https://a.example", Title: "Go Concurrency Patterns"},
		{ID: "link_2", UserID: "user_1", URL: "https://b.example", Title: "Sourdough Starter Guide"},
		{ID: "link_3", UserID: "user_2", URL: "https://c.example", Title: "Concurrency in Practice"},
	}
	require.NoError(t, index.IndexDocuments(docs))

	params := DefaultSearchParams()
	params.UserID = "user_1"
	params.Query = "concurrency"

	result, err := index.Search(ctx, params)
	require.NoError(t, err)

	require.Len(t, result.Hits, 1)
	assert.Equal(t, "link_1", result.Hits[0].ID)
	assert.Equal(t, "Go Concurrency Patterns", result.Hits[0].Title)
}

func TestSearchIndex_Search_RequiresUser(t *testing.T) {
	index := setupTestIndex(t)

	params := DefaultSearchParams()
	params.Query = "anything"

	_, err := index.Search(context.Background(), params)
	assert.Error(t, err)
}

func TestSearchIndex_Search_TagFilter(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	docs := []*LinkDocument{
		{ID: "link_1", UserID: "user_1", Title: "Post One", Tags: []string{"golang"}},
		{ID: "link_2", UserID: "user_1", Title: "Post Two", Tags: []string{"recipes"}},
	}
	require.NoError(t, index.IndexDocuments(docs))

	params := DefaultSearchParams()
	params.UserID = "user_1"
	params.Tags = []string{"golang"}

	result, err := index.Search(ctx, params)
	require.NoError(t, err)

	require.Len(t, result.Hits, 1)
	assert.Equal(t, "link_1", result.Hits[0].ID)
	assert.Equal(t, []string{"golang"}, result.Hits[0].Tags)
}

func TestSearchIndex_Search_ExcludesArchivedByDefault(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	docs := []*LinkDocument{
		{ID: "link_1", UserID: "user_1", Title: "Active reading list"},
		{ID: "link_2", UserID: "user_1", Title: "Archived reading list", IsArchived: true},
	}
	require.NoError(t, index.IndexDocuments(docs))

	params := DefaultSearchParams()
	params.UserID = "user_1"
	params.Query = "reading"

	result, err := index.Search(ctx, params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "link_1", result.Hits[0].ID)

	params.IncludeArchived = true
	result, err = index.Search(ctx, params)
	require.NoError(t, err)
	assert.Len(t, result.Hits, 2)
}

func TestSearchIndex_Search_SortRecent(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	now := time.Now()
	docs := []*LinkDocument{
		{ID: "link_old", UserID: "user_1", Title: "Old Post", CreatedAt: now.Add(-time.Hour).UnixMilli()},
		{ID: "link_new", UserID: "user_1", Title: "New Post", CreatedAt: now.UnixMilli()},
	}
	require.NoError(t, index.IndexDocuments(docs))

	params := DefaultSearchParams()
	params.UserID = "user_1"
	params.SortBy = "recent"

	result, err := index.Search(ctx, params)
	require.NoError(t, err)

	require.Len(t, result.Hits, 2)
	assert.Equal(t, "link_new", result.Hits[0].ID)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.IndexDocument(&LinkDocument{
		ID: "link_1", UserID: "user_1", Title: "Anything",
	}))

	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
