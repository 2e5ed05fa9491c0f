package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkstashapp/linkstash-server/internal/ai"
	"github.com/linkstashapp/linkstash-server/internal/domain"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
)

// fakeModel starts a generateContent stub that always replies with the
// given comma-separated lines (first call tags, second call entities).
func fakeModel(t *testing.T, tagReply, entityReply string) *ai.Client {
	t.Helper()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		reply := tagReply
		if calls > 1 {
			reply = entityReply
		}
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}],"usageMetadata":{"totalTokenCount":25}}`, reply)
	}))
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ai.NewClient(ai.Config{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: server.URL,
	}, logger, server.Client())
}

func suggestEnvWithAI(t *testing.T, client *ai.Client) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.suggest = NewSuggestService(env.store, nil, client, env.usage, logger)
	return env
}

const longDescription = "A detailed walkthrough of structuring Go services, with worked examples covering packages, dependency wiring, and testing practices."

func TestSuggestService_DomainTagsFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	resp, err := env.suggest.Suggest(ctx, user, SuggestRequest{
		URL:   "https://github.com/user/repo",
		Title: "A code repository",
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(resp.Tags), 2)
	assert.Equal(t, "GitHub", resp.Tags[0])
	assert.Equal(t, "code", resp.Tags[1])
	assert.False(t, resp.FromCache)
	assert.Zero(t, resp.TokensUsed, "no model configured")
}

func TestSuggestService_CacheHit(t *testing.T) {
	env := suggestEnvWithAI(t, fakeModel(t, "docker, kubernetes", "Docker Inc"))
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	req := SuggestRequest{
		URL:         "https://example.com/post",
		Title:       "Docker and Kubernetes in production",
		Description: longDescription,
	}

	first, err := env.suggest.Suggest(ctx, user, req)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := env.suggest.Suggest(ctx, user, req)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Tags, second.Tags)
	assert.Zero(t, second.TokensUsed)

	// Whitespace and casing differences hit the same entry.
	req.Title = "  docker AND kubernetes  in production "
	third, err := env.suggest.Suggest(ctx, user, req)
	require.NoError(t, err)
	assert.True(t, third.FromCache)
}

func TestSuggestService_CacheScopedPerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, domain.PlanFree)
	bob := env.createUser(t, domain.PlanFree)

	req := SuggestRequest{
		URL:   "https://example.com/post",
		Title: "Docker in production",
	}

	_, err := env.suggest.Suggest(ctx, alice, req)
	require.NoError(t, err)

	resp, err := env.suggest.Suggest(ctx, bob, req)
	require.NoError(t, err)
	assert.False(t, resp.FromCache, "cache entries never cross users")
}

func TestSuggestService_AITagsAndUsage(t *testing.T) {
	env := suggestEnvWithAI(t, fakeModel(t, "golang, architecture, testing", "Google, Kubernetes"))
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	resp, err := env.suggest.Suggest(ctx, user, SuggestRequest{
		URL:         "https://example.com/post",
		Title:       "Structuring Go services",
		Description: longDescription,
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Tags, "golang")
	assert.Contains(t, resp.Tags, "Google")
	assert.LessOrEqual(t, len(resp.Tags), domain.PlanFree.Limits().MaxSuggestedTags)
	assert.Equal(t, 50, resp.TokensUsed)
	assert.InDelta(t, 2*domain.PlanFree.Limits().CostPerRequest, resp.Cost, 1e-9)

	// Both calls were metered.
	summary, err := env.usage.GetSummary(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalRequests)
	assert.Equal(t, 50, summary.TotalTokens)
}

func TestSuggestService_ShortContentSkipsModel(t *testing.T) {
	failing := func() *ai.Client {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("model must not be called for short content")
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		return ai.NewClient(ai.Config{APIKey: "k", BaseURL: server.URL}, logger, server.Client())
	}

	env := suggestEnvWithAI(t, failing())
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	resp, err := env.suggest.Suggest(ctx, user, SuggestRequest{
		URL:   "https://example.com/x",
		Title: "Docker",
	})
	require.NoError(t, err)

	// Fallback vocabulary still applies.
	assert.Contains(t, resp.Tags, "Docker")
	assert.Zero(t, resp.TokensUsed)

	// The cheap path is the canonical answer for short content, so it
	// is cached like a model answer.
	again, err := env.suggest.Suggest(ctx, user, SuggestRequest{
		URL:   "https://example.com/x",
		Title: "Docker",
	})
	require.NoError(t, err)
	assert.True(t, again.FromCache)
}

func TestSuggestService_QuotaDeniedSurfaced(t *testing.T) {
	env := suggestEnvWithAI(t, fakeModel(t, "never-used", "never-used"))
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	for range domain.PlanFree.Limits().DailyAIRequests {
		require.NoError(t, env.usage.Record(ctx, user.ID, domain.UsageTypeTagGeneration, 10, user.Plan))
	}

	resp, err := env.suggest.Suggest(ctx, user, SuggestRequest{
		URL:         "https://example.com/post",
		Title:       "Docker and Kubernetes in production",
		Description: longDescription,
	})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domainerrors.ErrQuotaExceeded)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Message, "daily")

	// The denied request left nothing behind in the cache.
	cleared, err := env.suggest.ClearCache(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, cleared)
}

func TestSuggestService_ModelFailureFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := ai.NewClient(ai.Config{APIKey: "k", BaseURL: server.URL}, logger, server.Client())

	env := suggestEnvWithAI(t, client)
	t.Cleanup(server.Close)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	resp, err := env.suggest.Suggest(ctx, user, SuggestRequest{
		URL:         "https://example.com/post",
		Title:       "Docker and Kubernetes in production",
		Description: longDescription,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Tags)
	assert.Zero(t, resp.TokensUsed)

	// Failed calls are not metered.
	summary, err := env.usage.GetSummary(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalRequests)

	// The degraded result was not cached; the next identical request
	// consults the model again instead of replaying fallback tags.
	again, err := env.suggest.Suggest(ctx, user, SuggestRequest{
		URL:         "https://example.com/post",
		Title:       "Docker and Kubernetes in production",
		Description: longDescription,
	})
	require.NoError(t, err)
	assert.False(t, again.FromCache)
}

func TestSuggestService_DegradedResultNotCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	req := SuggestRequest{
		URL:         "https://example.com/post",
		Title:       "Docker and Kubernetes in production",
		Description: longDescription,
	}

	// No model configured and enough content to warrant one: the
	// heuristic answer must stay out of the cache so a later configured
	// model is actually consulted.
	first, err := env.suggest.Suggest(ctx, user, req)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := env.suggest.Suggest(ctx, user, req)
	require.NoError(t, err)
	assert.False(t, second.FromCache)

	model := fakeModel(t, "golang, containers", "Kubernetes")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.suggest = NewSuggestService(env.store, nil, model, env.usage, logger)

	third, err := env.suggest.Suggest(ctx, user, req)
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Contains(t, third.Tags, "golang")
	assert.Positive(t, third.TokensUsed)

	// The model-backed answer is cached as usual.
	fourth, err := env.suggest.Suggest(ctx, user, req)
	require.NoError(t, err)
	assert.True(t, fourth.FromCache)
	assert.Equal(t, third.Tags, fourth.Tags)
}

func TestSuggestService_PlusPlanGetsMoreTags(t *testing.T) {
	env := suggestEnvWithAI(t, fakeModel(t,
		"one, two, three, four, five, six, seven, eight",
		"Nine, Ten",
	))
	ctx := context.Background()
	user := env.createUser(t, domain.PlanPlus)

	resp, err := env.suggest.Suggest(ctx, user, SuggestRequest{
		URL:         "https://example.com/post",
		Title:       "A long enough piece of writing about many topics",
		Description: longDescription,
	})
	require.NoError(t, err)

	assert.Greater(t, len(resp.Tags), domain.PlanFree.Limits().MaxSuggestedTags)
	assert.LessOrEqual(t, len(resp.Tags), domain.PlanPlus.Limits().MaxSuggestedTags)
}

func TestSuggestService_ClearCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, domain.PlanFree)

	req := SuggestRequest{URL: "https://example.com/post", Title: "Docker notes"}
	_, err := env.suggest.Suggest(ctx, user, req)
	require.NoError(t, err)

	cleared, err := env.suggest.ClearCache(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	resp, err := env.suggest.Suggest(ctx, user, req)
	require.NoError(t, err)
	assert.False(t, resp.FromCache)
}
