package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkstashapp/linkstash-server/internal/domain"
)

func TestGetUsageSummary_EmptyMonth(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Get("/api/v1/usage/summary", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	summary := decodeEnvelope[UsageSummaryResponse](t, resp.Body.Bytes())
	assert.Equal(t, time.Now().Format("2006-01"), summary.Data.Month)
	assert.Zero(t, summary.Data.TotalRequests)
	assert.Zero(t, summary.Data.TotalTokens)
}

func TestGetUsageSummary_AfterRecordedUsage(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerTestUser(t, "alice@example.com")
	ctx := context.Background()

	require.NoError(t, ts.services.Usage.Record(ctx, userID, domain.UsageTypeTagGeneration, 120, domain.PlanFree))
	require.NoError(t, ts.services.Usage.Record(ctx, userID, domain.UsageTypeEntityExtraction, 80, domain.PlanFree))

	resp := ts.api.Get("/api/v1/usage/summary", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	summary := decodeEnvelope[UsageSummaryResponse](t, resp.Body.Bytes())
	assert.Equal(t, 2, summary.Data.TotalRequests)
	assert.Equal(t, 200, summary.Data.TotalTokens)

	today := time.Now().Format("2006-01-02")
	assert.Equal(t, 2, summary.Data.DailyRequests[today])
}

func TestGetUsageSummary_ExplicitMonth(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Get("/api/v1/usage/summary?month=2024-03", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	summary := decodeEnvelope[UsageSummaryResponse](t, resp.Body.Bytes())
	assert.Equal(t, "2024-03", summary.Data.Month)
	assert.Zero(t, summary.Data.TotalRequests)
}
