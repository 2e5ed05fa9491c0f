package api

import (
	"encoding/hex"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/linkstashapp/linkstash-server/internal/auth"
	"github.com/linkstashapp/linkstash-server/internal/backup"
	"github.com/linkstashapp/linkstash-server/internal/search"
	"github.com/linkstashapp/linkstash-server/internal/service"
	"github.com/linkstashapp/linkstash-server/internal/store"
)

const testWebhookSecret = "api-test-webhook-secret"

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer builds a server over a temp store with all services wired
// and no external clients (fetcher and model stay nil).
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(filepath.Join(tmpDir, "db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(tmpDir, "search"),
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, logger)
	tagService := service.NewTagService(st, logger)
	linkService := service.NewLinkService(st, tagService, logger)
	usageService := service.NewUsageService(st, logger)
	suggestService := service.NewSuggestService(st, nil, nil, usageService, logger)
	subscriptionService := service.NewSubscriptionService(st, tagService, testWebhookSecret, logger)
	searchService := service.NewSearchService(st, index, logger)
	importService := service.NewImportService(linkService, logger)

	services := &Services{
		Auth:         authService,
		Link:         linkService,
		Tag:          tagService,
		Suggest:      suggestService,
		Usage:        usageService,
		Subscription: subscriptionService,
		Search:       searchService,
		Import:       importService,
	}

	backupService := backup.NewBackupService(st, filepath.Join(tmpDir, "backups"), "test", "dev", logger)
	restoreService := backup.NewRestoreService(st, logger)

	s := NewServer(st, services, nil, backupService, restoreService, logger)
	// Credential-endpoint limits would trip multi-user tests.
	s.authRateLimiter = nil

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// registerTestUser registers a user through the API and returns the access
// token and user ID.
func (ts *testServer) registerTestUser(t *testing.T, email string) (token, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "correct-horse-battery",
		"display_name": "Test User",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)

	return envelope.Data.AccessToken, envelope.Data.User.ID
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}
