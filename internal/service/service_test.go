package service

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linkstashapp/linkstash-server/internal/auth"
	"github.com/linkstashapp/linkstash-server/internal/domain"
	"github.com/linkstashapp/linkstash-server/internal/id"
	"github.com/linkstashapp/linkstash-server/internal/store"
)

// testEnv bundles all services over one temporary store.
type testEnv struct {
	store    *store.Store
	sessions *SessionService
	auth     *AuthService
	tags     *TagService
	links    *LinkService
	usage    *UsageService
	suggest  *SuggestService
	subs     *SubscriptionService
}

const testWebhookSecret = "test-webhook-secret"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.New(filepath.Join(dir, "db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(key),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	sessions := NewSessionService(s, tokenService, logger)
	tags := NewTagService(s, logger)
	usage := NewUsageService(s, logger)

	return &testEnv{
		store:    s,
		sessions: sessions,
		auth:     NewAuthService(s, tokenService, sessions, logger),
		tags:     tags,
		links:    NewLinkService(s, tags, logger),
		usage:    usage,
		suggest:  NewSuggestService(s, nil, nil, usage, logger),
		subs:     NewSubscriptionService(s, tags, testWebhookSecret, logger),
	}
}

// createUser seeds a user directly in the store.
func (e *testEnv) createUser(t *testing.T, plan domain.Plan) *domain.User {
	t.Helper()

	now := time.Now()
	user := &domain.User{
		ID:          id.MustGenerate("user"),
		Email:       id.MustGenerate("mail") + "@example.com",
		DisplayName: "Test User",
		Plan:        plan,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}
