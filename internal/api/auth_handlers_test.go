package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_ReturnsTokensAndUser(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "alice@example.com",
		"password":     "correct-horse-battery",
		"display_name": "Alice",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
	assert.Equal(t, "alice@example.com", envelope.Data.User.Email)
	assert.Equal(t, "free", envelope.Data.User.Plan)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "alice@example.com",
		"password":     "correct-horse-battery",
		"display_name": "Alice Again",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	envelope := decodeEnvelope[struct{}](t, resp.Body.Bytes())
	assert.False(t, envelope.Success)
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogin_And_GetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	login := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())

	resp = ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+login.Data.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code)

	me := decodeEnvelope[UserResponse](t, resp.Body.Bytes())
	assert.Equal(t, "alice@example.com", me.Data.Email)
	assert.Equal(t, login.Data.User.ID, me.Data.ID)
}

func TestGetCurrentUser_Unauthenticated(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/users/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/users/me", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRefresh_RotatesTokens(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "alice@example.com",
		"password":     "correct-horse-battery",
		"display_name": "Alice",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	first := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": first.Data.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	second := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())
	assert.NotEqual(t, first.Data.RefreshToken, second.Data.RefreshToken)

	// The old refresh token is dead after rotation.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": first.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "alice@example.com",
		"password":     "correct-horse-battery",
		"display_name": "Alice",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	session := decodeEnvelope[AuthResponse](t, resp.Body.Bytes())

	resp = ts.api.Post("/api/v1/auth/logout", map[string]any{
		"session_id": session.Data.SessionID,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": session.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", envelope.Data.Status)
	assert.Contains(t, envelope.Data.Components, "database")
	assert.Contains(t, envelope.Data.Components, "search")
}
