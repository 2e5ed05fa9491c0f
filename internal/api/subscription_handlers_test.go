package api

import (
	"bytes"
	"encoding/json/v2"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkstashapp/linkstash-server/internal/webhook"
)

// signedWebhookBody builds a signed provider notification for a user.
func signedWebhookBody(t *testing.T, uuid, notificationType, userID string, expires time.Time) (body []byte, signature string) {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"transactionId":         "tx-" + uuid,
		"originalTransactionId": "tx-original",
		"productId":             "linkstash.plus.monthly",
		"appAccountToken":       userID,
		"purchaseDate":          time.Now().UnixMilli(),
		"expiresDate":           expires.UnixMilli(),
		"environment":           "Production",
	})
	signed, err := token.SignedString([]byte("provider-jws-key"))
	require.NoError(t, err)

	body, err = json.Marshal(map[string]string{
		"notificationUUID":  uuid,
		"notificationType":  notificationType,
		"signedTransaction": signed,
	})
	require.NoError(t, err)

	return body, webhook.Sign(body, testWebhookSecret)
}

func TestGetSubscription_DefaultFree(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Get("/api/v1/subscription", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	sub := decodeEnvelope[SubscriptionResponse](t, resp.Body.Bytes())
	assert.Equal(t, "free", sub.Data.Plan)
	assert.Equal(t, "inactive", sub.Data.Status)
}

func TestWebhook_SubscribeUpgradesPlan(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerTestUser(t, "alice@example.com")

	expires := time.Now().Add(30 * 24 * time.Hour)
	body, sig := signedWebhookBody(t, "uuid-1", webhook.TypeSubscribed, userID, expires)

	resp := ts.api.Post("/api/v1/webhooks/subscription",
		"Content-Type: application/json",
		"X-Signature: "+sig,
		bytes.NewReader(body))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/subscription", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	sub := decodeEnvelope[SubscriptionResponse](t, resp.Body.Bytes())
	assert.Equal(t, "plus", sub.Data.Plan)
	assert.Equal(t, "active", sub.Data.Status)

	// The upgraded plan shows on the user too.
	resp = ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	me := decodeEnvelope[UserResponse](t, resp.Body.Bytes())
	assert.Equal(t, "plus", me.Data.Plan)
}

func TestWebhook_ReplayAcknowledgedWithoutReapply(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerTestUser(t, "alice@example.com")

	body, sig := signedWebhookBody(t, "uuid-1", webhook.TypeSubscribed, userID, time.Now().Add(24*time.Hour))

	resp := ts.api.Post("/api/v1/webhooks/subscription",
		"Content-Type: application/json",
		"X-Signature: "+sig,
		bytes.NewReader(body))
	require.Equal(t, http.StatusOK, resp.Code)

	// Expire the subscription, then replay the original upgrade. The replay
	// is acknowledged but must not reapply.
	expBody, expSig := signedWebhookBody(t, "uuid-2", webhook.TypeExpired, userID, time.Now().Add(-time.Hour))
	resp = ts.api.Post("/api/v1/webhooks/subscription",
		"Content-Type: application/json",
		"X-Signature: "+expSig,
		bytes.NewReader(expBody))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/webhooks/subscription",
		"Content-Type: application/json",
		"X-Signature: "+sig,
		bytes.NewReader(body))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	me := decodeEnvelope[UserResponse](t, resp.Body.Bytes())
	assert.Equal(t, "free", me.Data.Plan, "replay must not reapply the event")
}

func TestWebhook_BadSignatureRejected(t *testing.T) {
	ts := setupTestServer(t)
	_, userID := ts.registerTestUser(t, "alice@example.com")

	body, _ := signedWebhookBody(t, "uuid-1", webhook.TypeSubscribed, userID, time.Now().Add(24*time.Hour))

	resp := ts.api.Post("/api/v1/webhooks/subscription",
		"Content-Type: application/json",
		"X-Signature: "+webhook.Sign(body, "wrong-secret"),
		bytes.NewReader(body))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
