package webhook

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-webhook-secret"

func signedTransaction(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("irrelevant-jws-key"))
	require.NoError(t, err)
	return signed
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"notificationUUID":"abc"}`)
	sig := Sign(body, testSecret)

	assert.NoError(t, VerifySignature(body, sig, testSecret))
	assert.NoError(t, VerifySignature(body, "sha256="+sig, testSecret))
}

func TestVerifySignature_Rejects(t *testing.T) {
	body := []byte(`{"notificationUUID":"abc"}`)
	sig := Sign(body, testSecret)

	// Wrong secret.
	assert.Error(t, VerifySignature(body, sig, "other-secret"))
	// Tampered body.
	assert.Error(t, VerifySignature([]byte(`{"notificationUUID":"xyz"}`), sig, testSecret))
	// Garbage signature.
	assert.Error(t, VerifySignature(body, "not-hex!", testSecret))
	// Missing signature.
	assert.Error(t, VerifySignature(body, "", testSecret))
	// No secret configured.
	assert.Error(t, VerifySignature(body, sig, ""))
}

func TestParseNotification(t *testing.T) {
	body := []byte(`{"notificationUUID":"uuid-1","notificationType":"SUBSCRIBED","signedTransaction":"xxx"}`)

	n, err := ParseNotification(body)
	require.NoError(t, err)
	assert.Equal(t, "uuid-1", n.NotificationUUID)
	assert.Equal(t, TypeSubscribed, n.Type)
	assert.Equal(t, "xxx", n.SignedTransaction)
}

func TestParseNotification_Invalid(t *testing.T) {
	_, err := ParseNotification([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseNotification([]byte(`{"notificationType":"SUBSCRIBED"}`))
	assert.ErrorContains(t, err, "UUID")

	_, err = ParseNotification([]byte(`{"notificationUUID":"uuid-1"}`))
	assert.ErrorContains(t, err, "type")
}

func TestDecodeTransaction(t *testing.T) {
	expires := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Millisecond)
	purchase := time.Now().Truncate(time.Millisecond)

	signed := signedTransaction(t, jwt.MapClaims{
		"transactionId":         "tx-100",
		"originalTransactionId": "tx-1",
		"productId":             "linkstash.plus.monthly",
		"appAccountToken":       "user-token-1",
		"purchaseDate":          purchase.UnixMilli(),
		"expiresDate":           expires.UnixMilli(),
		"environment":           "Production",
	})

	n := &Notification{
		NotificationUUID:  "uuid-1",
		Type:              TypeSubscribed,
		SignedTransaction: signed,
	}

	tx, err := n.DecodeTransaction()
	require.NoError(t, err)

	assert.Equal(t, "tx-100", tx.TransactionID)
	assert.Equal(t, "tx-1", tx.OriginalTransactionID)
	assert.Equal(t, "linkstash.plus.monthly", tx.ProductID)
	assert.Equal(t, "user-token-1", tx.AppAccountToken)
	assert.Equal(t, "Production", tx.Environment)
	assert.WithinDuration(t, expires, tx.ExpiresDate, time.Millisecond)
	assert.WithinDuration(t, purchase, tx.PurchaseDate, time.Millisecond)
}

func TestDecodeTransaction_Invalid(t *testing.T) {
	n := &Notification{NotificationUUID: "u", Type: TypeSubscribed}
	_, err := n.DecodeTransaction()
	assert.Error(t, err)

	n.SignedTransaction = "not.a.jws"
	_, err = n.DecodeTransaction()
	assert.Error(t, err)
}
