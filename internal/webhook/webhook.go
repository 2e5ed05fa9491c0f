// Package webhook verifies and decodes billing provider notifications.
//
// Notifications arrive as a JSON envelope carrying a notification UUID, a
// type, and a signed transaction. The envelope is authenticated with a
// detached HMAC-SHA256 signature over the raw body; the nested transaction
// is a JWS whose claims are decoded after the envelope check passes.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Notification types sent by the billing provider.
const (
	TypeSubscribed      = "SUBSCRIBED"
	TypeDidRenew        = "DID_RENEW"
	TypeDidFailToRenew  = "DID_FAIL_TO_RENEW"
	TypeExpired         = "EXPIRED"
	TypeRefund          = "REFUND"
	TypeRevoke          = "REVOKE"
	TypeDidChangeStatus = "DID_CHANGE_RENEWAL_STATUS"
)

// Notification is the decoded webhook envelope.
type Notification struct {
	NotificationUUID  string `json:"notificationUUID"`
	Type              string `json:"notificationType"`
	SignedTransaction string `json:"signedTransaction"`
}

// Transaction is the claim set decoded from the signed transaction.
type Transaction struct {
	TransactionID         string
	OriginalTransactionID string
	ProductID             string
	AppAccountToken       string
	PurchaseDate          time.Time
	ExpiresDate           time.Time
	Environment           string
}

// transactionClaims mirrors the JWS payload; date fields are unix millis.
type transactionClaims struct {
	TransactionID         string `json:"transactionId"`
	OriginalTransactionID string `json:"originalTransactionId"`
	ProductID             string `json:"productId"`
	AppAccountToken       string `json:"appAccountToken"`
	PurchaseDateMS        int64  `json:"purchaseDate"`
	ExpiresDateMS         int64  `json:"expiresDate"`
	Environment           string `json:"environment"`
	jwt.RegisteredClaims
}

// VerifySignature checks the detached HMAC-SHA256 signature over the raw
// request body. The signature header value is hex-encoded, optionally with a
// "sha256=" prefix. Comparison is constant-time.
func VerifySignature(body []byte, signature, secret string) error {
	if secret == "" {
		return fmt.Errorf("webhook secret not configured")
	}

	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return fmt.Errorf("missing signature")
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(provided, expected) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 signature for a body. Used by tests and
// by the local billing simulator.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseNotification decodes the webhook envelope from the raw body.
// Call VerifySignature first; this does no authentication of its own.
func ParseNotification(body []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("parse notification: %w", err)
	}
	if n.NotificationUUID == "" {
		return nil, fmt.Errorf("notification missing UUID")
	}
	if n.Type == "" {
		return nil, fmt.Errorf("notification missing type")
	}
	return &n, nil
}

// DecodeTransaction decodes the claims of the nested signed transaction.
// The outer HMAC already authenticates the envelope, so the inner JWS
// signature is not re-verified here.
func (n *Notification) DecodeTransaction() (*Transaction, error) {
	if n.SignedTransaction == "" {
		return nil, fmt.Errorf("notification missing signed transaction")
	}

	var claims transactionClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(n.SignedTransaction, &claims); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	tx := &Transaction{
		TransactionID:         claims.TransactionID,
		OriginalTransactionID: claims.OriginalTransactionID,
		ProductID:             claims.ProductID,
		AppAccountToken:       claims.AppAccountToken,
		Environment:           claims.Environment,
	}
	if claims.PurchaseDateMS > 0 {
		tx.PurchaseDate = time.UnixMilli(claims.PurchaseDateMS)
	}
	if claims.ExpiresDateMS > 0 {
		tx.ExpiresDate = time.UnixMilli(claims.ExpiresDateMS)
	}
	return tx, nil
}
