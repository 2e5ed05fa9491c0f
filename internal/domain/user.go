// Package domain contains the core data model for the LinkStash server.
package domain

import "time"

// User is an account that owns links and tags. API responses map this to a
// DTO; the hash stays server-side.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	DisplayName  string    `json:"display_name"`
	Plan         Plan      `json:"plan"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (u *User) Touch() {
	u.UpdatedAt = time.Now()
}

// Session stores a hashed refresh token for a logged-in device.
// The raw token never touches the database.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// IsExpired reports whether the session's refresh token has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
