package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linkstashapp/linkstash-server/internal/auth"
	"github.com/linkstashapp/linkstash-server/internal/domain"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
	"github.com/linkstashapp/linkstash-server/internal/id"
	"github.com/linkstashapp/linkstash-server/internal/store"
)

// SessionService manages refresh token sessions. Raw refresh tokens are
// returned to the client once and only their hash is stored.
type SessionService struct {
	store        *store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(store *store.Store, tokenService *auth.TokenService, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// SessionResponse contains the token pair issued for a session.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access token lifetime in seconds
	SessionID    string `json:"session_id"`
}

// CreateSession issues a new token pair and persists the session.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User) (*SessionResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := time.Now()
	sess := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt:        now,
	}

	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:    sessionID,
	}, nil
}

// RefreshSession rotates a refresh token: the presented token's session is
// deleted and a new session is created. A reused or expired token is
// rejected.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (*SessionResponse, *domain.User, error) {
	sess, err := s.store.GetSessionByTokenHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, nil, domainerrors.Unauthenticated("invalid refresh token")
		}
		return nil, nil, fmt.Errorf("lookup session: %w", err)
	}

	if sess.IsExpired() {
		// Best effort cleanup, the session is unusable either way.
		if err := s.store.DeleteSession(ctx, sess.ID); err != nil {
			s.logger.Warn("failed to delete expired session", "session_id", sess.ID, "error", err)
		}
		return nil, nil, domainerrors.TokenExpired("refresh token expired")
	}

	user, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("get session user: %w", err)
	}

	if err := s.store.DeleteSession(ctx, sess.ID); err != nil {
		return nil, nil, fmt.Errorf("rotate session: %w", err)
	}

	resp, err := s.CreateSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return resp, user, nil
}

// DeleteSession revokes a single session.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return domainerrors.NotFound("session not found")
		}
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions revokes every session of a user.
func (s *SessionService) DeleteUserSessions(ctx context.Context, userID string) error {
	return s.store.DeleteUserSessions(ctx, userID)
}
