package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linkstashapp/linkstash-server/internal/domain"
	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
)

// authenticateRequest validates the Authorization header and returns the
// authenticated user.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (*domain.User, error) {
	if authHeader == "" {
		return nil, huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, huma.Error401Unauthorized("Invalid authorization header format")
	}

	user, _, err := s.services.Auth.VerifyAccessToken(ctx, parts[1])
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid or expired token")
	}

	return user, nil
}

// authenticateAndRequireAdmin validates the token and requires the admin flag.
func (s *Server) authenticateAndRequireAdmin(ctx context.Context, authHeader string) (*domain.User, error) {
	user, err := s.authenticateRequest(ctx, authHeader)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin {
		return nil, domainerrors.Forbidden("Admin access required")
	}

	return user, nil
}

// extractIP picks the client IP from forwarding headers, first hop wins.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	return xRealIP
}
