package api

import (
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linkstashapp/linkstash-server/internal/ratelimit"
)

// RateLimiter wraps KeyedRateLimiter for API use.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a per-key rate limiter allowing ratePerInterval
// requests per interval with the given burst.
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

// checkAuthRateLimit applies the credential-endpoint rate limit keyed by
// client IP. An empty key (no forwarding headers, e.g. in tests) shares one
// bucket.
func (s *Server) checkAuthRateLimit(ip string) error {
	if s.authRateLimiter == nil {
		return nil
	}
	if !s.authRateLimiter.Allow(ip) {
		s.logger.Warn("auth rate limit exceeded", "ip", ip)
		return huma.Error429TooManyRequests("Too many authentication attempts. Please try again later.")
	}
	return nil
}
