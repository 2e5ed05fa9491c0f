// Package ai provides the HTTP client for the generative model used for
// tag suggestion and entity extraction. Every call is single-attempt with a
// context timeout; callers are expected to fall back when it fails.
package ai

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config holds model API settings.
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client provides access to the generateContent API.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a model API client.
// An httpClient of nil gets a default client with the configured timeout.
func NewClient(cfg Config, logger *slog.Logger, httpClient *http.Client) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	return &Client{
		cfg:         cfg,
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 5),
		logger:      logger,
	}
}

// Enabled reports whether the client has an API key configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// wait blocks until the outbound rate limiter allows a request.
func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}
