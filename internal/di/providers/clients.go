package providers

import (
	"github.com/samber/do/v2"

	"github.com/linkstashapp/linkstash-server/internal/ai"
	"github.com/linkstashapp/linkstash-server/internal/config"
	"github.com/linkstashapp/linkstash-server/internal/fetch"
	"github.com/linkstashapp/linkstash-server/internal/logger"
)

// ProvideFetcher provides the page content fetcher.
func ProvideFetcher(i do.Injector) (*fetch.Fetcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return fetch.New(fetch.Config{
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		UserAgent:    cfg.Fetch.UserAgent,
	}, log.Logger, nil), nil
}

// AIClientHandle wraps the model client. Client is nil when no API key is
// configured; the suggestion pipeline falls back to local extraction.
type AIClientHandle struct {
	Client *ai.Client
}

// ProvideAIClient provides the tag generation model client.
func ProvideAIClient(i do.Injector) (*AIClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.AIEnabled() {
		log.Info("AI tagging disabled - no API key configured")
		return &AIClientHandle{Client: nil}, nil
	}

	client := ai.NewClient(ai.Config{
		APIKey:            cfg.AI.APIKey,
		Model:             cfg.AI.Model,
		BaseURL:           cfg.AI.BaseURL,
		Timeout:           cfg.AI.Timeout,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
	}, log.Logger, nil)

	log.Info("AI tagging enabled", "model", cfg.AI.Model)

	return &AIClientHandle{Client: client}, nil
}
