package providers

import (
	"github.com/samber/do/v2"

	"github.com/linkstashapp/linkstash-server/internal/auth"
	"github.com/linkstashapp/linkstash-server/internal/config"
	"github.com/linkstashapp/linkstash-server/internal/fetch"
	"github.com/linkstashapp/linkstash-server/internal/logger"
	"github.com/linkstashapp/linkstash-server/internal/service"
)

// ProvideSessionService provides the refresh session service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideLinkService provides the link service.
func ProvideLinkService(i do.Injector) (*service.LinkService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tagService := do.MustInvoke[*service.TagService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLinkService(storeHandle.Store, tagService, log.Logger), nil
}

// ProvideUsageService provides the AI usage metering service.
func ProvideUsageService(i do.Injector) (*service.UsageService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUsageService(storeHandle.Store, log.Logger), nil
}

// ProvideSuggestService provides the tag suggestion pipeline.
func ProvideSuggestService(i do.Injector) (*service.SuggestService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	fetcher := do.MustInvoke[*fetch.Fetcher](i)
	aiHandle := do.MustInvoke[*AIClientHandle](i)
	usageService := do.MustInvoke[*service.UsageService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSuggestService(storeHandle.Store, fetcher, aiHandle.Client, usageService, log.Logger), nil
}

// ProvideSubscriptionService provides the subscription and webhook service.
func ProvideSubscriptionService(i do.Injector) (*service.SubscriptionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tagService := do.MustInvoke[*service.TagService](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSubscriptionService(storeHandle.Store, tagService, cfg.Billing.WebhookSecret, log.Logger), nil
}

// ProvideImportService provides the bookmark import service.
func ProvideImportService(i do.Injector) (*service.ImportService, error) {
	linkService := do.MustInvoke[*service.LinkService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewImportService(linkService, log.Logger), nil
}
