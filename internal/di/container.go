// Package di provides dependency injection configuration for the LinkStash server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/linkstashapp/linkstash-server/internal/auth"
	"github.com/linkstashapp/linkstash-server/internal/config"
	"github.com/linkstashapp/linkstash-server/internal/di/providers"
	"github.com/linkstashapp/linkstash-server/internal/fetch"
	"github.com/linkstashapp/linkstash-server/internal/logger"
	"github.com/linkstashapp/linkstash-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// External clients
	do.Provide(injector, providers.ProvideFetcher)
	do.Provide(injector, providers.ProvideAIClient)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideLinkService)
	do.Provide(injector, providers.ProvideUsageService)
	do.Provide(injector, providers.ProvideSuggestService)
	do.Provide(injector, providers.ProvideSubscriptionService)
	do.Provide(injector, providers.ProvideImportService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*fetch.Fetcher](injector)
	_ = do.MustInvoke[*providers.AIClientHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.LinkService](injector)
	_ = do.MustInvoke[*service.UsageService](injector)
	_ = do.MustInvoke[*service.SuggestService](injector)
	_ = do.MustInvoke[*service.SubscriptionService](injector)
	_ = do.MustInvoke[*service.ImportService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server last so everything it needs is live
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
