// Package di provides dependency injection configuration for the Keepstack server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/keepstackapp/keepstack-server/internal/auth"
	"github.com/keepstackapp/keepstack-server/internal/config"
	"github.com/keepstackapp/keepstack-server/internal/di/providers"
	"github.com/keepstackapp/keepstack-server/internal/fetch"
	"github.com/keepstackapp/keepstack-server/internal/logger"
	"github.com/keepstackapp/keepstack-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideEventManager)
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideFetcher)
	do.Provide(injector, providers.ProvideCloudSync)
	do.Provide(injector, providers.ProvideIngestService)
	do.Provide(injector, providers.ProvideArticleService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideHighlightService)
	do.Provide(injector, providers.ProvideAuthService)

	// Workers
	do.Provide(injector, providers.ProvideDropWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.EventManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*fetch.Fetcher](injector)
	_ = do.MustInvoke[service.CloudSync](injector)
	_ = do.MustInvoke[*service.IngestService](injector)
	_ = do.MustInvoke[*service.ArticleService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.HighlightService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)

	// Workers
	_ = do.MustInvoke[*providers.DropWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	// Rebuild the search index if it is empty but articles exist
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
