package providers

import (
	"github.com/samber/do/v2"

	"github.com/keepstackapp/keepstack-server/internal/auth"
	"github.com/keepstackapp/keepstack-server/internal/config"
	"github.com/keepstackapp/keepstack-server/internal/epub"
	"github.com/keepstackapp/keepstack-server/internal/fetch"
	"github.com/keepstackapp/keepstack-server/internal/logger"
	"github.com/keepstackapp/keepstack-server/internal/media"
	"github.com/keepstackapp/keepstack-server/internal/pdf"
	"github.com/keepstackapp/keepstack-server/internal/readability"
	"github.com/keepstackapp/keepstack-server/internal/sanitize"
	"github.com/keepstackapp/keepstack-server/internal/service"
)

// ProvideFetcher provides the rate-limited remote page fetcher.
func ProvideFetcher(i do.Injector) (*fetch.Fetcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return fetch.New(cfg.Fetch, log.Logger), nil
}

// ProvideCloudSync provides the cloud sync client. A no-op client is returned
// when no endpoint is configured.
func ProvideCloudSync(i do.Injector) (service.CloudSync, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cloud := service.NewCloudSync(cfg.Sync, log.Logger)
	if cfg.Sync.Endpoint != "" {
		log.Info("Cloud sync enabled", "endpoint", cfg.Sync.Endpoint)
	}
	return cloud, nil
}

// ProvideIngestService provides the article ingestion pipeline.
func ProvideIngestService(i do.Injector) (*service.IngestService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	eventHandle := do.MustInvoke[*EventManagerHandle](i)
	fetcher := do.MustInvoke[*fetch.Fetcher](i)
	cloud := do.MustInvoke[service.CloudSync](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIngestService(
		storeHandle.Store,
		fetcher,
		readability.NewNormalizer(log.Logger),
		sanitize.New(),
		epub.NewExtractor(log.Logger),
		pdf.NewExtractor(log.Logger),
		media.NewPreviewer(log.Logger),
		cloud,
		eventHandle.Manager,
		log.Logger,
	), nil
}

// ProvideArticleService provides the article service.
func ProvideArticleService(i do.Injector) (*service.ArticleService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cloud := do.MustInvoke[service.CloudSync](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewArticleService(storeHandle.Store, cloud, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideHighlightService provides the highlight service.
func ProvideHighlightService(i do.Injector) (*service.HighlightService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewHighlightService(storeHandle.Store, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, log.Logger), nil
}
