package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/keepstackapp/keepstack-server/internal/config"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/logger"
	"github.com/keepstackapp/keepstack-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.New(search.Options{
		DataPath: cfg.SearchPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	// Wire to store for automatic indexing on article writes.
	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from stored articles.
// Covers recovery after the search directory is deleted or lost.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	var pending []*domain.Article
	for user, err := range storeHandle.Users.List(ctx) {
		if err != nil {
			log.Warn("Reindex user listing failed", "error", err)
			return
		}
		articles, err := storeHandle.ListAllArticles(ctx, user.ID)
		if err != nil {
			log.Warn("Reindex article listing failed", "user_id", user.ID, "error", err)
			return
		}
		pending = append(pending, articles...)
	}
	if len(pending) == 0 {
		return
	}

	log.Info("Search index is empty but articles exist, triggering reindex",
		"article_count", len(pending),
	)

	go func() {
		if err := indexHandle.IndexArticles(context.Background(), pending); err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		count, _ := indexHandle.DocumentCount()
		log.Info("Search reindex completed", "documents", count)
	}()
}
