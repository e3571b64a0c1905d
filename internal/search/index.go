package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/keepstackapp/keepstack-server/internal/domain"
)

// mappingVersion is incremented whenever the index mapping changes. A
// mismatch on startup drops and recreates the index; articles are
// reindexed from the record store afterwards.
const mappingVersion = "1"

// Index wraps a Bleve index with article operations. It satisfies the
// record store's SearchIndexer hook.
//
// All public methods are safe for concurrent use; the mutex guards
// against rebuild races.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string
	Logger   *slog.Logger
}

// New creates or opens the search index under DataPath. A corrupt index
// or an outdated mapping version is removed and recreated.
func New(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "search")

	indexPath := filepath.Join(opts.DataPath, "articles.bleve")
	versionPath := filepath.Join(opts.DataPath, "articles.version")

	var index bleve.Index
	needsRebuild := false

	_, statErr := os.Stat(indexPath)
	indexExists := statErr == nil

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, rebuilding", "new_version", mappingVersion)
			needsRebuild = true
		case string(existingVersion) != mappingVersion:
			logger.Info("search index mapping changed, rebuilding",
				"old_version", string(existingVersion), "new_version", mappingVersion)
			needsRebuild = true
		}
	}

	if indexExists && !needsRebuild {
		opened, err := bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing search index, recreating", "path", indexPath, "error", err)
			needsRebuild = true
		} else {
			index = opened
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old search index: %w", err)
		}
		index = nil
	}

	if index == nil {
		created, err := bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create search index: %w", err)
		}
		index = created
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search index version file", "error", err)
		}
		logger.Info("created search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened search index", "path", indexPath)
	}

	return &Index{index: index, path: indexPath, logger: logger}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexArticle adds or updates an article in the index.
func (s *Index) IndexArticle(_ context.Context, article *domain.Article) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := FromArticle(article)
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexArticles indexes articles in batches, used for startup reindexing.
func (s *Index) IndexArticles(_ context.Context, articles []*domain.Article) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500
	for start := 0; start < len(articles); start += batchSize {
		end := min(start+batchSize, len(articles))

		batch := s.index.NewBatch()
		for _, article := range articles[start:end] {
			doc := FromArticle(article)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit index batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// DeleteArticle removes an article from the index.
func (s *Index) DeleteArticle(_ context.Context, articleID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(articleID)
}

// DocumentCount returns the number of indexed articles.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
