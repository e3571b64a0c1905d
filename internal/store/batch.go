package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/id"
)

// BatchWriter provides efficient bulk write operations using BadgerDB's WriteBatch.
// Used for library imports where per-article transactions would be slow.
// Batched writes skip event emission; callers emit a single completion event.
type BatchWriter struct {
	store     *Store
	batch     *badger.WriteBatch
	maxSize   int
	count     int
	autoFlush bool
}

// NewBatchWriter creates a new batch writer that will auto-flush when maxSize is reached.
func (s *Store) NewBatchWriter(maxSize int) *BatchWriter {
	return &BatchWriter{
		store:     s,
		batch:     s.db.NewWriteBatch(),
		maxSize:   maxSize,
		autoFlush: true,
	}
}

// AddArticle adds an article and its user index to the batch.
// If autoFlush is enabled and the batch reaches maxSize, it flushes automatically.
func (b *BatchWriter) AddArticle(ctx context.Context, article *domain.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if article.ID == "" {
		generated, err := id.Generate(id.PrefixArticle)
		if err != nil {
			return fmt.Errorf("generate article id: %w", err)
		}
		article.ID = generated
	}
	if article.SavedAt.IsZero() {
		article.SavedAt = time.Now()
	}

	data, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}

	key := []byte(articlePrefix + article.ID)
	if err := b.batch.Set(key, data); err != nil {
		return fmt.Errorf("batch set article: %w", err)
	}

	userKey := []byte(articleByUserPrefix + article.UserID + ":" + article.ID)
	if err := b.batch.Set(userKey, []byte(article.ID)); err != nil {
		return fmt.Errorf("batch set user index: %w", err)
	}

	b.count++

	if b.autoFlush && b.count >= b.maxSize {
		if err := b.Flush(); err != nil {
			return fmt.Errorf("auto flush: %w", err)
		}
	}

	return nil
}

// Flush commits all pending writes in the batch.
func (b *BatchWriter) Flush() error {
	if b.count == 0 {
		return nil // Nothing to flush
	}

	if err := b.batch.Flush(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}

	if b.store.logger != nil {
		b.store.logger.LogAttrs(context.Background(), slog.LevelInfo, "batch flushed",
			slog.Int("count", b.count),
		)
	}

	// Reset for next batch
	b.count = 0
	b.batch = b.store.db.NewWriteBatch()

	return nil
}

// Cancel discards all pending writes in the batch.
func (b *BatchWriter) Cancel() {
	b.batch.Cancel()
	b.count = 0
}

// Count returns the number of operations in the current batch.
func (b *BatchWriter) Count() int {
	return b.count
}
