package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/events"
	"github.com/keepstackapp/keepstack-server/internal/id"
)

// Key prefixes for article storage.
const (
	articlePrefix       = "article:"          // article:{id} → Article JSON
	articleByUserPrefix = "article:idx:user:" // article:idx:user:{userID}:{articleID} → articleID
)

// Article errors.
var (
	ErrArticleNotFound = errors.New("article not found")
	ErrArticleExists   = errors.New("article already exists")
)

// ArticleFilter narrows ListArticles results. Zero values match everything.
type ArticleFilter struct {
	Status   domain.ArticleStatus
	Type     domain.ArticleType
	Tag      string
	Category string
	Favorite *bool
	IsRead   *bool
}

// matches reports whether the article passes every set filter field.
func (f ArticleFilter) matches(a *domain.Article) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.Favorite != nil && a.Favorite != *f.Favorite {
		return false
	}
	if f.IsRead != nil && a.IsRead != *f.IsRead {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, tag := range a.Tags {
			if tag == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CreateArticle creates a new article. A missing ID is generated and a zero
// SavedAt defaults to now. Returns ErrArticleExists on ID collision.
func (s *Store) CreateArticle(ctx context.Context, article *domain.Article) error {
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
	if article.Status == "" {
		article.Status = domain.StatusInbox
	}

	key := buildKey(articlePrefix, article.ID)
	defer releaseKey(key)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check article exists: %w", err)
	}
	if exists {
		return ErrArticleExists
	}

	// Use a transaction to create the article and its user index atomically.
	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(article)
		if err != nil {
			return fmt.Errorf("marshal article: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		userKey := []byte(articleByUserPrefix + article.UserID + ":" + article.ID)
		return txn.Set(userKey, []byte(article.ID))
	})
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "article created",
			slog.String("id", article.ID),
			slog.String("user_id", article.UserID),
			slog.String("type", string(article.Type)),
			slog.String("title", article.Title),
		)
	}

	s.emit(events.NewArticleCreatedEvent(article))
	s.indexForSearch(article)
	return nil
}

// GetArticle retrieves an article by ID.
func (s *Store) GetArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(articlePrefix, articleID)
	defer releaseKey(key)

	var article domain.Article
	err := s.get(key, &article)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &article, nil
}

// ArticleExists checks if an article exists by ID.
func (s *Store) ArticleExists(ctx context.Context, articleID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := buildKey(articlePrefix, articleID)
	defer releaseKey(key)
	return s.exists(key)
}

// UpdateArticle persists a full article record and returns how many records
// changed. A missing ID is not an error: the count is 0 and the caller
// decides whether that matters.
func (s *Store) UpdateArticle(ctx context.Context, article *domain.Article) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key := buildKey(articlePrefix, article.ID)
	defer releaseKey(key)

	updated := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		// Load the existing record so a user change can move the index entry.
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Missing record updates nothing.
		}
		if err != nil {
			return err
		}

		var old domain.Article
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &old)
		}); err != nil {
			return fmt.Errorf("unmarshal existing article: %w", err)
		}

		data, err := json.Marshal(article)
		if err != nil {
			return fmt.Errorf("marshal article: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}

		if old.UserID != article.UserID {
			oldUserKey := []byte(articleByUserPrefix + old.UserID + ":" + article.ID)
			if err := txn.Delete(oldUserKey); err != nil {
				return err
			}
			newUserKey := []byte(articleByUserPrefix + article.UserID + ":" + article.ID)
			if err := txn.Set(newUserKey, []byte(article.ID)); err != nil {
				return err
			}
		}

		updated = 1
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("update article: %w", err)
	}

	if updated == 1 {
		s.emit(events.NewArticleUpdatedEvent(article))
		s.indexForSearch(article)
	} else if s.logger != nil {
		s.logger.Debug("update skipped, article missing", "id", article.ID)
	}

	return updated, nil
}

// DeleteArticle deletes an article and its indexes.
// Idempotent: deleting a missing article is not an error.
func (s *Store) DeleteArticle(ctx context.Context, articleID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	article, err := s.GetArticle(ctx, articleID)
	if errors.Is(err, ErrArticleNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(articlePrefix + articleID)); err != nil {
			return err
		}
		userKey := []byte(articleByUserPrefix + article.UserID + ":" + articleID)
		return txn.Delete(userKey)
	})
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("article deleted", "id", articleID, "title", article.Title)
	}

	s.emit(events.NewArticleDeletedEvent(article.UserID, articleID))
	s.removeFromSearch(articleID)
	return nil
}

// BulkDeleteArticles removes the given articles in one transaction. IDs
// that no longer exist are skipped. Returns the number actually deleted.
func (s *Store) BulkDeleteArticles(ctx context.Context, articleIDs []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(articleIDs) == 0 {
		return 0, nil
	}

	// Load up front so the index keys and delete events have the owner.
	victims := make([]*domain.Article, 0, len(articleIDs))
	for _, articleID := range articleIDs {
		article, err := s.GetArticle(ctx, articleID)
		if errors.Is(err, ErrArticleNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		victims = append(victims, article)
	}
	if len(victims) == 0 {
		return 0, nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, article := range victims {
			if err := txn.Delete([]byte(articlePrefix + article.ID)); err != nil {
				return err
			}
			userKey := []byte(articleByUserPrefix + article.UserID + ":" + article.ID)
			if err := txn.Delete(userKey); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("bulk delete articles: %w", err)
	}

	for _, article := range victims {
		s.emit(events.NewArticleDeletedEvent(article.UserID, article.ID))
		s.removeFromSearch(article.ID)
	}

	if s.logger != nil {
		s.logger.Info("articles deleted", "count", len(victims))
	}
	return len(victims), nil
}

// ListArticles returns one page of a user's articles matching the filter,
// ordered by article ID. Filtering happens after the index scan, so a page
// may be shorter than the limit without being the last one; HasMore is
// authoritative.
func (s *Store) ListArticles(ctx context.Context, userID string, filter ArticleFilter, params PaginationParams) (*PaginatedResult[*domain.Article], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params.Validate()

	var articles []*domain.Article
	var lastKey string
	var hasMore bool

	prefix := []byte(articleByUserPrefix + userID + ":")

	startKey, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		if startKey != "" {
			it.Seek([]byte(startKey))
			// Skip the cursor key itself (already returned on the previous page).
			if it.Valid() && string(it.Item().Key()) == startKey {
				it.Next()
			}
		} else {
			it.Seek(prefix)
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			indexKey := string(it.Item().Key())

			var articleID string
			if err := it.Item().Value(func(val []byte) error {
				articleID = string(val)
				return nil
			}); err != nil {
				return err
			}

			item, err := txn.Get([]byte(articlePrefix + articleID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue // Dangling index entry.
			}
			if err != nil {
				return err
			}

			var article domain.Article
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &article)
			}); err != nil {
				return err
			}

			if !filter.matches(&article) {
				continue
			}

			if len(articles) == params.Limit {
				hasMore = true
				break
			}

			articles = append(articles, &article)
			lastKey = indexKey
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	result := &PaginatedResult[*domain.Article]{
		Items:   articles,
		HasMore: hasMore,
	}
	if hasMore && lastKey != "" {
		result.NextCursor = EncodeCursor(lastKey)
	}

	return result, nil
}

// ListAllArticles returns every article a user owns, non-paginated.
// Deduplication and migrations need the complete set; API listing should use
// ListArticles instead.
func (s *Store) ListAllArticles(ctx context.Context, userID string) ([]*domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var articles []*domain.Article
	prefix := []byte(articleByUserPrefix + userID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var articleID string
			if err := it.Item().Value(func(val []byte) error {
				articleID = string(val)
				return nil
			}); err != nil {
				return err
			}

			item, err := txn.Get([]byte(articlePrefix + articleID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			var article domain.Article
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &article)
			}); err != nil {
				return err
			}
			articles = append(articles, &article)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list all articles: %w", err)
	}

	return articles, nil
}

// CountArticles returns how many articles a user owns.
func (s *Store) CountArticles(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	prefix := []byte(articleByUserPrefix + userID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}

	return count, nil
}

// RemoveDuplicateArticles deletes articles sharing a business key with an
// earlier save, keeping the oldest record of each group. Articles with blank
// URLs are never treated as duplicates of each other. Returns the number of
// removed articles, or -1 with an error when the repair could not run.
func (s *Store) RemoveDuplicateArticles(ctx context.Context, userID string) (int, error) {
	articles, err := s.ListAllArticles(ctx, userID)
	if err != nil {
		return -1, fmt.Errorf("load articles for dedup: %w", err)
	}

	byKey := make(map[string][]*domain.Article)
	for _, article := range articles {
		key := article.BusinessKey()
		if key == "" {
			continue // Blank URLs never dedup.
		}
		byKey[key] = append(byKey[key], article)
	}

	var duplicateIDs []string
	for _, group := range byKey {
		if len(group) < 2 {
			continue
		}

		// Keep the earliest save; ties break on the smaller ID so repeated
		// runs pick the same survivor.
		keeper := group[0]
		for _, candidate := range group[1:] {
			if candidate.SavedAt.Before(keeper.SavedAt) ||
				(candidate.SavedAt.Equal(keeper.SavedAt) && candidate.ID < keeper.ID) {
				keeper = candidate
			}
		}

		for _, article := range group {
			if article.ID != keeper.ID {
				duplicateIDs = append(duplicateIDs, article.ID)
			}
		}
	}

	removed := 0
	if len(duplicateIDs) > 0 {
		removed, err = s.BulkDeleteArticles(ctx, duplicateIDs)
		if err != nil {
			return -1, fmt.Errorf("delete duplicates: %w", err)
		}
	}

	if s.logger != nil && removed > 0 {
		s.logger.Info("duplicate articles removed", "user_id", userID, "count", removed)
	}

	return removed, nil
}

// FindArticleByURL returns the user's article whose business key matches the
// URL, preferring the earliest save when duplicates exist. Returns
// ErrArticleNotFound when no article matches or the URL is blank.
func (s *Store) FindArticleByURL(ctx context.Context, userID, url string) (*domain.Article, error) {
	probe := domain.Article{URL: url}
	key := probe.BusinessKey()
	if key == "" {
		return nil, ErrArticleNotFound
	}

	articles, err := s.ListAllArticles(ctx, userID)
	if err != nil {
		return nil, err
	}

	var match *domain.Article
	for _, article := range articles {
		if article.BusinessKey() != key {
			continue
		}
		if match == nil || article.SavedAt.Before(match.SavedAt) {
			match = article
		}
	}
	if match == nil {
		return nil, ErrArticleNotFound
	}
	return match, nil
}
