package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/keepstackapp/keepstack-server/internal/category"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

// ArticleService covers everything that happens to an article after
// ingestion: listing, reading-state updates, and deletion.
type ArticleService struct {
	store  *store.Store
	cloud  CloudSync
	logger *slog.Logger
	now    func() time.Time
}

// NewArticleService creates the article service.
func NewArticleService(s *store.Store, cloud CloudSync, logger *slog.Logger) *ArticleService {
	return &ArticleService{
		store:  s,
		cloud:  cloud,
		logger: logger,
		now:    time.Now,
	}
}

// UpdateArticleRequest carries partial flag updates. Nil fields are left
// untouched.
type UpdateArticleRequest struct {
	Title           *string  `json:"title,omitempty" validate:"omitempty,max=500"`
	IsRead          *bool    `json:"is_read,omitempty"`
	Favorite        *bool    `json:"favorite,omitempty"`
	Status          *string  `json:"status,omitempty" validate:"omitempty,oneof=inbox later archived"`
	ReadingProgress *float64 `json:"reading_progress,omitempty" validate:"omitempty,gte=0,lte=1"`
	Tags            []string `json:"tags,omitempty"`
	Category        *string  `json:"category,omitempty" validate:"omitempty,max=100"`
}

// Get returns one article, enforcing ownership.
func (s *ArticleService) Get(ctx context.Context, userID, articleID string) (*domain.Article, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return ownedArticle(ctx, s.store, userID, articleID)
}

// List returns the user's articles, filtered and paginated.
func (s *ArticleService) List(ctx context.Context, userID string, filter store.ArticleFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Article], error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.ListArticles(ctx, userID, filter, params)
}

// Update applies the non-nil fields of req. Marking an article read for
// the first time records ReadAt; later read/unread cycles keep the
// original timestamp. A request that changes nothing writes nothing.
func (s *ArticleService) Update(ctx context.Context, userID, articleID string, req UpdateArticleRequest) (*domain.Article, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	article, err := ownedArticle(ctx, s.store, userID, articleID)
	if err != nil {
		return nil, err
	}

	changed := false
	if req.Title != nil && *req.Title != article.Title {
		article.Title = *req.Title
		changed = true
	}
	if req.IsRead != nil {
		if *req.IsRead {
			changed = article.MarkRead(s.now()) || changed
		} else {
			changed = article.MarkUnread() || changed
		}
	}
	if req.Favorite != nil && *req.Favorite != article.Favorite {
		article.Favorite = *req.Favorite
		changed = true
	}
	if req.Status != nil && domain.ArticleStatus(*req.Status) != article.Status {
		article.Status = domain.ArticleStatus(*req.Status)
		changed = true
	}
	if req.ReadingProgress != nil && *req.ReadingProgress != article.ReadingProgress {
		article.ReadingProgress = *req.ReadingProgress
		changed = true
	}
	if req.Tags != nil {
		article.Tags = req.Tags
		changed = true
	}
	if req.Category != nil {
		// Aliases like "tech" are filed under their canonical slug.
		canonical := category.Canonicalize(*req.Category)
		if canonical != article.Category {
			article.Category = canonical
			changed = true
		}
	}

	if !changed {
		return article, nil
	}

	count, err := s.store.UpdateArticle(ctx, article)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.NotFound("article no longer exists")
	}
	return article, nil
}

// Delete removes an article the user owns. Cloud deletion is attempted
// but its failure never undoes the local removal.
func (s *ArticleService) Delete(ctx context.Context, userID, articleID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := ownedArticle(ctx, s.store, userID, articleID); err != nil {
		return err
	}
	if err := s.store.DeleteArticle(ctx, articleID); err != nil {
		return err
	}
	if s.cloud != nil {
		if err := s.cloud.DeleteArticle(ctx, articleID); err != nil {
			s.logger.Warn("cloud delete failed", "article_id", articleID, "error", err)
		}
	}
	s.logger.Info("deleted article", "article_id", articleID, "user_id", userID)
	return nil
}

// RemoveDuplicates collapses articles sharing a URL down to the earliest
// save, returning the number removed.
func (s *ArticleService) RemoveDuplicates(ctx context.Context, userID string) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	removed, err := s.store.RemoveDuplicateArticles(ctx, userID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("removed duplicate articles", "user_id", userID, "count", removed)
	}
	return removed, nil
}

// MigrateLegacyContent moves base64 payloads that older clients wrote
// into Content over to FileData.
func (s *ArticleService) MigrateLegacyContent(ctx context.Context, userID string) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	migrated, err := s.store.MigrateLegacyBinaryContent(ctx, userID)
	if err != nil {
		return 0, err
	}
	if migrated > 0 {
		s.logger.Info("migrated legacy binary content", "user_id", userID, "count", migrated)
	}
	return migrated, nil
}

