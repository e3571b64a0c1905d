package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/id"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

// HighlightService manages reader-selected passages.
type HighlightService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHighlightService creates the highlight service.
func NewHighlightService(s *store.Store, logger *slog.Logger) *HighlightService {
	return &HighlightService{store: s, logger: logger}
}

// CreateHighlightRequest captures a selection inside an article. Start
// and End are character offsets into the plain text; Page is used for
// PDFs instead.
type CreateHighlightRequest struct {
	ArticleID string   `json:"article_id" validate:"required"`
	Text      string   `json:"text" validate:"required,max=10000"`
	Color     string   `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Start     int      `json:"start,omitempty" validate:"omitempty,gte=0"`
	End       int      `json:"end,omitempty" validate:"omitempty,gte=0"`
	Page      int      `json:"page,omitempty" validate:"omitempty,gte=0"`
	Note      string   `json:"note,omitempty" validate:"omitempty,max=10000"`
	Tags      []string `json:"tags,omitempty"`
}

// Create records a highlight on an article the user owns.
func (s *HighlightService) Create(ctx context.Context, userID string, req CreateHighlightRequest) (*domain.Highlight, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if req.End < req.Start {
		return nil, errors.Validation("end must not be before start")
	}
	if _, err := ownedArticle(ctx, s.store, userID, req.ArticleID); err != nil {
		return nil, err
	}

	highlightID, err := id.Generate(id.PrefixHighlight)
	if err != nil {
		return nil, fmt.Errorf("generate highlight id: %w", err)
	}
	highlight := &domain.Highlight{
		ID:        highlightID,
		ArticleID: req.ArticleID,
		UserID:    userID,
		Text:      req.Text,
		Color:     req.Color,
		Position:  domain.HighlightPosition{Start: req.Start, End: req.End, Page: req.Page},
		Tags:      req.Tags,
		Note:      req.Note,
		CreatedAt: time.Now(),
	}
	if err := s.store.Highlights.Create(ctx, highlight.ID, highlight); err != nil {
		return nil, err
	}
	s.logger.Info("created highlight",
		"highlight_id", highlight.ID, "article_id", req.ArticleID, "user_id", userID)
	return highlight, nil
}

// ListByArticle returns the highlights on one article, for the reader
// view. Ownership of the article is enforced.
func (s *HighlightService) ListByArticle(ctx context.Context, userID, articleID string) ([]*domain.Highlight, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := ownedArticle(ctx, s.store, userID, articleID); err != nil {
		return nil, err
	}
	return s.store.Highlights.ListByIndex(ctx, "article", articleID+":")
}

// ListByUser returns all of the user's highlights, for export and sync.
func (s *HighlightService) ListByUser(ctx context.Context, userID string) ([]*domain.Highlight, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.Highlights.ListByIndex(ctx, "user", userID+":")
}

// Delete removes a highlight the user owns.
func (s *HighlightService) Delete(ctx context.Context, userID, highlightID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	highlight, err := s.store.Highlights.Get(ctx, highlightID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.NotFound("highlight not found")
		}
		return err
	}
	if highlight.UserID != userID {
		return errors.Forbidden("highlight belongs to another user")
	}
	return s.store.Highlights.Delete(ctx, highlightID)
}
