package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/keepstackapp/keepstack-server/internal/color"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/normalize"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

// TagService manages the user's tag vocabulary and tag membership on
// articles.
type TagService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTagService creates the tag service.
func NewTagService(s *store.Store, logger *slog.Logger) *TagService {
	return &TagService{store: s, logger: logger}
}

// CreateTagRequest names a new tag. Color is an optional hex value the
// clients render; when omitted a deterministic color is derived from the
// tag's slug.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// Create adds a tag to the user's vocabulary. Names that slug to an
// existing tag are rejected as duplicates.
func (s *TagService) Create(ctx context.Context, userID string, req CreateTagRequest) (*domain.Tag, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	tagColor := req.Color
	if tagColor == "" {
		tagColor = color.ForTag(normalize.TagSlug(req.Name))
	}

	tag := &domain.Tag{
		UserID:    userID,
		Name:      req.Name,
		Color:     tagColor,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrTagExists) {
			return nil, errors.AlreadyExists("tag already exists")
		}
		if errors.Is(err, store.ErrInvalidInput) {
			return nil, errors.Validation("tag name is not usable")
		}
		return nil, err
	}
	s.logger.Info("created tag", "tag_id", tag.ID, "user_id", userID, "name", tag.Name)
	return tag, nil
}

// List returns the user's tags ordered by name.
func (s *TagService) List(ctx context.Context, userID string) ([]*domain.Tag, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.ListTags(ctx, userID)
}

// Delete removes a tag from the vocabulary. Articles keep their tag
// strings; only the record with color and metadata goes away.
func (s *TagService) Delete(ctx context.Context, userID, tagID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	tag, err := s.store.GetTagByID(ctx, tagID)
	if errors.Is(err, store.ErrTagNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if tag.UserID != userID {
		return errors.Forbidden("tag belongs to another user")
	}
	return s.store.DeleteTag(ctx, tagID)
}

// TagArticle attaches a tag name to an article, creating the tag record
// on first use so it shows up in the vocabulary.
func (s *TagService) TagArticle(ctx context.Context, userID, articleID, name string) (*domain.Article, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.Validation("tag name is required")
	}

	article, err := ownedArticle(ctx, s.store, userID, articleID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetTagBySlug(ctx, userID, name); errors.Is(err, store.ErrTagNotFound) {
		tag := &domain.Tag{
			UserID:    userID,
			Name:      name,
			Color:     color.ForTag(normalize.TagSlug(name)),
			CreatedAt: time.Now(),
		}
		if err := s.store.CreateTag(ctx, tag); err != nil && !errors.Is(err, store.ErrTagExists) {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if slices.Contains(article.Tags, name) {
		return article, nil
	}
	article.Tags = append(article.Tags, name)
	if _, err := s.store.UpdateArticle(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// UntagArticle removes a tag name from an article. Removing a name the
// article doesn't carry is a no-op.
func (s *TagService) UntagArticle(ctx context.Context, userID, articleID, name string) (*domain.Article, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	article, err := ownedArticle(ctx, s.store, userID, articleID)
	if err != nil {
		return nil, err
	}

	i := slices.Index(article.Tags, name)
	if i < 0 {
		return article, nil
	}
	article.Tags = slices.Delete(article.Tags, i, i+1)
	if _, err := s.store.UpdateArticle(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

