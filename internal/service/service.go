// Package service holds the application services sitting between the
// HTTP surface and the record store: authentication, ingestion, article
// state, tags, and highlights.
package service

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// formatValidationError converts validator errors into domain validation
// errors with readable messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				return errors.Validationf("%s is required", field)
			case "email":
				return errors.Validationf("%s must be a valid email address", field)
			case "min":
				return errors.Validationf("%s must be at least %s characters", field, e.Param())
			case "max":
				return errors.Validationf("%s exceeds maximum length of %s characters", field, e.Param())
			case "url":
				return errors.Validationf("%s must be a valid url", field)
			case "oneof":
				return errors.Validationf("%s must be one of: %s", field, e.Param())
			default:
				return errors.Validationf("%s is invalid", field)
			}
		}
	}
	return err
}

// requireUser rejects operations without an authenticated user before any
// store access happens.
func requireUser(userID string) error {
	if userID == "" {
		return errors.Unauthorized("authentication required")
	}
	return nil
}

// ownedArticle loads an article and verifies the caller owns it.
func ownedArticle(ctx context.Context, s *store.Store, userID, articleID string) (*domain.Article, error) {
	article, err := s.GetArticle(ctx, articleID)
	if err != nil {
		if errors.Is(err, store.ErrArticleNotFound) {
			return nil, errors.NotFound("article not found")
		}
		return nil, err
	}
	if article.UserID != userID {
		return nil, errors.Forbidden("article belongs to another user")
	}
	return article, nil
}
