package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	bearer := []map[string][]string{{"bearer": {}}}

	huma.Register(s.api, huma.Operation{
		OperationID: "create-tag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-tags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-tag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "tag-article",
		Method:      http.MethodPost,
		Path:        "/api/v1/articles/{id}/tags",
		Summary:     "Tag article",
		Description: "Attaches a tag name to an article, creating the tag on first use.",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, s.handleTagArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "untag-article",
		Method:      http.MethodDelete,
		Path:        "/api/v1/articles/{id}/tags/{name}",
		Summary:     "Untag article",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, s.handleUntagArticle)
}

// === DTOs ===

// CreateTagInput wraps the tag creation request for Huma.
type CreateTagInput struct {
	Body service.CreateTagRequest
}

// TagOutput wraps a single tag for Huma.
type TagOutput struct {
	Body *domain.Tag
}

// TagListOutput wraps a tag list for Huma.
type TagListOutput struct {
	Body []*domain.Tag
}

// TagIDInput identifies a tag by path parameter.
type TagIDInput struct {
	ID string `path:"id" doc:"Tag ID"`
}

// TagArticleInput names a tag to attach to an article.
type TagArticleInput struct {
	ID   string `path:"id" doc:"Article ID"`
	Body struct {
		Name string `json:"name" validate:"required,max=100" doc:"Tag name"`
	}
}

// UntagArticleInput identifies a tag name to remove from an article.
type UntagArticleInput struct {
	ID   string `path:"id" doc:"Article ID"`
	Name string `path:"name" doc:"Tag name"`
}

// === Handlers ===

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Create(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*TagListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TagListOutput{Body: tags}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleTagArticle(ctx context.Context, input *TagArticleInput) (*ArticleOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	article, err := s.services.Tag.TagArticle(ctx, userID, input.ID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &ArticleOutput{Body: article}, nil
}

func (s *Server) handleUntagArticle(ctx context.Context, input *UntagArticleInput) (*ArticleOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	article, err := s.services.Tag.UntagArticle(ctx, userID, input.ID, input.Name)
	if err != nil {
		return nil, err
	}
	return &ArticleOutput{Body: article}, nil
}
