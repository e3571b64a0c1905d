package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/service"
)

func (s *Server) registerHighlightRoutes() {
	bearer := []map[string][]string{{"bearer": {}}}

	huma.Register(s.api, huma.Operation{
		OperationID: "create-highlight",
		Method:      http.MethodPost,
		Path:        "/api/v1/highlights",
		Summary:     "Create highlight",
		Tags:        []string{"Highlights"},
		Security:    bearer,
	}, s.handleCreateHighlight)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-article-highlights",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles/{id}/highlights",
		Summary:     "List highlights on an article",
		Tags:        []string{"Highlights"},
		Security:    bearer,
	}, s.handleListArticleHighlights)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-highlights",
		Method:      http.MethodGet,
		Path:        "/api/v1/highlights",
		Summary:     "List all highlights",
		Description: "Returns every highlight the user has made, for export and sync.",
		Tags:        []string{"Highlights"},
		Security:    bearer,
	}, s.handleListHighlights)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-highlight",
		Method:      http.MethodDelete,
		Path:        "/api/v1/highlights/{id}",
		Summary:     "Delete highlight",
		Tags:        []string{"Highlights"},
		Security:    bearer,
	}, s.handleDeleteHighlight)
}

// === DTOs ===

// CreateHighlightInput wraps the highlight creation request for Huma.
type CreateHighlightInput struct {
	Body service.CreateHighlightRequest
}

// HighlightOutput wraps a single highlight for Huma.
type HighlightOutput struct {
	Body *domain.Highlight
}

// HighlightListOutput wraps a highlight list for Huma.
type HighlightListOutput struct {
	Body []*domain.Highlight
}

// HighlightIDInput identifies a highlight by path parameter.
type HighlightIDInput struct {
	ID string `path:"id" doc:"Highlight ID"`
}

// === Handlers ===

func (s *Server) handleCreateHighlight(ctx context.Context, input *CreateHighlightInput) (*HighlightOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	highlight, err := s.services.Highlight.Create(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &HighlightOutput{Body: highlight}, nil
}

func (s *Server) handleListArticleHighlights(ctx context.Context, input *ArticleIDInput) (*HighlightListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	highlights, err := s.services.Highlight.ListByArticle(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &HighlightListOutput{Body: highlights}, nil
}

func (s *Server) handleListHighlights(ctx context.Context, _ *struct{}) (*HighlightListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	highlights, err := s.services.Highlight.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &HighlightListOutput{Body: highlights}, nil
}

func (s *Server) handleDeleteHighlight(ctx context.Context, input *HighlightIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Highlight.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
