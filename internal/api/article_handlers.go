package api

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/keepstackapp/keepstack-server/internal/category"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/service"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

func (s *Server) registerArticleRoutes() {
	bearer := []map[string][]string{{"bearer": {}}}

	huma.Register(s.api, huma.Operation{
		OperationID: "save-article",
		Method:      http.MethodPost,
		Path:        "/api/v1/articles",
		Summary:     "Save article by URL",
		Description: "Fetches a web page, extracts its readable content, and saves it to the reading queue.",
		Tags:        []string{"Articles"},
		Security:    bearer,
	}, s.handleSaveArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "upload-document",
		Method:      http.MethodPost,
		Path:        "/api/v1/articles/upload",
		Summary:     "Upload EPUB or PDF",
		Description: "Saves an uploaded document. The file travels base64-encoded in the request body and is stored alongside its extracted content.",
		Tags:        []string{"Articles"},
		Security:    bearer,
	}, s.handleUploadDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-articles",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles",
		Summary:     "List articles",
		Description: "Returns the user's articles, filtered and cursor-paginated. File payloads are omitted.",
		Tags:        []string{"Articles"},
		Security:    bearer,
	}, s.handleListArticles)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-article",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles/{id}",
		Summary:     "Get article",
		Tags:        []string{"Articles"},
		Security:    bearer,
	}, s.handleGetArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-article",
		Method:      http.MethodPatch,
		Path:        "/api/v1/articles/{id}",
		Summary:     "Update article flags",
		Description: "Applies a partial update: read state, favorite, status, reading progress, title, tags.",
		Tags:        []string{"Articles"},
		Security:    bearer,
	}, s.handleUpdateArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-article",
		Method:      http.MethodDelete,
		Path:        "/api/v1/articles/{id}",
		Summary:     "Delete article",
		Tags:        []string{"Articles"},
		Security:    bearer,
	}, s.handleDeleteArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "remove-duplicates",
		Method:      http.MethodPost,
		Path:        "/api/v1/articles/dedup",
		Summary:     "Remove duplicate articles",
		Description: "Collapses articles sharing a URL down to the earliest save.",
		Tags:        []string{"Articles"},
		Security:    bearer,
	}, s.handleRemoveDuplicates)

	huma.Register(s.api, huma.Operation{
		OperationID: "migrate-legacy-content",
		Method:      http.MethodPost,
		Path:        "/api/v1/articles/migrate",
		Summary:     "Migrate legacy binary content",
		Description: "Moves base64 payloads that older clients wrote into the content field over to file storage.",
		Tags:        []string{"Articles"},
		Security:    bearer,
	}, s.handleMigrateLegacyContent)
}

// === DTOs ===

// SaveArticleRequest is the request body for save-by-URL.
type SaveArticleRequest struct {
	URL string `json:"url" validate:"required,url" doc:"Page URL to save"`
}

// SaveArticleInput wraps the save request for Huma.
type SaveArticleInput struct {
	Body SaveArticleRequest
}

// UploadDocumentRequest is the request body for document upload.
type UploadDocumentRequest struct {
	FileName string `json:"file_name" validate:"required,max=255" doc:"Original file name including extension"`
	Data     string `json:"data" validate:"required" doc:"Base64-encoded file content"`
}

// UploadDocumentInput wraps the upload request for Huma.
type UploadDocumentInput struct {
	Body UploadDocumentRequest
}

// IngestOutput wraps an ingest result for Huma.
type IngestOutput struct {
	Body service.IngestResult
}

// ListArticlesInput carries list filters as query parameters.
type ListArticlesInput struct {
	Status   string `query:"status" enum:"inbox,later,archived" doc:"Filter by triage status"`
	Type     string `query:"type" enum:"article,pdf,epub,note" doc:"Filter by article type"`
	Tag      string `query:"tag" doc:"Filter by tag name"`
	Category string `query:"category" doc:"Filter by category slug"`
	Favorite *bool  `query:"favorite" doc:"Filter by favorite flag"`
	IsRead   *bool  `query:"is_read" doc:"Filter by read flag"`
	Limit    int    `query:"limit" minimum:"1" maximum:"1000" doc:"Page size (default 100)"`
	Cursor   string `query:"cursor" doc:"Opaque cursor from a previous page"`
}

// ArticleListOutput wraps a paginated article list for Huma.
type ArticleListOutput struct {
	Body store.PaginatedResult[*domain.Article]
}

// ArticleIDInput identifies an article by path parameter.
type ArticleIDInput struct {
	ID string `path:"id" doc:"Article ID"`
}

// ArticleOutput wraps a single article for Huma.
type ArticleOutput struct {
	Body *domain.Article
}

// UpdateArticleInput wraps a partial article update for Huma.
type UpdateArticleInput struct {
	ID   string `path:"id" doc:"Article ID"`
	Body service.UpdateArticleRequest
}

// MaintenanceResponse reports how many records a maintenance pass touched.
type MaintenanceResponse struct {
	Affected int `json:"affected" doc:"Number of articles affected"`
}

// MaintenanceOutput wraps a maintenance response for Huma.
type MaintenanceOutput struct {
	Body MaintenanceResponse
}

// === Handlers ===

func (s *Server) handleSaveArticle(ctx context.Context, input *SaveArticleInput) (*IngestOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Ingest.AddByURL(ctx, userID, service.AddByURLRequest{URL: input.Body.URL})
	if err != nil {
		return nil, err
	}
	return &IngestOutput{Body: *result}, nil
}

func (s *Server) handleUploadDocument(ctx context.Context, input *UploadDocumentInput) (*IngestOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(input.Body.Data)
	if err != nil {
		return nil, errors.Validation("data is not valid base64")
	}

	result, err := s.services.Ingest.AddByFile(ctx, userID, service.AddByFileRequest{
		FileName: input.Body.FileName,
		Data:     data,
	})
	if err != nil {
		return nil, err
	}
	return &IngestOutput{Body: *result}, nil
}

func (s *Server) handleListArticles(ctx context.Context, input *ListArticlesInput) (*ArticleListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	filter := store.ArticleFilter{
		Status:   domain.ArticleStatus(input.Status),
		Type:     domain.ArticleType(input.Type),
		Tag:      input.Tag,
		Category: category.Canonicalize(input.Category),
		Favorite: input.Favorite,
		IsRead:   input.IsRead,
	}
	params := store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor}

	result, err := s.services.Article.List(ctx, userID, filter, params)
	if err != nil {
		return nil, err
	}

	// List responses never carry file payloads; clients fetch those per
	// article.
	for i, article := range result.Items {
		if article.FileData != "" {
			slim := *article
			slim.FileData = ""
			result.Items[i] = &slim
		}
	}
	return &ArticleListOutput{Body: *result}, nil
}

func (s *Server) handleGetArticle(ctx context.Context, input *ArticleIDInput) (*ArticleOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	article, err := s.services.Article.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &ArticleOutput{Body: article}, nil
}

func (s *Server) handleUpdateArticle(ctx context.Context, input *UpdateArticleInput) (*ArticleOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	article, err := s.services.Article.Update(ctx, userID, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ArticleOutput{Body: article}, nil
}

func (s *Server) handleDeleteArticle(ctx context.Context, input *ArticleIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Article.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleRemoveDuplicates(ctx context.Context, _ *struct{}) (*MaintenanceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	removed, err := s.services.Article.RemoveDuplicates(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MaintenanceOutput{Body: MaintenanceResponse{Affected: removed}}, nil
}

func (s *Server) handleMigrateLegacyContent(ctx context.Context, _ *struct{}) (*MaintenanceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	migrated, err := s.services.Article.MigrateLegacyContent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MaintenanceOutput{Body: MaintenanceResponse{Affected: migrated}}, nil
}
