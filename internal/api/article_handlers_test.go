package api

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/service"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

func TestSaveArticle_Success(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/articles",
		"Authorization: Bearer "+token,
		map[string]any{"url": "https://example.com/posts/go-patterns"},
	)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[service.IngestResult]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.True(t, envelope.Success)
	require.NotNil(t, envelope.Data.Article)
	assert.Equal(t, "https://example.com/posts/go-patterns", envelope.Data.Article.URL)
	assert.Equal(t, domain.TypeArticle, envelope.Data.Article.Type)
	assert.NotEmpty(t, envelope.Data.Article.Content)
	assert.False(t, envelope.Data.SavedLocallyOnly)
	assert.Equal(t, 1, ts.fetcher.calls)
}

func TestSaveArticle_DuplicateURL(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/articles",
		"Authorization: Bearer "+token,
		map[string]any{"url": "https://example.com/posts/go-patterns"},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	// Cosmetic URL differences still hit the same canonical record.
	resp = ts.api.Post("/api/v1/articles",
		"Authorization: Bearer "+token,
		map[string]any{"url": "HTTPS://Example.com/posts/go-patterns/"},
	)
	assert.Equal(t, http.StatusConflict, resp.Code)

	var envelope testEnvelope[any]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)
	assert.Contains(t, envelope.Details, "article_id")
}

func TestSaveArticle_InvalidURL(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/articles",
		"Authorization: Bearer "+token,
		map[string]any{"url": "not a url"},
	)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListArticles_StripsFileData(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "reader@example.com")

	article := ts.seedArticle(t, userID, "https://example.com/a", "With Binary")
	article.FileData = "YmluYXJ5"
	_, err := ts.store.UpdateArticle(context.Background(), article)
	require.NoError(t, err)

	resp := ts.api.Get("/api/v1/articles", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[store.PaginatedResult[*domain.Article]]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 1)
	assert.Empty(t, envelope.Data.Items[0].FileData)
	assert.Equal(t, "With Binary", envelope.Data.Items[0].Title)
}

func TestListArticles_StatusFilter(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "reader@example.com")

	inbox := ts.seedArticle(t, userID, "https://example.com/a", "Inbox One")
	archived := ts.seedArticle(t, userID, "https://example.com/b", "Archived One")
	archived.Status = domain.StatusArchived
	_, err := ts.store.UpdateArticle(context.Background(), archived)
	require.NoError(t, err)

	resp := ts.api.Get("/api/v1/articles?status=archived", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[store.PaginatedResult[*domain.Article]]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 1)
	assert.Equal(t, archived.ID, envelope.Data.Items[0].ID)
	assert.NotEqual(t, inbox.ID, envelope.Data.Items[0].ID)
}

func TestGetArticle_OtherUsersArticle(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerID := ts.registerUser(t, "owner@example.com")
	otherToken, _ := ts.registerUser(t, "other@example.com")

	article := ts.seedArticle(t, ownerID, "https://example.com/private", "Private")

	resp := ts.api.Get("/api/v1/articles/"+article.ID, "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestUpdateArticle_MarksRead(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "reader@example.com")
	article := ts.seedArticle(t, userID, "https://example.com/a", "To Read")

	resp := ts.api.Patch("/api/v1/articles/"+article.ID,
		"Authorization: Bearer "+token,
		map[string]any{"is_read": true, "status": "archived"},
	)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[*domain.Article]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.IsRead)
	assert.NotNil(t, envelope.Data.ReadAt)
	assert.Equal(t, domain.StatusArchived, envelope.Data.Status)
}

func TestUpdateArticle_InvalidStatus(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "reader@example.com")
	article := ts.seedArticle(t, userID, "https://example.com/a", "To Read")

	resp := ts.api.Patch("/api/v1/articles/"+article.ID,
		"Authorization: Bearer "+token,
		map[string]any{"status": "someday"},
	)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeleteArticle(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "reader@example.com")
	article := ts.seedArticle(t, userID, "https://example.com/a", "Doomed")

	resp := ts.api.Delete("/api/v1/articles/"+article.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/articles/"+article.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUploadDocument_RejectsBadBase64(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/articles/upload",
		"Authorization: Bearer "+token,
		map[string]any{"file_name": "notes.pdf", "data": "!!!not base64!!!"},
	)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUploadDocument_RejectsUnknownType(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "reader@example.com")

	// "cGxhaW4gdGV4dA==" is "plain text", neither EPUB nor PDF.
	resp := ts.api.Post("/api/v1/articles/upload",
		"Authorization: Bearer "+token,
		map[string]any{"file_name": "notes.txt", "data": "cGxhaW4gdGV4dA=="},
	)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Code)
}

func TestRemoveDuplicates(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "reader@example.com")

	ts.seedArticle(t, userID, "https://example.com/same", "First")
	ts.seedArticle(t, userID, "https://example.com/same", "Second")

	resp := ts.api.Post("/api/v1/articles/dedup", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[MaintenanceResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Affected)
}
