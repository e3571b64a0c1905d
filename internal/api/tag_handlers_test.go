package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstackapp/keepstack-server/internal/domain"
)

func TestCreateTag_Success(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Deep Work", "color": "#AA3366"},
	)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[*domain.Tag]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Deep Work", envelope.Data.Name)
	assert.Equal(t, "#AA3366", envelope.Data.Color)
	assert.NotEmpty(t, envelope.Data.ID)
}

func TestCreateTag_DuplicateSlug(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "reader@example.com")

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "Deep Work"},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	// Different casing, same slug.
	resp = ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "deep-work"},
	)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestListTags(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "reader@example.com")

	for _, name := range []string{"golang", "reading", "later"} {
		resp := ts.api.Post("/api/v1/tags",
			"Authorization: Bearer "+token,
			map[string]any{"name": name},
		)
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[[]*domain.Tag]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 3)
}

func TestTagArticle_AddsToArticleAndVocabulary(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "reader@example.com")
	article := ts.seedArticle(t, userID, "https://example.com/a", "Taggable")

	resp := ts.api.Post("/api/v1/articles/"+article.ID+"/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "golang"},
	)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[*domain.Article]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Data.Tags, "golang")

	// The tag is now part of the user's vocabulary.
	resp = ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var tags testEnvelope[[]*domain.Tag]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tags))
	require.Len(t, tags.Data, 1)
	assert.Equal(t, "golang", tags.Data[0].Name)
}

func TestUntagArticle(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "reader@example.com")
	article := ts.seedArticle(t, userID, "https://example.com/a", "Taggable")

	resp := ts.api.Post("/api/v1/articles/"+article.ID+"/tags",
		"Authorization: Bearer "+token,
		map[string]any{"name": "golang"},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/articles/"+article.ID+"/tags/golang",
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[*domain.Article]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.NotContains(t, envelope.Data.Tags, "golang")
}

func TestDeleteTag_OtherUsersTagForbidden(t *testing.T) {
	ts := setupTestServer(t)
	ownerToken, _ := ts.registerUser(t, "owner@example.com")
	otherToken, _ := ts.registerUser(t, "other@example.com")

	resp := ts.api.Post("/api/v1/tags",
		"Authorization: Bearer "+ownerToken,
		map[string]any{"name": "private"},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[*domain.Tag]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	resp = ts.api.Delete("/api/v1/tags/"+envelope.Data.ID, "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
