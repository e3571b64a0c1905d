package api

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstackapp/keepstack-server/internal/search"
)

func TestSearch_FindsSavedArticle(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.registerUser(t, "reader@example.com")

	article := ts.seedArticle(t, userID, "https://example.com/a", "Concurrency in Practice")
	article.Content = "<p>goroutines and channels explained at length</p>"

	// The store's indexing hook is asynchronous; index directly so the
	// query below is deterministic.
	require.NoError(t, ts.searchIndex.IndexArticle(context.Background(), article))

	resp := ts.api.Get("/api/v1/search?q=goroutines", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[search.Result]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Hits)
	assert.Equal(t, article.ID, envelope.Data.Hits[0].ID)
	assert.Equal(t, "Concurrency in Practice", envelope.Data.Hits[0].Title)
}

func TestSearch_ScopedToUser(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerID := ts.registerUser(t, "owner@example.com")
	otherToken, _ := ts.registerUser(t, "other@example.com")

	ts.seedArticle(t, ownerID, "https://example.com/a", "Secret Reading List")

	resp := ts.api.Get("/api/v1/search?q=secret", "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[search.Result]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.Hits)
}

func TestSearch_RequiresToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/search?q=anything")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
