package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstackapp/keepstack-server/internal/domain"
)

func TestMigrateLegacyBinaryContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	payload := strings.Repeat("SGVsbG8gS2VlcHN0YWNr", 40) // well over the size floor

	legacy := newArticle("usr-1", "local-pdf://art-legacy", time.Now())
	legacy.Type = domain.TypePDF
	legacy.Content = payload
	require.NoError(t, s.CreateArticle(ctx, legacy))

	htmlArticle := newArticle("usr-1", "https://example.com/a", time.Now())
	require.NoError(t, s.CreateArticle(ctx, htmlArticle))

	short := newArticle("usr-1", "local-pdf://art-short", time.Now())
	short.Type = domain.TypePDF
	short.Content = "c2hvcnQ="
	require.NoError(t, s.CreateArticle(ctx, short))

	migrated, err := s.MigrateLegacyBinaryContent(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 1, migrated)

	got, err := s.GetArticle(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, got.FileData)
	assert.Equal(t, domain.BinaryPlaceholder, got.Content)

	// HTML articles and short payloads are untouched.
	got, err = s.GetArticle(ctx, htmlArticle.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>body</p>", got.Content)

	got, err = s.GetArticle(ctx, short.ID)
	require.NoError(t, err)
	assert.Equal(t, "c2hvcnQ=", got.Content)

	// Re-running migrates nothing further.
	migrated, err = s.MigrateLegacyBinaryContent(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 0, migrated)
}

func TestLooksLikeLegacyBinary(t *testing.T) {
	longB64 := strings.Repeat("QUJDRA", 100) + "=="

	assert.True(t, looksLikeLegacyBinary("pdf", "", longB64))
	assert.True(t, looksLikeLegacyBinary("epub", "", longB64))
	assert.False(t, looksLikeLegacyBinary("article", "", longB64), "html articles never migrate")
	assert.False(t, looksLikeLegacyBinary("pdf", "already-set", longB64))
	assert.False(t, looksLikeLegacyBinary("pdf", "", "short"))
	assert.False(t, looksLikeLegacyBinary("pdf", "", "<p>"+longB64+"</p>"))
}
