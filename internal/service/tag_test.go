package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstackapp/keepstack-server/internal/color"
	"github.com/keepstackapp/keepstack-server/internal/errors"
)

func TestTagCreate_DuplicateSlugConflicts(t *testing.T) {
	s := newTestStore(t)
	svc := NewTagService(s, testLogger())
	userID := createTestUser(t, s, "reader@example.com")
	ctx := context.Background()

	tag, err := svc.Create(ctx, userID, CreateTagRequest{Name: "Deep Work", Color: "#ff8800"})
	require.NoError(t, err)
	assert.NotEmpty(t, tag.ID)

	// A name with the same slug is the same tag.
	_, err = svc.Create(ctx, userID, CreateTagRequest{Name: "deep-work"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeAlreadyExists, errorCode(t, err))

	// Another user gets their own namespace.
	otherID := createTestUser(t, s, "other@example.com")
	_, err = svc.Create(ctx, otherID, CreateTagRequest{Name: "Deep Work"})
	require.NoError(t, err)
}

func TestTagCreate_DefaultColor(t *testing.T) {
	s := newTestStore(t)
	svc := NewTagService(s, testLogger())
	userID := createTestUser(t, s, "reader@example.com")
	ctx := context.Background()

	tag, err := svc.Create(ctx, userID, CreateTagRequest{Name: "Deep Work"})
	require.NoError(t, err)
	assert.Equal(t, color.ForTag("deep-work"), tag.Color)

	// An explicit color wins over the derived one.
	tag, err = svc.Create(ctx, userID, CreateTagRequest{Name: "golang", Color: "#ff8800"})
	require.NoError(t, err)
	assert.Equal(t, "#ff8800", tag.Color)
}

func TestTagCreate_UnusableName(t *testing.T) {
	s := newTestStore(t)
	svc := NewTagService(s, testLogger())
	userID := createTestUser(t, s, "reader@example.com")

	_, err := svc.Create(context.Background(), userID, CreateTagRequest{Name: "🔖🔖"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errorCode(t, err))
}

func TestTagArticle_CreatesVocabularyEntry(t *testing.T) {
	s := newTestStore(t)
	svc := NewTagService(s, testLogger())
	userID := createTestUser(t, s, "reader@example.com")
	article := createTestArticle(t, s, userID, "https://example.com/a")
	ctx := context.Background()

	got, err := svc.TagArticle(ctx, userID, article.ID, "golang")
	require.NoError(t, err)
	assert.Equal(t, []string{"golang"}, got.Tags)

	// Tagging again is idempotent.
	got, err = svc.TagArticle(ctx, userID, article.ID, "golang")
	require.NoError(t, err)
	assert.Equal(t, []string{"golang"}, got.Tags)

	// First use registered the tag in the vocabulary.
	tags, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "golang", tags[0].Name)
	assert.NotEmpty(t, tags[0].Color)
}

func TestUntagArticle(t *testing.T) {
	s := newTestStore(t)
	svc := NewTagService(s, testLogger())
	userID := createTestUser(t, s, "reader@example.com")
	article := createTestArticle(t, s, userID, "https://example.com/a")
	ctx := context.Background()

	_, err := svc.TagArticle(ctx, userID, article.ID, "golang")
	require.NoError(t, err)
	_, err = svc.TagArticle(ctx, userID, article.ID, "reading")
	require.NoError(t, err)

	got, err := svc.UntagArticle(ctx, userID, article.ID, "golang")
	require.NoError(t, err)
	assert.Equal(t, []string{"reading"}, got.Tags)

	// Removing a name the article doesn't carry is a no-op.
	got, err = svc.UntagArticle(ctx, userID, article.ID, "golang")
	require.NoError(t, err)
	assert.Equal(t, []string{"reading"}, got.Tags)
}

func TestTagDelete_EnforcesOwnership(t *testing.T) {
	s := newTestStore(t)
	svc := NewTagService(s, testLogger())
	ownerID := createTestUser(t, s, "owner@example.com")
	intruderID := createTestUser(t, s, "intruder@example.com")
	ctx := context.Background()

	tag, err := svc.Create(ctx, ownerID, CreateTagRequest{Name: "private"})
	require.NoError(t, err)

	err = svc.Delete(ctx, intruderID, tag.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errorCode(t, err))

	require.NoError(t, svc.Delete(ctx, ownerID, tag.ID))
	// Idempotent once gone.
	require.NoError(t, svc.Delete(ctx, ownerID, tag.ID))
}
