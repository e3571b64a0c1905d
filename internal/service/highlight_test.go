package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstackapp/keepstack-server/internal/errors"
)

func TestHighlightCreate(t *testing.T) {
	s := newTestStore(t)
	svc := NewHighlightService(s, testLogger())
	userID := createTestUser(t, s, "reader@example.com")
	article := createTestArticle(t, s, userID, "https://example.com/a")
	ctx := context.Background()

	highlight, err := svc.Create(ctx, userID, CreateHighlightRequest{
		ArticleID: article.ID,
		Text:      "seeded content",
		Start:     3,
		End:       17,
		Note:      "worth remembering",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, highlight.ID)
	assert.Equal(t, userID, highlight.UserID)
	assert.Equal(t, 3, highlight.Position.Start)
	assert.Equal(t, 17, highlight.Position.End)
	assert.False(t, highlight.CreatedAt.IsZero())
}

func TestHighlightCreate_Validation(t *testing.T) {
	s := newTestStore(t)
	svc := NewHighlightService(s, testLogger())
	userID := createTestUser(t, s, "reader@example.com")
	article := createTestArticle(t, s, userID, "https://example.com/a")
	ctx := context.Background()

	_, err := svc.Create(ctx, userID, CreateHighlightRequest{ArticleID: article.ID})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errorCode(t, err))

	_, err = svc.Create(ctx, userID, CreateHighlightRequest{
		ArticleID: article.ID,
		Text:      "inverted range",
		Start:     20,
		End:       5,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errorCode(t, err))
}

func TestHighlightCreate_OtherUsersArticle(t *testing.T) {
	s := newTestStore(t)
	svc := NewHighlightService(s, testLogger())
	ownerID := createTestUser(t, s, "owner@example.com")
	intruderID := createTestUser(t, s, "intruder@example.com")
	article := createTestArticle(t, s, ownerID, "https://example.com/a")

	_, err := svc.Create(context.Background(), intruderID, CreateHighlightRequest{
		ArticleID: article.ID,
		Text:      "not yours",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errorCode(t, err))
}

func TestHighlightList(t *testing.T) {
	s := newTestStore(t)
	svc := NewHighlightService(s, testLogger())
	userID := createTestUser(t, s, "reader@example.com")
	first := createTestArticle(t, s, userID, "https://example.com/a")
	second := createTestArticle(t, s, userID, "https://example.com/b")
	ctx := context.Background()

	for _, articleID := range []string{first.ID, first.ID, second.ID} {
		_, err := svc.Create(ctx, userID, CreateHighlightRequest{
			ArticleID: articleID,
			Text:      "passage",
		})
		require.NoError(t, err)
	}

	byArticle, err := svc.ListByArticle(ctx, userID, first.ID)
	require.NoError(t, err)
	assert.Len(t, byArticle, 2)

	byUser, err := svc.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, byUser, 3)
}

func TestHighlightDelete_EnforcesOwnership(t *testing.T) {
	s := newTestStore(t)
	svc := NewHighlightService(s, testLogger())
	ownerID := createTestUser(t, s, "owner@example.com")
	intruderID := createTestUser(t, s, "intruder@example.com")
	article := createTestArticle(t, s, ownerID, "https://example.com/a")
	ctx := context.Background()

	highlight, err := svc.Create(ctx, ownerID, CreateHighlightRequest{
		ArticleID: article.ID,
		Text:      "passage",
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, intruderID, highlight.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errorCode(t, err))

	require.NoError(t, svc.Delete(ctx, ownerID, highlight.ID))
	err = svc.Delete(ctx, ownerID, highlight.ID)
	assert.Equal(t, errors.CodeNotFound, errorCode(t, err))
}
