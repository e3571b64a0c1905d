package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstackapp/keepstack-server/internal/domain"
)

func TestUsersEntity_EmailIndexCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{Email: "Ada@Example.com", DisplayName: "Ada"}
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUserByEmail(ctx, "ada@example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// Duplicate email with different casing conflicts.
	err = s.CreateUser(ctx, &domain.User{Email: "ADA@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUsersEntity_UpdateMovesEmailIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{Email: "old@example.com"}
	require.NoError(t, s.CreateUser(ctx, user))

	user.Email = "new@example.com"
	require.NoError(t, s.UpdateUser(ctx, user))

	_, err := s.GetUserByEmail(ctx, "old@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestHighlightsEntity_ListByArticle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, text := range []string{"first", "second"} {
		h := &domain.Highlight{
			ID:        "hl-" + string(rune('a'+i)),
			ArticleID: "art-1",
			UserID:    "usr-1",
			Text:      text,
			CreatedAt: time.Now(),
		}
		require.NoError(t, s.Highlights.Create(ctx, h.ID, h))
	}
	other := &domain.Highlight{ID: "hl-z", ArticleID: "art-2", UserID: "usr-1", Text: "other"}
	require.NoError(t, s.Highlights.Create(ctx, other.ID, other))

	byArticle, err := s.Highlights.ListByIndex(ctx, "article", "art-1:")
	require.NoError(t, err)
	assert.Len(t, byArticle, 2)

	byUser, err := s.Highlights.ListByIndex(ctx, "user", "usr-1:")
	require.NoError(t, err)
	assert.Len(t, byUser, 3)
}

func TestEntity_DeleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	h := &domain.Highlight{ID: "hl-1", ArticleID: "art-1", UserID: "usr-1"}
	require.NoError(t, s.Highlights.Create(ctx, h.ID, h))
	require.NoError(t, s.Highlights.Delete(ctx, h.ID))
	require.NoError(t, s.Highlights.Delete(ctx, h.ID))

	_, err := s.Highlights.Get(ctx, h.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntity_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &domain.User{Email: "a@example.com"}))
	require.NoError(t, s.CreateUser(ctx, &domain.User{Email: "b@example.com"}))

	count := 0
	for u, err := range s.Users.List(ctx) {
		require.NoError(t, err)
		require.NotNil(t, u)
		count++
	}
	assert.Equal(t, 2, count)
}
