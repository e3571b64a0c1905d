package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstackapp/keepstack-server/internal/domain"
)

func TestCreateTag_SlugUniquePerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := &domain.Tag{UserID: "usr-1", Name: "Deep Work", CreatedAt: time.Now()}
	require.NoError(t, s.CreateTag(ctx, tag))
	assert.NotEmpty(t, tag.ID)

	// Same slug, same user: conflict.
	err := s.CreateTag(ctx, &domain.Tag{UserID: "usr-1", Name: "deep-work"})
	assert.ErrorIs(t, err, ErrTagExists)

	// Same slug, different user: fine.
	assert.NoError(t, s.CreateTag(ctx, &domain.Tag{UserID: "usr-2", Name: "Deep Work"}))
}

func TestCreateTag_EmptySlugRejected(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateTag(context.Background(), &domain.Tag{UserID: "usr-1", Name: "!!!"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetTagBySlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := &domain.Tag{UserID: "usr-1", Name: "Café Culture"}
	require.NoError(t, s.CreateTag(ctx, tag))

	// Lookup normalizes the same way creation does.
	got, err := s.GetTagBySlug(ctx, "usr-1", "cafe culture")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, got.ID)

	_, err = s.GetTagBySlug(ctx, "usr-2", "cafe culture")
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestListTags_SortedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zig", "ada", "go"} {
		require.NoError(t, s.CreateTag(ctx, &domain.Tag{UserID: "usr-1", Name: name}))
	}
	require.NoError(t, s.CreateTag(ctx, &domain.Tag{UserID: "usr-2", Name: "other"}))

	tags, err := s.ListTags(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "ada", tags[0].Name)
	assert.Equal(t, "go", tags[1].Name)
	assert.Equal(t, "zig", tags[2].Name)
}

func TestDeleteTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := &domain.Tag{UserID: "usr-1", Name: "temp"}
	require.NoError(t, s.CreateTag(ctx, tag))
	require.NoError(t, s.DeleteTag(ctx, tag.ID))

	_, err := s.GetTagByID(ctx, tag.ID)
	assert.ErrorIs(t, err, ErrTagNotFound)

	// Slug is free again.
	assert.NoError(t, s.CreateTag(ctx, &domain.Tag{UserID: "usr-1", Name: "temp"}))

	// Deleting a missing tag is idempotent.
	assert.NoError(t, s.DeleteTag(ctx, "tag-missing"))
}
