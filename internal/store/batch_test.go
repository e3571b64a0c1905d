package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchWriter_AutoFlush(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := s.NewBatchWriter(3)
	for i := 0; i < 7; i++ {
		article := newArticle("usr-1", fmt.Sprintf("https://example.com/%d", i), time.Now())
		require.NoError(t, batch.AddArticle(ctx, article))
	}
	// Two auto-flushes happened; one article still pending.
	assert.Equal(t, 1, batch.Count())
	require.NoError(t, batch.Flush())
	assert.Equal(t, 0, batch.Count())

	count, err := s.CountArticles(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestBatchWriter_Cancel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := s.NewBatchWriter(100)
	require.NoError(t, batch.AddArticle(ctx, newArticle("usr-1", "https://example.com/a", time.Now())))
	batch.Cancel()

	count, err := s.CountArticles(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
