package store

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestStore opens a store against a temp directory, closed automatically
// when the test finishes.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(t.TempDir(), logger, NewNoopEmitter())
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}
