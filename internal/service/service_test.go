package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keepstackapp/keepstack-server/internal/auth"
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/fetch"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), testLogger(), store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func newTestAuthService(t *testing.T, s *store.Store) *AuthService {
	t.Helper()
	keyHex, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(keyHex, 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)
	return NewAuthService(s, tokens, testLogger())
}

// createTestUser seeds a user directly and returns its id.
func createTestUser(t *testing.T, s *store.Store, email string) string {
	t.Helper()
	user := &domain.User{Email: email, DisplayName: "Test User"}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user.ID
}

// createTestArticle seeds an article owned by userID and returns it.
func createTestArticle(t *testing.T, s *store.Store, userID, url string) *domain.Article {
	t.Helper()
	article := &domain.Article{
		UserID:  userID,
		Type:    domain.TypeArticle,
		URL:     url,
		Title:   "Seeded Article",
		Content: "<p>seeded content</p>",
	}
	require.NoError(t, s.CreateArticle(context.Background(), article))
	return article
}

// errorCode extracts the domain error code, failing the test when err is
// not a coded error.
func errorCode(t *testing.T, err error) errors.Code {
	t.Helper()
	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

// stubFetcher returns canned pages and records whether it was called.
type stubFetcher struct {
	html  string
	err   error
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*fetch.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &fetch.Page{HTML: f.html, FinalURL: url}, nil
}

// failingCloud simulates an unreachable sync backend.
type failingCloud struct{}

func (failingCloud) SaveArticle(context.Context, *domain.Article) error {
	return errors.Internal("cloud unreachable")
}

func (failingCloud) DeleteArticle(context.Context, string) error {
	return errors.Internal("cloud unreachable")
}
