package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/epub"
	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/media"
	"github.com/keepstackapp/keepstack-server/internal/pdf"
	"github.com/keepstackapp/keepstack-server/internal/readability"
	"github.com/keepstackapp/keepstack-server/internal/sanitize"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

func newTestIngestService(t *testing.T, s *store.Store, fetcher PageFetcher, cloud CloudSync) *IngestService {
	t.Helper()
	if cloud == nil {
		cloud = NoopCloudSync{}
	}
	logger := testLogger()
	return NewIngestService(
		s,
		fetcher,
		readability.NewNormalizer(logger),
		sanitize.New(),
		epub.NewExtractor(logger),
		pdf.NewExtractor(logger),
		media.NewPreviewer(logger),
		cloud,
		store.NewNoopEmitter(),
		logger,
	)
}

// testEPUB builds a minimal but valid EPUB archive.
func testEPUB(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	files := map[string]string{
		"META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OPS/package.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`,
		"OPS/package.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="3.0">
  <metadata><dc:title>A Good Book</dc:title></metadata>
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine><itemref idref="ch1"/></spine>
</package>`,
		"OPS/ch1.xhtml": `<html><body><p>Chapter one has enough words to count as content.</p></body></html>`,
	}
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestAddByURL_SavesArticle(t *testing.T) {
	s := newTestStore(t)
	fetcher := &stubFetcher{html: `<html><head><title>Go Patterns</title></head><body>
		<article><p>` + strings.Repeat("structured concurrency matters ", 40) + `</p></article>
	</body></html>`}
	svc := newTestIngestService(t, s, fetcher, nil)
	userID := createTestUser(t, s, "reader@example.com")

	result, err := svc.AddByURL(context.Background(), userID, AddByURLRequest{
		URL: "HTTPS://Example.com/posts/go-patterns/",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Article)
	assert.False(t, result.SavedLocallyOnly)
	assert.Equal(t, 1, fetcher.calls)

	article := result.Article
	assert.NotEmpty(t, article.ID)
	assert.Equal(t, userID, article.UserID)
	assert.Equal(t, domain.TypeArticle, article.Type)
	assert.Equal(t, "https://example.com/posts/go-patterns", article.URL)
	assert.Contains(t, article.Content, "structured concurrency matters")
	assert.NotEmpty(t, article.Title)
	assert.NotEmpty(t, article.Excerpt)
	assert.GreaterOrEqual(t, article.EstimatedReadTime, 1)

	got, err := s.GetArticle(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Equal(t, article.URL, got.URL)
}

func TestAddByURL_DuplicateURLConflicts(t *testing.T) {
	s := newTestStore(t)
	fetcher := &stubFetcher{html: "<html><body><p>once is enough</p></body></html>"}
	svc := newTestIngestService(t, s, fetcher, nil)
	userID := createTestUser(t, s, "reader@example.com")

	_, err := svc.AddByURL(context.Background(), userID, AddByURLRequest{URL: "https://example.com/a"})
	require.NoError(t, err)

	// The same page with cosmetic URL differences is still a duplicate.
	_, err = svc.AddByURL(context.Background(), userID, AddByURLRequest{URL: "https://EXAMPLE.com/a/"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeAlreadyExists, errorCode(t, err))
	assert.Equal(t, 1, fetcher.calls)

	// Another user saving the same URL is fine.
	otherID := createTestUser(t, s, "other@example.com")
	_, err = svc.AddByURL(context.Background(), otherID, AddByURLRequest{URL: "https://example.com/a"})
	require.NoError(t, err)
}

func TestAddByURL_RequiresAuthenticatedUser(t *testing.T) {
	s := newTestStore(t)
	fetcher := &stubFetcher{html: "<html><body><p>never fetched</p></body></html>"}
	svc := newTestIngestService(t, s, fetcher, nil)

	_, err := svc.AddByURL(context.Background(), "", AddByURLRequest{URL: "https://example.com/a"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errorCode(t, err))

	// No fetch happened and nothing was written.
	assert.Equal(t, 0, fetcher.calls)
	result, err := s.ListArticles(context.Background(), "", store.ArticleFilter{}, store.DefaultPaginationParams())
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestAddByURL_CloudFailureSavesLocally(t *testing.T) {
	s := newTestStore(t)
	fetcher := &stubFetcher{html: "<html><body><p>local first</p></body></html>"}
	svc := newTestIngestService(t, s, fetcher, failingCloud{})
	userID := createTestUser(t, s, "reader@example.com")

	result, err := svc.AddByURL(context.Background(), userID, AddByURLRequest{URL: "https://example.com/a"})
	require.NoError(t, err)
	assert.True(t, result.SavedLocallyOnly)

	// The local write survived the cloud failure.
	_, err = s.GetArticle(context.Background(), result.Article.ID)
	require.NoError(t, err)
}

func TestAddByFile_EPUB(t *testing.T) {
	s := newTestStore(t)
	svc := newTestIngestService(t, s, &stubFetcher{}, nil)
	userID := createTestUser(t, s, "reader@example.com")
	data := testEPUB(t)

	result, err := svc.AddByFile(context.Background(), userID, AddByFileRequest{
		FileName: "a-good-book.epub",
		Data:     data,
	})
	require.NoError(t, err)

	article := result.Article
	assert.Equal(t, domain.TypeEPUB, article.Type)
	assert.Equal(t, "local-epub://a-good-book.epub", article.URL)
	assert.Equal(t, "a-good-book", article.Title)
	assert.Equal(t, "a-good-book.epub", article.FileName)
	assert.Equal(t, int64(len(data)), article.FileSize)
	assert.Contains(t, article.Content, "Chapter one")
	assert.True(t, article.IsLocalFile())

	// The original bytes round-trip through FileData.
	decoded, err := base64.StdEncoding.DecodeString(article.FileData)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestAddByFile_DuplicateFileConflicts(t *testing.T) {
	s := newTestStore(t)
	svc := newTestIngestService(t, s, &stubFetcher{}, nil)
	userID := createTestUser(t, s, "reader@example.com")
	data := testEPUB(t)

	first, err := svc.AddByFile(context.Background(), userID, AddByFileRequest{
		FileName: "a-good-book.epub",
		Data:     data,
	})
	require.NoError(t, err)

	_, err = svc.AddByFile(context.Background(), userID, AddByFileRequest{
		FileName: "a-good-book.epub",
		Data:     data,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeAlreadyExists, errorCode(t, err))

	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, map[string]string{"article_id": first.Article.ID}, domainErr.Details)
}

func TestAddByFile_SignatureSniffing(t *testing.T) {
	s := newTestStore(t)
	svc := newTestIngestService(t, s, &stubFetcher{}, nil)
	userID := createTestUser(t, s, "reader@example.com")

	tests := []struct {
		name     string
		fileName string
		data     []byte
		wantCode errors.Code
	}{
		{
			name:     "plain text is rejected",
			fileName: "notes.txt",
			data:     []byte("just some text"),
			wantCode: errors.CodeUnsupportedMedia,
		},
		{
			name:     "zip without epub extension is rejected",
			fileName: "archive.zip",
			data:     []byte("PK\x03\x04rest-of-zip"),
			wantCode: errors.CodeUnsupportedMedia,
		},
		{
			name:     "epub extension without zip signature is rejected",
			fileName: "fake.epub",
			data:     []byte("<html>not a zip</html>"),
			wantCode: errors.CodeUnsupportedMedia,
		},
		{
			name:     "truncated pdf fails extraction, not sniffing",
			fileName: "broken.pdf",
			data:     []byte("%PDF-1.7 but nothing else"),
			wantCode: errors.CodeExtractionFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddByFile(context.Background(), userID, AddByFileRequest{
				FileName: tt.fileName,
				Data:     tt.data,
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errorCode(t, err))
		})
	}
}

func TestAddByFile_RequiresAuthenticatedUser(t *testing.T) {
	s := newTestStore(t)
	svc := newTestIngestService(t, s, &stubFetcher{}, nil)

	_, err := svc.AddByFile(context.Background(), "", AddByFileRequest{
		FileName: "a.epub",
		Data:     testEPUB(t),
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errorCode(t, err))
}

func TestSniffFileType(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
		want     domain.ArticleType
		wantErr  bool
	}{
		{"pdf by signature", "doc.pdf", []byte("%PDF-1.4"), domain.TypePDF, false},
		{"pdf signature wins over extension", "doc.epub", []byte("%PDF-1.4"), domain.TypePDF, false},
		{"epub needs both signature and extension", "book.EPUB", []byte("PK\x03\x04"), domain.TypeEPUB, false},
		{"empty data", "doc.pdf", nil, "", true},
		{"unknown signature", "image.png", []byte("\x89PNG"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sniffFileType(tt.data, tt.fileName)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
