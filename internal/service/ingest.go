package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/epub"
	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/events"
	"github.com/keepstackapp/keepstack-server/internal/fetch"
	"github.com/keepstackapp/keepstack-server/internal/media"
	"github.com/keepstackapp/keepstack-server/internal/normalize"
	"github.com/keepstackapp/keepstack-server/internal/pdf"
	"github.com/keepstackapp/keepstack-server/internal/readability"
	"github.com/keepstackapp/keepstack-server/internal/sanitize"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

// PageFetcher downloads remote pages for save-by-URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// IngestService is the single entry point for adding content: by URL or
// by uploaded file. It drives the extractors, the readability
// normalizer, and the sanitizer, and commits the result locally before
// any cloud sync is attempted.
type IngestService struct {
	store       *store.Store
	fetcher     PageFetcher
	readability *readability.Normalizer
	sanitizer   *sanitize.Sanitizer
	epub        *epub.Extractor
	pdf         *pdf.Extractor
	previewer   *media.Previewer
	cloud       CloudSync
	events      store.EventEmitter
	logger      *slog.Logger
}

// NewIngestService creates the ingestion orchestrator.
func NewIngestService(
	s *store.Store,
	fetcher PageFetcher,
	normalizer *readability.Normalizer,
	sanitizer *sanitize.Sanitizer,
	epubExtractor *epub.Extractor,
	pdfExtractor *pdf.Extractor,
	previewer *media.Previewer,
	cloud CloudSync,
	emitter store.EventEmitter,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		store:       s,
		fetcher:     fetcher,
		readability: normalizer,
		sanitizer:   sanitizer,
		epub:        epubExtractor,
		pdf:         pdfExtractor,
		previewer:   previewer,
		cloud:       cloud,
		events:      emitter,
		logger:      logger,
	}
}

// AddByURLRequest asks for a page to be saved.
type AddByURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// AddByFileRequest asks for an uploaded EPUB or PDF to be saved. Source
// labels where the file came from in lifecycle events; empty means
// "upload".
type AddByFileRequest struct {
	FileName string `json:"file_name" validate:"required"`
	Data     []byte `json:"-" validate:"required"`
	Source   string `json:"-"`
}

// IngestResult is the saved article plus whether cloud sync succeeded.
// SavedLocallyOnly means exactly that; the local write is never rolled
// back on cloud failure.
type IngestResult struct {
	Article          *domain.Article `json:"article"`
	SavedLocallyOnly bool            `json:"saved_locally_only,omitempty"`
}

// AddByURL fetches a page, extracts its readable content, and saves it.
// A URL the user already saved is rejected with a conflict carrying the
// existing article's id.
func (s *IngestService) AddByURL(ctx context.Context, userID string, req AddByURLRequest) (*IngestResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	canonical := normalize.CanonicalURL(req.URL)
	if existing, err := s.store.FindArticleByURL(ctx, userID, canonical); err == nil {
		return nil, errors.AlreadyExists("article already saved").WithDetails(map[string]string{"article_id": existing.ID})
	}

	s.events.Emit(events.NewIngestStartedEvent(userID, "url", canonical))

	page, err := s.fetcher.Fetch(ctx, canonical)
	if err != nil {
		s.events.Emit(events.NewIngestFailedEvent(userID, "url", canonical, err))
		return nil, err
	}

	norm := s.readability.Normalize(page.HTML, canonical)
	content := s.sanitizer.Sanitize(norm.Content)

	excerpt := strings.TrimSpace(norm.Excerpt)
	if excerpt == "" && content.HTML != "" {
		excerpt = sanitize.Excerpt(content.HTML, 0)
	}

	article := &domain.Article{
		UserID:            userID,
		Type:              domain.TypeArticle,
		URL:               canonical,
		Title:             norm.Title,
		Author:            norm.Byline,
		SiteName:          norm.SiteName,
		Excerpt:           excerpt,
		Content:           content.HTML,
		EstimatedReadTime: content.EstimatedReadTime,
		PreviewHash:       s.previewer.FromHTML(content.HTML),
	}
	if article.Title == "" {
		article.Title = canonical
	}

	if err := s.store.CreateArticle(ctx, article); err != nil {
		s.events.Emit(events.NewIngestFailedEvent(userID, "url", canonical, err))
		return nil, err
	}

	s.events.Emit(events.NewIngestCompletedEvent(userID, "url", article.ID))
	s.logger.Info("saved article from url",
		"article_id", article.ID, "user_id", userID, "url", canonical, "extracted", norm.Extracted)
	return s.finish(ctx, article), nil
}

// AddByFile validates the upload by signature, extracts its content, and
// saves it with the original bytes attached. Only EPUB and PDF files are
// accepted. A file the user already imported under the same name is
// rejected with a conflict, like a re-saved URL.
func (s *IngestService) AddByFile(ctx context.Context, userID string, req AddByFileRequest) (*IngestResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if len(req.Data) == 0 {
		return nil, errors.Validation("uploaded file is empty")
	}

	articleType, err := sniffFileType(req.Data, req.FileName)
	if err != nil {
		return nil, err
	}

	fileURL := localFileURL(articleType, req.FileName)
	if existing, err := s.store.FindArticleByURL(ctx, userID, fileURL); err == nil {
		return nil, errors.AlreadyExists("article already saved").WithDetails(map[string]string{"article_id": existing.ID})
	}

	source := req.Source
	if source == "" {
		source = "upload"
	}
	s.events.Emit(events.NewIngestStartedEvent(userID, source, req.FileName))

	var (
		extractedHTML string
		pageCount     int
	)
	switch articleType {
	case domain.TypeEPUB:
		extractedHTML, err = s.epub.Extract(ctx, req.Data, req.FileName)
		if err != nil {
			s.events.Emit(events.NewIngestFailedEvent(userID, source, req.FileName, err))
			return nil, err
		}
	case domain.TypePDF:
		extractedHTML, pageCount, err = s.pdf.Extract(ctx, req.Data)
		if err != nil {
			err = translatePDFError(err)
			s.events.Emit(events.NewIngestFailedEvent(userID, source, req.FileName, err))
			return nil, err
		}
	}

	content := s.sanitizer.Sanitize(extractedHTML)
	readTime := content.EstimatedReadTime
	if readTime == 0 && pageCount > 0 {
		// Scanned PDFs have no text layer; estimate from page count.
		readTime = pageCount * 2
	}

	article := &domain.Article{
		UserID:            userID,
		Type:              articleType,
		URL:               fileURL,
		Title:             displayTitle(req.FileName),
		Content:           content.HTML,
		FileData:          base64.StdEncoding.EncodeToString(req.Data),
		FileName:          req.FileName,
		FileSize:          int64(len(req.Data)),
		PageCount:         pageCount,
		Excerpt:           sanitize.Excerpt(content.HTML, 0),
		EstimatedReadTime: readTime,
		PreviewHash:       s.previewer.FromHTML(content.HTML),
	}

	if err := s.store.CreateArticle(ctx, article); err != nil {
		s.events.Emit(events.NewIngestFailedEvent(userID, source, req.FileName, err))
		return nil, err
	}

	s.events.Emit(events.NewIngestCompletedEvent(userID, source, article.ID))
	s.logger.Info("saved uploaded file",
		"article_id", article.ID, "user_id", userID, "type", articleType,
		"file_name", req.FileName, "file_size", article.FileSize)
	return s.finish(ctx, article), nil
}

// finish runs the optional cloud sync after a successful local save.
// Cloud failure downgrades the result, it never rolls the save back.
func (s *IngestService) finish(ctx context.Context, article *domain.Article) *IngestResult {
	result := &IngestResult{Article: article}
	if s.cloud == nil {
		return result
	}
	if err := s.cloud.SaveArticle(ctx, article); err != nil {
		s.logger.Warn("cloud sync failed, article saved locally only",
			"article_id", article.ID, "error", err)
		result.SavedLocallyOnly = true
	}
	return result
}

// sniffFileType identifies the upload by magic bytes, with the extension
// disambiguating zip containers. Anything unrecognized is rejected.
func sniffFileType(data []byte, fileName string) (domain.ArticleType, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return domain.TypePDF, nil
	case bytes.HasPrefix(data, []byte("PK\x03\x04")) && ext == ".epub":
		return domain.TypeEPUB, nil
	default:
		return "", errors.UnsupportedMedia("unsupported file type: only epub and pdf uploads are accepted")
	}
}

// translatePDFError maps the extractor's classified errors onto domain
// error codes, so an encrypted document reads differently from a broken
// one all the way to the client.
func translatePDFError(err error) error {
	var pdfErr *pdf.Error
	if errors.As(err, &pdfErr) && pdfErr.Kind == pdf.KindPasswordRequired {
		return errors.PasswordRequired("pdf is password protected")
	}
	return errors.Wrap(err, errors.CodeExtractionFailed, "could not extract pdf content")
}

// localFileURL builds the synthetic business-key URL for an upload.
func localFileURL(articleType domain.ArticleType, fileName string) string {
	if articleType == domain.TypeEPUB {
		return "local-epub://" + fileName
	}
	return "local-pdf://" + fileName
}

// displayTitle strips the extension off an upload's filename.
func displayTitle(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
