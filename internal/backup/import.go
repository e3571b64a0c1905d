package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"encoding/json/v2"

	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/store"
)

// Importer restores reading data from an export archive.
type Importer struct {
	store  *store.Store
	logger *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(s *store.Store, logger *slog.Logger) *Importer {
	return &Importer{store: s, logger: logger}
}

// ImportResult summarizes what an import did.
type ImportResult struct {
	Manifest Manifest     `json:"manifest"`
	Imported EntityCounts `json:"imported"`
	Skipped  EntityCounts `json:"skipped"`
	Errors   int          `json:"errors"`
}

// Import restores records from the archive into the given user's account.
// Existing records are skipped, so importing the same archive twice is safe.
// Records are rewritten to belong to userID regardless of who exported them.
func (i *Importer) Import(ctx context.Context, userID string, r io.ReaderAt, size int64) (*ImportResult, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	manifest, err := readManifest(zr)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Manifest: *manifest}

	for tag, err := range readJSONL[domain.Tag](zr, tagsFile) {
		if err != nil {
			result.Errors++
			continue
		}
		tag.UserID = userID
		switch err := i.store.CreateTag(ctx, tag); {
		case err == nil:
			result.Imported.Tags++
		case errors.Is(err, store.ErrTagExists):
			result.Skipped.Tags++
		default:
			i.logger.Warn("import tag failed", "tag_id", tag.ID, "error", err)
			result.Errors++
		}
	}

	for article, err := range readJSONL[domain.Article](zr, articlesFile) {
		if err != nil {
			result.Errors++
			continue
		}
		if existing, err := i.store.FindArticleByURL(ctx, userID, article.URL); err == nil && existing != nil {
			result.Skipped.Articles++
			continue
		}
		article.UserID = userID
		if err := i.store.CreateArticle(ctx, article); err != nil {
			if errors.Is(err, store.ErrArticleExists) {
				result.Skipped.Articles++
				continue
			}
			i.logger.Warn("import article failed", "article_id", article.ID, "error", err)
			result.Errors++
			continue
		}
		result.Imported.Articles++
	}

	for hl, err := range readJSONL[domain.Highlight](zr, highlightsFile) {
		if err != nil {
			result.Errors++
			continue
		}
		// Highlights only make sense on an article that exists here.
		exists, err := i.store.ArticleExists(ctx, hl.ArticleID)
		if err != nil || !exists {
			result.Skipped.Highlights++
			continue
		}
		hl.UserID = userID
		switch err := i.store.Highlights.Create(ctx, hl.ID, hl); {
		case err == nil:
			result.Imported.Highlights++
		case errors.Is(err, store.ErrAlreadyExists):
			result.Skipped.Highlights++
		default:
			i.logger.Warn("import highlight failed", "highlight_id", hl.ID, "error", err)
			result.Errors++
		}
	}

	i.logger.Info("import complete",
		"user_id", userID,
		"imported_articles", result.Imported.Articles,
		"skipped_articles", result.Skipped.Articles,
		"errors", result.Errors,
	)

	return result, nil
}

// readManifest loads and validates the archive manifest.
func readManifest(zr *zip.Reader) (*Manifest, error) {
	rc, err := openFile(zr, manifestFile)
	if err != nil {
		return nil, ErrInvalidManifest
	}
	defer rc.Close()

	var manifest Manifest
	if err := json.UnmarshalRead(rc, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	// Same major version is compatible.
	major, _, _ := strings.Cut(manifest.Version, ".")
	currentMajor, _, _ := strings.Cut(FormatVersion, ".")
	if major != currentMajor {
		return nil, fmt.Errorf("%w: archive is %q, server supports %q", ErrVersionMismatch, manifest.Version, FormatVersion)
	}

	return &manifest, nil
}
