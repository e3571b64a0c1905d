package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"encoding/json/v2"

	"github.com/keepstackapp/keepstack-server/internal/store"
)

// Exporter streams a user's reading data as a zip archive.
type Exporter struct {
	store      *store.Store
	serverName string
	logger     *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(s *store.Store, serverName string, logger *slog.Logger) *Exporter {
	return &Exporter{store: s, serverName: serverName, logger: logger}
}

// Export writes the user's articles, tags, and highlights to w as a zip
// archive. The manifest is written last, once the counts are known.
func (e *Exporter) Export(ctx context.Context, userID string, w io.Writer) (*Manifest, error) {
	zw := zip.NewWriter(w)

	counts := EntityCounts{}

	articles, err := e.store.ListAllArticles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	aw, err := newJSONLWriter(zw, articlesFile)
	if err != nil {
		return nil, err
	}
	for _, article := range articles {
		if err := aw.write(article); err != nil {
			return nil, fmt.Errorf("write article %s: %w", article.ID, err)
		}
	}
	counts.Articles = aw.count

	tags, err := e.store.ListTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tw, err := newJSONLWriter(zw, tagsFile)
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if err := tw.write(tag); err != nil {
			return nil, fmt.Errorf("write tag %s: %w", tag.ID, err)
		}
	}
	counts.Tags = tw.count

	highlights, err := e.store.Highlights.ListByIndex(ctx, "user", userID+":")
	if err != nil {
		return nil, fmt.Errorf("list highlights: %w", err)
	}
	hw, err := newJSONLWriter(zw, highlightsFile)
	if err != nil {
		return nil, err
	}
	for _, hl := range highlights {
		if err := hw.write(hl); err != nil {
			return nil, fmt.Errorf("write highlight %s: %w", hl.ID, err)
		}
	}
	counts.Highlights = hw.count

	manifest := &Manifest{
		Version:    FormatVersion,
		CreatedAt:  time.Now(),
		ServerName: e.serverName,
		Counts:     counts,
	}
	mw, err := zw.Create(manifestFile)
	if err != nil {
		return nil, err
	}
	if err := json.MarshalWrite(mw, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	e.logger.Info("export complete",
		"user_id", userID,
		"articles", counts.Articles,
		"tags", counts.Tags,
		"highlights", counts.Highlights,
	)

	return manifest, nil
}
