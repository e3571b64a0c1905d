// Package fetch downloads remote pages for save-by-URL. It is a thin,
// polite HTTP client: per-host rate limiting, a body size cap, and a
// stable User-Agent.
package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/keepstackapp/keepstack-server/internal/config"
	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/ratelimit"
)

// Page is a fetched document. FinalURL reflects redirects.
type Page struct {
	HTML     string
	FinalURL string
}

// Fetcher downloads pages within the configured limits.
type Fetcher struct {
	client      *http.Client
	limiter     *ratelimit.PerHost
	logger      *slog.Logger
	userAgent   string
	maxBodySize int64
}

// New creates a fetcher from the fetch configuration.
func New(cfg config.FetchConfig, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:     ratelimit.New(cfg.PerHostRate, cfg.PerHostBurst),
		logger:      logger.With("component", "fetch"),
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Fetch downloads the page at rawURL. Only http and https URLs are
// accepted; bodies larger than the configured cap are rejected rather
// than truncated.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Validationf("not a fetchable url: %q", rawURL)
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "building request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExtractionFailed, "fetching page")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.ExtractionFailedf("fetching page: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !isHTMLContentType(contentType) {
		return nil, errors.UnsupportedMediaf("page is %s, not html", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExtractionFailed, "reading page body")
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, errors.Validationf("page exceeds the %d byte limit", f.maxBodySize)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	f.logger.Debug("fetched page", "url", finalURL, "bytes", len(body))
	return &Page{HTML: string(body), FinalURL: finalURL}, nil
}

func isHTMLContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, ok := range []string{"text/html", "application/xhtml+xml", "text/plain"} {
		if strings.HasPrefix(ct, ok) {
			return true
		}
	}
	return false
}
