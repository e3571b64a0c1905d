package service

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/keepstackapp/keepstack-server/internal/config"
	"github.com/keepstackapp/keepstack-server/internal/domain"
)

// CloudSync mirrors local writes to an optional remote backend. Local
// storage stays authoritative; implementations report failure and the
// caller decides what to surface.
type CloudSync interface {
	SaveArticle(ctx context.Context, article *domain.Article) error
	DeleteArticle(ctx context.Context, articleID string) error
}

// NoopCloudSync is used when no sync endpoint is configured.
type NoopCloudSync struct{}

func (NoopCloudSync) SaveArticle(context.Context, *domain.Article) error { return nil }
func (NoopCloudSync) DeleteArticle(context.Context, string) error        { return nil }

// HTTPCloudSync pushes article writes to a remote HTTP backend.
type HTTPCloudSync struct {
	client   *http.Client
	endpoint string
	apiKey   string
	logger   *slog.Logger
}

// NewCloudSync builds a sync client from configuration. An empty
// endpoint yields the no-op implementation.
func NewCloudSync(cfg config.SyncConfig, logger *slog.Logger) CloudSync {
	if cfg.Endpoint == "" {
		return NoopCloudSync{}
	}
	return &HTTPCloudSync{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		logger:   logger.With("component", "cloudsync"),
	}
}

// SaveArticle uploads the article as JSON. The binary payload travels
// inside FileData, so one request covers uploads too.
func (c *HTTPCloudSync) SaveArticle(ctx context.Context, article *domain.Article) error {
	body, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("encoding article for sync: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.endpoint+"/articles/"+article.ID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// DeleteArticle removes the remote copy.
func (c *HTTPCloudSync) DeleteArticle(ctx context.Context, articleID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.endpoint+"/articles/"+articleID, nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

func (c *HTTPCloudSync) do(req *http.Request) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sync endpoint returned %d", resp.StatusCode)
	}
	return nil
}
