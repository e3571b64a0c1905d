// Package search provides full-text article search using Bleve. Articles
// are indexed by title, extracted text, author, site name, and tags, and
// queries are always scoped to one user.
package search

import (
	"github.com/keepstackapp/keepstack-server/internal/domain"
	"github.com/keepstackapp/keepstack-server/internal/sanitize"
)

// Document is the indexed representation of an article. Content is
// indexed as plain text; the display HTML never enters the index.
type Document struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Excerpt  string   `json:"excerpt"`
	Author   string   `json:"author"`
	SiteName string   `json:"site_name"`
	Type     string   `json:"type"`
	Status   string   `json:"status"`
	Tags     []string `json:"tags,omitempty"`
	SavedAt  int64    `json:"saved_at"`
}

// FromArticle builds the index document for an article. Placeholder
// content for binary articles extracts to almost nothing, which is fine;
// their text was indexed at ingestion through the extracted HTML.
func FromArticle(article *domain.Article) *Document {
	return &Document{
		ID:       article.ID,
		UserID:   article.UserID,
		Title:    article.Title,
		Text:     sanitize.ExtractText(article.Content),
		Excerpt:  article.Excerpt,
		Author:   article.Author,
		SiteName: article.SiteName,
		Type:     string(article.Type),
		Status:   string(article.Status),
		Tags:     article.Tags,
		SavedAt:  article.SavedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map with lowercase field names so they
// match the index mapping. Bleve would otherwise index by the Go field
// names.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":       d.ID,
		"user_id":  d.UserID,
		"title":    d.Title,
		"text":     d.Text,
		"type":     d.Type,
		"status":   d.Status,
		"saved_at": d.SavedAt,
	}
	if d.Excerpt != "" {
		m["excerpt"] = d.Excerpt
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.SiteName != "" {
		m["site_name"] = d.SiteName
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}
