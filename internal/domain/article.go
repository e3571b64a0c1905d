// Package domain contains the core business entities and domain logic for the Keepstack library.
package domain

import (
	"strings"
	"time"
)

// ArticleType classifies how an article's content was obtained and how it renders.
type ArticleType string

// Article types.
const (
	TypeArticle ArticleType = "article"
	TypePDF     ArticleType = "pdf"
	TypeEPUB    ArticleType = "epub"
	TypeNote    ArticleType = "note"
)

// ArticleStatus is the triage state of an article in the reading queue.
type ArticleStatus string

// Article statuses.
const (
	StatusInbox    ArticleStatus = "inbox"
	StatusLater    ArticleStatus = "later"
	StatusArchived ArticleStatus = "archived"
)

// BinaryPlaceholder is stored in Content when the real payload lives in FileData.
// Display-time rendering re-extracts from the binary instead.
const BinaryPlaceholder = "<p>Stored as attached file.</p>"

// Article is the central entity: one saved piece of content.
//
// URL is the business key for duplicate detection. A blank or
// whitespace-only URL means the article is inherently unique.
// FileData, when set, is the sole source of truth for binary content;
// Content then holds display HTML or BinaryPlaceholder, never the payload.
type Article struct {
	ID     string        `json:"id"`
	UserID string        `json:"user_id"`
	Type   ArticleType   `json:"type"`
	Status ArticleStatus `json:"status"`

	URL      string `json:"url"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	SiteName string `json:"site_name,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`

	Content   string `json:"content"`
	FileData  string `json:"file_data,omitempty"` // base64 of the original upload
	FileName  string `json:"file_name,omitempty"`
	FileSize  int64  `json:"file_size,omitempty"`
	PageCount int    `json:"page_count,omitempty"`

	// PreviewHash is a BlurHash placeholder computed from the lead image.
	PreviewHash string `json:"preview_hash,omitempty"`

	PublishedDate string     `json:"published_date,omitempty"`
	SavedAt       time.Time  `json:"saved_at"`
	ReadAt        *time.Time `json:"read_at,omitempty"`

	IsRead          bool     `json:"is_read"`
	Favorite        bool     `json:"favorite"`
	Tags            []string `json:"tags,omitempty"`
	ReadingProgress float64  `json:"reading_progress"`
	Category        string   `json:"category,omitempty"`

	// EstimatedReadTime is minutes, computed once at ingestion.
	EstimatedReadTime int `json:"estimated_read_time,omitempty"`
}

// BusinessKey returns the URL identity used for duplicate grouping.
// Returns "" when the article has no usable URL, meaning it never
// participates in deduplication.
func (a *Article) BusinessKey() string {
	return strings.TrimSpace(a.URL)
}

// IsLocalFile reports whether the article came from an uploaded file
// rather than a remote page.
func (a *Article) IsLocalFile() bool {
	return strings.HasPrefix(a.URL, "local-epub://") || strings.HasPrefix(a.URL, "local-pdf://")
}

// HasBinary reports whether the original binary payload is attached.
func (a *Article) HasBinary() bool {
	return a.FileData != ""
}

// MarkRead flips the article to read, recording ReadAt on the first
// transition only. Returns true if anything changed.
func (a *Article) MarkRead(now time.Time) bool {
	if a.IsRead {
		return false
	}
	a.IsRead = true
	if a.ReadAt == nil {
		a.ReadAt = &now
	}
	return true
}

// MarkUnread clears the read flag. ReadAt is preserved as history.
func (a *Article) MarkUnread() bool {
	if !a.IsRead {
		return false
	}
	a.IsRead = false
	return true
}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s ArticleStatus) bool {
	switch s {
	case StatusInbox, StatusLater, StatusArchived:
		return true
	}
	return false
}

// ValidType reports whether t is one of the known article types.
func ValidType(t ArticleType) bool {
	switch t {
	case TypeArticle, TypePDF, TypeEPUB, TypeNote:
		return true
	}
	return false
}
