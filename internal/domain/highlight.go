package domain

import "time"

// HighlightPosition locates a highlight inside its article.
// Articles use character offsets into the plain text; PDFs use a page number.
type HighlightPosition struct {
	Start int `json:"start,omitempty"`
	End   int `json:"end,omitempty"`
	Page  int `json:"page,omitempty"`
}

// Highlight is a user-selected passage in an article.
// Highlights are only ever created from an explicit reader selection.
type Highlight struct {
	ID        string            `json:"id"`
	ArticleID string            `json:"article_id"`
	UserID    string            `json:"user_id"`
	Text      string            `json:"text"`
	Color     string            `json:"color,omitempty"`
	Position  HighlightPosition `json:"position"`
	Tags      []string          `json:"tags,omitempty"`
	Note      string            `json:"note,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
