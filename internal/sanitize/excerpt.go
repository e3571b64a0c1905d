package sanitize

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// DefaultExcerptLength is the rune budget for generated excerpts.
const DefaultExcerptLength = 300

// Excerpt produces a short markdown excerpt from HTML content, for
// records whose source did not carry one. The HTML is converted to
// markdown and truncated at a word boundary within limit runes. limit <=
// 0 uses DefaultExcerptLength.
func Excerpt(htmlContent string, limit int) string {
	if limit <= 0 {
		limit = DefaultExcerptLength
	}

	markdown, err := htmltomarkdown.ConvertString(htmlContent)
	if err != nil {
		markdown = ExtractText(htmlContent)
	}
	markdown = strings.TrimSpace(markdown)

	runes := []rune(markdown)
	if len(runes) <= limit {
		return markdown
	}

	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
