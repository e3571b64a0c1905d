// Package readability extracts the main article content from raw page
// HTML. Extraction is best-effort: when it produces nothing usable the
// original HTML passes through unchanged, because sanitization downstream
// is the safety net and this stage must never destroy the only copy of
// the content.
package readability

import (
	"log/slog"
	"net/url"
	"strings"

	goreadability "codeberg.org/readeck/go-readability"
	"golang.org/x/net/html"
)

// videoHosts are hosts whose pages are players, not articles. Extraction
// is pointless there; only title and URL are carried.
var videoHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"dailymotion.com",
	"twitch.tv",
}

// ContentType classifies what the normalizer decided the page is.
type ContentType string

const (
	TypeArticle ContentType = "article"
	TypeVideo   ContentType = "video"
)

// Result is the normalized page. Content is never empty when the input
// was non-empty, except for video pages where extraction is skipped.
type Result struct {
	Content   string
	Title     string
	Byline    string
	Excerpt   string
	SiteName  string
	Type      ContentType
	Extracted bool
}

// Normalizer runs readability extraction over fetched pages.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a readability normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger.With("component", "readability")}
}

// Normalize extracts the main content of rawHTML fetched from pageURL.
// Video-host URLs short-circuit with Type video and no content. For
// everything else the page URL is used as the base for relative links;
// when extraction fails or comes back empty, the original HTML is
// returned unchanged with the <title> text as the title.
func (n *Normalizer) Normalize(rawHTML, pageURL string) Result {
	if IsVideoURL(pageURL) {
		return Result{
			Title: documentTitle(rawHTML),
			Type:  TypeVideo,
		}
	}

	passthrough := Result{
		Content: rawHTML,
		Title:   documentTitle(rawHTML),
		Type:    TypeArticle,
	}
	if strings.TrimSpace(rawHTML) == "" {
		return passthrough
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		n.logger.Debug("unparseable page url, passing original html through", "url", pageURL, "error", err)
		return passthrough
	}

	article, err := goreadability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		n.logger.Debug("readability extraction failed, passing original html through", "url", pageURL, "error", err)
		return passthrough
	}
	if strings.TrimSpace(article.Content) == "" {
		n.logger.Debug("readability extracted no content, passing original html through", "url", pageURL)
		return passthrough
	}

	result := Result{
		Content:   article.Content,
		Title:     article.Title,
		Byline:    article.Byline,
		Excerpt:   article.Excerpt,
		SiteName:  article.SiteName,
		Type:      TypeArticle,
		Extracted: true,
	}
	if result.Title == "" {
		result.Title = passthrough.Title
	}
	return result
}

// IsVideoURL reports whether the URL points at a known video host.
func IsVideoURL(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for _, vh := range videoHosts {
		if host == vh || strings.HasSuffix(host, "."+vh) {
			return true
		}
	}
	return false
}

// documentTitle pulls the <title> text out of raw HTML, "" when absent.
func documentTitle(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	for node := range doc.Descendants() {
		if node.Type == html.ElementNode && node.Data == "title" {
			if node.FirstChild != nil && node.FirstChild.Type == html.TextNode {
				return strings.TrimSpace(node.FirstChild.Data)
			}
			return ""
		}
	}
	return ""
}
