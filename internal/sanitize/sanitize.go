// Package sanitize is the final safety pass applied to every piece of
// content regardless of source. It enforces the display allow-list,
// validates in-document anchors, and extracts plain text for read-time
// estimation and search indexing.
package sanitize

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// wordsPerMinute is the reading speed behind the read-time estimate.
const wordsPerMinute = 220

// Content is sanitized display HTML together with its derived values.
type Content struct {
	HTML              string
	Text              string
	WordCount         int
	EstimatedReadTime int
}

// Sanitizer applies the display sanitization policy.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New builds the sanitizer. The policy is bluemonday's UGC profile with
// two narrow extensions: data URIs are allowed on img src (epub/pdf
// content inlines its images that way) and id attributes survive so
// in-document anchors have something to point at. The URL policy is not
// otherwise relaxed.
func New() *Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowDataURIImages()
	policy.AllowAttrs("id").Globally()
	return &Sanitizer{policy: policy}
}

// Sanitize cleans rawHTML for display and derives plain text, word count,
// and the read-time estimate (minimum one minute for non-empty content).
func (s *Sanitizer) Sanitize(rawHTML string) Content {
	clean := s.policy.Sanitize(rawHTML)
	clean = pruneDanglingAnchors(clean)
	text := ExtractText(clean)
	words := len(strings.Fields(text))

	return Content{
		HTML:              clean,
		Text:              text,
		WordCount:         words,
		EstimatedReadTime: ReadTime(words),
	}
}

// ReadTime estimates reading minutes for a word count. Anything non-empty
// reads for at least a minute.
func ReadTime(words int) int {
	if words == 0 {
		return 0
	}
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// ExtractText walks the HTML and returns its text content with whitespace
// collapsed. Script and style bodies are excluded.
func ExtractText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(sb.String()), " ")
}

// pruneDanglingAnchors drops href attributes of in-document anchors whose
// target id does not exist. The client scrolls to fragment targets
// in-place, so a missing target would make a dead link.
func pruneDanglingAnchors(cleanHTML string) string {
	if !strings.Contains(cleanHTML, `href="#`) {
		return cleanHTML
	}

	doc, err := html.Parse(strings.NewReader(cleanHTML))
	if err != nil {
		return cleanHTML
	}

	ids := make(map[string]bool)
	for node := range doc.Descendants() {
		if node.Type != html.ElementNode {
			continue
		}
		for _, attr := range node.Attr {
			if attr.Key == "id" && attr.Val != "" {
				ids[attr.Val] = true
			}
		}
	}

	changed := false
	for node := range doc.Descendants() {
		if node.Type != html.ElementNode || node.Data != "a" {
			continue
		}
		for i, attr := range node.Attr {
			if attr.Key != "href" || !strings.HasPrefix(attr.Val, "#") {
				continue
			}
			if !ids[strings.TrimPrefix(attr.Val, "#")] {
				node.Attr = append(node.Attr[:i], node.Attr[i+1:]...)
				changed = true
			}
			break
		}
	}
	if !changed {
		return cleanHTML
	}

	return innerBodyHTML(doc, cleanHTML)
}

// innerBodyHTML serializes the children of the parsed document's body,
// falling back to the input when serialization fails.
func innerBodyHTML(doc *html.Node, fallback string) string {
	var body *html.Node
	for node := range doc.Descendants() {
		if node.Type == html.ElementNode && node.Data == "body" {
			body = node
			break
		}
	}
	if body == nil {
		return fallback
	}

	var buf bytes.Buffer
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return fallback
		}
	}
	return buf.String()
}
