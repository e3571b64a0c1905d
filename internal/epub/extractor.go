package epub

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/keepstackapp/keepstack-server/internal/errors"
)

// imageMIMETypes maps image file extensions to the MIME type used when
// inlining them as data URIs. Extensions outside this table cause the img
// src to be dropped instead of inlined.
var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// Extractor turns an EPUB archive into one concatenated HTML document.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an EPUB extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With("component", "epub")}
}

// sectionOutcome classifies what happened to a single spine section.
type sectionOutcome int

const (
	sectionOK sectionOutcome = iota
	sectionEmpty
	sectionFailed
)

// sectionResult is the per-section join value. Sections never fail the
// extraction as a whole; a failure here carries the reason (including
// resolver diagnostics) for logging.
type sectionResult struct {
	err     error
	href    string
	html    string
	outcome sectionOutcome
}

// Extract parses the EPUB in data and returns a single HTML document with
// every spine section's body content joined by horizontal rules and all
// images inlined as data URIs. filename is used for the document title.
//
// Spine sections are processed concurrently and rejoined in reading order.
// A section that cannot be resolved, read, or parsed contributes nothing
// and is logged; only when every section comes back empty does Extract
// fail. Panics out of the archive or XML layer are reported as an
// incompatible-structure error.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic during epub extraction", "panic", r, "filename", filename)
			result = ""
			err = errors.ExtractionFailed("epub has an incompatible internal structure")
		}
	}()

	archive, err := OpenArchive(data)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeExtractionFailed, "file is not a readable epub archive")
	}

	pkg, err := openPackage(archive)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeExtractionFailed, "epub package document is missing or malformed")
	}

	hrefs := pkg.spineHrefs()
	if len(hrefs) == 0 {
		return "", errors.ExtractionFailed("epub spine lists no content sections")
	}

	resolver := NewResolver(archive, pkg.Dir)

	// One goroutine per section; results slots keep spine order.
	results := make([]sectionResult, len(hrefs))
	var wg sync.WaitGroup
	for i, href := range hrefs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.extractSection(ctx, archive, resolver, href)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	var sections []string
	for _, res := range results {
		switch res.outcome {
		case sectionOK:
			sections = append(sections, res.html)
		case sectionEmpty:
			e.logger.Debug("epub section produced no content", "section", res.href)
		case sectionFailed:
			e.logger.Warn("skipping unreadable epub section", "section", res.href, "error", res.err)
		}
	}
	if len(sections) == 0 {
		return "", errors.ExtractionFailed("could not extract content from any section")
	}

	title := pkg.Metadata.Title
	if title == "" {
		title = filename
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<title>")
	doc.WriteString(html.EscapeString(title))
	doc.WriteString("</title>\n</head>\n<body>\n")
	doc.WriteString(strings.Join(sections, "\n<hr/>\n"))
	doc.WriteString("\n</body>\n</html>\n")
	return doc.String(), nil
}

// extractSection processes one spine section: resolve the href, parse the
// document, inline images, and return the body's inner HTML. All failure
// modes, panics included, collapse into the result value.
func (e *Extractor) extractSection(ctx context.Context, archive *Archive, resolver *Resolver, href string) (res sectionResult) {
	res.href = href
	defer func() {
		if r := recover(); r != nil {
			res.outcome = sectionFailed
			res.err = fmt.Errorf("panic processing section: %v", r)
			res.html = ""
		}
	}()

	if err := ctx.Err(); err != nil {
		return sectionResult{href: href, outcome: sectionFailed, err: err}
	}

	sectionPath, err := resolver.Resolve(href, "")
	if err != nil {
		return sectionResult{href: href, outcome: sectionFailed, err: err}
	}

	text, err := archive.ReadText(sectionPath)
	if err != nil {
		return sectionResult{href: href, outcome: sectionFailed, err: err}
	}

	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return sectionResult{href: href, outcome: sectionFailed, err: fmt.Errorf("parsing section html: %w", err)}
	}

	e.inlineImages(doc, archive, resolver, sectionPath)

	content, err := bodyInnerHTML(doc)
	if err != nil {
		return sectionResult{href: href, outcome: sectionFailed, err: err}
	}
	if strings.TrimSpace(stripTags(content)) == "" && !strings.Contains(content, "<img") {
		return sectionResult{href: href, outcome: sectionEmpty}
	}
	return sectionResult{href: href, outcome: sectionOK, html: content}
}

// inlineImages rewrites every <img> src in the document to a data URI.
// Unresolvable images and unrecognized formats lose their src attribute
// so the output never carries broken archive-relative references.
func (e *Extractor) inlineImages(doc *html.Node, archive *Archive, resolver *Resolver, sectionPath string) {
	for node := range doc.Descendants() {
		if node.Type != html.ElementNode || node.Data != "img" {
			continue
		}

		srcIdx := -1
		for i, attr := range node.Attr {
			if attr.Key == "src" {
				srcIdx = i
				break
			}
		}
		if srcIdx < 0 {
			continue
		}

		src := node.Attr[srcIdx].Val
		if strings.HasPrefix(src, "data:") {
			continue
		}

		uri, ok := e.imageDataURI(archive, resolver, src, sectionPath)
		if !ok {
			node.Attr = append(node.Attr[:srcIdx], node.Attr[srcIdx+1:]...)
			continue
		}
		node.Attr[srcIdx].Val = uri
	}
}

// imageDataURI resolves and reads an image reference and encodes it as a
// data URI. ok is false when the image cannot be inlined.
func (e *Extractor) imageDataURI(archive *Archive, resolver *Resolver, src, sectionPath string) (string, bool) {
	imagePath, err := resolver.Resolve(src, sectionPath)
	if err != nil {
		e.logger.Debug("dropping unresolvable image", "src", src, "section", sectionPath, "error", err)
		return "", false
	}

	mime, ok := imageMIMETypes[strings.ToLower(path.Ext(imagePath))]
	if !ok {
		e.logger.Debug("dropping image with unrecognized format", "src", src, "path", imagePath)
		return "", false
	}

	imageData, err := archive.ReadBytes(imagePath)
	if err != nil {
		e.logger.Debug("dropping unreadable image", "src", src, "path", imagePath, "error", err)
		return "", false
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(imageData), true
}

// bodyInnerHTML serializes the children of the document's <body>. When the
// parsed tree has no body (fragments, malformed markup) the whole document
// is serialized instead.
func bodyInnerHTML(doc *html.Node) (string, error) {
	var body *html.Node
	for node := range doc.Descendants() {
		if node.Type == html.ElementNode && node.Data == "body" {
			body = node
			break
		}
	}

	var buf bytes.Buffer
	if body == nil {
		if err := html.Render(&buf, doc); err != nil {
			return "", fmt.Errorf("serializing section: %w", err)
		}
		return buf.String(), nil
	}

	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return "", fmt.Errorf("serializing section body: %w", err)
		}
	}
	return buf.String(), nil
}

// stripTags removes markup so emptiness checks look at text content only.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
