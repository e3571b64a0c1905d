// Package pdf extracts a PDF's text layer into simple paragraph HTML.
// Rich structure (tables, forms, OCR) is out of scope; the output feeds
// the reading view and search indexing only.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Extractor produces paragraph HTML from PDF binary data.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a PDF extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With("component", "pdf")}
}

// Extract parses the document, pulls the text runs off every page in
// order, and re-flows them into <p> paragraphs. It returns the HTML and
// the page count. Failures come back as a classified *Error so callers
// can tell password-protected documents from broken ones.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, int, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", 0, classify(err)
	}

	var pages []string
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		text := extractPageText(pdfCtx, pageNr)
		if text == "" {
			e.logger.Debug("pdf page has no text layer", "page", pageNr)
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return "", pdfCtx.PageCount, &Error{Kind: KindInvalid, Err: fmt.Errorf("no text content found")}
	}

	return paragraphHTML(strings.Join(pages, "\n\n")), pdfCtx.PageCount, nil
}

// extractPageText pulls the text-showing operators out of one page's
// content stream. A page that cannot be read yields an empty string; the
// remaining pages still extract.
func extractPageText(pdfCtx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// pdfStringRe matches PDF string literals: (text here).
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromContentStream walks a content stream line by line collecting the
// arguments of the text-showing operators (Tj, TJ, ') and translating the
// positioning operators (Td, TD, T*) into whitespace.
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return collapseRuns(sb.String())
}

// decodePDFString resolves the escape sequences a PDF string literal may
// contain, including octal escapes like \040.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// collapseRuns squeezes whitespace runs to single spaces and drops
// non-printable characters.
func collapseRuns(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// paragraphHTML splits extracted text on blank-line boundaries and wraps
// each non-empty paragraph in a <p> tag.
func paragraphHTML(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var sb strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(para))
		sb.WriteString("</p>\n")
	}
	return strings.TrimSpace(sb.String())
}
