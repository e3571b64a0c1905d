package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *Extractor {
	return NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExtract_GarbageDataIsInvalid(t *testing.T) {
	_, _, err := newTestExtractor().Extract(context.Background(), []byte("not a pdf at all"))
	require.Error(t, err)

	var pdfErr *Error
	require.ErrorAs(t, err, &pdfErr)
	assert.Equal(t, KindInvalid, pdfErr.Kind)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"password prompt", errors.New("pdfcpu: please provide the correct password"), KindPasswordRequired},
		{"encrypted doc", errors.New("this file is encrypted"), KindPasswordRequired},
		{"broken xref", errors.New("pdfcpu: corrupt xref section"), KindInvalid},
		{"validation failure", fmt.Errorf("pdfcpu read: %w", errors.New("dict is nil")), KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classify(tt.err)
			assert.Equal(t, tt.want, classified.Kind)
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n(Hello) Tj\n[(wor) -20 (ld)] TJ\n72 700 Td\n(next run) Tj\nET\n")

	got := textFromContentStream(stream)
	assert.Equal(t, "Helloworld next run", got)
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\(b\)c`, "a(b)c"},
		{`tab\there`, "tab\there"},
		{`oct\040space`, "oct space"},
		{`back\\slash`, `back\slash`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, decodePDFString([]byte(tt.in)))
	}
}

func TestParagraphHTML(t *testing.T) {
	got := paragraphHTML("first page text\n\nsecond page text\n\n   \n\nthird <b>page</b>")

	assert.Equal(t, "<p>first page text</p>\n<p>second page text</p>\n<p>third &lt;b&gt;page&lt;/b&gt;</p>", got)
}

func TestCollapseRuns(t *testing.T) {
	assert.Equal(t, "a b c", collapseRuns("  a \t b \n\n c  "))
	assert.Equal(t, "", collapseRuns("   \n \t "))
}
