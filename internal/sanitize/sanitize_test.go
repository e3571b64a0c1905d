package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_StripsScripts(t *testing.T) {
	s := New()

	got := s.Sanitize(`<p>hello</p><script>alert("xss")</script><p onclick="evil()">world</p>`)

	assert.Contains(t, got.HTML, "<p>hello</p>")
	assert.Contains(t, got.HTML, "world")
	assert.NotContains(t, got.HTML, "script")
	assert.NotContains(t, got.HTML, "onclick")
	assert.NotContains(t, got.HTML, "alert")
}

func TestSanitize_AllowsDataURIImagesOnly(t *testing.T) {
	s := New()

	got := s.Sanitize(`<img src="data:image/png;base64,iVBORw0KGgo=" alt="ok"/>` +
		`<img src="javascript:alert(1)" alt="bad"/>`)

	assert.Contains(t, got.HTML, "data:image/png;base64,")
	assert.NotContains(t, got.HTML, "javascript:")
}

func TestSanitize_KeepsHTTPImages(t *testing.T) {
	s := New()

	got := s.Sanitize(`<img src="https://example.com/pic.jpg"/>`)

	assert.Contains(t, got.HTML, "https://example.com/pic.jpg")
}

func TestSanitize_AnchorToExistingIDKept(t *testing.T) {
	s := New()

	got := s.Sanitize(`<h2 id="chapter-2">Chapter 2</h2><p><a href="#chapter-2">jump</a></p>`)

	assert.Contains(t, got.HTML, `href="#chapter-2"`)
	assert.Contains(t, got.HTML, `id="chapter-2"`)
}

func TestSanitize_AnchorToMissingIDDropped(t *testing.T) {
	s := New()

	got := s.Sanitize(`<p><a href="#nowhere">dead link</a></p>`)

	assert.NotContains(t, got.HTML, `href="#nowhere"`)
	assert.Contains(t, got.HTML, "dead link")
}

func TestExtractText(t *testing.T) {
	got := ExtractText(`<div><h1>Title</h1><p>one   two</p><style>p{color:red}</style><p>three</p></div>`)

	assert.Equal(t, "Title one two three", got)
}

func TestReadTime(t *testing.T) {
	assert.Equal(t, 0, ReadTime(0))
	assert.Equal(t, 1, ReadTime(5))
	assert.Equal(t, 1, ReadTime(220))
	assert.Equal(t, 2, ReadTime(221))
	assert.Equal(t, 5, ReadTime(1000))
}

func TestSanitize_DerivesWordCountAndReadTime(t *testing.T) {
	s := New()

	words := strings.Repeat("word ", 450)
	got := s.Sanitize("<p>" + words + "</p>")

	assert.Equal(t, 450, got.WordCount)
	assert.Equal(t, 3, got.EstimatedReadTime)
}

func TestExcerpt_ShortContentUnchanged(t *testing.T) {
	got := Excerpt("<p>A short paragraph.</p>", 300)
	assert.Equal(t, "A short paragraph.", got)
}

func TestExcerpt_TruncatesAtWordBoundary(t *testing.T) {
	long := "<p>" + strings.Repeat("some fairly average words ", 40) + "</p>"

	got := Excerpt(long, 100)

	assert.LessOrEqual(t, len([]rune(got)), 101)
	assert.True(t, strings.HasSuffix(got, "…"), got)
	assert.NotContains(t, got, "  ")
}
