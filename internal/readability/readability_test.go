package readability

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Page Title | Some Site</title></head>
<body>
<nav><a href="/">home</a><a href="/about">about</a></nav>
<article>
<h1>How Migratory Birds Navigate</h1>
<p>Every autumn, billions of birds leave their breeding grounds and travel
thousands of kilometers to warmer climates. Researchers have spent decades
trying to understand how these animals find their way across continents and
open ocean without maps or landmarks to guide them on the journey.</p>
<p>Recent experiments suggest that many species sense the earth's magnetic
field through specialized proteins in their eyes. Combined with the position
of the sun and the stars, this magnetic sense gives a young bird enough
information to complete a route it has never flown before in its life.</p>
<p>The picture that emerges is of a layered navigation system with multiple
redundant inputs. When clouds hide the stars, the magnetic compass still
works. When magnetic anomalies distort the field, celestial cues take over,
and experienced birds fall back on memorized landscape features as well.</p>
</article>
<footer>Copyright notice and a bunch of links.</footer>
</body>
</html>`

func TestNormalize_ExtractsMainContent(t *testing.T) {
	res := newTestNormalizer().Normalize(articlePage, "https://example.com/birds")

	require.True(t, res.Extracted)
	assert.Equal(t, TypeArticle, res.Type)
	assert.Contains(t, res.Content, "magnetic")
	assert.NotContains(t, res.Content, "Copyright notice")
	assert.NotEmpty(t, res.Title)
}

func TestNormalize_EmptyExtractionPassesThrough(t *testing.T) {
	raw := `<html><head><title>Just a Title</title></head><body></body></html>`

	res := newTestNormalizer().Normalize(raw, "https://example.com/empty")

	assert.False(t, res.Extracted)
	assert.Equal(t, raw, res.Content)
	assert.Equal(t, "Just a Title", res.Title)
	assert.Equal(t, TypeArticle, res.Type)
}

func TestNormalize_VideoHostSkipsExtraction(t *testing.T) {
	raw := `<html><head><title>Cat Video</title></head><body><div id="player"></div></body></html>`

	res := newTestNormalizer().Normalize(raw, "https://www.youtube.com/watch?v=abc123")

	assert.Equal(t, TypeVideo, res.Type)
	assert.False(t, res.Extracted)
	assert.Empty(t, res.Content)
	assert.Equal(t, "Cat Video", res.Title)
}

func TestNormalize_NeverEmptyForNonEmptyInput(t *testing.T) {
	raw := "<p>tiny</p>"

	res := newTestNormalizer().Normalize(raw, "https://example.com/tiny")

	assert.NotEmpty(t, res.Content)
}

func TestIsVideoURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=x", true},
		{"https://youtu.be/x", true},
		{"https://vimeo.com/12345", true},
		{"https://player.twitch.tv/stream", true},
		{"https://example.com/article", false},
		{"https://notyoutube.com.example.org/x", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsVideoURL(tt.url), tt.url)
	}
}

func TestDocumentTitle(t *testing.T) {
	assert.Equal(t, "Hello", documentTitle("<html><head><title>  Hello </title></head></html>"))
	assert.Equal(t, "", documentTitle("<html><body><p>no title</p></body></html>"))
	assert.Equal(t, "", documentTitle(""))
}

func TestNormalize_BlankInput(t *testing.T) {
	res := newTestNormalizer().Normalize("   ", "https://example.com")
	assert.False(t, res.Extracted)
	assert.Equal(t, strings.TrimSpace(res.Title), res.Title)
}
