// Package media derives display helpers from article imagery. Its one
// job today is the BlurHash placeholder list views render while the real
// lead image loads.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"strings"

	"github.com/bbrks/go-blurhash"
	_ "golang.org/x/image/webp" // Register WebP decoder
	"golang.org/x/net/html"
)

// previewSize is the thumbnail edge used for BlurHash computation. The
// hash is a low-resolution placeholder, so a small thumbnail produces
// nearly identical output at a fraction of the cost.
const previewSize = 64

// Previewer computes BlurHash placeholders for article lead images.
// Everything here is best-effort: a failure logs and leaves the preview
// empty, it never fails the ingestion that asked for it.
type Previewer struct {
	logger *slog.Logger
}

// NewPreviewer creates a previewer.
func NewPreviewer(logger *slog.Logger) *Previewer {
	return &Previewer{logger: logger.With("component", "media")}
}

// FromHTML finds the first inlined (data URI) image in the content and
// returns its BlurHash, or "" when there is none or it cannot be decoded.
func (p *Previewer) FromHTML(content string) string {
	data, ok := firstInlineImage(content)
	if !ok {
		return ""
	}
	hash, err := p.FromBytes(data)
	if err != nil {
		p.logger.Debug("lead image preview skipped", "error", err)
		return ""
	}
	return hash
}

// FromBytes computes the BlurHash of raw image bytes (jpeg, png, gif or
// webp).
func (p *Previewer) FromBytes(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	// 4x3 components balance hash size against detail.
	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// firstInlineImage returns the decoded bytes of the first img whose src
// is a base64 data URI.
func firstInlineImage(content string) ([]byte, bool) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, false
	}

	for node := range doc.Descendants() {
		if node.Type != html.ElementNode || node.Data != "img" {
			continue
		}
		for _, attr := range node.Attr {
			if attr.Key != "src" || !strings.HasPrefix(attr.Val, "data:") {
				continue
			}
			i := strings.Index(attr.Val, ";base64,")
			if i < 0 {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(attr.Val[i+len(";base64,"):])
			if err != nil || len(data) == 0 {
				continue
			}
			return data, true
		}
	}
	return nil, false
}

// thumbnail shrinks the image to previewSize on its longest edge using
// nearest-neighbor sampling, which is plenty for a BlurHash input.
func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	if srcWidth <= previewSize && srcHeight <= previewSize {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = previewSize
		dstHeight = max(1, (srcHeight*previewSize)/srcWidth)
	} else {
		dstHeight = previewSize
		dstWidth = max(1, (srcWidth*previewSize)/srcHeight)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)
	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			srcX := int(float64(x) * xRatio)
			srcY := int(float64(y) * yRatio)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}
	return dst
}
