package qrimage

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// Renderer encodes arbitrary strings into PNG QR bitmaps.
type Renderer struct {
	size int
}

// NewRenderer builds a renderer producing square PNGs of the given pixel size.
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = defaultSize
	}
	return &Renderer{size: size}
}

// DataURL encodes value at medium recovery level and returns it as a
// data:image/png;base64 URL suitable for inlining in an <img> tag.
func (r *Renderer) DataURL(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("value to encode is required")
	}
	png, err := qrcode.Encode(value, qrcode.Medium, r.size)
	if err != nil {
		return "", fmt.Errorf("encoding qr image: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
