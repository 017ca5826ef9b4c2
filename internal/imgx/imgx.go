// Package imgx prepares scanned images for embedding in a PDF.
package imgx

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Image is an image in a format the PDF writer can embed.
type Image struct {
	Data   []byte
	Type   string // "PNG", "JPEG" or "GIF"
	Width  int
	Height int
}

// ForPDF sniffs data and returns it unchanged when it is PNG, JPEG or GIF.
// Other decodable formats (BMP, TIFF) are re-encoded as PNG.
func ForPDF(data []byte) (Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image config: %w", err)
	}

	switch format {
	case "png", "jpeg", "gif":
		return Image{Data: data, Type: strings.ToUpper(format), Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Image{}, fmt.Errorf("failed to re-encode %s image as png: %w", format, err)
	}
	return Image{Data: buf.Bytes(), Type: "PNG", Width: cfg.Width, Height: cfg.Height}, nil
}
