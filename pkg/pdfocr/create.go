package pdfocr

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/gardar/ocrbatch/internal/imgx"
)

// createPDFFromImages builds a new PDF with one page per image. Each page
// is sized to the image in points and carries the words of its hOCR page.
// Images that cannot be decoded are skipped.
func createPDFFromImages(pages []PageImage, cfg Config) ([]byte, error) {
	log := cfg.logger()
	pdf := fpdf.New("P", "pt", "A4", "")

	pageNum := 0
	for i, p := range pages {
		img, err := imgx.ForPDF(p.Image)
		if err != nil {
			log.Warn("Skipping image in PDF", zap.String("image", p.Name), zap.Error(err))
			continue
		}
		pageNum++
		w, h := float64(img.Width), float64(img.Height)

		// hOCR coordinates are relative to the page bbox, which is the
		// recognized image size and may differ from the embedded one
		hocrW, hocrH := p.Page.BBox.Width(), p.Page.BBox.Height()
		if hocrW <= 0 || hocrH <= 0 {
			hocrW, hocrH = w, h
		}
		transform := scaleTo(hocrW, hocrH, w, h)

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		imageName := fmt.Sprintf("img%d", i)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: img.Type}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(img.Data))
		pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to embed image for page %d (%s): %w", pageNum, p.Name, err)
		}

		stats := drawOCRLayer(pdf, p.Page, cfg.Debug, cfg.LayerName, pageNum, transform, cfg.Font)
		if stats.tooManyEncodingErrors() {
			log.Warn("Character encoding issues in OCR layer",
				zap.String("image", p.Name),
				zap.Int("words", stats.words),
				zap.Int("affected", stats.encodingErrors))
		}
		log.Debug("Added PDF page",
			zap.Int("page", pageNum),
			zap.String("image", p.Name),
			zap.Int("words", stats.words))
	}

	if pageNum == 0 {
		return nil, fmt.Errorf("none of the %d images could be embedded", len(pages))
	}

	// Generate final PDF
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleTo maps coordinates in a from-sized space onto a to-sized page.
func scaleTo(fromW, fromH, toW, toH float64) func(x, y float64) (float64, float64) {
	sx, sy := toW/fromW, toH/fromH
	return func(x, y float64) (float64, float64) {
		return x * sx, y * sy
	}
}
