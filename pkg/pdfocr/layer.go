package pdfocr

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/ocrbatch/pkg/hocr"
)

// layerStats counts the words drawn on a page and those whose text could
// not be represented in the PDF font encoding.
type layerStats struct {
	words          int
	encodingErrors int
}

// tooManyEncodingErrors reports whether more than a tenth of the words lost
// characters.
func (s layerStats) tooManyEncodingErrors() bool {
	return s.words > 0 && s.encodingErrors > s.words/10
}

// drawOCRLayer draws the OCR text onto a layer in a pdf page.
// The pageNum parameter is used to create unique layer names for each page.
func drawOCRLayer(
	pdf *fpdf.Fpdf,
	page hocr.Page,
	debug bool,
	layerName string,
	pageNum int,
	transform func(x, y float64) (float64, float64),
	fontConfig FontConfig,
) layerStats {
	layer := pdf.AddLayer(fmt.Sprintf("%s (Page %d)", layerName, pageNum), true)
	pdf.BeginLayer(layer)
	pdf.SetFont(fontConfig.Name, fontConfig.Style, fontConfig.Size)

	if debug {
		pdf.SetTextColor(255, 0, 0) // highlight text in red
	} else {
		pdf.SetAlpha(0.0, "Normal") // hide text from normal view
	}

	var stats layerStats
	for _, word := range page.Words() {
		if word.Text == "" || word.BBox.IsZero() {
			continue
		}
		if !drawWord(pdf, word, transform, fontConfig, debug) {
			stats.encodingErrors++
		}
		stats.words++
	}

	if !debug {
		pdf.SetAlpha(1.0, "Normal")
	}
	pdf.EndLayer()
	return stats
}

// drawWord renders a single word onto the PDF layer. It reports false when
// the word had characters outside ISO-8859-1.
func drawWord(pdf *fpdf.Fpdf, word hocr.Word, transform func(x, y float64) (float64, float64),
	fontConfig FontConfig, debug bool) bool {

	x, y := transform(word.BBox.X1, word.BBox.Y1)
	x2, y2 := transform(word.BBox.X2, word.BBox.Y2)
	wordWidth := x2 - x

	// Convert text to ISO-8859-1 to avoid PDF encoding issues
	encoded := true
	latin1, err := charmap.ISO8859_1.NewEncoder().String(word.Text)
	if err != nil {
		encoded = false
		latin1 = word.Text // fallback to raw text
	}

	strWidth := pdf.GetStringWidth(latin1)
	if strWidth > 0 {
		scale := wordWidth / strWidth
		pdf.SetFontSize(fontConfig.Size * scale)
	}

	fontSize, _ := pdf.GetFontSize()
	baseline := y + fontSize*fontConfig.AscentRatio

	pdf.Text(x, baseline, latin1)
	pdf.SetFontSize(fontConfig.Size)

	if debug {
		pdf.Rect(x, y, wordWidth, y2-y, "D")
	}
	return encoded
}
