// Package pdfocr assembles searchable PDFs from scanned images and their
// hOCR layout.
//
// Every image becomes one PDF page with the image as background and the
// recognized words drawn on an optional content layer at the position of
// each word. The text is:
// - Fully searchable
// - Selectable with mouse drag operations
// - Can be toggled on/off in compatible PDF readers, allowing users to view just the OCR layer
//
// Main Functions:
//
// - AssembleWithOCR: Creates a new PDF from images with OCR text layer
// - FromDocument: Collects the pages of an extraction run
package pdfocr

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gardar/ocrbatch/pkg/extract"
	"github.com/gardar/ocrbatch/pkg/hocr"
)

// PageImage pairs an image with the hOCR page recognized from it.
type PageImage struct {
	Name  string // image file name, used in logs and errors
	Image []byte
	Page  hocr.Page
}

// AssembleWithOCR is a high-level function for creating a PDF from images
// and applying the hOCR text overlay.
func AssembleWithOCR(pages []PageImage, config Config) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to assemble")
	}
	for i, p := range pages {
		if len(p.Image) == 0 {
			return nil, fmt.Errorf("image %d (%s) is empty", i+1, p.Name)
		}
	}
	if config.LayerName == "" {
		config.LayerName = DefaultConfig().LayerName
	}
	if config.Font.Name == "" {
		config.Font = DefaultFont
	}

	finalPDF, err := createPDFFromImages(pages, config)
	if err != nil {
		return nil, fmt.Errorf("error creating PDF from images: %w", err)
	}
	return finalPDF, nil
}

// FromDocument reads back the images of the successful results of doc that
// carry a layout, in scan order. imageDir is the directory doc was
// extracted from.
func FromDocument(doc *extract.Document, imageDir string) ([]PageImage, error) {
	var pages []PageImage
	for _, r := range doc.Results() {
		if r.Failed() || r.Page == nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(imageDir, r.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", r.Name, err)
		}
		pages = append(pages, PageImage{Name: r.Name, Image: data, Page: *r.Page})
	}
	return pages, nil
}
