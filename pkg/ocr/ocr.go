// Package ocr defines the contract between the batch extractor and the OCR
// engines that back it, plus the error taxonomy shared by both.
//
// An Engine turns one image file into a Recognition. Engines are free to
// shell out (tesseract), call a remote API (Document AI) or link a library
// (libtesseract); the extractor treats them all as black boxes.
package ocr

import (
	"context"

	"github.com/gardar/ocrbatch/pkg/hocr"
)

// Engine recognizes the text of a single image.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string
	// Recognize runs OCR on the image at path. Implementations must honour
	// ctx cancellation and deadlines.
	Recognize(ctx context.Context, path string, opts Options) (Recognition, error)
}

// Options tune a single recognition call.
type Options struct {
	// Languages are tesseract language codes, e.g. "eng", "deu".
	Languages []string
	// PSM is the tesseract page segmentation mode; 0 keeps the engine default.
	PSM int
	// DetectOrientation requests a rotation estimate alongside the text.
	DetectOrientation bool
}

// Recognition is the engine output for one image.
type Recognition struct {
	// Text is the plain text in reading order.
	Text string
	// Rotation is the detected page rotation in degrees (0, 90, 180, 270).
	Rotation int
	// Page carries the word level layout when the engine provides it.
	Page *hocr.Page
}

// Words returns the recognized words, or nil when no layout is available.
func (r Recognition) Words() []hocr.Word {
	if r.Page == nil {
		return nil
	}
	return r.Page.Words()
}
