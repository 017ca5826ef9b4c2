package pdfocr

import (
	"go.uber.org/zap"
)

// Config holds user options for assembling the searchable PDF.
type Config struct {
	Debug     bool        // Draw the text layer visibly in red with word boxes
	LayerName string      // Base name of the OCR layer (page number is appended)
	Logger    *zap.Logger // nil disables logging
	Font      FontConfig
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		LayerName: "OCR Text", // Will be formatted as "OCR Text (Page X)" in the final PDF
		Font:      DefaultFont,
	}
}

// FontConfig contains font settings for OCR text rendering
type FontConfig struct {
	Name        string  // Font name (e.g., "Helvetica")
	Style       string  // Font style ("", "B", "I", "BI")
	Size        float64 // Default font size
	AscentRatio float64 // Vertical positioning ratio
}

// DefaultFont sets the default font to Helvetica which is tried and tested for the OCR layer
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Style:       "",
	Size:        10,
	AscentRatio: 0.718,
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
