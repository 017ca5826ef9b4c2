//go:build gosseract

package main

import (
	"go.uber.org/zap"

	"github.com/gardar/ocrbatch/pkg/ocr"
	"github.com/gardar/ocrbatch/pkg/tesseract"
)

func init() {
	newLibTesseract = func(log *zap.Logger) ocr.Engine { return tesseract.NewLib(log) }
}
