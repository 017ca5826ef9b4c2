//go:build gosseract

package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"github.com/gardar/ocrbatch/pkg/hocr"
	"github.com/gardar/ocrbatch/pkg/ocr"
)

// LibEngine recognizes images in process through libtesseract. It needs
// the tesseract and leptonica development libraries at build time.
type LibEngine struct {
	clientFactory func() *gosseract.Client
	log           *zap.Logger
}

// NewLib returns a libtesseract backed engine. A nil logger disables logging.
func NewLib(log *zap.Logger) *LibEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &LibEngine{clientFactory: gosseract.NewClient, log: log.Named("libtesseract")}
}

func (e *LibEngine) Name() string { return "libtesseract" }

// Recognize runs libtesseract on path. The library call cannot be
// interrupted; on cancellation the call is abandoned and finishes in the
// background.
func (e *LibEngine) Recognize(ctx context.Context, path string, opts ocr.Options) (ocr.Recognition, error) {
	type outcome struct {
		hocr string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		c := e.clientFactory()
		defer c.Close()
		out, err := e.recognizeWithClient(c, path, opts)
		done <- outcome{hocr: out, err: err}
	}()

	var res outcome
	select {
	case <-ctx.Done():
		return ocr.Recognition{}, fmt.Errorf("libtesseract interrupted: %w", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return ocr.Recognition{}, res.err
	}
	if strings.TrimSpace(res.hocr) == "" {
		return ocr.Recognition{}, ocr.ErrNoOutput
	}

	doc, err := hocr.ParseHOCR([]byte(res.hocr))
	if err != nil {
		return ocr.Recognition{}, fmt.Errorf("failed to parse libtesseract output: %w", err)
	}
	page := doc.Pages[0]
	return ocr.Recognition{Text: doc.Text(), Page: &page}, nil
}

func (e *LibEngine) recognizeWithClient(c *gosseract.Client, path string, opts ocr.Options) (string, error) {
	if err := c.SetImage(path); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(opts.Languages) > 0 {
		if err := c.SetLanguage(opts.Languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if opts.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(opts.PSM)); err != nil {
			return "", fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	e.log.Debug("Recognizing in process", zap.String("image", path))
	out, err := c.HOCRText()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return out, nil
}
