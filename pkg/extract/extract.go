// Package extract runs an OCR engine over every image in a directory and
// writes one JSON document mapping each image file name to its text.
//
// A single image that fails recognition is recorded as a failure marker and
// the batch continues. Problems with the inputs themselves (missing image
// directory, unwritable output path, unresolvable OCR executable) abort the
// run before any image is processed.
//
// Example output:
//
//	{
//	  "a.png": "HELLO",
//	  "b.png": {"error": "recognition failed"}
//	}
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/gardar/ocrbatch/internal/fsx"
	"github.com/gardar/ocrbatch/pkg/ocr"
	"github.com/gardar/ocrbatch/pkg/tesseract"
)

// DefaultTimeout bounds a single recognition call.
const DefaultTimeout = 2 * time.Minute

// Options configure a run.
type Options struct {
	ImageDir   string
	OutputPath string
	// Extensions selects the images to process; nil means DefaultExtensions.
	Extensions []string
	// Timeout bounds each image; zero disables the limit.
	Timeout time.Duration
	// Detailed switches the output to the word level format.
	Detailed bool
	OCR      ocr.Options
	Logger   *zap.Logger
}

// Extract resolves tesseract from ocrCommand, the TESSERACT_CMD environment
// variable or PATH, in that order, and runs it over imageDir with default
// options.
func Extract(ctx context.Context, imageDir, outputPath, ocrCommand string) (*Document, error) {
	if ocrCommand == "" {
		ocrCommand = os.Getenv(tesseract.EnvCommand)
	}
	bin, err := tesseract.Resolver{}.Resolve(ctx, ocrCommand)
	if err != nil {
		return nil, err
	}
	return Run(ctx, Options{
		ImageDir:   imageDir,
		OutputPath: outputPath,
		Timeout:    DefaultTimeout,
	}, tesseract.New(bin, nil))
}

// Run validates opts, recognizes each image sequentially with engine and
// replaces opts.OutputPath with the resulting document.
//
// When ctx is cancelled the in-flight recognition is aborted, no output is
// written and the context error is returned.
func Run(ctx context.Context, opts Options, engine ocr.Engine) (*Document, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if engine == nil {
		return nil, &ocr.InvalidConfigError{Field: "engine", Reason: "no OCR engine configured"}
	}
	if err := validate(opts); err != nil {
		return nil, err
	}

	log.Info("Starting OCR batch",
		zap.String("img_dir", opts.ImageDir),
		zap.String("output", opts.OutputPath),
		zap.String("engine", engine.Name()))

	started := time.Now()
	doc := NewDocument()
	for entry, err := range Images(opts.ImageDir, opts.Extensions) {
		if err != nil {
			return nil, &ocr.DirectoryNotFoundError{Path: opts.ImageDir, Err: err}
		}

		result, err := recognize(ctx, engine, entry, opts)
		if err != nil {
			log.Warn("Run interrupted, output not written",
				zap.String("image", entry.Name),
				zap.Error(err))
			return nil, err
		}
		if result.Failed() {
			log.Warn("Recognition failed",
				zap.String("image", entry.Name),
				zap.String("reason", result.Err.Reason),
				zap.Error(result.Err.Err))
		} else {
			log.Debug("Image recognized",
				zap.String("image", entry.Name),
				zap.Int("chars", len(result.Text)),
				zap.Int("rotation", result.Rotation))
		}

		if err := doc.Add(result); err != nil {
			return nil, err
		}
	}

	data, err := doc.Encode(opts.Detailed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output document: %w", err)
	}
	if err := fsx.WriteFileAtomic(opts.OutputPath, data, 0o644); err != nil {
		return nil, &ocr.OutputPathError{Path: opts.OutputPath, Err: err}
	}

	log.Info("OCR batch finished",
		zap.Int("images", doc.Len()),
		zap.Int("failed", doc.Failed()),
		zap.Duration("elapsed", time.Since(started)))
	return doc, nil
}

func validate(opts Options) error {
	fi, err := os.Stat(opts.ImageDir)
	if err != nil {
		return &ocr.DirectoryNotFoundError{Path: opts.ImageDir, Err: err}
	}
	if !fi.IsDir() {
		return &ocr.DirectoryNotFoundError{Path: opts.ImageDir, Err: errors.New("not a directory")}
	}
	if opts.OutputPath == "" {
		return &ocr.InvalidConfigError{Field: "output", Reason: "path is required"}
	}
	if err := fsx.CheckWritable(opts.OutputPath); err != nil {
		return &ocr.OutputPathError{Path: opts.OutputPath, Err: err}
	}
	if opts.Timeout < 0 {
		return &ocr.InvalidConfigError{Field: "timeout", Reason: "must not be negative"}
	}
	return nil
}

// recognize runs the engine on one image. Engine failures become a failed
// Result; only cancellation of ctx is returned as an error.
func recognize(ctx context.Context, engine ocr.Engine, entry ImageEntry, opts Options) (Result, error) {
	itemCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	rec, err := engine.Recognize(itemCtx, entry.Path, opts.OCR)
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if err != nil {
		return Result{
			Name: entry.Name,
			Err:  &ocr.RecognitionError{Image: entry.Name, Reason: reasonFor(err), Err: err},
		}, nil
	}
	return Result{
		Name:     entry.Name,
		Text:     rec.Text,
		Rotation: rec.Rotation,
		Words:    rec.Words(),
		Page:     rec.Page,
	}, nil
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ocr.ReasonTimeout
	case errors.Is(err, ocr.ErrNoOutput):
		return ocr.ReasonNoOutput
	default:
		return ocr.ReasonFailed
	}
}
