// Package tesseract drives the tesseract command line program as an
// ocr.Engine.
//
// Each image is recognized by one tesseract process writing hOCR to stdout;
// the hOCR is parsed with pkg/hocr so the same run yields both the plain
// text and the word layout. Orientation detection is a second process
// running with --psm 0.
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gardar/ocrbatch/pkg/hocr"
	"github.com/gardar/ocrbatch/pkg/ocr"
)

const waitDelay = 2 * time.Second

// Engine runs a resolved tesseract binary.
type Engine struct {
	bin Binary
	log *zap.Logger
}

// New returns an engine for bin. A nil logger disables logging.
func New(bin Binary, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{bin: bin, log: log.Named("tesseract")}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs tesseract on path and returns the recognized text and layout.
func (e *Engine) Recognize(ctx context.Context, path string, opts ocr.Options) (ocr.Recognition, error) {
	args := []string{path, "stdout"}
	if len(opts.Languages) > 0 {
		args = append(args, "-l", strings.Join(opts.Languages, "+"))
	}
	if opts.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(opts.PSM))
	}
	args = append(args, "hocr")

	out, err := e.run(ctx, args)
	if err != nil {
		return ocr.Recognition{}, err
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return ocr.Recognition{}, ocr.ErrNoOutput
	}

	doc, err := hocr.ParseHOCR(out)
	if err != nil {
		return ocr.Recognition{}, fmt.Errorf("failed to parse tesseract output: %w", err)
	}

	page := doc.Pages[0]
	rec := ocr.Recognition{
		Text: doc.Text(),
		Page: &page,
	}

	if opts.DetectOrientation {
		rotation, err := e.detectOrientation(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ocr.Recognition{}, err
			}
			e.log.Warn("Orientation detection failed, assuming 0",
				zap.String("image", path),
				zap.Error(err))
		}
		rec.Rotation = rotation
	}
	return rec, nil
}

// detectOrientation runs tesseract's orientation and script detection.
func (e *Engine) detectOrientation(ctx context.Context, path string) (int, error) {
	out, err := e.run(ctx, []string{path, "stdout", "--psm", "0"})
	if err != nil {
		return 0, err
	}
	rotation, ok := ParseOSD(string(out))
	if !ok {
		return 0, fmt.Errorf("no rotation in OSD output")
	}
	return rotation, nil
}

// ParseOSD extracts the "Rotate: N" value from tesseract --psm 0 output.
func ParseOSD(out string) (int, bool) {
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(key) != "Rotate" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// run executes tesseract and returns stdout. A cancelled or expired ctx
// kills the process and is reported as the ctx error.
func (e *Engine) run(ctx context.Context, args []string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.bin.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// children of a killed tesseract may keep the pipes open
	cmd.WaitDelay = waitDelay

	e.log.Debug("Running tesseract", zap.Strings("args", args))

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("tesseract interrupted: %w", ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("tesseract exited with status %d: %s",
				exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("failed to run tesseract: %w", err)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		e.log.Debug("tesseract stderr", zap.String("stderr", msg))
	}
	return stdout.Bytes(), nil
}
