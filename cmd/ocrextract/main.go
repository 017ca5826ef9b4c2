// ocrextract runs OCR over every image in a directory and writes one JSON
// file mapping each image file name to its recognized text.
//
// Images that fail recognition are recorded as {"error": "recognition failed"}
// and do not stop the batch. A missing image directory, an unwritable output
// path or a tesseract executable that cannot be found abort the run before
// anything is written.
//
// Usage:
//
//	ocrextract -img-dir img -output ocr_output.json [options]
//
// Required flags (or the matching keys of the -config file):
//
//	-img-dir string   Directory containing the images
//	-output string    Path of the JSON file to write
//
// Options:
//
//	-tesseract-cmd string  Path to the tesseract executable (overrides TESSERACT_CMD)
//	-config string         Path to a YAML config file
//	-engine string         tesseract, documentai or libtesseract
//	-lang string           Tesseract languages, e.g. eng+deu
//	-psm int               Tesseract page segmentation mode
//	-timeout duration      Time limit per image, 0 disables (default 2m0s)
//	-words                 Write word positions, font size and rotation per image
//	-pdf string            Also write a searchable PDF of the recognized images
//	-log-level string      debug, info, warn or error
//
// Exit status is 0 when the output was written, including runs with failed
// images, 1 on configuration or run errors, 2 on usage errors and 130 when
// interrupted.
//
// Example:
//
//	export TESSERACT_CMD=/opt/tesseract/bin/tesseract
//	ocrextract -img-dir scans -output scans.json -lang eng+deu -words
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/gardar/ocrbatch/internal/fsx"
	"github.com/gardar/ocrbatch/internal/logger"
	"github.com/gardar/ocrbatch/pkg/config"
	"github.com/gardar/ocrbatch/pkg/extract"
	"github.com/gardar/ocrbatch/pkg/gdocai"
	"github.com/gardar/ocrbatch/pkg/ocr"
	"github.com/gardar/ocrbatch/pkg/pdfocr"
	"github.com/gardar/ocrbatch/pkg/tesseract"
)

const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// newLibTesseract is set when built with the gosseract tag.
var newLibTesseract func(log *zap.Logger) ocr.Engine

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ocrextract", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to a YAML config file")
	imgDir := fs.String("img-dir", "", "Directory containing the images (required)")
	output := fs.String("output", "", "Path of the JSON file to write (required)")
	tesseractCmd := fs.String("tesseract-cmd", "", "Path to the tesseract executable (overrides "+tesseract.EnvCommand+")")
	engine := fs.String("engine", config.EngineTesseract, "OCR engine: tesseract, documentai or libtesseract")
	lang := fs.String("lang", "", "Tesseract languages, e.g. eng+deu")
	psm := fs.Int("psm", 0, "Tesseract page segmentation mode (0 keeps the default)")
	timeout := fs.Duration("timeout", extract.DefaultTimeout, "Time limit per image, 0 disables")
	words := fs.Bool("words", false, "Write word positions, font size and rotation per image")
	pdfPath := fs.String("pdf", "", "Also write a searchable PDF of the recognized images")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return exitUsage
	}

	// Create a map of provided flags so only those override the config
	provided := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		provided[f.Name] = true
	})

	// Validate that provided string flags have values
	for _, name := range []string{"config", "img-dir", "output", "tesseract-cmd", "engine", "lang", "pdf", "log-level"} {
		if provided[name] && strings.TrimSpace(fs.Lookup(name).Value.String()) == "" {
			fmt.Fprintf(stderr, "Error: -%s flag requires a value\n", name)
			fs.Usage()
			return exitUsage
		}
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if err := cfg.ApplyEnv(config.Env()); err != nil {
		return report(stderr, err)
	}

	overrides := map[string]func(){
		"img-dir":       func() { cfg.ImageDir = *imgDir },
		"output":        func() { cfg.Output = *output },
		"tesseract-cmd": func() { cfg.TesseractCmd = *tesseractCmd },
		"engine":        func() { cfg.Engine = *engine },
		"lang":          func() { cfg.Languages = config.SplitLanguages(*lang) },
		"psm":           func() { cfg.PSM = *psm },
		"timeout":       func() { cfg.Timeout = *timeout },
		"words":         func() { cfg.Words = *words },
		"pdf":           func() { cfg.PDF = *pdfPath },
		"log-level":     func() { cfg.LogLevel = *logLevel },
	}
	for name, apply := range overrides {
		if provided[name] {
			apply()
		}
	}

	if cfg.ImageDir == "" || cfg.Output == "" {
		fmt.Fprintln(stderr, "Error: -img-dir and -output are required (as flags or in the config file)")
		fs.Usage()
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		return report(stderr, err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return report(stderr, &ocr.InvalidConfigError{Field: "log_level", Reason: err.Error()})
	}
	defer log.Sync()

	if cfg.PDF != "" {
		if err := fsx.CheckWritable(cfg.PDF); err != nil {
			return report(stderr, &ocr.OutputPathError{Path: cfg.PDF, Err: err})
		}
	}

	eng, closeEngine, err := newEngine(ctx, cfg, log)
	if err != nil {
		return report(stderr, interrupted(ctx, err))
	}
	defer closeEngine()

	opts := cfg.ExtractOptions()
	opts.Logger = log
	doc, err := extract.Run(ctx, opts, eng)
	if err != nil {
		return report(stderr, interrupted(ctx, err))
	}
	fmt.Fprintf(stdout, "Wrote %d entries (%d failed) to %s\n", doc.Len(), doc.Failed(), cfg.Output)

	if cfg.PDF != "" {
		if err := writePDF(cfg, doc, log); err != nil {
			fmt.Fprintf(stderr, "Error: failed to create PDF: %v\n", err)
			return exitError
		}
		fmt.Fprintln(stdout, "Searchable PDF created:", cfg.PDF)
	}
	return exitOK
}

// newEngine builds the configured engine and the function releasing it.
func newEngine(ctx context.Context, cfg config.Config, log *zap.Logger) (ocr.Engine, func(), error) {
	switch cfg.Engine {
	case config.EngineDocumentAI:
		d := cfg.DocumentAI
		eng, err := gdocai.New(ctx, gdocai.Config{
			ProjectID:       d.ProjectID,
			Location:        d.Location,
			ProcessorID:     d.ProcessorID,
			CredentialsFile: d.CredentialsFile,
			DumpDir:         d.DumpDir,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return eng, func() {
			if err := eng.Close(); err != nil {
				log.Warn("Failed to close Document AI client", zap.Error(err))
			}
		}, nil

	case config.EngineLibTesseract:
		if newLibTesseract == nil {
			return nil, nil, &ocr.InvalidConfigError{
				Field:  "engine",
				Reason: "libtesseract support is not compiled in (build with -tags gosseract)",
			}
		}
		return newLibTesseract(log), func() {}, nil

	default:
		bin, err := tesseract.Resolver{}.Resolve(ctx, cfg.TesseractCmd)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using tesseract", zap.String("path", bin.Path), zap.String("version", bin.Version))
		return tesseract.New(bin, log), func() {}, nil
	}
}

func writePDF(cfg config.Config, doc *extract.Document, log *zap.Logger) error {
	pages, err := pdfocr.FromDocument(doc, cfg.ImageDir)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return errors.New("no recognized images to assemble")
	}

	pc := pdfocr.DefaultConfig()
	pc.Logger = log
	data, err := pdfocr.AssembleWithOCR(pages, pc)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(cfg.PDF, data, 0o644)
}

// errInterrupted marks a run stopped by a signal.
var errInterrupted = errors.New("interrupted, no output written")

// interrupted replaces err with errInterrupted once ctx is done.
func interrupted(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errInterrupted
	}
	return err
}

func report(stderr io.Writer, err error) int {
	if errors.Is(err, errInterrupted) {
		fmt.Fprintln(stderr, "Interrupted, no output written")
		return exitInterrupted
	}
	if ocr.IsConfigurationError(err) {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitError
}
