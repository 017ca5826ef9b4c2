// Package gdocai recognizes images with a Google Document AI OCR processor.
//
// The Engine sends each image as a raw document, converts the first page of
// the response into an hocr.Page and takes the text from the document text,
// so Document AI results flow through the extractor exactly like tesseract's.
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Authentication via GOOGLE_APPLICATION_CREDENTIALS or Config.CredentialsFile
package gdocai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"go.uber.org/zap"

	"github.com/gardar/ocrbatch/pkg/ocr"
)

// Config identifies the processor to call.
type Config struct {
	ProjectID   string
	Location    string
	ProcessorID string
	// CredentialsFile overrides GOOGLE_APPLICATION_CREDENTIALS when set.
	CredentialsFile string
	// DumpDir, when set, receives the raw response of every image as JSON.
	DumpDir string
}

// ProcessorName returns the resource name of the processor.
func (c Config) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		c.ProjectID, c.Location, c.ProcessorID)
}

// Endpoint returns the regional API endpoint.
func (c Config) Endpoint() string {
	return fmt.Sprintf("%s-documentai.googleapis.com:443", c.Location)
}

// processor is the subset of the Document AI client the engine uses.
type processor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.Document, error)
	Close() error
}

// Engine is an ocr.Engine backed by Document AI.
type Engine struct {
	cfg    Config
	client processor
	log    *zap.Logger
}

// New dials the Document AI API. Close the engine when done.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Engine, error) {
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.ProcessorID == "" {
		return nil, &ocr.InvalidConfigError{Field: "documentai", Reason: "project_id, location and processor_id are required"}
	}
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newEngine(cfg, client, log), nil
}

func newEngine(cfg Config, client processor, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, client: client, log: log.Named("documentai")}
}

func (e *Engine) Name() string { return "documentai" }

// Close releases the API connection.
func (e *Engine) Close() error { return e.client.Close() }

// Recognize sends the image at path to Document AI. Languages, PSM and
// orientation options are tesseract specific and ignored.
func (e *Engine) Recognize(ctx context.Context, path string, _ ocr.Options) (ocr.Recognition, error) {
	mimeType, err := MimeType(path)
	if err != nil {
		return ocr.Recognition{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return ocr.Recognition{}, fmt.Errorf("failed to read image: %w", err)
	}

	doc, err := e.process(ctx, content, mimeType)
	if err != nil {
		return ocr.Recognition{}, err
	}
	if e.cfg.DumpDir != "" {
		if err := dumpResponse(e.cfg.DumpDir, filepath.Base(path), doc); err != nil {
			e.log.Warn("Failed to save API response", zap.String("image", path), zap.Error(err))
		}
	}

	return Recognition(doc)
}

// Recognition converts a processed single image document.
func Recognition(doc *documentaipb.Document) (ocr.Recognition, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return ocr.Recognition{}, ocr.ErrNoOutput
	}
	page := PageFromProto(doc.Pages[0], doc.Text, 1)
	return ocr.Recognition{
		Text: strings.TrimSpace(doc.Text),
		Page: &page,
	}, nil
}
