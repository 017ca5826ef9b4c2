package gdocai

import (
	"context"
	"fmt"
	"os"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// clientAdapter narrows the generated client to processor.
type clientAdapter struct {
	*documentai.DocumentProcessorClient
}

func (c clientAdapter) ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.Document, error) {
	resp, err := c.DocumentProcessorClient.ProcessDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Document, nil
}

func newClient(ctx context.Context, cfg Config) (processor, error) {
	creds := cfg.CredentialsFile
	if creds == "" {
		creds = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	opts := []option.ClientOption{option.WithEndpoint(cfg.Endpoint())}
	if creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	return clientAdapter{client}, nil
}

// process sends image bytes to the processor and returns the raw Document
// proto response.
func (e *Engine) process(ctx context.Context, content []byte, mimeType string) (*documentaipb.Document, error) {
	req := &documentaipb.ProcessRequest{
		Name: e.cfg.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	}

	doc, err := e.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	return doc, nil
}
