package gdocai

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gardar/ocrbatch/internal/fsx"
)

var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// MimeType returns the Document AI MIME type for an image file name.
func MimeType(path string) (string, error) {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt, nil
	}
	return "", fmt.Errorf("unsupported image type %q", filepath.Ext(path))
}

// ToJSON renders a Document AI response as indented JSON.
func ToJSON(doc *documentaipb.Document) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(doc)
}

// dumpResponse writes doc to dir/<image>.json.
func dumpResponse(dir, image string, doc *documentaipb.Document) error {
	data, err := ToJSON(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return fsx.WriteFileAtomic(filepath.Join(dir, image+".json"), data, 0o644)
}
