package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/gardar/ocrbatch/internal/testutil"
	"github.com/gardar/ocrbatch/pkg/hocr"
	"github.com/gardar/ocrbatch/pkg/ocr"
)

// fakeEngine answers from a table keyed by image file name.
type fakeEngine struct {
	texts  map[string]string
	fail   map[string]error
	block  map[string]bool
	onCall func(name string)
	calls  []string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, path string, _ ocr.Options) (ocr.Recognition, error) {
	name := filepath.Base(path)
	f.calls = append(f.calls, name)
	if f.onCall != nil {
		f.onCall(name)
	}
	if f.block[name] {
		<-ctx.Done()
		return ocr.Recognition{}, ctx.Err()
	}
	if err, ok := f.fail[name]; ok {
		return ocr.Recognition{}, err
	}
	text := f.texts[name]
	page := hocr.Page{Lines: []hocr.Line{{Words: []hocr.Word{{
		Text:       text,
		BBox:       hocr.NewBoundingBox(10, 20, 50, 40),
		Confidence: 87.5,
	}}}}}
	return ocr.Recognition{Text: text, Rotation: 180, Page: &page}, nil
}

func setup(t *testing.T, names ...string) (imgDir, output string) {
	t.Helper()
	root := t.TempDir()
	imgDir = filepath.Join(root, "img")
	if err := os.Mkdir(imgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, n := range names {
		testutil.WriteImage(t, imgDir, n, strings.TrimSuffix(n, filepath.Ext(n)))
	}
	return imgDir, filepath.Join(root, "ocr_output.json")
}

func compactFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, b)
	}
	return buf.String()
}

func TestRun_PartialFailureIsRecorded(t *testing.T) {
	imgDir, output := setup(t, "a.png", "b.png")
	eng := &fakeEngine{
		texts: map[string]string{"a.png": "HELLO"},
		fail:  map[string]error{"b.png": errors.New("tesseract exited with status 1")},
	}

	doc, err := Run(context.Background(), Options{ImageDir: imgDir, OutputPath: output, Logger: zaptest.NewLogger(t)}, eng)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if doc.Len() != 2 || doc.Failed() != 1 {
		t.Fatalf("len/failed = %d/%d, want 2/1", doc.Len(), doc.Failed())
	}

	want := `{"a.png":"HELLO","b.png":{"error":"recognition failed"}}`
	if got := compactFile(t, output); got != want {
		t.Fatalf("output = %s\nwant     %s", got, want)
	}
}

func TestRun_EmptyDirectory(t *testing.T) {
	imgDir, output := setup(t)
	testutil.WriteImage(t, imgDir, "notes.txt", "x")

	doc, err := Run(context.Background(), Options{ImageDir: imgDir, OutputPath: output}, &fakeEngine{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if doc.Len() != 0 {
		t.Fatalf("len = %d, want 0", doc.Len())
	}
	if got := compactFile(t, output); got != "{}" {
		t.Fatalf("output = %s, want {}", got)
	}
}

func TestRun_OneEntryPerImageInScanOrder(t *testing.T) {
	imgDir, output := setup(t, "c.TIF", "a.jpg", "b.PNG", "readme.md")
	if err := os.Mkdir(filepath.Join(imgDir, "dir.png"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	eng := &fakeEngine{texts: map[string]string{"a.jpg": "A", "b.PNG": "B", "c.TIF": "C"}}

	doc, err := Run(context.Background(), Options{ImageDir: imgDir, OutputPath: output}, eng)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var names []string
	for _, r := range doc.Results() {
		names = append(names, r.Name)
	}
	if got := strings.Join(names, ","); got != "a.jpg,b.PNG,c.TIF" {
		t.Fatalf("entries = %s", got)
	}
	if got := compactFile(t, output); got != `{"a.jpg":"A","b.PNG":"B","c.TIF":"C"}` {
		t.Fatalf("output = %s", got)
	}
}

func TestRun_RerunOverwrites(t *testing.T) {
	imgDir, output := setup(t, "a.png")
	if err := os.WriteFile(output, []byte("stale, not even json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	eng := &fakeEngine{texts: map[string]string{"a.png": "HELLO"}}
	opts := Options{ImageDir: imgDir, OutputPath: output}

	if _, err := Run(context.Background(), opts, eng); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := compactFile(t, output)
	if _, err := Run(context.Background(), opts, eng); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second := compactFile(t, output); second != first || first != `{"a.png":"HELLO"}` {
		t.Fatalf("runs differ: %s vs %s", first, second)
	}
}

func TestRun_ConfigurationErrors(t *testing.T) {
	imgDir, output := setup(t, "a.png")

	tests := []struct {
		name   string
		opts   Options
		engine ocr.Engine
		check  func(error) bool
	}{
		{
			name:   "missing directory",
			opts:   Options{ImageDir: filepath.Join(imgDir, "nope"), OutputPath: output},
			engine: &fakeEngine{},
			check: func(err error) bool {
				var e *ocr.DirectoryNotFoundError
				return errors.As(err, &e)
			},
		},
		{
			name:   "directory is a file",
			opts:   Options{ImageDir: filepath.Join(imgDir, "a.png"), OutputPath: output},
			engine: &fakeEngine{},
			check: func(err error) bool {
				var e *ocr.DirectoryNotFoundError
				return errors.As(err, &e)
			},
		},
		{
			name:   "output parent missing",
			opts:   Options{ImageDir: imgDir, OutputPath: filepath.Join(imgDir, "missing", "out.json")},
			engine: &fakeEngine{},
			check: func(err error) bool {
				var e *ocr.OutputPathError
				return errors.As(err, &e)
			},
		},
		{
			name:   "no engine",
			opts:   Options{ImageDir: imgDir, OutputPath: output},
			engine: nil,
			check: func(err error) bool {
				var e *ocr.InvalidConfigError
				return errors.As(err, &e)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := tt.engine
			_, err := Run(context.Background(), tt.opts, eng)
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if !ocr.IsConfigurationError(err) {
				t.Fatalf("expected configuration error, got %T", err)
			}
			if fe, ok := eng.(*fakeEngine); ok && len(fe.calls) > 0 {
				t.Fatalf("engine called before validation: %v", fe.calls)
			}
			if _, err := os.Stat(output); !os.IsNotExist(err) {
				t.Fatalf("output file must not exist")
			}
		})
	}
}

func TestRun_TimeoutIsPerItem(t *testing.T) {
	imgDir, output := setup(t, "a.png", "b.png")
	eng := &fakeEngine{
		texts: map[string]string{"b.png": "B"},
		block: map[string]bool{"a.png": true},
	}

	doc, err := Run(context.Background(), Options{ImageDir: imgDir, OutputPath: output, Timeout: 50 * time.Millisecond, Detailed: true}, eng)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	a, _ := doc.Get("a.png")
	if !a.Failed() || a.Err.Reason != ocr.ReasonTimeout {
		t.Fatalf("a.png = %+v, want timeout failure", a)
	}
	if b, _ := doc.Get("b.png"); b.Failed() || b.Text != "B" {
		t.Fatalf("b.png = %+v", b)
	}
	if got := compactFile(t, output); !strings.Contains(got, `"a.png":{"error":"recognition failed","reason":"timeout"`) {
		t.Fatalf("output = %s", got)
	}
}

func TestRun_CancelWritesNothing(t *testing.T) {
	imgDir, output := setup(t, "a.png", "b.png", "c.png")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := &fakeEngine{
		texts: map[string]string{"a.png": "A", "c.png": "C"},
		block: map[string]bool{"b.png": true},
		onCall: func(name string) {
			if name == "b.png" {
				cancel()
			}
		},
	}

	_, err := Run(ctx, Options{ImageDir: imgDir, OutputPath: output}, eng)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if strings.Join(eng.calls, ",") != "a.png,b.png" {
		t.Fatalf("calls = %v", eng.calls)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("output must not be written on cancel")
	}
}

func TestRun_DetailedFormat(t *testing.T) {
	imgDir, output := setup(t, "a.png")
	eng := &fakeEngine{texts: map[string]string{"a.png": "Grüße"}}

	if _, err := Run(context.Background(), Options{ImageDir: imgDir, OutputPath: output, Detailed: true}, eng); err != nil {
		t.Fatalf("Run: %v", err)
	}
	raw, _ := os.ReadFile(output)
	if !bytes.Contains(raw, []byte("Grüße")) {
		t.Fatalf("non-ASCII text must be written verbatim: %s", raw)
	}

	var got map[string]struct {
		Text     string `json:"text"`
		Rotation int    `json:"rotation"`
		Words    []struct {
			Text     string             `json:"text"`
			Rotation int                `json:"rotation"`
			Position map[string]float64 `json:"position"`
			FontSize float64            `json:"font_size"`
			Conf     float64            `json:"confidence"`
		} `json:"words"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	entry := got["a.png"]
	if entry.Text != "Grüße" || entry.Rotation != 180 || len(entry.Words) != 1 {
		t.Fatalf("entry = %+v", entry)
	}
	w := entry.Words[0]
	if w.FontSize != 20 || w.Conf != 87.5 || w.Rotation != 180 {
		t.Fatalf("word = %+v", w)
	}
	if w.Position["center_x"] != 30 || w.Position["center_y"] != 30 || w.Position["right"] != 50 {
		t.Fatalf("position = %v", w.Position)
	}
}

func TestExtract_UnresolvedExecutableFailsFast(t *testing.T) {
	imgDir, output := setup(t, "a.png")

	_, err := Extract(context.Background(), imgDir, output, filepath.Join(t.TempDir(), "no-such-tesseract"))
	var notFound *ocr.ExecutableNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ExecutableNotFoundError, got %v", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("output must not be written")
	}
}

func TestExtract_EndToEndWithTesseractCLI(t *testing.T) {
	cmd := testutil.FakeTesseract(t)
	imgDir, output := setup(t)
	testutil.WriteImage(t, imgDir, "a.png", "HELLO")
	testutil.WriteImage(t, imgDir, "b_fail.png", "ignored")
	testutil.WriteImage(t, imgDir, "c_empty.jpg", "ignored")

	t.Setenv("TESSERACT_CMD", cmd)
	doc, err := Extract(context.Background(), imgDir, output, "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Len() != 3 || doc.Failed() != 2 {
		t.Fatalf("len/failed = %d/%d", doc.Len(), doc.Failed())
	}
	c, _ := doc.Get("c_empty.jpg")
	if c.Err == nil || c.Err.Reason != ocr.ReasonNoOutput {
		t.Fatalf("c_empty.jpg = %+v", c)
	}

	want := `{"a.png":"HELLO","b_fail.png":{"error":"recognition failed"},"c_empty.jpg":{"error":"recognition failed"}}`
	if got := compactFile(t, output); got != want {
		t.Fatalf("output = %s\nwant     %s", got, want)
	}
}
