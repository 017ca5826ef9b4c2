package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gardar/ocrbatch/pkg/hocr"
	"github.com/gardar/ocrbatch/pkg/ocr"
)

// Result is the outcome for one image. Err is set for failed items.
type Result struct {
	Name     string
	Text     string
	Rotation int
	Words    []hocr.Word
	// Page is the layout the words were taken from, nil when the engine
	// reports none.
	Page *hocr.Page
	Err  *ocr.RecognitionError
}

// Failed reports whether recognition failed for this image.
func (r Result) Failed() bool { return r.Err != nil }

// Document maps image file names to results, in scan order.
type Document struct {
	results []Result
	index   map[string]int
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

// Add appends r. Names must be unique.
func (d *Document) Add(r Result) error {
	if _, ok := d.index[r.Name]; ok {
		return fmt.Errorf("duplicate entry %q", r.Name)
	}
	d.index[r.Name] = len(d.results)
	d.results = append(d.results, r)
	return nil
}

// Get returns the result recorded for name.
func (d *Document) Get(name string) (Result, bool) {
	i, ok := d.index[name]
	if !ok {
		return Result{}, false
	}
	return d.results[i], true
}

// Results returns all results in scan order.
func (d *Document) Results() []Result { return d.results }

// Len returns the number of entries.
func (d *Document) Len() int { return len(d.results) }

// Failed returns the number of failed entries.
func (d *Document) Failed() int {
	n := 0
	for _, r := range d.results {
		if r.Failed() {
			n++
		}
	}
	return n
}

type failureValue struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type position struct {
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
	Right   float64 `json:"right"`
	Bottom  float64 `json:"bottom"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
}

type wordValue struct {
	Text       string   `json:"text"`
	Rotation   int      `json:"rotation"`
	Position   position `json:"position"`
	FontSize   float64  `json:"font_size"`
	Confidence float64  `json:"confidence"`
}

type detailedValue struct {
	Text     string      `json:"text"`
	Rotation int         `json:"rotation"`
	Words    []wordValue `json:"words"`
}

// value returns the JSON value for r. The plain format maps to the text;
// failures are always an object with an "error" key.
func (r Result) value(detailed bool) any {
	if r.Failed() {
		f := failureValue{Error: ocr.ReasonFailed}
		if detailed {
			f.Reason = r.Err.Reason
			if r.Err.Err != nil {
				f.Detail = r.Err.Err.Error()
			}
		}
		return f
	}
	if !detailed {
		return r.Text
	}

	words := make([]wordValue, 0, len(r.Words))
	for _, w := range r.Words {
		if w.Text == "" {
			continue
		}
		cx, cy := w.BBox.Center()
		words = append(words, wordValue{
			Text:     w.Text,
			Rotation: r.Rotation,
			Position: position{
				Left:    w.BBox.X1,
				Top:     w.BBox.Y1,
				Right:   w.BBox.X2,
				Bottom:  w.BBox.Y2,
				CenterX: cx,
				CenterY: cy,
			},
			FontSize:   w.BBox.Height(),
			Confidence: w.Confidence,
		})
	}
	return detailedValue{Text: r.Text, Rotation: r.Rotation, Words: words}
}

// MarshalJSON encodes the plain format: filename to text or failure marker.
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.encode(false)
}

// Encode returns the indented JSON document. Keys keep scan order and
// non-ASCII text is written verbatim.
func (d *Document) Encode(detailed bool) ([]byte, error) {
	compact, err := d.encode(detailed)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (d *Document) encode(detailed bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range d.results {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshal(r.Name)
		if err != nil {
			return nil, err
		}
		val, err := marshal(r.value(detailed))
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", r.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
