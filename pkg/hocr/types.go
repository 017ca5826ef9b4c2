package hocr

// HOCR represents a parsed hOCR document
type HOCR struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // ocr-system, ocr-capabilities, ...
	Pages    []Page            // Pages in the document
}

// Page is one page of recognized text
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID         string      // Unique identifier
	PageNumber int         // ppageno property
	ImageName  string      // image property (source file as seen by the engine)
	Lang       string      // Language code for this page
	BBox       BoundingBox // Page coordinates
	Areas      []Area      // Content areas (columns)
	Paragraphs []Paragraph // Paragraphs directly under page
	Lines      []Line      // Lines directly under page (no parent)
}

// Class assign 'ocr_page' to 'Page' struct
func (Page) Class() string { return "ocr_page" }

// Area represents a content area (column or region)
// Corresponds to hOCR element with class: 'ocr_carea'
type Area struct {
	ID         string
	Lang       string
	BBox       BoundingBox
	Paragraphs []Paragraph
	Lines      []Line
}

// Class assign 'ocr_carea' to 'Area' struct
func (Area) Class() string { return "ocr_carea" }

// Paragraph corresponds to hOCR element with class: 'ocr_par'
type Paragraph struct {
	ID    string
	Lang  string
	BBox  BoundingBox
	Lines []Line
}

// Class assign 'ocr_par' to 'Paragraph' struct
func (Paragraph) Class() string { return "ocr_par" }

// Line represents a line of text. Tesseract emits ocr_line, ocr_header,
// ocr_caption and ocr_textfloat for lines; Kind keeps the original class.
type Line struct {
	ID        string
	Kind      string
	Lang      string
	BBox      BoundingBox
	Baseline  string
	TextAngle float64 // textangle property in degrees
	Size      float64 // x_size property
	Words     []Word
}

// Class assign 'ocr_line' to 'Line' struct
func (Line) Class() string { return "ocr_line" }

// Word is a recognized word with bounding box
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string
	Text       string
	BBox       BoundingBox
	Confidence float64 // Recognition confidence (0-100)
	Lang       string
	FontSize   float64 // x_fsize property, 0 when absent
}

// Class assign 'ocrx_word' to 'Word' struct
func (Word) Class() string { return "ocrx_word" }

// BoundingBox represents a rectangle in image pixels, origin top-left
type BoundingBox struct {
	X1 float64 // Left
	Y1 float64 // Top
	X2 float64 // Right
	Y2 float64 // Bottom
}

// NewBoundingBox creates a bounding box from the x1 y1 x2 y2 values of an
// hOCR 'bbox' property.
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func (b BoundingBox) Width() float64  { return b.X2 - b.X1 }
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Center returns the midpoint of the box.
func (b BoundingBox) Center() (float64, float64) {
	return b.X1 + b.Width()/2, b.Y1 + b.Height()/2
}

// IsZero reports whether no bbox was set.
func (b BoundingBox) IsZero() bool { return b == BoundingBox{} }
