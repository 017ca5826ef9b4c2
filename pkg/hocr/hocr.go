// Package hocr parses hOCR, the HTML-based format OCR engines such as
// tesseract use to report recognized text together with its layout.
//
// The parsed model follows the hOCR hierarchy:
// Document → Pages → Areas → Paragraphs → Lines → Words.
// Every element carries its bounding box; words also carry the engine's
// confidence (x_wconf) and font size (x_fsize) when present.
//
// Tesseract reports headers, captions and floating text with their own line
// classes (ocr_header, ocr_caption, ocr_textfloat); they are parsed as lines
// and keep the original class in Line.Kind.
//
// Main Functions:
//
// - ParseHOCR: Parses hOCR data from HTML into the object model
// - Page.Text / HOCR.Text: Plain text in reading order
// - Page.Words: Flat word list in reading order
package hocr
