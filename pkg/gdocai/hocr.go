package gdocai

import (
	"fmt"
	"math"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrbatch/pkg/hocr"
)

// PageFromProto converts a single Document AI page to an hOCR page.
// Blocks become content areas; paragraphs and lines are nested by text
// anchor containment and tokens become words.
func PageFromProto(page *documentaipb.Document_Page, fullText string, pageNumber int) hocr.Page {
	ocrPage := hocr.Page{
		ID:         fmt.Sprintf("page_%d", pageNumber),
		PageNumber: pageNumber,
		BBox:       pageBox(page.Dimension),
	}
	if len(page.DetectedLanguages) > 0 {
		ocrPage.Lang = page.DetectedLanguages[0].LanguageCode
	}

	// lines already placed under a paragraph
	assigned := make(map[string]bool)

	paragraph := func(pidx int, para *documentaipb.Document_Page_Paragraph, id string, aidx int) hocr.Paragraph {
		p := hocr.Paragraph{
			ID:   id,
			BBox: boundingBox(para.Layout, page.Dimension),
		}
		for lidx, line := range page.Lines {
			if !isElementInParent(line.Layout, para.Layout) {
				continue
			}
			assigned[layoutKey(line.Layout)] = true
			p.Lines = append(p.Lines, convertLine(line, page, fullText, pageNumber, aidx, pidx, lidx))
		}
		return p
	}

	for aidx, block := range page.Blocks {
		area := hocr.Area{
			ID:   fmt.Sprintf("carea_%d_%d", pageNumber, aidx),
			BBox: boundingBox(block.Layout, page.Dimension),
		}
		for pidx, para := range page.Paragraphs {
			if !isElementInParent(para.Layout, block.Layout) {
				continue
			}
			area.Paragraphs = append(area.Paragraphs,
				paragraph(pidx, para, fmt.Sprintf("par_%d_%d_%d", pageNumber, aidx, pidx), aidx))
		}
		ocrPage.Areas = append(ocrPage.Areas, area)
	}

	for pidx, para := range page.Paragraphs {
		if inAnyBlock(para.Layout, page.Blocks) {
			continue
		}
		ocrPage.Paragraphs = append(ocrPage.Paragraphs,
			paragraph(pidx, para, fmt.Sprintf("par_%d_direct_%d", pageNumber, pidx), 0))
	}

	for lidx, line := range page.Lines {
		if !assigned[layoutKey(line.Layout)] {
			ocrPage.Lines = append(ocrPage.Lines, convertLine(line, page, fullText, pageNumber, 0, 0, lidx))
		}
	}
	return ocrPage
}

func inAnyBlock(layout *documentaipb.Document_Page_Layout, blocks []*documentaipb.Document_Page_Block) bool {
	for _, block := range blocks {
		if isElementInParent(layout, block.Layout) {
			return true
		}
	}
	return false
}

func pageBox(dim *documentaipb.Document_Page_Dimension) hocr.BoundingBox {
	if dim == nil {
		return hocr.BoundingBox{}
	}
	return hocr.NewBoundingBox(0, 0, math.Round(float64(dim.Width)), math.Round(float64(dim.Height)))
}

// boundingBox scales normalized vertices (0-1) to pixel coordinates. The
// box spans the extremes of all vertices, so rotated polygons are covered.
func boundingBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) hocr.BoundingBox {
	if layout == nil || layout.BoundingPoly == nil || dim == nil {
		return hocr.BoundingBox{}
	}
	vertices := layout.BoundingPoly.NormalizedVertices
	if len(vertices) == 0 {
		return hocr.BoundingBox{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range vertices {
		x := float64(v.X * dim.Width)
		y := float64(v.Y * dim.Height)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return hocr.NewBoundingBox(math.Round(minX), math.Round(minY), math.Round(maxX), math.Round(maxY))
}

// isElementInParent reports whether the first text segment of element lies
// within the first text segment of parent.
func isElementInParent(element, parent *documentaipb.Document_Page_Layout) bool {
	es, ok := firstSegment(element)
	if !ok {
		return false
	}
	ps, ok := firstSegment(parent)
	if !ok {
		return false
	}
	return es.StartIndex >= ps.StartIndex && es.EndIndex <= ps.EndIndex
}

func firstSegment(layout *documentaipb.Document_Page_Layout) (*documentaipb.Document_TextAnchor_TextSegment, bool) {
	if layout == nil || layout.TextAnchor == nil || len(layout.TextAnchor.TextSegments) == 0 {
		return nil, false
	}
	return layout.TextAnchor.TextSegments[0], true
}

func layoutKey(layout *documentaipb.Document_Page_Layout) string {
	seg, ok := firstSegment(layout)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d-%d", seg.StartIndex, seg.EndIndex)
}

func convertLine(line *documentaipb.Document_Page_Line, page *documentaipb.Document_Page,
	fullText string, pageNum, blockIdx, paraIdx, lineIdx int) hocr.Line {

	ocrLine := hocr.Line{
		ID:   fmt.Sprintf("line_%d_%d_%d_%d", pageNum, blockIdx, paraIdx, lineIdx),
		Kind: "ocr_line",
		BBox: boundingBox(line.Layout, page.Dimension),
	}
	if len(line.DetectedLanguages) > 0 {
		ocrLine.Lang = line.DetectedLanguages[0].LanguageCode
	}

	for tidx, token := range page.Tokens {
		if !isElementInParent(token.Layout, line.Layout) {
			continue
		}
		text := strings.TrimSpace(textFromLayout(token.Layout, fullText))
		text = strings.ReplaceAll(text, "\n", " ")
		text = strings.ReplaceAll(text, "\r", "")
		if text == "" {
			continue
		}

		word := hocr.Word{
			ID:   fmt.Sprintf("word_%d_%d_%d_%d_%d", pageNum, blockIdx, paraIdx, lineIdx, tidx),
			Text: text,
			BBox: boundingBox(token.Layout, page.Dimension),
		}
		if token.Layout != nil {
			word.Confidence = math.Round(float64(token.Layout.Confidence)*10000) / 100
		}
		if len(token.DetectedLanguages) > 0 {
			word.Lang = token.DetectedLanguages[0].LanguageCode
		}
		ocrLine.Words = append(ocrLine.Words, word)
	}
	return ocrLine
}
