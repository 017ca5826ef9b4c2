package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// textFromLayout extracts text from a layout's text anchor segments.
// Segment indexes count runes of the document text.
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout == nil || layout.TextAnchor == nil {
		return ""
	}
	runes := []rune(fullText)
	total := len(runes)

	var b strings.Builder
	for _, seg := range layout.TextAnchor.TextSegments {
		start := min(max(int(seg.StartIndex), 0), total)
		end := min(max(int(seg.EndIndex), 0), total)
		if start > end {
			start = end
		}
		b.WriteString(string(runes[start:end]))
	}
	return b.String()
}
