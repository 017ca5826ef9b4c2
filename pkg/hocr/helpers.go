package hocr

import (
	"strings"
)

// Text returns the text of all pages, pages separated by a blank line.
func (h HOCR) Text() string {
	parts := make([]string, 0, len(h.Pages))
	for _, p := range h.Pages {
		if t := p.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Text returns the page text in reading order. Words are joined by a space,
// lines by a newline and blocks (paragraphs) by a blank line.
func (p Page) Text() string {
	var blocks []string
	for _, lines := range p.blocks() {
		var sb strings.Builder
		for _, l := range lines {
			t := l.Text()
			if t == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(t)
		}
		if sb.Len() > 0 {
			blocks = append(blocks, sb.String())
		}
	}
	return strings.Join(blocks, "\n\n")
}

// Words returns every word of the page in reading order.
func (p Page) Words() []Word {
	var words []Word
	for _, lines := range p.blocks() {
		for _, l := range lines {
			words = append(words, l.Words...)
		}
	}
	return words
}

// Text joins the non-empty words of the line.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		if w.Text != "" {
			parts = append(parts, w.Text)
		}
	}
	return strings.Join(parts, " ")
}

// blocks groups the page lines into text blocks following the order areas,
// page paragraphs, loose page lines.
func (p Page) blocks() [][]Line {
	var out [][]Line
	for _, a := range p.Areas {
		for _, par := range a.Paragraphs {
			out = append(out, par.Lines)
		}
		if len(a.Lines) > 0 {
			out = append(out, a.Lines)
		}
	}
	for _, par := range p.Paragraphs {
		out = append(out, par.Lines)
	}
	if len(p.Lines) > 0 {
		out = append(out, p.Lines)
	}
	return out
}
