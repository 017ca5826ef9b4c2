package hocr

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// element kinds recognised by the parser
const (
	kindPage = "page"
	kindArea = "area"
	kindPar  = "par"
	kindLine = "line"
	kindWord = "word"
)

var classKinds = map[string]string{
	"ocr_page":      kindPage,
	"ocr_carea":     kindArea,
	"ocr_par":       kindPar,
	"ocr_line":      kindLine,
	"ocr_header":    kindLine,
	"ocr_caption":   kindLine,
	"ocr_textfloat": kindLine,
	"ocrx_word":     kindWord,
}

// ParseHOCR converts raw hOCR data into a structured HOCR object.
func ParseHOCR(data []byte) (HOCR, error) {
	result := HOCR{Metadata: make(map[string]string)}

	decoded, err := decode(data)
	if err != nil {
		return result, err
	}

	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return result, fmt.Errorf("failed to parse hOCR html: %w", err)
	}

	extractDocumentMeta(&result, doc)

	for _, n := range descendants(doc, kindPage) {
		result.Pages = append(result.Pages, processPage(n))
	}

	if len(result.Pages) == 0 {
		return result, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return result, nil
}

// decode converts data to UTF-8 using the charset declared in the document.
// Undeclared input that is valid UTF-8 is passed through unchanged.
func decode(data []byte) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(data, "text/html")
	if name == "utf-8" || (!certain && utf8.Valid(data)) {
		return data, nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return out, nil
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string
// Returns nil if the title has no usable bbox property
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	return bboxFromProps(ParseTitle(title))
}

func bboxFromProps(props map[string][]string) *BoundingBox {
	v, ok := props["bbox"]
	if !ok || len(v) < 4 {
		return nil
	}
	var c [4]float64
	for i := range c {
		f, err := strconv.ParseFloat(v[i], 64)
		if err != nil {
			return nil
		}
		c[i] = f
	}
	b := NewBoundingBox(c[0], c[1], c[2], c[3])
	return &b
}

func floatProp(props map[string][]string, key string) float64 {
	v, ok := props[key]
	if !ok || len(v) == 0 {
		return 0
	}
	f, _ := strconv.ParseFloat(v[0], 64)
	return f
}

// imageProp returns the image property with surrounding quotes removed.
// Tesseract quotes the path, which may itself contain spaces.
func imageProp(props map[string][]string) string {
	v, ok := props["image"]
	if !ok {
		return ""
	}
	return strings.Trim(strings.Join(v, " "), `"'`)
}

// kindOf maps the hOCR class of n to an element kind, or "" for other nodes.
func kindOf(n *html.Node) string {
	if n.Type != html.ElementNode {
		return ""
	}
	for _, class := range strings.Fields(getAttrVal(n, "class")) {
		if k, ok := classKinds[class]; ok {
			return k
		}
	}
	return ""
}

// descendants returns the outermost descendants of n whose kind is one of
// kinds, in document order. Matched nodes are not searched further.
func descendants(n *html.Node, kinds ...string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			k := kindOf(c)
			if k != "" && contains(kinds, k) {
				out = append(out, c)
				continue
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// extractDocumentMeta extracts document-level metadata from the head section
func extractDocumentMeta(result *HOCR, doc *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if lang := getAttrVal(n, "lang"); lang != "" {
					result.Language = lang
				} else if lang := getAttrVal(n, "xml:lang"); lang != "" {
					result.Language = lang
				}
			case "title":
				if n.FirstChild != nil {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := getAttrVal(n, "name"), getAttrVal(n, "content")
				if strings.HasPrefix(name, "ocr-") && content != "" {
					result.Metadata[name] = content
				}
			case "body":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

func processPage(n *html.Node) Page {
	props := ParseTitle(getAttrVal(n, "title"))
	page := Page{
		ID:        getAttrVal(n, "id"),
		Lang:      getAttrVal(n, "lang"),
		ImageName: imageProp(props),
	}
	if bbox := bboxFromProps(props); bbox != nil {
		page.BBox = *bbox
	}
	if v, ok := props["ppageno"]; ok && len(v) > 0 {
		page.PageNumber, _ = strconv.Atoi(v[0])
	}

	var stray []Word
	for _, c := range descendants(n, kindArea, kindPar, kindLine, kindWord) {
		switch kindOf(c) {
		case kindArea:
			page.Areas = append(page.Areas, processArea(c))
		case kindPar:
			page.Paragraphs = append(page.Paragraphs, processParagraph(c))
		case kindLine:
			page.Lines = append(page.Lines, processLine(c))
		case kindWord:
			stray = append(stray, processWord(c))
		}
	}
	if len(stray) > 0 {
		page.Lines = append(page.Lines, Line{Kind: "ocr_line", Words: stray})
	}
	return page
}

func processArea(n *html.Node) Area {
	area := Area{
		ID:   getAttrVal(n, "id"),
		Lang: getAttrVal(n, "lang"),
	}
	if bbox := ParseBoundingBoxFromTitle(getAttrVal(n, "title")); bbox != nil {
		area.BBox = *bbox
	}

	var stray []Word
	for _, c := range descendants(n, kindPar, kindLine, kindWord) {
		switch kindOf(c) {
		case kindPar:
			area.Paragraphs = append(area.Paragraphs, processParagraph(c))
		case kindLine:
			area.Lines = append(area.Lines, processLine(c))
		case kindWord:
			stray = append(stray, processWord(c))
		}
	}
	if len(stray) > 0 {
		area.Lines = append(area.Lines, Line{Kind: "ocr_line", Words: stray})
	}
	return area
}

func processParagraph(n *html.Node) Paragraph {
	par := Paragraph{
		ID:   getAttrVal(n, "id"),
		Lang: getAttrVal(n, "lang"),
	}
	if bbox := ParseBoundingBoxFromTitle(getAttrVal(n, "title")); bbox != nil {
		par.BBox = *bbox
	}

	var stray []Word
	for _, c := range descendants(n, kindLine, kindWord) {
		if kindOf(c) == kindLine {
			par.Lines = append(par.Lines, processLine(c))
		} else {
			stray = append(stray, processWord(c))
		}
	}
	if len(stray) > 0 {
		par.Lines = append(par.Lines, Line{Kind: "ocr_line", Words: stray})
	}
	return par
}

func processLine(n *html.Node) Line {
	props := ParseTitle(getAttrVal(n, "title"))
	line := Line{
		ID:        getAttrVal(n, "id"),
		Kind:      lineClass(n),
		Lang:      getAttrVal(n, "lang"),
		TextAngle: floatProp(props, "textangle"),
		Size:      floatProp(props, "x_size"),
	}
	if bbox := bboxFromProps(props); bbox != nil {
		line.BBox = *bbox
	}
	if v, ok := props["baseline"]; ok {
		line.Baseline = strings.Join(v, " ")
	}
	for _, c := range descendants(n, kindWord) {
		line.Words = append(line.Words, processWord(c))
	}
	return line
}

func lineClass(n *html.Node) string {
	for _, class := range strings.Fields(getAttrVal(n, "class")) {
		if classKinds[class] == kindLine {
			return class
		}
	}
	return ""
}

func processWord(n *html.Node) Word {
	props := ParseTitle(getAttrVal(n, "title"))
	word := Word{
		ID:         getAttrVal(n, "id"),
		Lang:       getAttrVal(n, "lang"),
		Confidence: floatProp(props, "x_wconf"),
		FontSize:   floatProp(props, "x_fsize"),
		Text:       extractTextContent(n),
	}
	if bbox := bboxFromProps(props); bbox != nil {
		word.BBox = *bbox
	}
	return word
}

// extractTextContent gets all text from a node and its children.
// Formatting children such as <strong> or <em> are flattened.
func extractTextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			return
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// Get the value of a specific attribute from a node
func getAttrVal(n *html.Node, attrName string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}
