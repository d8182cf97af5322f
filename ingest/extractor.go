package ingest

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
)

// Extractor converts raw file content to plain text ahead of chunking.
type Extractor interface {
	Extract(content []byte) (string, error)
}

// ContentType identifies the MIME type of content for extraction.
type ContentType string

const (
	TypePlainText ContentType = "text/plain"
	TypeHTML      ContentType = "text/html"
	TypeMarkdown  ContentType = "text/markdown"
	TypeCSV       ContentType = "text/csv"
	TypeJSON      ContentType = "application/json"
	TypeDOCX      ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypePDF       ContentType = "application/pdf"
)

// ContentTypeFromExtension maps file extensions to content types.
// Markdown and source-code extensions stay plain so their text reaches
// the structure-aware chunkers unstripped.
func ContentTypeFromExtension(ext string) ContentType {
	switch strings.ToLower(ext) {
	case "md", "markdown":
		return TypeMarkdown
	case "html", "htm":
		return TypeHTML
	case "csv":
		return TypeCSV
	case "json":
		return TypeJSON
	case "docx":
		return TypeDOCX
	case "pdf":
		return TypePDF
	default:
		return TypePlainText
	}
}

func defaultExtractors() map[ContentType]Extractor {
	return map[ContentType]Extractor{
		TypePlainText: PlainTextExtractor{},
		TypeMarkdown:  PlainTextExtractor{},
		TypeHTML:      HTMLExtractor{},
		TypeCSV:       CSVExtractor{},
		TypeJSON:      JSONExtractor{},
		TypeDOCX:      DOCXExtractor{},
		TypePDF:       PDFExtractor{},
	}
}

// PlainTextExtractor returns content as-is. Also used for markdown and
// source code, whose structure the chunkers want intact.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(content []byte) (string, error) {
	return string(content), nil
}

// HTMLExtractor pulls readable article text out of HTML via
// readability, falling back to a plain tag strip when the page has no
// extractable article.
type HTMLExtractor struct{}

var localDocURL = &url.URL{Scheme: "file", Path: "/document.html"}

func (HTMLExtractor) Extract(content []byte) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(content), localDocURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return strings.TrimSpace(article.TextContent), nil
	}
	return stripTags(string(content)), nil
}

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// stripTags removes scripts, styles, and markup, collapsing the result
// to readable text.
func stripTags(html string) string {
	text := scriptStyleRe.ReplaceAllString(html, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.Join(strings.Fields(line), " "))
	}
	out := strings.Join(lines, "\n")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
