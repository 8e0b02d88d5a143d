package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// HTMLParser extracts readable text from HTML documents. Scripts, styles
// and navigation chrome are dropped; the body is converted to markdown so
// heading structure survives into the chunker.
type HTMLParser struct {
	converter *md.Converter
}

// NewHTMLParser creates a new HTML parser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{
		converter: md.NewConverter("", true, nil),
	}
}

// Parse reads and parses HTML from the reader
func (p *HTMLParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML: %w", err)
	}

	return p.parse(string(data), "")
}

// ParseFile reads and parses an HTML file
func (p *HTMLParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return p.parse(string(data), filePath)
}

// parse processes the HTML content
func (p *HTMLParser) parse(content, filePath string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := p.extractTitle(doc, filePath)

	doc.Find("script, style, noscript, nav, header, footer").Remove()

	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body = content
	}

	text, err := p.converter.ConvertString(body)
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML: %w", err)
	}

	return &Document{
		Content: cleanBlankLines(text),
		Title:   title,
		Metadata: map[string]interface{}{
			"file_size": len(content),
		},
	}, nil
}

// extractTitle prefers the <title> tag, then the first <h1>, then the file name
func (p *HTMLParser) extractTitle(doc *goquery.Document, filePath string) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if filePath != "" {
		return titleFromFileName(filePath)
	}
	return "Untitled"
}

// cleanBlankLines collapses runs of blank lines left over from conversion
func cleanBlankLines(s string) string {
	var lines []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			if blank {
				continue
			}
			blank = true
			lines = append(lines, "")
			continue
		}
		blank = false
		lines = append(lines, trimmed)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// FileType returns the file type this parser handles
func (p *HTMLParser) FileType() FileType {
	return FileTypeHTML
}
