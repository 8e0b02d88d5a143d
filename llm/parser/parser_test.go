package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileTypeFromExt(t *testing.T) {
	tests := []struct {
		ext  string
		want FileType
	}{
		{"txt", FileTypeTXT},
		{"TXT", FileTypeTXT},
		{"md", FileTypeMD},
		{"markdown", FileTypeMD},
		{"html", FileTypeHTML},
		{"htm", FileTypeHTML},
		{"pdf", FileTypeUnknown},
		{"", FileTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FileTypeFromExt(tt.ext), "ext %q", tt.ext)
	}
}

func TestRegistryRoutesByExtension(t *testing.T) {
	reg := DefaultRegistry()

	p, ok := reg.GetParserForPath("/docs/readme.md")
	require.True(t, ok)
	assert.Equal(t, FileTypeMD, p.FileType())

	p, ok = reg.GetParserForPath("page.HTML")
	require.True(t, ok)
	assert.Equal(t, FileTypeHTML, p.FileType())

	_, ok = reg.GetParserForPath("image.png")
	assert.False(t, ok)
}

func TestRegistryParseFileUnsupported(t *testing.T) {
	_, err := DefaultRegistry().ParseFile(context.Background(), "report.xlsx")
	assert.Error(t, err)
}

func TestTxtParserParseFile(t *testing.T) {
	path := writeTemp(t, "notes.txt", "First line as title\nSecond line of the note.")

	doc, err := NewTxtParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "First line as title", doc.Title)
	assert.Contains(t, doc.Content, "Second line of the note.")
	assert.Equal(t, 2, doc.Metadata["line_count"])
}

func TestTxtParserParseReader(t *testing.T) {
	doc, err := NewTxtParser().Parse(context.Background(), strings.NewReader("Plain body text."))
	require.NoError(t, err)
	assert.Equal(t, "Plain body text.", doc.Content)
}

func TestMarkdownParserStripsFormatting(t *testing.T) {
	content := `# API Guide

Read the **quick start** first, then the [reference](https://example.com/ref).

![diagram](arch.png)
`
	doc, err := NewMarkdownParser().Parse(context.Background(), strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "API Guide", doc.Title)
	assert.Contains(t, doc.Content, "quick start")
	assert.Contains(t, doc.Content, "reference")
	assert.NotContains(t, doc.Content, "**")
	assert.NotContains(t, doc.Content, "](")
	assert.NotContains(t, doc.Content, "#")
}

func TestMarkdownParserFrontmatter(t *testing.T) {
	content := `---
title: "Deployment Guide"
author: ops
---
# Ignored Heading

Body text here.
`
	doc, err := NewMarkdownParser().Parse(context.Background(), strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "Deployment Guide", doc.Title)
	assert.Equal(t, "ops", doc.Metadata["author"])
	assert.Equal(t, true, doc.Metadata["has_frontmatter"])
	assert.NotContains(t, doc.Content, "title:")
	assert.Contains(t, doc.Content, "Body text here.")
}

func TestHTMLParserExtractsText(t *testing.T) {
	content := `<!DOCTYPE html>
<html>
<head>
  <title>Support FAQ</title>
  <style>body { color: red; }</style>
  <script>console.log("tracking");</script>
</head>
<body>
  <nav>Home | About</nav>
  <h1>Frequently Asked Questions</h1>
  <p>Refunds are processed within <b>five days</b>.</p>
</body>
</html>`

	doc, err := NewHTMLParser().Parse(context.Background(), strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "Support FAQ", doc.Title)
	assert.Contains(t, doc.Content, "Refunds are processed within")
	assert.Contains(t, doc.Content, "five days")
	assert.NotContains(t, doc.Content, "console.log")
	assert.NotContains(t, doc.Content, "color: red")
	assert.NotContains(t, doc.Content, "Home | About")
}

func TestHTMLParserTitleFallsBackToH1(t *testing.T) {
	content := `<html><body><h1>Release Notes</h1><p>Version two ships today.</p></body></html>`

	doc, err := NewHTMLParser().Parse(context.Background(), strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "Release Notes", doc.Title)
}

func TestHTMLParserParseFile(t *testing.T) {
	path := writeTemp(t, "faq.html", `<html><head><title>FAQ</title></head><body><p>Answer text.</p></body></html>`)

	doc, err := NewHTMLParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "FAQ", doc.Title)
	assert.Contains(t, doc.Content, "Answer text.")
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "My Title", ExtractTitle("# My Title\nbody", "doc.md"))
	assert.Equal(t, "Plain first line", ExtractTitle("Plain first line\nmore", "doc.txt"))
	assert.Equal(t, "doc.txt", ExtractTitle("", "/tmp/doc.txt"))
}
