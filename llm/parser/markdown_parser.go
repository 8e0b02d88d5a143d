package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	headingRe    = regexp.MustCompile(`(?m)^#+\s+(.*)$`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\]\([^\)]+\)`)
	fencedRe     = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCodeRe = regexp.MustCompile("`[^`]+`")
)

// MarkdownParser handles markdown files
type MarkdownParser struct {
	// stripCodeBlocks whether to remove code blocks from content
	stripCodeBlocks bool
}

// NewMarkdownParser creates a new markdown parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		stripCodeBlocks: false,
	}
}

// Parse reads and parses markdown from the reader
func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown: %w", err)
	}

	return p.parse(string(data), ""), nil
}

// ParseFile reads and parses a markdown file
func (p *MarkdownParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return p.parse(string(data), filePath), nil
}

// parse processes the markdown content
func (p *MarkdownParser) parse(content, filePath string) *Document {
	metadata := p.extractFrontmatter(content)
	body := p.removeFrontmatter(content)

	if p.stripCodeBlocks {
		body = fencedRe.ReplaceAllString(body, "")
		body = inlineCodeRe.ReplaceAllString(body, "")
	}

	// Strip markdown syntax so embeddings see prose, not markup
	body = p.cleanMarkdown(body)

	title := p.extractTitle(body, filePath)
	if frontmatterTitle, ok := metadata["title"].(string); ok {
		title = frontmatterTitle
	}

	metadata["file_size"] = len(content)
	metadata["has_frontmatter"] = hasFrontmatter(content)

	return &Document{
		Content:  body,
		Title:    title,
		Metadata: metadata,
	}
}

// extractFrontmatter parses simple key: value pairs from YAML frontmatter
func (p *MarkdownParser) extractFrontmatter(content string) map[string]interface{} {
	metadata := make(map[string]interface{})

	if !hasFrontmatter(content) {
		return metadata
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "---" {
			break
		}

		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"`)
			metadata[key] = value
		}
	}

	return metadata
}

// removeFrontmatter removes YAML frontmatter from content
func (p *MarkdownParser) removeFrontmatter(content string) string {
	if !hasFrontmatter(content) {
		return content
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return content
}

// hasFrontmatter checks if content has YAML frontmatter
func hasFrontmatter(content string) bool {
	lines := strings.Split(content, "\n")
	return len(lines) >= 2 && strings.TrimSpace(lines[0]) == "---"
}

// cleanMarkdown cleans up markdown formatting for better embedding
func (p *MarkdownParser) cleanMarkdown(content string) string {
	content = headingRe.ReplaceAllString(content, "$1")
	content = imageRe.ReplaceAllString(content, "$1")
	content = linkRe.ReplaceAllString(content, "$1")

	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")

	var cleanLines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "<") {
			cleanLines = append(cleanLines, line)
		}
	}

	return strings.Join(cleanLines, "\n\n")
}

// extractTitle extracts the title from markdown content
func (p *MarkdownParser) extractTitle(content, filePath string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
		if line != "" && len(line) < 100 {
			return line
		}
		break
	}

	if filePath != "" {
		return titleFromFileName(filePath)
	}
	return "Untitled"
}

// titleFromFileName derives a readable title from the file name
func titleFromFileName(path string) string {
	name := filepath.Base(path)
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}

	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")

	return name
}

// FileType returns the file type this parser handles
func (p *MarkdownParser) FileType() FileType {
	return FileTypeMD
}
