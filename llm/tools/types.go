// Package tools exposes the knowledge base to an eino agent as invokable
// tools. Every tool is bound to one tenant at construction time so the
// model can never reach across tenants.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResultStatus represents the status of a tool execution
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
	StatusPartial ResultStatus = "partial"
)

// Metadata contains structured metadata about tool execution
type Metadata struct {
	DocumentID string `json:"document_id,omitempty"`
	Chunks     int    `json:"chunks,omitempty"`
	MatchCount int    `json:"match_count,omitempty"`
	Duration   int64  `json:"duration_ms,omitempty"`

	// Network, for URL ingestion
	URL        string `json:"url,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// ToolResult represents a structured tool response
type ToolResult struct {
	Status   ResultStatus `json:"status"`
	Content  string       `json:"content"`
	Metadata *Metadata    `json:"metadata,omitempty"`
}

// String returns the formatted string representation for LLM consumption
func (r *ToolResult) String() string {
	var sb strings.Builder

	if r.Status == StatusError {
		sb.WriteString("[ERROR] ")
	} else if r.Status == StatusPartial {
		sb.WriteString("[PARTIAL] ")
	}

	sb.WriteString(r.Content)

	// Metadata in XML format (LLM-friendly)
	if r.Metadata != nil {
		md := r.Metadata
		var attrs []string

		if md.DocumentID != "" {
			attrs = append(attrs, fmt.Sprintf("document=%s", md.DocumentID))
		}
		if md.Chunks > 0 {
			attrs = append(attrs, fmt.Sprintf("chunks=%d", md.Chunks))
		}
		if md.MatchCount > 0 {
			attrs = append(attrs, fmt.Sprintf("matches=%d", md.MatchCount))
		}
		if md.Duration > 0 {
			attrs = append(attrs, fmt.Sprintf("duration=%dms", md.Duration))
		}
		if md.URL != "" {
			attrs = append(attrs, fmt.Sprintf("url=%s", md.URL))
		}
		if md.StatusCode > 0 {
			attrs = append(attrs, fmt.Sprintf("status=%d", md.StatusCode))
		}

		if len(attrs) > 0 {
			sb.WriteString(fmt.Sprintf("\n\n<metadata %s />", strings.Join(attrs, " ")))
		}
	}

	return sb.String()
}

// JSON returns the JSON representation (for debugging/logging)
func (r *ToolResult) JSON() string {
	data, _ := json.MarshalIndent(r, "", "  ")
	return string(data)
}

// Helper constructors

// Success creates a successful tool result
func Success(content string, metadata *Metadata) (string, error) {
	return (&ToolResult{
		Status:   StatusSuccess,
		Content:  content,
		Metadata: metadata,
	}).String(), nil
}

// Error creates an error tool result
func Error(content string) (string, error) {
	return (&ToolResult{
		Status:  StatusError,
		Content: content,
	}).String(), nil
}

// Partial creates a partial success tool result
func Partial(content string, metadata *Metadata) (string, error) {
	return (&ToolResult{
		Status:   StatusPartial,
		Content:  content,
		Metadata: metadata,
	}).String(), nil
}
