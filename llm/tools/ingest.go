package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"agenthub/llm/parser"
	"agenthub/llm/retrieval"
)

const (
	// IngestURLToolName is the name of the URL ingestion tool
	IngestURLToolName = "ingest_url"

	// DefaultFetchTimeout is the default request timeout in seconds
	DefaultFetchTimeout = 30
	// MaxFetchTimeout is the maximum allowed timeout in seconds
	MaxFetchTimeout = 120
	// MaxReadSize is the maximum response size (5MB)
	MaxReadSize = int64(5 * 1024 * 1024)
)

// IngestURLParams defines parameters for URL ingestion
type IngestURLParams struct {
	URL     string `json:"url" jsonschema:"description=The URL to fetch and ingest. Must start with http:// or https://"`
	Title   string `json:"title,omitempty" jsonschema:"description=Optional title for the stored document (defaults to the page title)"`
	Timeout int    `json:"timeout,omitempty" jsonschema:"description=Optional timeout in seconds (default: 30, max: 120)"`
}

const ingestURLDescription = `Fetch a web page and store its content in the knowledge base.

PROCESS:
1. The page is fetched (size limit: 5MB, redirects followed)
2. HTML is stripped down to its readable text
3. The text is chunked, embedded, and stored for semantic search

PARAMETERS:
- url (required): The URL to fetch (must start with http:// or https://)
- title (optional): Title for the stored document
- timeout (optional): Timeout in seconds (default: 30, max: 120)

Use search_knowledge afterwards to query the ingested content.`

// IngestURLFunc fetches a URL and ingests its content into the knowledge base
func (ts *Toolset) IngestURLFunc(ctx context.Context, params IngestURLParams) (string, error) {
	if params.URL == "" {
		return Error("URL parameter is required")
	}
	if !strings.HasPrefix(params.URL, "http://") && !strings.HasPrefix(params.URL, "https://") {
		return Error("URL must start with http:// or https://")
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if timeout > MaxFetchTimeout {
		timeout = MaxFetchTimeout
	}

	client := &http.Client{
		Timeout: time.Duration(timeout) * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, params.URL, nil)
	if err != nil {
		return Error(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("User-Agent", "agenthub-ingest/1.0")

	startTime := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Error(fmt.Sprintf("failed to fetch URL: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Error(fmt.Sprintf("fetch returned status %d", resp.StatusCode))
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxReadSize))
	if err != nil {
		return Error(fmt.Sprintf("failed to read response: %v", err))
	}

	content := string(bodyBytes)
	filename := params.Title

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		doc, err := parser.NewHTMLParser().Parse(ctx, strings.NewReader(content))
		if err != nil {
			return Error(fmt.Sprintf("failed to extract text: %v", err))
		}
		content = doc.Content
		if filename == "" {
			filename = doc.Title
		}
	}
	if filename == "" {
		filename = params.URL
	}

	docID, err := ts.service.Ingest(ctx, ts.tenantID, filename, content, ts.agentID)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmptyContent) {
			return Error("fetched page contained no readable text")
		}
		return Error(fmt.Sprintf("ingestion failed: %v", err))
	}

	chunkCount := 0
	if doc, ok, err := ts.service.GetDocument(ctx, ts.tenantID, docID); err == nil && ok {
		chunkCount = len(doc.ChunkIDs)
	}

	return Success(fmt.Sprintf("Ingested %q into the knowledge base.", filename), &Metadata{
		DocumentID: docID,
		Chunks:     chunkCount,
		Duration:   time.Since(startTime).Milliseconds(),
		URL:        params.URL,
		StatusCode: resp.StatusCode,
	})
}

// IngestURLTool returns the URL ingestion tool
func (ts *Toolset) IngestURLTool() (tool.InvokableTool, error) {
	t, err := utils.InferTool(
		IngestURLToolName,
		ingestURLDescription,
		ts.IngestURLFunc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest tool: %w", err)
	}
	return t, nil
}
