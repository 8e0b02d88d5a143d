package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"agenthub/llm/retrieval"
)

const (
	// SearchKnowledgeToolName is the name of the knowledge search tool
	SearchKnowledgeToolName = "search_knowledge"

	maxSearchResults = 10
)

// Toolset binds the knowledge tools to one tenant's knowledge base.
type Toolset struct {
	service  *retrieval.Service
	tenantID string
	agentID  int
}

// NewToolset creates the knowledge tools for a tenant. agentID 0 searches
// the whole tenant corpus; any other value restricts results to chunks
// ingested for that agent.
func NewToolset(service *retrieval.Service, tenantID string, agentID int) *Toolset {
	return &Toolset{
		service:  service,
		tenantID: tenantID,
		agentID:  agentID,
	}
}

// All returns every knowledge tool, ready to hand to an agent.
func (ts *Toolset) All() ([]tool.InvokableTool, error) {
	search, err := ts.SearchTool()
	if err != nil {
		return nil, err
	}
	ingest, err := ts.IngestURLTool()
	if err != nil {
		return nil, err
	}
	list, err := ts.ListDocumentsTool()
	if err != nil {
		return nil, err
	}
	del, err := ts.DeleteDocumentTool()
	if err != nil {
		return nil, err
	}
	return []tool.InvokableTool{search, ingest, list, del}, nil
}

// SearchKnowledgeParams defines parameters for knowledge base search
type SearchKnowledgeParams struct {
	Query string `json:"query" jsonschema:"description=The question or topic to search the knowledge base for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"description=Number of results to return (default 5, max 10)"`
}

const searchDescription = `Search the tenant's knowledge base for content relevant to a query.

Returns the most similar document chunks ranked by relevance, each with its
source and a confidence score. Use this before answering questions about the
tenant's documents. If nothing relevant is found, say so rather than guessing.`

// SearchKnowledgeFunc searches the knowledge base for relevant chunks
func (ts *Toolset) SearchKnowledgeFunc(ctx context.Context, params SearchKnowledgeParams) (string, error) {
	if params.Query == "" {
		return Error("query parameter is required")
	}

	topK := params.TopK
	if topK <= 0 {
		topK = 5
	}
	if topK > maxSearchResults {
		topK = maxSearchResults
	}

	result, err := ts.service.Query(ctx, ts.tenantID, params.Query, retrieval.QueryOptions{
		AgentID:    ts.agentID,
		MaxResults: topK,
	})
	if err != nil {
		return Error(fmt.Sprintf("knowledge search failed: %v", err))
	}

	if len(result.Sources) == 0 {
		return Success("No relevant content found in the knowledge base.", nil)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d relevant results:\n\n", len(result.Sources)))
	for i, src := range result.Sources {
		sb.WriteString(fmt.Sprintf("--- Result %d (confidence: %.2f) ---\n", i+1, src.Confidence))
		sb.WriteString(src.Content)
		sb.WriteString("\n")
		if src.Source != "" {
			sb.WriteString(fmt.Sprintf("Source: %s\n", src.Source))
		}
		sb.WriteString("\n")
	}

	return Success(sb.String(), &Metadata{MatchCount: len(result.Sources)})
}

// SearchTool returns the knowledge base search tool
func (ts *Toolset) SearchTool() (tool.InvokableTool, error) {
	t, err := utils.InferTool(
		SearchKnowledgeToolName,
		searchDescription,
		ts.SearchKnowledgeFunc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search tool: %w", err)
	}
	return t, nil
}
