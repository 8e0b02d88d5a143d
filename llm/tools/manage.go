package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
)

const (
	// ListDocumentsToolName is the name of the document listing tool
	ListDocumentsToolName = "list_documents"
	// DeleteDocumentToolName is the name of the document deletion tool
	DeleteDocumentToolName = "delete_document"
)

// ListDocumentsParams defines parameters for listing documents
type ListDocumentsParams struct{}

// ListDocumentsFunc lists every document in the tenant's knowledge base
func (ts *Toolset) ListDocumentsFunc(ctx context.Context, params ListDocumentsParams) (string, error) {
	docs, err := ts.service.ListDocuments(ctx, ts.tenantID)
	if err != nil {
		return Error(fmt.Sprintf("failed to list documents: %v", err))
	}

	if len(docs) == 0 {
		return Success("The knowledge base is empty.", nil)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d documents in the knowledge base:\n\n", len(docs)))
	for _, doc := range docs {
		sb.WriteString(fmt.Sprintf("- %s (id: %s, %d chunks, %d bytes)\n",
			doc.Filename, doc.ID, len(doc.ChunkIDs), doc.Metadata.Size))
	}

	return Success(sb.String(), &Metadata{MatchCount: len(docs)})
}

// ListDocumentsTool returns the document listing tool
func (ts *Toolset) ListDocumentsTool() (tool.InvokableTool, error) {
	t, err := utils.InferTool(
		ListDocumentsToolName,
		"List every document stored in the knowledge base with its id, chunk count, and size. Use this to find a document id before deleting.",
		ts.ListDocumentsFunc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create list tool: %w", err)
	}
	return t, nil
}

// DeleteDocumentParams defines parameters for document deletion
type DeleteDocumentParams struct {
	DocumentID string `json:"document_id" jsonschema:"description=The id of the document to delete, as shown by list_documents"`
}

// DeleteDocumentFunc removes a document and all of its chunks
func (ts *Toolset) DeleteDocumentFunc(ctx context.Context, params DeleteDocumentParams) (string, error) {
	if params.DocumentID == "" {
		return Error("document_id parameter is required")
	}

	deleted, err := ts.service.DeleteDocument(ctx, ts.tenantID, params.DocumentID)
	if err != nil {
		return Error(fmt.Sprintf("failed to delete document: %v", err))
	}
	if !deleted {
		return Error(fmt.Sprintf("no document with id %s", params.DocumentID))
	}

	return Success(fmt.Sprintf("Deleted document %s and its chunks.", params.DocumentID), &Metadata{
		DocumentID: params.DocumentID,
	})
}

// DeleteDocumentTool returns the document deletion tool
func (ts *Toolset) DeleteDocumentTool() (tool.InvokableTool, error) {
	t, err := utils.InferTool(
		DeleteDocumentToolName,
		"Delete one document and all of its chunks from the knowledge base. This cannot be undone.",
		ts.DeleteDocumentFunc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create delete tool: %w", err)
	}
	return t, nil
}
