package llm

import "time"

// Chunk is a bounded-size slice of a document's text, the unit of embedding
// and retrieval. Chunks are immutable once written: they are created during
// ingest and removed only when their parent document is deleted.
type Chunk struct {
	ID        string        `json:"id"`
	TenantID  string        `json:"tenant_id"`
	AgentID   int           `json:"agent_id,omitempty"` // 0 = tenant-wide
	Content   string        `json:"content"`
	Embedding []float32     `json:"-"` // stored separately from metadata
	Metadata  ChunkMetadata `json:"metadata"`
}

// ChunkMetadata is the fixed set of per-chunk metadata fields. A typed struct
// rather than an open map keeps filter matching statically checkable.
type ChunkMetadata struct {
	Source     string    `json:"source"`      // originating filename
	ChunkIndex int       `json:"chunk_index"` // position within the parent document
	DocumentID string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Document is a named unit of ingested content. It lists the ids of the
// chunks produced from it, in chunk order.
type Document struct {
	ID       string           `json:"id"`
	TenantID string           `json:"tenant_id"`
	AgentID  int              `json:"agent_id,omitempty"`
	Filename string           `json:"filename"`
	Content  string           `json:"content"`
	ChunkIDs []string         `json:"chunk_ids"`
	Metadata DocumentMetadata `json:"metadata"`
}

// DocumentMetadata describes the ingested source.
type DocumentMetadata struct {
	Size       int       `json:"size"` // character length of the original content
	Type       string    `json:"type"` // file type (txt, md, html, ...)
	UploadedAt time.Time `json:"uploaded_at"`
}

// SearchResult is a single ranked hit from vector search.
type SearchResult struct {
	ChunkID string
	Score   float32 // cosine similarity
	Chunk   Chunk
}

// TenantStats summarizes a tenant's knowledge base.
type TenantStats struct {
	DocumentCount    int `json:"document_count"`
	ChunkCount       int `json:"chunk_count"`
	TotalContentSize int `json:"total_content_size"`
}
