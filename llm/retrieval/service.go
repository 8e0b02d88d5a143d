// Package retrieval orchestrates the two end-to-end knowledge-base
// operations the rest of the system depends on: ingesting documents into
// tenant-scoped storage and answering queries from retrieved context.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"agenthub/llm"
	"agenthub/llm/cache"
	"agenthub/llm/store"
	"agenthub/llm/vector"
	"agenthub/pubsub"
)

// InsufficientKnowledgeAnswer is returned when a query matches no chunks.
// This is the single most important user-facing contract: end users see this
// message, never an error, when the knowledge base lacks an answer.
const InsufficientKnowledgeAnswer = "I don't have enough information in my knowledge base to answer that question. Please try rephrasing, or contact support for help."

// answerSystemPrompt instructs the completion model to answer strictly from
// the retrieved context.
const answerSystemPrompt = `You are a knowledge-base assistant. Answer the user's question using ONLY the provided context. If the context does not contain the information needed to answer, say that you don't have enough information. Do not invent facts that are not in the context.`

// kbViewTTL caches the assembled knowledge-base view per tenant.
const kbViewTTL = 30 * time.Minute

// Source is one ranked origin of a generated answer.
type Source struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"` // originating filename
	Confidence float32 `json:"confidence"`
}

// QueryResult is the outcome of a knowledge-base query.
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Context []string `json:"context"`
}

// QueryOptions tune a single query. Zero values fall back to the search
// defaults (top 5 results, 0.7 confidence threshold).
type QueryOptions struct {
	AgentID             int
	MaxResults          int
	ConfidenceThreshold float32
}

// Service wires chunking, embedding, persistence and search together. It
// keeps no internal state: every call is a stateless request against the
// durable stores, so concurrent ingests and queries need no global lock.
type Service struct {
	documents  *store.DocumentStore
	chunks     *store.ChunkStore
	embeddings *vector.EmbeddingService
	searcher   *vector.Searcher
	chatModel  model.BaseChatModel
	cache      cache.Cache
	events     pubsub.Publisher[pubsub.KnowledgeEvent]
	chunkCfg   vector.ChunkConfig
	logger     *zap.Logger
}

// Config holds the service's injected dependencies. Stores, embeddings and
// searcher are required; ChatModel, Cache, Events and Logger are optional.
type Config struct {
	Documents  *store.DocumentStore
	Chunks     *store.ChunkStore
	Embeddings *vector.EmbeddingService
	Searcher   *vector.Searcher
	ChatModel  model.BaseChatModel
	Cache      cache.Cache
	Events     pubsub.Publisher[pubsub.KnowledgeEvent]
	ChunkCfg   vector.ChunkConfig
	Logger     *zap.Logger
}

// New creates the retrieval service. All state lives in the injected
// handles; the service itself holds no ambient globals.
func New(cfg Config) (*Service, error) {
	if cfg.Documents == nil || cfg.Chunks == nil {
		return nil, fmt.Errorf("document and chunk stores are required")
	}
	if cfg.Embeddings == nil {
		return nil, fmt.Errorf("embedding service is required")
	}
	if cfg.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg.ChunkCfg.ChunkSize <= 0 {
		cfg.ChunkCfg = vector.DefaultChunkConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Service{
		documents:  cfg.Documents,
		chunks:     cfg.Chunks,
		embeddings: cfg.Embeddings,
		searcher:   cfg.Searcher,
		chatModel:  cfg.ChatModel,
		cache:      cfg.Cache,
		events:     cfg.Events,
		chunkCfg:   cfg.ChunkCfg,
		logger:     cfg.Logger,
	}, nil
}

func kbViewCacheKey(tenantID string) string {
	return "kb:" + tenantID
}

// Ingest chunks content, embeds and persists each chunk in order, then
// writes the document record listing the chunk ids.
//
// A failure on chunk k aborts the remaining chunks and returns an
// IngestError; chunks written before the failure are not rolled back and no
// document record is created, so a later re-ingest starts clean.
func (s *Service) Ingest(ctx context.Context, tenantID, filename, content string, agentID int) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant id cannot be empty")
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	pieces := vector.ChunkText(content, s.chunkCfg)
	if len(pieces) == 0 {
		return "", ErrEmptyContent
	}

	docID := uuid.NewString()
	now := time.Now().UTC()
	chunkIDs := make([]string, 0, len(pieces))

	for i, piece := range pieces {
		embedding, err := s.embeddings.Embed(ctx, piece)
		if err != nil {
			return "", &IngestError{Stage: StageEmbed, Written: i, Total: len(pieces), Err: err}
		}

		chunk := llm.Chunk{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			AgentID:   agentID,
			Content:   piece,
			Embedding: embedding,
			Metadata: llm.ChunkMetadata{
				Source:     filename,
				ChunkIndex: i,
				DocumentID: docID,
				CreatedAt:  now,
			},
		}
		if err := s.chunks.Add(ctx, chunk); err != nil {
			return "", &IngestError{Stage: StagePersist, Written: i, Total: len(pieces), Err: err}
		}
		chunkIDs = append(chunkIDs, chunk.ID)
	}

	doc := llm.Document{
		ID:       docID,
		TenantID: tenantID,
		AgentID:  agentID,
		Filename: filename,
		Content:  content,
		ChunkIDs: chunkIDs,
		Metadata: llm.DocumentMetadata{
			Size:       len(content),
			Type:       fileType(filename),
			UploadedAt: now,
		},
	}
	if err := s.documents.Add(ctx, doc); err != nil {
		return "", &IngestError{Stage: StagePersist, Written: len(chunkIDs), Total: len(pieces), Err: err}
	}

	s.invalidateKnowledgeView(ctx, tenantID)
	s.publish(pubsub.DocumentIngestedEvent, pubsub.KnowledgeEvent{
		TenantID:   tenantID,
		DocumentID: docID,
		Chunks:     len(chunkIDs),
	})

	s.logger.Info("ingested document",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", docID),
		zap.String("filename", filename),
		zap.Int("chunks", len(chunkIDs)))
	return docID, nil
}

// Query embeds the query text, ranks the tenant's chunks against it, and
// generates an answer from the matched context. Zero matches is a normal
// outcome: the fixed insufficient-knowledge answer with empty sources.
func (s *Service) Query(ctx context.Context, tenantID, text string, opts QueryOptions) (*QueryResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id cannot be empty")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query text cannot be empty")
	}

	queryEmbedding, err := s.embeddings.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	searchOpts := vector.DefaultSearchOptions()
	if opts.MaxResults > 0 {
		searchOpts.TopK = opts.MaxResults
	}
	if opts.ConfidenceThreshold > 0 {
		searchOpts.ScoreThreshold = opts.ConfidenceThreshold
	}
	searchOpts.AgentID = opts.AgentID

	results, err := s.searcher.Search(ctx, queryEmbedding, tenantID, searchOpts)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		return &QueryResult{
			Answer:  InsufficientKnowledgeAnswer,
			Sources: []Source{},
			Context: []string{},
		}, nil
	}

	contextBlocks := make([]string, len(results))
	sources := make([]Source, len(results))
	for i, result := range results {
		contextBlocks[i] = result.Chunk.Content
		sources[i] = Source{
			Content:    result.Chunk.Content,
			Source:     result.Chunk.Metadata.Source,
			Confidence: result.Score,
		}
	}

	answer, err := s.generateAnswer(ctx, text, contextBlocks)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &QueryResult{
		Answer:  answer,
		Sources: sources,
		Context: contextBlocks,
	}, nil
}

// generateAnswer calls the completion model with the retrieved context. When
// no chat model is configured the raw context is returned, which lets the
// retrieval path run (and be tested) without a completion backend.
func (s *Service) generateAnswer(ctx context.Context, query string, contextBlocks []string) (string, error) {
	if s.chatModel == nil {
		return strings.Join(contextBlocks, "\n\n"), nil
	}

	var sb strings.Builder
	sb.WriteString("Context:\n")
	for i, block := range contextBlocks {
		sb.WriteString(fmt.Sprintf("--- Excerpt %d ---\n", i+1))
		sb.WriteString(block)
		sb.WriteString("\n")
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(query)

	msg, err := s.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(answerSystemPrompt),
		schema.UserMessage(sb.String()),
	})
	if err != nil {
		return "", fmt.Errorf("completion call failed: %w", err)
	}
	return msg.Content, nil
}

// DeleteDocument removes a document and all of its chunks. Returns false
// when the document does not exist; that is not an error.
func (s *Service) DeleteDocument(ctx context.Context, tenantID, docID string) (bool, error) {
	deleted, err := s.documents.Delete(ctx, tenantID, docID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidateKnowledgeView(ctx, tenantID)
		s.publish(pubsub.DocumentDeletedEvent, pubsub.KnowledgeEvent{
			TenantID:   tenantID,
			DocumentID: docID,
		})
	}
	return deleted, nil
}

// DeleteAllForTenant cascades every document, chunk and cache entry for the
// tenant. Returns false when the tenant had nothing to delete.
func (s *Service) DeleteAllForTenant(ctx context.Context, tenantID string) (bool, error) {
	docs, err := s.documents.List(ctx, tenantID)
	if err != nil {
		return false, err
	}

	for _, doc := range docs {
		if _, err := s.documents.Delete(ctx, tenantID, doc.ID); err != nil {
			return false, fmt.Errorf("failed to delete document %q: %w", doc.ID, err)
		}
	}

	if s.cache != nil {
		// Trailing separator keeps the flush tenant-exact: clearing "t1"
		// must not touch "t10" entries.
		for _, prefix := range []string{"chunk:", "vec:", "doc:"} {
			_ = s.cache.DeleteByPrefix(ctx, prefix+tenantID+":")
		}
		_ = s.cache.Delete(ctx, kbViewCacheKey(tenantID))
	}

	if len(docs) > 0 {
		s.publish(pubsub.TenantClearedEvent, pubsub.KnowledgeEvent{TenantID: tenantID})
		s.logger.Info("cleared tenant knowledge base",
			zap.String("tenant_id", tenantID),
			zap.Int("documents", len(docs)))
	}
	return len(docs) > 0, nil
}

// GetDocument fetches one document record.
func (s *Service) GetDocument(ctx context.Context, tenantID, docID string) (llm.Document, bool, error) {
	return s.documents.Get(ctx, tenantID, docID)
}

// ListDocuments returns every document record the tenant owns.
func (s *Service) ListDocuments(ctx context.Context, tenantID string) ([]llm.Document, error) {
	return s.documents.List(ctx, tenantID)
}

// Stats summarizes the tenant's knowledge base from its document records.
func (s *Service) Stats(ctx context.Context, tenantID string) (llm.TenantStats, error) {
	docs, err := s.documents.List(ctx, tenantID)
	if err != nil {
		return llm.TenantStats{}, err
	}

	var stats llm.TenantStats
	stats.DocumentCount = len(docs)
	for _, doc := range docs {
		stats.ChunkCount += len(doc.ChunkIDs)
		stats.TotalContentSize += doc.Metadata.Size
	}
	return stats, nil
}

// KnowledgeView assembles the tenant's full chunk corpus into one text
// block, cached until the next ingest or delete. The admin layer uses this
// as the agent-configuration preview.
func (s *Service) KnowledgeView(ctx context.Context, tenantID string) (string, error) {
	key := kbViewCacheKey(tenantID)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return string(data), nil
		}
	}

	chunks, err := s.chunks.ListChunks(ctx, tenantID)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Content
	}
	view := strings.Join(parts, "\n\n")

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, []byte(view), kbViewTTL)
	}
	return view, nil
}

// invalidateKnowledgeView drops the cached assembled view after any write.
func (s *Service) invalidateKnowledgeView(ctx context.Context, tenantID string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, kbViewCacheKey(tenantID))
	}
}

func (s *Service) publish(t pubsub.EventType, payload pubsub.KnowledgeEvent) {
	if s.events != nil {
		s.events.Publish(t, payload)
	}
}

// fileType derives the document type from the filename extension.
func fileType(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "txt"
	}
	return strings.ToLower(filename[idx+1:])
}
