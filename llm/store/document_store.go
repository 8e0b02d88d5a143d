package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"agenthub/llm"
	"agenthub/llm/blob"
	"agenthub/llm/cache"
)

// DocumentStore persists document records keyed by (tenant, document id).
// Deleting a document cascades to every chunk it lists.
type DocumentStore struct {
	blobs    blob.Store
	cache    cache.Cache
	chunks   *ChunkStore
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDocumentStore creates a document store sharing the chunk store's
// durable backend and cache.
func NewDocumentStore(blobs blob.Store, c cache.Cache, chunks *ChunkStore, logger *zap.Logger) *DocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentStore{
		blobs:    blobs,
		cache:    c,
		chunks:   chunks,
		cacheTTL: DefaultCacheTTL,
		logger:   logger,
	}
}

func documentBlobKey(tenantID, docID string) string {
	return path.Join("documents", tenantID, docID+".json")
}

func documentCacheKey(tenantID, docID string) string {
	return "doc:" + tenantID + ":" + docID
}

// Add writes the document record to durable storage and warms the cache.
func (s *DocumentStore) Add(ctx context.Context, doc llm.Document) error {
	if doc.TenantID == "" || doc.ID == "" {
		return fmt.Errorf("document tenant id and id are required")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %q: %w", doc.ID, err)
	}
	if err := s.blobs.Put(ctx, documentBlobKey(doc.TenantID, doc.ID), data); err != nil {
		return fmt.Errorf("failed to persist document %q: %w", doc.ID, err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, documentCacheKey(doc.TenantID, doc.ID), data, s.cacheTTL)
	}

	s.logger.Debug("added document",
		zap.String("tenant_id", doc.TenantID),
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(doc.ChunkIDs)))
	return nil
}

// Get returns a document record. A missing document is (zero, false, nil).
func (s *DocumentStore) Get(ctx context.Context, tenantID, docID string) (llm.Document, bool, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, documentCacheKey(tenantID, docID)); err == nil && ok {
			var doc llm.Document
			if json.Unmarshal(data, &doc) == nil {
				return doc, true, nil
			}
		}
	}

	data, ok, err := s.blobs.Get(ctx, documentBlobKey(tenantID, docID))
	if err != nil {
		return llm.Document{}, false, fmt.Errorf("failed to read document %q: %w", docID, err)
	}
	if !ok {
		return llm.Document{}, false, nil
	}

	var doc llm.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return llm.Document{}, false, fmt.Errorf("failed to decode document %q: %w", docID, err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, documentCacheKey(tenantID, docID), data, s.cacheTTL)
	}
	return doc, true, nil
}

// Delete removes the document and cascades to all chunks it lists. Returns
// false when the document did not exist.
func (s *DocumentStore) Delete(ctx context.Context, tenantID, docID string) (bool, error) {
	doc, ok, err := s.Get(ctx, tenantID, docID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	// Chunks first, so a failure mid-cascade never leaves orphaned chunks
	// behind a deleted document record.
	for _, chunkID := range doc.ChunkIDs {
		if _, err := s.chunks.Delete(ctx, tenantID, chunkID); err != nil {
			return false, fmt.Errorf("failed to cascade delete chunk %q: %w", chunkID, err)
		}
	}

	if err := s.blobs.Delete(ctx, documentBlobKey(tenantID, docID)); err != nil {
		return false, fmt.Errorf("failed to delete document %q: %w", docID, err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, documentCacheKey(tenantID, docID))
	}

	s.logger.Debug("deleted document",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", docID),
		zap.Int("chunks", len(doc.ChunkIDs)))
	return true, nil
}

// List returns all document records for a tenant.
func (s *DocumentStore) List(ctx context.Context, tenantID string) ([]llm.Document, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id cannot be empty")
	}

	keys, err := s.blobs.List(ctx, path.Join("documents", tenantID)+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for tenant %q: %w", tenantID, err)
	}

	docs := make([]llm.Document, 0, len(keys))
	for _, key := range keys {
		docID := strings.TrimSuffix(path.Base(key), ".json")
		doc, ok, err := s.Get(ctx, tenantID, docID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
