// Package store persists documents and chunks, tenant-scoped, with a
// distributed cache in front of durable storage. Chunk metadata and raw
// embedding vectors live in separate durable namespaces so that large vector
// payloads don't bloat metadata reads.
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

// DefaultCacheTTL bounds how long a stale cache entry can outlive a
// concurrent durable write. See the staleness note on ChunkStore.
const DefaultCacheTTL = 10 * time.Minute

// ChunkStore persists chunks keyed by (tenant, chunk id).
//
// Every durable write warms or invalidates the read cache in the same call.
// A narrow race remains: a reader that loads durable state between a writer's
// durable write and cache update can re-populate the cache with pre-write
// data, which then sticks until the TTL expires. This bounded staleness is
// accepted; the durable path stays read-after-write consistent.
type ChunkStore struct {
	blobs    blob.Store
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewChunkStore creates a chunk store over the given durable backend.
// The cache may be nil; the logger may be nil.
func NewChunkStore(blobs blob.Store, c cache.Cache, logger *zap.Logger) *ChunkStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChunkStore{
		blobs:    blobs,
		cache:    c,
		cacheTTL: DefaultCacheTTL,
		logger:   logger,
	}
}

func chunkBlobKey(tenantID, chunkID string) string {
	return path.Join("chunks", tenantID, chunkID+".json")
}

func vectorBlobKey(tenantID, chunkID string) string {
	return path.Join("vectors", tenantID, chunkID+".vec")
}

func chunkCacheKey(tenantID, chunkID string) string {
	return "chunk:" + tenantID + ":" + chunkID
}

func vectorCacheKey(tenantID, chunkID string) string {
	return "vec:" + tenantID + ":" + chunkID
}

// Add writes chunk metadata and, when present, its embedding vector to
// durable storage, then warms the read cache.
func (s *ChunkStore) Add(ctx context.Context, chunk llm.Chunk) error {
	if chunk.TenantID == "" || chunk.ID == "" {
		return fmt.Errorf("chunk tenant id and id are required")
	}

	metadata, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk %q: %w", chunk.ID, err)
	}

	if err := s.blobs.Put(ctx, chunkBlobKey(chunk.TenantID, chunk.ID), metadata); err != nil {
		return fmt.Errorf("failed to persist chunk %q: %w", chunk.ID, err)
	}
	if chunk.Embedding != nil {
		if err := s.blobs.Put(ctx, vectorBlobKey(chunk.TenantID, chunk.ID), llm.EncodeVector(chunk.Embedding)); err != nil {
			return fmt.Errorf("failed to persist vector for chunk %q: %w", chunk.ID, err)
		}
	}

	s.warmCache(ctx, chunk, metadata)

	s.logger.Debug("added chunk",
		zap.String("tenant_id", chunk.TenantID),
		zap.String("chunk_id", chunk.ID),
		zap.Int("content_length", len(chunk.Content)))
	return nil
}

// warmCache caches the chunk's metadata and vector. Best effort: cache
// failures never fail the durable write.
func (s *ChunkStore) warmCache(ctx context.Context, chunk llm.Chunk, metadata []byte) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, chunkCacheKey(chunk.TenantID, chunk.ID), metadata, s.cacheTTL)
	if chunk.Embedding != nil {
		_ = s.cache.Set(ctx, vectorCacheKey(chunk.TenantID, chunk.ID), llm.EncodeVector(chunk.Embedding), s.cacheTTL)
	}
}

// Get returns the chunk with its embedding attached, reading through the
// cache and re-populating it on a miss. A missing chunk is (zero, false, nil).
func (s *ChunkStore) Get(ctx context.Context, tenantID, chunkID string) (llm.Chunk, bool, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, chunkCacheKey(tenantID, chunkID)); err == nil && ok {
			var chunk llm.Chunk
			if json.Unmarshal(data, &chunk) == nil {
				if vec, vok, verr := s.cache.Get(ctx, vectorCacheKey(tenantID, chunkID)); verr == nil && vok {
					if vector, decErr := llm.DecodeVector(vec); decErr == nil {
						chunk.Embedding = vector
						return chunk, true, nil
					}
				}
				// The vector entry can lag the metadata entry: the warm-up
				// Set is best effort and the cache may evict the larger
				// vector payload on its own. The durable blob stays the
				// source of truth, so fall back to it and re-warm.
				if vec, vok, verr := s.blobs.Get(ctx, vectorBlobKey(tenantID, chunkID)); verr == nil {
					if vok {
						vector, decErr := llm.DecodeVector(vec)
						if decErr != nil {
							return llm.Chunk{}, false, fmt.Errorf("failed to decode vector for chunk %q: %w", chunkID, decErr)
						}
						chunk.Embedding = vector
						_ = s.cache.Set(ctx, vectorCacheKey(tenantID, chunkID), vec, s.cacheTTL)
					}
					return chunk, true, nil
				}
			}
		}
	}

	metadata, ok, err := s.blobs.Get(ctx, chunkBlobKey(tenantID, chunkID))
	if err != nil {
		return llm.Chunk{}, false, fmt.Errorf("failed to read chunk %q: %w", chunkID, err)
	}
	if !ok {
		return llm.Chunk{}, false, nil
	}

	var chunk llm.Chunk
	if err := json.Unmarshal(metadata, &chunk); err != nil {
		return llm.Chunk{}, false, fmt.Errorf("failed to decode chunk %q: %w", chunkID, err)
	}

	if vec, vok, verr := s.blobs.Get(ctx, vectorBlobKey(tenantID, chunkID)); verr == nil && vok {
		vector, decErr := llm.DecodeVector(vec)
		if decErr != nil {
			return llm.Chunk{}, false, fmt.Errorf("failed to decode vector for chunk %q: %w", chunkID, decErr)
		}
		chunk.Embedding = vector
	}

	s.warmCache(ctx, chunk, metadata)
	return chunk, true, nil
}

// Delete removes the chunk's metadata and vector and invalidates its cache
// entries. Returns false when the chunk did not exist.
func (s *ChunkStore) Delete(ctx context.Context, tenantID, chunkID string) (bool, error) {
	_, existed, err := s.blobs.Get(ctx, chunkBlobKey(tenantID, chunkID))
	if err != nil {
		return false, fmt.Errorf("failed to read chunk %q: %w", chunkID, err)
	}

	if err := s.blobs.Delete(ctx, chunkBlobKey(tenantID, chunkID)); err != nil {
		return false, fmt.Errorf("failed to delete chunk %q: %w", chunkID, err)
	}
	// Vector may legitimately be absent
	if err := s.blobs.Delete(ctx, vectorBlobKey(tenantID, chunkID)); err != nil {
		return false, fmt.Errorf("failed to delete vector for chunk %q: %w", chunkID, err)
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, chunkCacheKey(tenantID, chunkID))
		_ = s.cache.Delete(ctx, vectorCacheKey(tenantID, chunkID))
	}

	if existed {
		s.logger.Debug("deleted chunk",
			zap.String("tenant_id", tenantID),
			zap.String("chunk_id", chunkID))
	}
	return existed, nil
}

// ListChunks enumerates all persisted chunks for a tenant with embeddings
// attached. Cost grows linearly with the tenant's corpus; it backs the
// brute-force search scan.
func (s *ChunkStore) ListChunks(ctx context.Context, tenantID string) ([]llm.Chunk, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id cannot be empty")
	}

	keys, err := s.blobs.List(ctx, path.Join("chunks", tenantID)+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks for tenant %q: %w", tenantID, err)
	}

	chunks := make([]llm.Chunk, 0, len(keys))
	for _, key := range keys {
		chunkID := strings.TrimSuffix(path.Base(key), ".json")
		chunk, ok, err := s.Get(ctx, tenantID, chunkID)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Deleted between list and read
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}
