package vector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"agenthub/llm"
	"agenthub/llm/cache"
)

// DefaultEmbeddingTTL is how long computed embeddings stay cached. The cache
// is content-addressed, so an entry only ever goes stale by expiring.
const DefaultEmbeddingTTL = 7 * 24 * time.Hour

// EmbeddingService wraps an embedding model with a content-addressed cache.
// Identical (text, model) pairs hit the backend at most once per TTL window.
type EmbeddingService struct {
	embedder embedding.Embedder
	cache    cache.Cache
	model    string
	ttl      time.Duration
	dim      int
}

// NewEmbeddingService creates a new embedding service. The cache may be nil,
// in which case every call reaches the backend.
func NewEmbeddingService(embedder embedding.Embedder, c cache.Cache, model string, dim int) *EmbeddingService {
	if dim <= 0 {
		dim = 1536 // Default dimension for many models
	}
	return &EmbeddingService{
		embedder: embedder,
		cache:    c,
		model:    model,
		ttl:      DefaultEmbeddingTTL,
		dim:      dim,
	}
}

// cacheKey addresses an embedding by the SHA-256 of the exact text plus the
// model name, so a model change never reuses another model's vectors.
func (s *EmbeddingService) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + s.model + ":" + hex.EncodeToString(sum[:])
}

// Embed generates an embedding vector for a single text. Cached vectors are
// returned as stored; on a backend failure nothing is cached and the error
// propagates to the caller.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	key := s.cacheKey(text)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			if vector, decErr := llm.DecodeVector(data); decErr == nil {
				return vector, nil
			}
			// Corrupt entry: drop it and recompute
			_ = s.cache.Delete(ctx, key)
		}
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	vector := toFloat32(vectors[0])

	if s.cache != nil {
		// Best effort: a cache write failure must not fail the embedding
		_ = s.cache.Set(ctx, key, llm.EncodeVector(vector), s.ttl)
	}

	return vector, nil
}

// EmbedBatch generates embedding vectors for multiple texts, consulting the
// cache per text and batching the remaining misses into one backend call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	result := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("text at index %d is empty", i)
		}
		if s.cache != nil {
			if data, ok, err := s.cache.Get(ctx, s.cacheKey(text)); err == nil && ok {
				if vector, decErr := llm.DecodeVector(data); decErr == nil {
					result[i] = vector
					continue
				}
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return result, nil
	}

	vectors, err := s.embedder.EmbedStrings(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d texts", len(vectors), len(missing))
	}

	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("empty embedding returned for text %d", missingIdx[i])
		}
		vector := toFloat32(vec)
		result[missingIdx[i]] = vector
		if s.cache != nil {
			_ = s.cache.Set(ctx, s.cacheKey(missing[i]), llm.EncodeVector(vector), s.ttl)
		}
	}

	return result, nil
}

// Model returns the configured embedding model name.
func (s *EmbeddingService) Model() string { return s.model }

// Dimension returns the embedding dimension.
func (s *EmbeddingService) Dimension() int { return s.dim }

// toFloat32 converts the backend's float64 vector for storage.
func toFloat32(vec []float64) []float32 {
	result := make([]float32, len(vec))
	for i, v := range vec {
		result[i] = float32(v)
	}
	return result
}

// GetEmbeddingDimFromEnv reads embedding dimension from environment variable
func GetEmbeddingDimFromEnv() int {
	if n := getEnvInt("VECTOR_DIM", 0); n > 0 {
		return n
	}
	return 1536 // Default
}
