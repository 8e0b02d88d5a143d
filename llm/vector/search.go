package vector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"agenthub/llm"
)

// ChunkLister enumerates all persisted chunks for a tenant, embeddings
// attached. This is the operation whose cost scales linearly with a tenant's
// corpus size.
type ChunkLister interface {
	ListChunks(ctx context.Context, tenantID string) ([]llm.Chunk, error)
}

// MetadataFilter narrows search results by exact match on chunk metadata.
// Zero-valued fields are ignored.
type MetadataFilter struct {
	Source     string
	DocumentID string
}

// SearchOptions configures a single search call.
type SearchOptions struct {
	TopK           int            // maximum results to return
	ScoreThreshold float32        // minimum cosine similarity to keep
	AgentID        int            // exact-match agent filter, 0 = no filter
	Filter         MetadataFilter // exact-match metadata filters
}

// DefaultSearchOptions returns the default search configuration.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopK:           5,
		ScoreThreshold: 0.7,
	}
}

// Searcher ranks a tenant's chunks by cosine similarity to a query
// embedding. The scan is brute force over the tenant's full chunk set.
type Searcher struct {
	chunks ChunkLister
}

// NewSearcher creates a searcher over the given chunk source.
func NewSearcher(chunks ChunkLister) *Searcher {
	return &Searcher{chunks: chunks}
}

// Search returns up to opts.TopK chunks whose similarity to queryEmbedding
// meets the score threshold, best first. An empty corpus yields an empty
// result, not an error. Results for equal scores are ordered by chunk id so
// that ranking is deterministic.
func (s *Searcher) Search(ctx context.Context, queryEmbedding []float32, tenantID string, opts SearchOptions) ([]llm.SearchResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id cannot be empty")
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}

	chunks, err := s.chunks.ListChunks(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	results := make([]llm.SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Embedding == nil {
			continue
		}
		if opts.AgentID != 0 && chunk.AgentID != opts.AgentID {
			continue
		}
		if !matchesFilter(chunk.Metadata, opts.Filter) {
			continue
		}

		score := CosineSimilarity(queryEmbedding, chunk.Embedding)
		if score < opts.ScoreThreshold {
			continue
		}

		results = append(results, llm.SearchResult{
			ChunkID: chunk.ID,
			Score:   score,
			Chunk:   chunk,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results, nil
}

// matchesFilter reports whether chunk metadata satisfies every supplied
// filter field.
func matchesFilter(md llm.ChunkMetadata, f MetadataFilter) bool {
	if f.Source != "" && md.Source != f.Source {
		return false
	}
	if f.DocumentID != "" && md.DocumentID != f.DocumentID {
		return false
	}
	return true
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Mismatched lengths or a zero-magnitude vector score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}
