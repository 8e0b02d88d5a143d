package vector

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenthub/llm"
)

// fakeLister serves chunks keyed by tenant.
type fakeLister struct {
	chunks map[string][]llm.Chunk
	err    error
}

func (f *fakeLister) ListChunks(_ context.Context, tenantID string) ([]llm.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks[tenantID], nil
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestSearchRanksByScore(t *testing.T) {
	lister := &fakeLister{chunks: map[string][]llm.Chunk{
		"t1": {
			{ID: "c1", TenantID: "t1", Content: "weak match", Embedding: []float32{0.5, 0.5}},
			{ID: "c2", TenantID: "t1", Content: "exact match", Embedding: []float32{1, 0}},
		},
	}}

	results, err := NewSearcher(lister).Search(context.Background(), []float32{1, 0}, "t1", SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c2", results[0].ChunkID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
	assert.Equal(t, "c1", results[1].ChunkID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchTenantIsolation(t *testing.T) {
	lister := &fakeLister{chunks: map[string][]llm.Chunk{
		"t1": {{ID: "c1", TenantID: "t1", Embedding: []float32{1, 0}}},
	}}

	results, err := NewSearcher(lister).Search(context.Background(), []float32{1, 0}, "t2", SearchOptions{TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchEmptyTenantID(t *testing.T) {
	_, err := NewSearcher(&fakeLister{}).Search(context.Background(), []float32{1, 0}, "", SearchOptions{})
	assert.Error(t, err)
}

func TestSearchThreshold(t *testing.T) {
	lister := &fakeLister{chunks: map[string][]llm.Chunk{
		"t1": {
			{ID: "c1", TenantID: "t1", Embedding: []float32{1, 0}},
			{ID: "c2", TenantID: "t1", Embedding: []float32{0, 1}},
		},
	}}

	results, err := NewSearcher(lister).Search(context.Background(), []float32{1, 0}, "t1",
		SearchOptions{TopK: 5, ScoreThreshold: 0.7})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ChunkID)
}

func TestSearchTopKTruncates(t *testing.T) {
	var chunks []llm.Chunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, llm.Chunk{
			ID:        fmt.Sprintf("c%02d", i),
			TenantID:  "t1",
			Embedding: []float32{1, 0},
		})
	}
	lister := &fakeLister{chunks: map[string][]llm.Chunk{"t1": chunks}}

	results, err := NewSearcher(lister).Search(context.Background(), []float32{1, 0}, "t1", SearchOptions{TopK: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchEqualScoresOrderedByChunkID(t *testing.T) {
	lister := &fakeLister{chunks: map[string][]llm.Chunk{
		"t1": {
			{ID: "c3", TenantID: "t1", Embedding: []float32{1, 0}},
			{ID: "c1", TenantID: "t1", Embedding: []float32{1, 0}},
			{ID: "c2", TenantID: "t1", Embedding: []float32{1, 0}},
		},
	}}

	results, err := NewSearcher(lister).Search(context.Background(), []float32{1, 0}, "t1", SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "c1", results[0].ChunkID)
	assert.Equal(t, "c2", results[1].ChunkID)
	assert.Equal(t, "c3", results[2].ChunkID)
}

func TestSearchAgentFilter(t *testing.T) {
	lister := &fakeLister{chunks: map[string][]llm.Chunk{
		"t1": {
			{ID: "c1", TenantID: "t1", AgentID: 1, Embedding: []float32{1, 0}},
			{ID: "c2", TenantID: "t1", AgentID: 2, Embedding: []float32{1, 0}},
		},
	}}
	searcher := NewSearcher(lister)

	results, err := searcher.Search(context.Background(), []float32{1, 0}, "t1", SearchOptions{TopK: 5, AgentID: 2})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c2", results[0].ChunkID)

	// AgentID 0 means no filter
	results, err = searcher.Search(context.Background(), []float32{1, 0}, "t1", SearchOptions{TopK: 5})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchMetadataFilter(t *testing.T) {
	lister := &fakeLister{chunks: map[string][]llm.Chunk{
		"t1": {
			{ID: "c1", TenantID: "t1", Embedding: []float32{1, 0}, Metadata: llm.ChunkMetadata{Source: "a.md", DocumentID: "d1"}},
			{ID: "c2", TenantID: "t1", Embedding: []float32{1, 0}, Metadata: llm.ChunkMetadata{Source: "b.md", DocumentID: "d2"}},
		},
	}}

	results, err := NewSearcher(lister).Search(context.Background(), []float32{1, 0}, "t1",
		SearchOptions{TopK: 5, Filter: MetadataFilter{Source: "b.md"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c2", results[0].ChunkID)
}

func TestSearchSkipsChunksWithoutEmbedding(t *testing.T) {
	lister := &fakeLister{chunks: map[string][]llm.Chunk{
		"t1": {
			{ID: "c1", TenantID: "t1"},
			{ID: "c2", TenantID: "t1", Embedding: []float32{1, 0}},
		},
	}}

	results, err := NewSearcher(lister).Search(context.Background(), []float32{1, 0}, "t1", SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c2", results[0].ChunkID)
}
