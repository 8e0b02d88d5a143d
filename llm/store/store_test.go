package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenthub/llm"
	"agenthub/llm/blob"
	"agenthub/llm/cache"
)

func newTestStores(t *testing.T) (*ChunkStore, *DocumentStore, *blob.MemStore, *cache.MemoryCache) {
	t.Helper()
	blobs := blob.NewMemStore()
	kv := cache.NewMemoryCache()
	chunks := NewChunkStore(blobs, kv, nil)
	docs := NewDocumentStore(blobs, kv, chunks, nil)
	return chunks, docs, blobs, kv
}

func testChunk(tenantID, id string) llm.Chunk {
	return llm.Chunk{
		ID:        id,
		TenantID:  tenantID,
		Content:   "content of " + id,
		Embedding: []float32{1, 2, 3},
		Metadata:  llm.ChunkMetadata{Source: "test.md", DocumentID: "d1"},
	}
}

func TestChunkStoreAddGet(t *testing.T) {
	chunks, _, _, _ := newTestStores(t)
	ctx := context.Background()

	require.NoError(t, chunks.Add(ctx, testChunk("t1", "c1")))

	got, ok, err := chunks.Get(ctx, "t1", "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "content of c1", got.Content)
	assert.Equal(t, []float32{1, 2, 3}, got.Embedding)
	assert.Equal(t, "test.md", got.Metadata.Source)
}

func TestChunkStoreVectorStoredSeparately(t *testing.T) {
	chunks, _, blobs, _ := newTestStores(t)
	ctx := context.Background()

	require.NoError(t, chunks.Add(ctx, testChunk("t1", "c1")))

	// Metadata record must not embed the vector payload
	metadata, ok, err := blobs.Get(ctx, chunkBlobKey("t1", "c1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(metadata), "embedding")

	_, ok, err = blobs.Get(ctx, vectorBlobKey("t1", "c1"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChunkStoreGetMissing(t *testing.T) {
	chunks, _, _, _ := newTestStores(t)

	_, ok, err := chunks.Get(context.Background(), "t1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChunkStoreRejectsMissingIDs(t *testing.T) {
	chunks, _, _, _ := newTestStores(t)
	ctx := context.Background()

	assert.Error(t, chunks.Add(ctx, llm.Chunk{ID: "c1"}))
	assert.Error(t, chunks.Add(ctx, llm.Chunk{TenantID: "t1"}))
}

func TestChunkStoreGetServedFromCache(t *testing.T) {
	chunks, _, blobs, _ := newTestStores(t)
	ctx := context.Background()

	require.NoError(t, chunks.Add(ctx, testChunk("t1", "c1")))

	// Remove durable copies; a warm cache must still serve the read
	require.NoError(t, blobs.Delete(ctx, chunkBlobKey("t1", "c1")))
	require.NoError(t, blobs.Delete(ctx, vectorBlobKey("t1", "c1")))

	got, ok, err := chunks.Get(ctx, "t1", "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got.Embedding)
}

func TestChunkStoreGetFallsBackToDurableVector(t *testing.T) {
	chunks, _, _, kv := newTestStores(t)
	ctx := context.Background()

	require.NoError(t, chunks.Add(ctx, testChunk("t1", "c1")))

	// Evict only the vector entry, as a cache under memory pressure would
	require.NoError(t, kv.Delete(ctx, vectorCacheKey("t1", "c1")))

	got, ok, err := chunks.Get(ctx, "t1", "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got.Embedding,
		"cache-hit read must fall back to the durable vector")

	// The fallback re-warms the evicted entry
	data, ok, err := kv.Get(ctx, vectorCacheKey("t1", "c1"))
	require.NoError(t, err)
	require.True(t, ok)
	decoded, err := llm.DecodeVector(data)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, decoded)
}

func TestChunkStoreGetRepopulatesCache(t *testing.T) {
	blobs := blob.NewMemStore()
	kv := cache.NewMemoryCache()
	ctx := context.Background()

	// Write through one store, read through another with a cold cache
	writer := NewChunkStore(blobs, cache.NewMemoryCache(), nil)
	require.NoError(t, writer.Add(ctx, testChunk("t1", "c1")))

	reader := NewChunkStore(blobs, kv, nil)
	_, ok, err := reader.Get(ctx, "t1", "c1")
	require.NoError(t, err)
	require.True(t, ok)

	data, ok, err := kv.Get(ctx, chunkCacheKey("t1", "c1"))
	require.NoError(t, err)
	assert.True(t, ok, "read through a cold cache must warm it")
	assert.NotEmpty(t, data)
}

func TestChunkStoreDelete(t *testing.T) {
	chunks, _, blobs, kv := newTestStores(t)
	ctx := context.Background()

	require.NoError(t, chunks.Add(ctx, testChunk("t1", "c1")))

	existed, err := chunks.Delete(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok, err := chunks.Get(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = blobs.Get(ctx, vectorBlobKey("t1", "c1"))
	assert.False(t, ok, "vector blob must be removed with the chunk")
	_, ok, _ = kv.Get(ctx, chunkCacheKey("t1", "c1"))
	assert.False(t, ok, "cache entry must be invalidated")

	existed, err = chunks.Delete(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestChunkStoreListChunks(t *testing.T) {
	chunks, _, _, _ := newTestStores(t)
	ctx := context.Background()

	require.NoError(t, chunks.Add(ctx, testChunk("t1", "c1")))
	require.NoError(t, chunks.Add(ctx, testChunk("t1", "c2")))
	require.NoError(t, chunks.Add(ctx, testChunk("t2", "c3")))

	listed, err := chunks.ListChunks(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, chunk := range listed {
		assert.Equal(t, "t1", chunk.TenantID)
		assert.Equal(t, []float32{1, 2, 3}, chunk.Embedding, "listed chunks carry their embeddings")
	}

	listed, err = chunks.ListChunks(ctx, "t3")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestDocumentStoreAddGet(t *testing.T) {
	_, docs, _, _ := newTestStores(t)
	ctx := context.Background()

	doc := llm.Document{
		ID:       "d1",
		TenantID: "t1",
		Filename: "notes.md",
		ChunkIDs: []string{"c1", "c2"},
		Metadata: llm.DocumentMetadata{Size: 42, Type: "md"},
	}
	require.NoError(t, docs.Add(ctx, doc))

	got, ok, err := docs.Get(ctx, "t1", "d1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "notes.md", got.Filename)
	assert.Equal(t, []string{"c1", "c2"}, got.ChunkIDs)
}

func TestDocumentStoreDeleteCascades(t *testing.T) {
	chunks, docs, _, _ := newTestStores(t)
	ctx := context.Background()

	require.NoError(t, chunks.Add(ctx, testChunk("t1", "c1")))
	require.NoError(t, chunks.Add(ctx, testChunk("t1", "c2")))
	require.NoError(t, docs.Add(ctx, llm.Document{
		ID:       "d1",
		TenantID: "t1",
		ChunkIDs: []string{"c1", "c2"},
	}))

	deleted, err := docs.Delete(ctx, "t1", "d1")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok, err := docs.Get(ctx, "t1", "d1")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, chunkID := range []string{"c1", "c2"} {
		_, ok, err := chunks.Get(ctx, "t1", chunkID)
		require.NoError(t, err)
		assert.False(t, ok, "chunk %s must be cascade-deleted", chunkID)
	}
}

func TestDocumentStoreDeleteAbsent(t *testing.T) {
	_, docs, _, _ := newTestStores(t)

	deleted, err := docs.Delete(context.Background(), "t1", "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDocumentStoreListScopedToTenant(t *testing.T) {
	_, docs, _, _ := newTestStores(t)
	ctx := context.Background()

	require.NoError(t, docs.Add(ctx, llm.Document{ID: "d1", TenantID: "t1"}))
	require.NoError(t, docs.Add(ctx, llm.Document{ID: "d2", TenantID: "t1"}))
	require.NoError(t, docs.Add(ctx, llm.Document{ID: "d3", TenantID: "t2"}))

	listed, err := docs.List(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
