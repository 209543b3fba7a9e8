package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestLocalProvider_GenerateEmbedding(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	emb, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "dogs are loyal companions"})
	require.NoError(t, err)

	assert.Len(t, emb.Vector, LocalDimension)
	assert.Equal(t, LocalDimension, emb.Dimension)
	assert.Equal(t, ProviderLocal, emb.Provider)
}

func TestLocalProvider_Deterministic(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	a, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "same input text"})
	require.NoError(t, err)
	b, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "same input text"})
	require.NoError(t, err)

	assert.Equal(t, a.Vector, b.Vector)
}

func TestLocalProvider_SelfSimilarity(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	emb, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "cats are independent pets"})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, cosine(emb.Vector, emb.Vector), 1e-5)
}

func TestLocalProvider_EmptyText(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	_, err = provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLocalProvider_BatchFiltersBlanks(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	texts := []string{"first document", "", "  ", "second document"}

	resp, err := provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: texts})
	require.NoError(t, err)

	require.Len(t, resp.Embeddings, 2)
	assert.Equal(t, []int{0, 3}, resp.FilteredIndices)

	// Alignment: batch output i must equal the single-call embedding of the
	// i-th surviving input
	for i, idx := range resp.FilteredIndices {
		single, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: texts[idx]})
		require.NoError(t, err)
		assert.Equal(t, single.Vector, resp.Embeddings[i].Vector)
	}
}

func TestLocalProvider_BatchAllBlank(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	_, err = provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"", " "}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLocalProvider_Available(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer provider.Close()

	assert.True(t, provider.Available(context.Background()))
}

func TestLocalProvider_UsesCache(t *testing.T) {
	cache := NewCache(10)
	provider, err := NewLocalProvider(cache)
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	_, err = provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "cached text"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size())

	// Second call should hit the cache, not grow it
	_, err = provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "cached text"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size())
}
