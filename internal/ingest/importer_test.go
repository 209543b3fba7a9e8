package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docsearch-mcp/internal/embedder"
	"github.com/dshills/docsearch-mcp/internal/storage"
)

const testDims = 3

// mockEmbedder returns a fixed vector for every text. Counters are
// mutex-guarded since import chunks call it concurrently.
type mockEmbedder struct {
	vector []float32
	err    error

	mu         sync.Mutex
	calls      int
	batchCalls int
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &embedder.Embedding{Vector: m.vector, Dimension: len(m.vector), Provider: embedder.ProviderLocal}, nil
}

func (m *mockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	embeddings := make([]*embedder.Embedding, len(req.Texts))
	indices := make([]int, len(req.Texts))
	for i := range req.Texts {
		embeddings[i] = &embedder.Embedding{Vector: m.vector, Dimension: len(m.vector)}
		indices[i] = i
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: embeddings, FilteredIndices: indices}, nil
}

func (m *mockEmbedder) Dimension() int                     { return len(m.vector) }
func (m *mockEmbedder) Provider() string                   { return embedder.ProviderLocal }
func (m *mockEmbedder) Model() string                      { return "mock-model" }
func (m *mockEmbedder) Available(ctx context.Context) bool { return m.err == nil }
func (m *mockEmbedder) Close() error                       { return nil }

func setupPipeline(t *testing.T) (*Pipeline, *storage.SQLiteStore, *mockEmbedder) {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:", testDims)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	emb := &mockEmbedder{vector: []float32{1, 0, 0}}
	return New(store, emb, nil), store, emb
}

func TestAdd_GeneratesIDAndEmbedding(t *testing.T) {
	p, store, emb := setupPipeline(t)

	id, err := p.Add(context.Background(), AddRequest{
		Title:   "Cats",
		Content: "Cats are independent pets.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, emb.calls)

	doc, err := store.GetDocument(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Cats", doc.Title)
	assert.Len(t, doc.Embedding, testDims)
	assert.Equal(t, 4, doc.WordCount)
}

func TestAdd_SuppliedEmbeddingSkipsProvider(t *testing.T) {
	p, _, emb := setupPipeline(t)

	id, err := p.Add(context.Background(), AddRequest{
		ID:        "doc-1",
		Content:   "precomputed",
		Embedding: []float32{0, 1, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)
	assert.Zero(t, emb.calls)
}

func TestAdd_EmptyContentRejected(t *testing.T) {
	p, _, _ := setupPipeline(t)

	_, err := p.Add(context.Background(), AddRequest{Content: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdd_DimensionMismatchSurfaces(t *testing.T) {
	p, _, _ := setupPipeline(t)

	_, err := p.Add(context.Background(), AddRequest{
		Content:   "wrong dims",
		Embedding: []float32{1, 0, 0, 0, 0},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestUpdateContent_ReembedsAndReindexes(t *testing.T) {
	p, store, _ := setupPipeline(t)

	id, err := p.Add(context.Background(), AddRequest{Content: "one two three"})
	require.NoError(t, err)

	require.NoError(t, p.UpdateContent(context.Background(), id, "one two three four five"))

	doc, err := store.GetDocument(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 5, doc.WordCount)

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 5.0, stats.AverageDocumentLength, 1e-9)
}

func TestImportCSV_ValidAndInvalidRows(t *testing.T) {
	p, store, _ := setupPipeline(t)

	csvData := `id,title,content
a,Alpha,first document body
b,Beta,
c,Gamma,third document body
`
	result, err := p.ImportCSV(context.Background(), strings.NewReader(csvData), ImportOptions{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 2")

	count, err := store.CountDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestImportCSV_LocalizedHeaders(t *testing.T) {
	p, store, _ := setupPipeline(t)

	csvData := "Produkt-ID;Titel;Beschreibung;Preis\n" +
		"p1;Katzenkorb;Ein bequemer Korb für Katzen;19.99\n"

	result, err := p.ImportCSV(context.Background(), strings.NewReader(csvData), ImportOptions{
		Delimiter: ';',
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Imported)

	// "Beschreibung" maps to content, "Titel" to title; "Preis" lands in
	// metadata. "Produkt-ID" is not an exact id alias, so the row ID is
	// generated and the original value kept as metadata.
	docs, err := store.ListCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Katzenkorb", docs[0].Title)
	assert.Contains(t, docs[0].Content, "bequemer Korb")

	doc, err := store.GetDocument(context.Background(), docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "19.99", doc.Metadata["preis"])
	assert.Equal(t, "p1", doc.Metadata["produkt-id"])
}

func TestImportCSV_MissingContentColumn(t *testing.T) {
	p, _, _ := setupPipeline(t)

	_, err := p.ImportCSV(context.Background(),
		strings.NewReader("price,sku\n1.99,X\n"), ImportOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestImportCSV_SkipEmptyLines(t *testing.T) {
	p, _, _ := setupPipeline(t)

	csvData := "content\nfirst\n,\nsecond\n"

	strict, err := p.ImportCSV(context.Background(), strings.NewReader(csvData), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, strict.Imported)
	assert.Equal(t, 1, strict.Failed)

	p2, _, _ := setupPipeline(t)
	lenient, err := p2.ImportCSV(context.Background(), strings.NewReader(csvData), ImportOptions{
		SkipEmptyLines: true,
	})
	require.NoError(t, err)
	assert.True(t, lenient.Success)
	assert.Equal(t, 2, lenient.Imported)
	assert.Zero(t, lenient.Failed)
}

func TestImportCSV_ChunkFailureIsolated(t *testing.T) {
	p, store, _ := setupPipeline(t)

	// Two chunks at the local chunk size. The duplicate ID in the second
	// chunk rolls back that chunk only.
	var sb strings.Builder
	sb.WriteString("id,content\n")
	for i := 0; i < LocalChunkSize; i++ {
		fmt.Fprintf(&sb, "doc-%d,document number %d\n", i, i)
	}
	sb.WriteString("dup,first of pair\n")
	sb.WriteString("dup,second of pair\n")
	sb.WriteString("tail,rides along in the failed chunk\n")

	result, err := p.ImportCSV(context.Background(), strings.NewReader(sb.String()), ImportOptions{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, LocalChunkSize, result.Imported)
	assert.Equal(t, 3, result.Failed)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "dup")

	count, err := store.CountDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LocalChunkSize, count)
}

func TestImportCSV_RowNumbersStayPhysical(t *testing.T) {
	p, _, _ := setupPipeline(t)

	// Row 2 is empty and skipped; the invalid row 3 must still be
	// reported as row 3
	csvData := "title,content\nA,first\n,\nOrphan,\nB,last\n"

	result, err := p.ImportCSV(context.Background(), strings.NewReader(csvData), ImportOptions{
		SkipEmptyLines: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 3")
}

func TestSetWorkers(t *testing.T) {
	p, _, _ := setupPipeline(t)

	p.SetWorkers(16)
	assert.Equal(t, 16, p.workers)

	p.SetWorkers(0)
	assert.Equal(t, 16, p.workers, "non-positive values keep the current limit")
}

func TestImportCSV_SingleWorker(t *testing.T) {
	p, store, _ := setupPipeline(t)
	p.SetWorkers(1)

	var sb strings.Builder
	sb.WriteString("content\n")
	total := LocalChunkSize + 2 // Two chunks, run sequentially
	for i := 0; i < total; i++ {
		fmt.Fprintf(&sb, "document number %d\n", i)
	}

	result, err := p.ImportCSV(context.Background(), strings.NewReader(sb.String()), ImportOptions{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, total, result.Imported)

	count, err := store.CountDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, total, count)
}

func TestImportCSV_EmbeddingFailureFailsChunk(t *testing.T) {
	p, store, emb := setupPipeline(t)
	emb.err = embedder.ErrProviderUnavailable

	result, err := p.ImportCSV(context.Background(),
		strings.NewReader("content\nalpha\nbeta\n"), ImportOptions{})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Zero(t, result.Imported)
	assert.Equal(t, 2, result.Failed)

	count, err := store.CountDocuments(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImportCSV_ErrorListCapped(t *testing.T) {
	p, _, _ := setupPipeline(t)

	var sb strings.Builder
	sb.WriteString("content\n")
	total := MaxImportErrors + 5
	for i := 0; i < total; i++ {
		sb.WriteString(" \n") // blank content, each row fails validation
	}

	result, err := p.ImportCSV(context.Background(), strings.NewReader(sb.String()), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, total, result.Failed)
	assert.Len(t, result.Errors, MaxImportErrors)
}

func TestImportCSV_ValidateTextRejectsBinary(t *testing.T) {
	p, _, _ := setupPipeline(t)

	csvData := "content\nclean text\n\"broken\x00payload\"\n"

	result, err := p.ImportCSV(context.Background(), strings.NewReader(csvData), ImportOptions{
		ValidateText: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Failed)
}

func TestImportCSV_UnsupportedEncoding(t *testing.T) {
	p, _, _ := setupPipeline(t)

	_, err := p.ImportCSV(context.Background(),
		strings.NewReader("content\nx\n"), ImportOptions{Encoding: "latin-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolveColumns_AliasPriority(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		content int
		title   int
		id      int
	}{
		{"english", []string{"id", "title", "content"}, 2, 1, 0},
		{"exact beats stem", []string{"product_description", "content"}, 1, -1, -1},
		{"german stems", []string{"Titel", "Beschreibung"}, 1, 0, -1},
		{"french stems", []string{"titre", "contenu"}, 1, 0, -1},
		{"bom stripped", []string{"\uFEFFcontent"}, 0, -1, -1},
		{"nothing matches", []string{"price", "sku"}, -1, -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := resolveColumns(tt.header)
			assert.Equal(t, tt.content, cols.content)
			assert.Equal(t, tt.title, cols.title)
			assert.Equal(t, tt.id, cols.id)
		})
	}
}
