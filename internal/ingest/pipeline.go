package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/docsearch-mcp/internal/embedder"
	"github.com/dshills/docsearch-mcp/internal/storage"
	"github.com/dshills/docsearch-mcp/pkg/types"
)

// Common errors
var (
	ErrValidation = errors.New("validation failed")
)

// Chunk sizes for batch import. Local inference is cheap per call, so small
// chunks keep transactions short; remote calls pay a network round trip per
// batch, so larger chunks amortize it.
const (
	LocalChunkSize  = 32
	RemoteChunkSize = 100

	DefaultImportWorkers = 4

	// MaxImportErrors caps the error list on an import result. Counts stay
	// exact past the cap.
	MaxImportErrors = 20
)

// Pipeline coordinates document ingestion: validate -> embed -> persist
type Pipeline struct {
	store    storage.Store
	embedder embedder.Embedder
	logger   *zap.Logger
	workers  int
}

// New creates a new ingestion Pipeline
func New(store storage.Store, emb embedder.Embedder, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:    store,
		embedder: emb,
		logger:   logger,
		workers:  DefaultImportWorkers,
	}
}

// SetWorkers overrides the import worker limit. Values below 1 keep the
// current setting.
func (p *Pipeline) SetWorkers(n int) {
	if n > 0 {
		p.workers = n
	}
}

// AddRequest describes a single document to ingest. Embedding is optional;
// when absent the pipeline generates one from the content.
type AddRequest struct {
	ID        string
	Title     string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// Add validates, embeds if necessary, and persists a single document.
// Returns the document ID (generated when the request carries none).
func (p *Pipeline) Add(ctx context.Context, req AddRequest) (string, error) {
	if strings.TrimSpace(req.Content) == "" {
		return "", fmt.Errorf("%w: %v", ErrValidation, types.ErrEmptyContent)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	embedding := req.Embedding
	if embedding == nil {
		emb, err := p.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: req.Content})
		if err != nil {
			return "", fmt.Errorf("failed to embed document: %w", err)
		}
		embedding = emb.Vector
	}

	doc := &types.Document{
		ID:        id,
		Title:     req.Title,
		Content:   req.Content,
		Metadata:  req.Metadata,
		Embedding: embedding,
	}

	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return "", err
	}

	p.logger.Debug("document added",
		zap.String("id", id),
		zap.Int("word_count", doc.WordCount))

	return id, nil
}

// UpdateContent replaces a document's content, re-embedding and re-indexing
// it. The store refreshes the lexical index and corpus statistics in the
// same transaction as the write.
func (p *Pipeline) UpdateContent(ctx context.Context, id, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: %v", ErrValidation, types.ErrEmptyContent)
	}

	doc, err := p.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	emb, err := p.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: content})
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}

	doc.Content = content
	doc.Embedding = emb.Vector

	return p.store.UpdateDocument(ctx, doc)
}

// chunkSize picks the import chunk size for the active provider
func (p *Pipeline) chunkSize() int {
	if p.embedder.Provider() == embedder.ProviderLocal {
		return LocalChunkSize
	}
	return RemoteChunkSize
}
