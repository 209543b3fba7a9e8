package engine

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/dshills/docsearch-mcp/internal/ingest"
	"github.com/dshills/docsearch-mcp/internal/searcher"
	"github.com/dshills/docsearch-mcp/internal/storage"
	"github.com/dshills/docsearch-mcp/pkg/types"
)

// Engine is the single entry point for document operations. It composes
// the ingestion pipeline, the searcher, and the store, and keeps the
// search cache coherent by invalidating it after every write.
type Engine struct {
	store    storage.Store
	pipeline *ingest.Pipeline
	searcher *searcher.Searcher
	logger   *zap.Logger
}

// New creates an Engine over an already-constructed pipeline and searcher
func New(store storage.Store, pipeline *ingest.Pipeline, s *searcher.Searcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    store,
		pipeline: pipeline,
		searcher: s,
		logger:   logger,
	}
}

// Add ingests a single document and returns its ID
func (e *Engine) Add(ctx context.Context, req ingest.AddRequest) (string, error) {
	id, err := e.pipeline.Add(ctx, req)
	if err != nil {
		return "", err
	}
	e.searcher.InvalidateCache()
	return id, nil
}

// AddBatch imports documents from a delimited source. Partial failure is
// reported through the result, not the error: the error is non-nil only
// when the import could not run at all.
func (e *Engine) AddBatch(ctx context.Context, r io.Reader, opts ingest.ImportOptions) (*ingest.ImportResult, error) {
	result, err := e.pipeline.ImportCSV(ctx, r, opts)
	if result != nil && result.Imported > 0 {
		e.searcher.InvalidateCache()
	}
	return result, err
}

// Search runs a ranked query against the corpus
func (e *Engine) Search(ctx context.Context, req searcher.SearchRequest) (*searcher.SearchResponse, error) {
	return e.searcher.Search(ctx, req)
}

// Remove deletes a document. Removing an absent ID is not an error; the
// bool reports whether a document was actually deleted.
func (e *Engine) Remove(ctx context.Context, id string) (bool, error) {
	err := e.store.DeleteDocument(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	e.searcher.InvalidateCache()
	e.logger.Debug("document removed", zap.String("id", id))
	return true, nil
}

// DocumentCount returns the number of stored documents
func (e *Engine) DocumentCount(ctx context.Context) (int, error) {
	return e.store.CountDocuments(ctx)
}

// Stats returns the maintained corpus statistics
func (e *Engine) Stats(ctx context.Context) (*types.CorpusStats, error) {
	return e.store.GetStats(ctx)
}

// Get fetches a stored document by ID
func (e *Engine) Get(ctx context.Context, id string) (*types.Document, error) {
	return e.store.GetDocument(ctx, id)
}

// Close releases the underlying store
func (e *Engine) Close() error {
	return e.store.Close()
}
