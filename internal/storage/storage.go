package storage

import (
	"context"
	"time"

	"github.com/dshills/docsearch-mcp/pkg/types"
)

// Store defines the interface for persisting and querying documents
type Store interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *types.Document) error
	GetDocument(ctx context.Context, id string) (*types.Document, error)
	UpdateDocument(ctx context.Context, doc *types.Document) error
	DeleteDocument(ctx context.Context, id string) error
	CountDocuments(ctx context.Context) (int, error)

	// Statistics operations
	GetStats(ctx context.Context) (*types.CorpusStats, error)

	// Scoring support. ListCandidates is the narrow read path the scorer
	// uses: every stored document with the fields ranking needs, nothing
	// more. Results are ordered by creation time then ID so downstream
	// tie-breaking is deterministic.
	ListCandidates(ctx context.Context) ([]Candidate, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Store // Embed Store interface for transaction operations
}

// Candidate is a scoring-ready projection of a stored document
type Candidate struct {
	ID        string
	Title     string
	Content   string
	Terms     []string  // Normalized token stream from the lexical index
	WordCount int       // Document length for BM25 normalization
	Embedding []float32 // Nil when the document has no vector
	CreatedAt time.Time
}
