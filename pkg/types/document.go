package types

import (
	"strings"
	"time"
)

// Document represents a single retrievable text document
type Document struct {
	ID        string            // Unique identifier (caller-supplied or generated)
	Title     string            // Optional human-readable title
	Content   string            // Document body - required, non-empty
	Metadata  map[string]string // Optional key/value metadata
	Embedding []float32         // Dense vector, fixed dimension per provider
	WordCount int               // Token count of Content, maintained by the store
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks that the document satisfies the minimal write contract
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Content) == "" {
		return ErrEmptyContent
	}
	return nil
}

// CorpusStats contains aggregate statistics over the stored document set.
// Both values are maintained transactionally alongside document writes so
// they always reflect the latest committed state.
type CorpusStats struct {
	TotalDocuments        int
	AverageDocumentLength float64
	UpdatedAt             time.Time
}
