package types

// SearchResult represents a single search result with relevance information
type SearchResult struct {
	// Identification
	DocumentID string
	Rank       int // Position in result set (1-based)

	// Scoring
	Score       float64 // Fused score (vector and weighted lexical components)
	VectorScore float64 // Cosine similarity against the query embedding
	BM25Score   float64 // Raw BM25 lexical score (unnormalized)

	// Content
	Title   string
	Excerpt string // Leading portion of the document content
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.DocumentID == "" {
		return ErrInvalidDocumentID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.Score < 0 {
		return ErrInvalidScore
	}

	return nil
}
