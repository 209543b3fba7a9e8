package types

import "errors"

// Domain errors for type validation
var (
	// Search result errors
	ErrInvalidDocumentID = errors.New("invalid document ID")
	ErrInvalidRank       = errors.New("rank must be >= 1")
	ErrInvalidScore      = errors.New("score must be >= 0")

	// Document errors
	ErrEmptyContent = errors.New("content cannot be empty")
)
