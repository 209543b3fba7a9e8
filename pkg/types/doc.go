// Package types provides shared type definitions for the document search engine.
//
// This package defines domain types used across multiple components,
// including documents, corpus statistics, and search results.
//
// # Core Types
//
// Document represents a retrievable text document with an optional dense
// embedding vector:
//
//	doc := &types.Document{
//	    ID:      "a1b2c3",
//	    Title:   "Feeding schedules",
//	    Content: "Cats are independent pets that enjoy their own space.",
//	}
//
// Every stored document carries a fixed-dimension embedding. The store
// rejects writes whose embedding length does not match the configured
// dimension rather than truncating or padding.
//
// # Corpus Statistics
//
// CorpusStats holds the aggregate values lexical scoring depends on:
//
//	stats.TotalDocuments        // N in the BM25 idf term
//	stats.AverageDocumentLength // avgdl in the BM25 length normalization
//
// Both are recomputed inside the same transaction as any document write,
// so readers never observe statistics that lag the committed corpus.
//
// # Search Results
//
// SearchResult combines document metadata with relevance scoring:
//
//	result := &types.SearchResult{
//	    DocumentID:  "a1b2c3",
//	    Rank:        1,
//	    Score:       0.83,
//	    VectorScore: 0.91,
//	    BM25Score:   2.4,
//	}
//
// VectorScore is a cosine similarity in [-1, 1] (non-negative in practice
// for normalized embeddings). BM25Score is the raw lexical score; the fused
// Score applies the configured weights to both components.
package types
