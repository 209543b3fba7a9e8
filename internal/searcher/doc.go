// Package searcher implements hybrid document search combining vector
// similarity and BM25 keyword matching.
//
// The searcher provides three search modes:
//   - Hybrid: Vector threshold filter + weighted score fusion (recommended)
//   - Vector: Pure semantic search using embeddings
//   - Keyword: BM25 lexical search only
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, embedder)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query: "how do cats behave",
//	    Limit: 10,
//	    Mode:  searcher.SearchModeHybrid,
//	})
//
//	for _, result := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %.2f)\n",
//	        result.Rank, result.Title, result.Score)
//	}
//
// # Hybrid Scoring
//
// Hybrid mode filters before it fuses. Candidates whose cosine similarity
// falls below the threshold are excluded outright, regardless of lexical
// strength. Survivors are scored as
//
//	score = vectorWeight*cosine + bm25Weight*clamp01(bm25/scale)
//
// The weights are independent multipliers and are never renormalized:
// vectorWeight 1 with bm25Weight 0 reproduces vector-only ranking, and a
// 0.5/0.5 split is not equivalent to 1.0/1.0.
//
// BM25 reads N and the average document length from the maintained corpus
// statistics rather than rescanning at query time. The idf term floors at
// zero, so ubiquitous terms stop contributing instead of penalizing.
//
// # Tie-Breaking
//
// Results sort by fused score descending; equal scores fall back to
// creation time (earlier wins), then document ID. Repeated identical
// queries return identical orderings.
//
// # Query Embeddings
//
// A caller-supplied QueryEmbedding is used as-is. Without one, vector and
// hybrid modes embed the query through the provider; if the provider is
// unavailable the search fails rather than silently degrading to
// lexical-only ranking.
//
// # Caching
//
// An LRU cache with per-request TTL short-circuits repeated queries. Any
// corpus write must call InvalidateCache since every cached ranking may be
// stale.
package searcher
