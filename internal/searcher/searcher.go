package searcher

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/docsearch-mcp/internal/embedder"
	"github.com/dshills/docsearch-mcp/internal/storage"
	"github.com/dshills/docsearch-mcp/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeHybrid  SearchMode = "hybrid"  // Vector filter + weighted fusion
	SearchModeVector  SearchMode = "vector"  // Vector similarity only
	SearchModeKeyword SearchMode = "keyword" // BM25 lexical only
)

// Scoring defaults
const (
	DefaultVectorWeight = 0.7
	DefaultBM25Weight   = 0.3
	DefaultLimit        = 10
	MaxLimit            = 100

	// BM25ScoreScale divides raw BM25 scores before clamping to [0, 1] so
	// the lexical component is commensurable with cosine similarity. Fixed
	// by contract: changing it rescales every hybrid ranking.
	BM25ScoreScale = 10.0

	// ExcerptLength bounds the content excerpt on each result
	ExcerptLength = 200
)

// SearchRequest contains parameters for a search operation.
//
// QueryEmbedding, when set, is used as the query vector directly; otherwise
// vector and hybrid modes embed Query through the provider. VectorWeight
// and BM25Weight default to 0.7/0.3 only when both are zero, so an explicit
// zero for one weight is honored (bm25Weight 0 reproduces vector-only
// ranking over the filtered set).
type SearchRequest struct {
	Query          string
	QueryEmbedding []float32
	Limit          int
	Mode           SearchMode
	Threshold      float64 // Minimum cosine similarity; applied before fusion
	VectorWeight   float64
	BM25Weight     float64
	UseCache       bool
	CacheTTL       time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []types.SearchResult
	TotalResults int
	SearchMode   SearchMode
	Duration     time.Duration
	CacheHit     bool
	Evaluated    int // Candidates considered before threshold and limit
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher ranks stored documents against queries using vector similarity,
// BM25 lexical scoring, or their weighted fusion
type Searcher struct {
	store    storage.Store
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.Store, emb embedder.Embedder) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		store:    store,
		embedder: emb,
		cache:    cache,
	}
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	// Check cache if enabled
	if req.UseCache {
		cached, err := s.checkCache(req)
		if err == nil && cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	queryVector, err := s.resolveQueryVector(ctx, req)
	if err != nil {
		return nil, err
	}

	candidates, err := s.store.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus stats: %w", err)
	}

	var scored []scoredCandidate
	switch req.Mode {
	case SearchModeVector:
		scored = s.scoreVector(candidates, queryVector, req.Threshold)
	case SearchModeKeyword:
		scored = s.scoreKeyword(candidates, stats, req.Query)
	case SearchModeHybrid:
		scored = s.scoreHybrid(candidates, stats, queryVector, req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}

	sortScored(scored)

	response := &SearchResponse{
		Results:      buildResults(scored, req.Limit),
		SearchMode:   req.Mode,
		Evaluated:    len(candidates),
		Duration:     time.Since(startTime),
	}
	response.TotalResults = len(response.Results)

	// Store in cache if enabled
	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// resolveQueryVector returns the query embedding for modes that need one.
// A caller-supplied vector wins; otherwise the provider embeds the query.
// Provider failure surfaces as an error rather than silently degrading the
// ranking to lexical-only.
func (s *Searcher) resolveQueryVector(ctx context.Context, req SearchRequest) ([]float32, error) {
	if req.Mode == SearchModeKeyword {
		return nil, nil
	}

	if req.QueryEmbedding != nil {
		return req.QueryEmbedding, nil
	}

	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: req.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}
	return emb.Vector, nil
}

// scoredCandidate carries a candidate through scoring and ranking
type scoredCandidate struct {
	candidate *storage.Candidate
	fused     float64
	vector    float64
	bm25      float64
}

// scoreVector ranks by cosine similarity alone, dropping candidates below
// the threshold
func (s *Searcher) scoreVector(candidates []storage.Candidate, queryVector []float32, threshold float64) []scoredCandidate {
	scored := make([]scoredCandidate, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.Embedding == nil {
			continue
		}
		sim := storage.CosineSimilarity(queryVector, c.Embedding)
		if sim < threshold {
			continue
		}
		scored = append(scored, scoredCandidate{
			candidate: c,
			fused:     sim,
			vector:    sim,
		})
	}
	return scored
}

// scoreKeyword ranks by BM25 alone, dropping candidates that match no
// query term
func (s *Searcher) scoreKeyword(candidates []storage.Candidate, stats *types.CorpusStats, query string) []scoredCandidate {
	terms := storage.Tokenize(query)
	bm25 := newBM25Scorer(candidates, stats)

	scored := make([]scoredCandidate, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		raw := bm25.Score(terms, c)
		if raw <= 0 {
			continue
		}
		scored = append(scored, scoredCandidate{
			candidate: c,
			fused:     normalizeBM25(raw),
			bm25:      raw,
		})
	}
	return scored
}

// scoreHybrid filters on the vector threshold first, then fuses the vector
// and normalized lexical scores with independent weights. The order is
// deliberate: a document with a strong lexical match but a sub-threshold
// vector score never reaches fusion.
func (s *Searcher) scoreHybrid(candidates []storage.Candidate, stats *types.CorpusStats, queryVector []float32, req SearchRequest) []scoredCandidate {
	terms := storage.Tokenize(req.Query)
	bm25 := newBM25Scorer(candidates, stats)

	scored := make([]scoredCandidate, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]

		var sim float64
		if c.Embedding != nil {
			sim = storage.CosineSimilarity(queryVector, c.Embedding)
		}
		if sim < req.Threshold {
			continue
		}

		raw := bm25.Score(terms, c)
		fused := req.VectorWeight*sim + req.BM25Weight*normalizeBM25(raw)

		scored = append(scored, scoredCandidate{
			candidate: c,
			fused:     fused,
			vector:    sim,
			bm25:      raw,
		})
	}
	return scored
}

// normalizeBM25 maps a raw BM25 score onto [0, 1] using the fixed scale
func normalizeBM25(raw float64) float64 {
	normalized := raw / BM25ScoreScale
	if normalized > 1 {
		return 1
	}
	if normalized < 0 {
		return 0
	}
	return normalized
}

// sortScored orders by fused score descending with deterministic
// tie-breaking: earlier creation wins, then lexicographic ID
func sortScored(scored []scoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].fused != scored[j].fused {
			return scored[i].fused > scored[j].fused
		}
		if !scored[i].candidate.CreatedAt.Equal(scored[j].candidate.CreatedAt) {
			return scored[i].candidate.CreatedAt.Before(scored[j].candidate.CreatedAt)
		}
		return scored[i].candidate.ID < scored[j].candidate.ID
	})
}

// buildResults converts ranked candidates into the public result type
func buildResults(scored []scoredCandidate, limit int) []types.SearchResult {
	if limit > len(scored) {
		limit = len(scored)
	}

	results := make([]types.SearchResult, 0, limit)
	for i := 0; i < limit; i++ {
		sc := scored[i]
		results = append(results, types.SearchResult{
			DocumentID:  sc.candidate.ID,
			Rank:        i + 1,
			Score:       sc.fused,
			VectorScore: sc.vector,
			BM25Score:   sc.bm25,
			Title:       sc.candidate.Title,
			Excerpt:     makeExcerpt(sc.candidate.Content),
		})
	}
	return results
}

// makeExcerpt truncates content at a rune boundary
func makeExcerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return string(runes[:ExcerptLength]) + "..."
}

// validateRequest ensures search request is valid
func (s *Searcher) validateRequest(req *SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" && req.QueryEmbedding == nil {
		return fmt.Errorf("query cannot be empty")
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}

	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	if req.Mode == "" {
		req.Mode = SearchModeHybrid
	}

	// A wrong-length query vector would silently score every candidate
	// zero, so reject it the way the store rejects document embeddings
	if req.QueryEmbedding != nil && req.Mode != SearchModeKeyword {
		if want := s.embedder.Dimension(); len(req.QueryEmbedding) != want {
			return fmt.Errorf("query embedding has %d dimensions, want %d", len(req.QueryEmbedding), want)
		}
	}

	// Apply default weights only when both are unset so an explicit zero
	// for one component survives
	if req.VectorWeight == 0 && req.BM25Weight == 0 {
		req.VectorWeight = DefaultVectorWeight
		req.BM25Weight = DefaultBM25Weight
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour
	}

	return nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(req SearchRequest) (*SearchResponse, error) {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)

	if !found {
		s.cacheMu.RUnlock()
		return nil, fmt.Errorf("cache miss")
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil, fmt.Errorf("cache expired")
	}

	// Return a copy while still holding the read lock so the entry isn't
	// modified during the copy
	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response, nil
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	hash := computeQueryHash(req)

	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(hash, entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a copy of a SearchResponse. Results contain
// only value fields, so copying the slice is sufficient.
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := &SearchResponse{
		TotalResults: src.TotalResults,
		SearchMode:   src.SearchMode,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		Evaluated:    src.Evaluated,
		Results:      make([]types.SearchResult, len(src.Results)),
	}
	copy(dst.Results, src.Results)

	return dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	h := sha256.New()
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(string(req.Mode))
	data.WriteString("|")
	fmt.Fprintf(&data, "%d|%.4f|%.4f|%.4f", req.Limit, req.Threshold, req.VectorWeight, req.BM25Weight)
	h.Write([]byte(data.String()))

	// A supplied query embedding changes the ranking, so it is part of
	// the cache key
	if req.QueryEmbedding != nil {
		var buf [4]byte
		for _, v := range req.QueryEmbedding {
			binary.LittleEndian.PutUint32(buf[:], uint32(int32(v*1e6)))
			h.Write(buf[:])
		}
	}

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return hash
}

// InvalidateCache drops all cached queries. Called after any write that
// changes the corpus, since every cached ranking may be stale.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}
