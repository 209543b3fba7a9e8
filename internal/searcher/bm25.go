package searcher

import (
	"math"

	"github.com/dshills/docsearch-mcp/internal/storage"
	"github.com/dshills/docsearch-mcp/pkg/types"
)

// BM25 tuning parameters (Okapi defaults)
const (
	BM25K1 = 1.2  // Term-frequency saturation
	BM25B  = 0.75 // Document-length normalization strength
)

// bm25Scorer scores candidates against query terms using Okapi BM25.
//
// N and avgdl come from the maintained corpus statistics, not from a scan
// at query time; document frequencies are counted over the candidate set,
// which covers the whole corpus.
type bm25Scorer struct {
	n     int
	avgdl float64
	df    map[string]int
}

// newBM25Scorer builds document frequencies for the candidate set
func newBM25Scorer(candidates []storage.Candidate, stats *types.CorpusStats) *bm25Scorer {
	df := make(map[string]int)
	seen := make(map[string]bool)
	for i := range candidates {
		for k := range seen {
			delete(seen, k)
		}
		for _, term := range candidates[i].Terms {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	avgdl := stats.AverageDocumentLength
	if avgdl <= 0 {
		avgdl = 1 // Guard against division by zero on degenerate corpora
	}

	return &bm25Scorer{
		n:     stats.TotalDocuments,
		avgdl: avgdl,
		df:    df,
	}
}

// Score sums per-term BM25 contributions for one candidate.
//
// idf = max(0, ln((N - df + 0.5) / (df + 0.5))): terms present in most of
// the corpus floor at zero instead of contributing negative scores.
func (s *bm25Scorer) Score(queryTerms []string, c *storage.Candidate) float64 {
	if len(queryTerms) == 0 || len(c.Terms) == 0 {
		return 0
	}

	tf := make(map[string]int, len(c.Terms))
	for _, term := range c.Terms {
		tf[term]++
	}

	dl := float64(c.WordCount)
	var score float64
	for _, term := range queryTerms {
		freq := float64(tf[term])
		if freq == 0 {
			continue
		}

		df := float64(s.df[term])
		idf := math.Log((float64(s.n) - df + 0.5) / (df + 0.5))
		if idf < 0 {
			idf = 0
		}

		saturation := (freq * (BM25K1 + 1)) / (freq + BM25K1*(1-BM25B+BM25B*dl/s.avgdl))
		score += idf * saturation
	}

	return score
}
