package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"
)

// LocalProvider generates embeddings in-process with a hashed bag-of-words
// projection model. Deterministic: the same text always yields the same
// vector. The projection table is loaded lazily on first use and kept for
// the lifetime of the process, so the first call pays the load latency and
// later calls do not.
type LocalProvider struct {
	model    string
	cache    *Cache
	loadOnce sync.Once
	loadErr  error
	table    [][]float32 // 256 rows of unit direction vectors
}

// NewLocalProvider creates a new local embedder. The model is not loaded
// here; loading happens on the first embedding call.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{
		model: DefaultLocalModel,
		cache: cache,
	}, nil
}

// ensureLoaded builds the projection table exactly once per process
func (l *LocalProvider) ensureLoaded() error {
	l.loadOnce.Do(func() {
		table := make([][]float32, 256)
		for b := range table {
			row := make([]float32, LocalDimension)
			// Counter-mode hash expansion into a stable direction vector
			var seed [8]byte
			seed[0] = byte(b)
			for i := 0; i < LocalDimension; i += 8 {
				binary.LittleEndian.PutUint32(seed[4:], uint32(i))
				block := sha256.Sum256(seed[:])
				for j := 0; j < 8 && i+j < LocalDimension; j++ {
					bits := binary.LittleEndian.Uint32(block[j*4:])
					row[i+j] = float32(bits%2048)/1024.0 - 1.0
				}
			}
			table[b] = NormalizeVector(row)
		}
		l.table = table
	})
	return l.loadErr
}

func (l *LocalProvider) embed(text string) []float32 {
	vector := make([]float32, LocalDimension)
	for _, token := range tokenizeForHash(text) {
		h := sha256.Sum256([]byte(token))
		row := l.table[h[0]]
		sign := float32(1)
		if h[1]%2 == 1 {
			sign = -1
		}
		for i := range vector {
			vector[i] += sign * row[i]
		}
	}
	return NormalizeVector(vector)
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	if err := l.ensureLoaded(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	// Check cache
	hash := ComputeHash(req.Text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    l.embed(req.Text),
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}

	return emb, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	texts, indices := filterBlank(req.Texts)
	if err := ValidateBatchRequest(texts); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(texts))
	for i, text := range texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Model: req.Model})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", indices[i], err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings:      embeddings,
		FilteredIndices: indices,
		Provider:        ProviderLocal,
		Model:           l.model,
	}, nil
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Available(ctx context.Context) bool {
	return l.ensureLoaded() == nil
}

func (l *LocalProvider) Close() error {
	return nil
}

// tokenizeForHash lowercases and splits on non-alphanumeric runes
func tokenizeForHash(text string) []string {
	tokens := make([]string, 0, 32)
	current := make([]rune, 0, 16)
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z':
			current = append(current, r+('a'-'A'))
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 127:
			current = append(current, r)
		default:
			if len(current) > 0 {
				tokens = append(tokens, string(current))
				current = current[:0]
			}
		}
	}
	if len(current) > 0 {
		tokens = append(tokens, string(current))
	}
	return tokens
}
