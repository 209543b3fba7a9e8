// Package embedder generates vector embeddings for documents using local or
// remote providers.
//
// The embedder supports a lazily loaded in-process model and an
// OpenAI-compatible HTTP API, with batching, caching, and retry handling.
//
// # Basic Usage
//
//	// Create embedder (auto-detects provider from environment)
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	// Generate single embedding
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "Cats are independent pets that enjoy their own space.",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Batch Processing
//
// For efficiency, use batch processing:
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: texts,
//	})
//
// Blank (whitespace-only) entries are filtered before inference. The
// response embeddings align positionally with the surviving inputs, and
// FilteredIndices maps each one back to its original request index:
//
//	for i, emb := range resp.Embeddings {
//	    original := texts[resp.FilteredIndices[i]]
//	    _ = original // emb is the vector for this text
//	}
//
// # Provider Selection
//
// The embedder selects a provider based on environment variables:
//
//  1. If DOCSEARCH_EMBEDDING_PROVIDER is set → use specified provider
//  2. Else if DOCSEARCH_EMBEDDING_API_KEY or OPENAI_API_KEY is set → remote
//  3. Else → local provider (offline mode)
//
// Or configure explicitly through the factory:
//
//	emb, err := embedder.New(embedder.Config{
//	    Provider:  "remote",
//	    APIKey:    "your-api-key",
//	    CacheSize: 10000,
//	})
//
// Selection is keyed by the provider tag alone; callers never inspect
// concrete provider types.
//
// # Provider Comparison
//
// Local (offline):
//   - Dimensions: 384
//   - Model loaded lazily, once per process; first call pays the load cost
//   - Deterministic hashed projection, no network dependency
//
// Remote (OpenAI-compatible API):
//   - Dimensions: 1536 (default, configurable)
//   - Per-call network latency, exponential-backoff retry
//   - No local model state
//
// # Caching
//
// The embedder includes an in-memory LRU cache keyed by SHA-256 content
// hash. Cache hits return deep copies, so callers cannot corrupt cached
// vectors by mutating results.
//
// # Error Handling
//
// Provider failures wrap a sentinel:
//
//	_, err := emb.GenerateBatch(ctx, req)
//	if errors.Is(err, embedder.ErrProviderUnavailable) {
//	    // model failed to load, or the API is unreachable
//	}
//
// Blank single inputs are rejected with ErrEmptyText.
package embedder
