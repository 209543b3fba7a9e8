package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables
const (
	EnvProvider      = "DOCSEARCH_EMBEDDING_PROVIDER"
	EnvRemoteAPIKey  = "DOCSEARCH_EMBEDDING_API_KEY"
	EnvRemoteBaseURL = "DOCSEARCH_EMBEDDING_URL"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
)

// Config holds embedder configuration
type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	CacheSize  int
}

// New creates an embedder with explicit configuration. Selection is keyed
// by the provider tag alone; callers never inspect concrete types.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderLocal, "":
		return NewLocalProvider(cache)
	case ProviderRemote:
		return NewRemoteProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimensions, cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on environment variables
// Priority:
// 1. DOCSEARCH_EMBEDDING_PROVIDER (local, remote)
// 2. Check for API keys: DOCSEARCH_EMBEDDING_API_KEY, OPENAI_API_KEY
// 3. Default to local if no API keys found
func NewFromEnv() (Embedder, error) {
	cache := NewCache(10000) // Default cache size
	apiKey := remoteKeyFromEnv()

	provider := os.Getenv(EnvProvider)
	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderLocal:
			return NewLocalProvider(cache)
		case ProviderRemote:
			return NewRemoteProvider(apiKey, os.Getenv(EnvRemoteBaseURL), "", 0, cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedProvider, provider)
		}
	}

	// Auto-detect based on available API keys
	if apiKey != "" {
		return NewRemoteProvider(apiKey, os.Getenv(EnvRemoteBaseURL), "", 0, cache)
	}

	// Fallback to local provider
	return NewLocalProvider(cache)
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if remoteKeyFromEnv() != "" {
		return ProviderRemote
	}

	return ProviderLocal
}

func remoteKeyFromEnv() string {
	if key := os.Getenv(EnvRemoteAPIKey); key != "" {
		return key
	}
	return os.Getenv(EnvOpenAIAPIKey)
}
