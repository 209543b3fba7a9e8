package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docsearch-mcp/internal/embedder"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv(embedder.EnvProvider, "")
	t.Setenv(embedder.EnvRemoteAPIKey, "")
	t.Setenv(embedder.EnvOpenAIAPIKey, "")

	path := writeConfig(t, "debug: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, embedder.ProviderLocal, cfg.Embedding.Provider)
	assert.Equal(t, 10000, cfg.Embedding.CacheSize)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.InDelta(t, 0.7, cfg.Search.VectorWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Search.BM25Weight, 1e-9)
	assert.Equal(t, 4, cfg.Import.Workers)
	assert.NotEmpty(t, cfg.Storage.DatabasePath)
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: ":memory:"
embedding:
  provider: remote
  model: text-embedding-3-small
search:
  vector_weight: 0.5
  bm25_weight: 0.5
  threshold: 0.4
import:
  workers: 2
  delimiter: ";"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.Storage.DatabasePath)
	assert.Equal(t, embedder.ProviderRemote, cfg.Embedding.Provider)
	assert.InDelta(t, 0.5, cfg.Search.VectorWeight, 1e-9)
	assert.InDelta(t, 0.4, cfg.Search.Threshold, 1e-9)
	assert.Equal(t, 2, cfg.Import.Workers)
	assert.Equal(t, ';', cfg.DelimiterRune())
}

func TestLoad_RelativeDatabasePathExpands(t *testing.T) {
	path := writeConfig(t, "storage:\n  database_path: ./data/docs.db\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Storage.DatabasePath))
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data", "docs.db"), cfg.Storage.DatabasePath)
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown provider", "embedding:\n  provider: quantum\n"},
		{"negative weight", "search:\n  vector_weight: -0.1\n  bm25_weight: 0.3\n"},
		{"threshold out of range", "search:\n  threshold: 1.5\n"},
		{"multi-char delimiter", "import:\n  delimiter: \"::\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(embedder.EnvProvider, "")
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundtrip(t *testing.T) {
	cfg := Default()
	cfg.Debug = true
	cfg.Search.Threshold = 0.25

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Debug)
	assert.InDelta(t, 0.25, loaded.Search.Threshold, 1e-9)
}
