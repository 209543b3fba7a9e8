package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docsearch-mcp/internal/config"
	"github.com/dshills/docsearch-mcp/internal/embedder"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv(embedder.EnvProvider, "")
	t.Setenv(embedder.EnvRemoteAPIKey, "")
	t.Setenv(embedder.EnvOpenAIAPIKey, "")

	cfg := config.Default()
	cfg.Storage.DatabasePath = ":memory:"
	cfg.Embedding.Provider = embedder.ProviderLocal

	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.engine.Close() })
	return s
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultJSON decodes the text payload of a tool result
func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool result should be text content")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	return decoded
}

func TestServer_Initialization(t *testing.T) {
	s := newTestServer(t)

	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.engine)
	assert.NotNil(t, s.cfg)
}

func TestHandleAddDocument(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("adds document and returns generated id", func(t *testing.T) {
		result, err := s.handleAddDocument(ctx, callTool(map[string]interface{}{
			"title":    "Dogs",
			"content":  "Dogs are loyal companions.",
			"metadata": map[string]interface{}{"category": "pets"},
		}))
		require.NoError(t, err)

		resp := resultJSON(t, result)
		assert.Equal(t, true, resp["added"])
		assert.NotEmpty(t, resp["id"])
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := s.handleAddDocument(ctx, callTool(map[string]interface{}{
			"content": "   ",
		}))
		require.Error(t, err)

		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeEmptyContent, mcpErr.Code)
	})
}

func TestHandleImportDocuments(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("imports inline csv content", func(t *testing.T) {
		result, err := s.handleImportDocuments(ctx, callTool(map[string]interface{}{
			"content": "title,content\nA,first body\nB,second body\n",
		}))
		require.NoError(t, err)

		resp := resultJSON(t, result)
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, float64(2), resp["imported"])
		assert.Equal(t, float64(0), resp["failed"])
	})

	t.Run("requires exactly one source", func(t *testing.T) {
		_, err := s.handleImportDocuments(ctx, callTool(map[string]interface{}{}))
		require.Error(t, err)

		_, err = s.handleImportDocuments(ctx, callTool(map[string]interface{}{
			"path":    "/tmp/x.csv",
			"content": "content\nx\n",
		}))
		require.Error(t, err)
	})

	t.Run("rejects multi-character delimiter", func(t *testing.T) {
		_, err := s.handleImportDocuments(ctx, callTool(map[string]interface{}{
			"content":   "content\nx\n",
			"delimiter": "::",
		}))
		require.Error(t, err)
	})

	t.Run("reports partial failure", func(t *testing.T) {
		result, err := s.handleImportDocuments(ctx, callTool(map[string]interface{}{
			"content":          "content\ngood row\n\"\"\n",
			"skip_empty_lines": false,
		}))
		require.NoError(t, err)

		resp := resultJSON(t, result)
		assert.Equal(t, false, resp["success"])
		assert.Equal(t, float64(1), resp["imported"])
		assert.Equal(t, float64(1), resp["failed"])
		assert.NotEmpty(t, resp["errors"])
	})
}

func TestHandleSearchDocuments(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleAddDocument(ctx, callTool(map[string]interface{}{
		"id":      "dogs",
		"title":   "Dogs",
		"content": "Dogs are loyal companions that love to play fetch.",
	}))
	require.NoError(t, err)
	_, err = s.handleAddDocument(ctx, callTool(map[string]interface{}{
		"id":      "fish",
		"title":   "Fish",
		"content": "Fish swim silently in the aquarium all day long.",
	}))
	require.NoError(t, err)

	t.Run("returns ranked results", func(t *testing.T) {
		result, err := s.handleSearchDocuments(ctx, callTool(map[string]interface{}{
			"query": "loyal dogs fetch",
		}))
		require.NoError(t, err)

		resp := resultJSON(t, result)
		results, ok := resp["results"].([]interface{})
		require.True(t, ok)
		require.NotEmpty(t, results)

		top, ok := results[0].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "dogs", top["id"])
		assert.Equal(t, float64(1), top["rank"])
	})

	t.Run("rejects empty query", func(t *testing.T) {
		_, err := s.handleSearchDocuments(ctx, callTool(map[string]interface{}{
			"query": "",
		}))
		require.Error(t, err)

		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)
	})

	t.Run("rejects invalid search mode", func(t *testing.T) {
		_, err := s.handleSearchDocuments(ctx, callTool(map[string]interface{}{
			"query":       "anything",
			"search_mode": "telepathic",
		}))
		require.Error(t, err)
	})

	t.Run("rejects out-of-range limit", func(t *testing.T) {
		_, err := s.handleSearchDocuments(ctx, callTool(map[string]interface{}{
			"query": "anything",
			"limit": float64(1000),
		}))
		require.Error(t, err)
	})
}

func TestHandleRemoveDocument(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleAddDocument(ctx, callTool(map[string]interface{}{
		"id":      "doomed",
		"content": "soon to be removed",
	}))
	require.NoError(t, err)

	t.Run("removes existing document", func(t *testing.T) {
		result, err := s.handleRemoveDocument(ctx, callTool(map[string]interface{}{
			"id": "doomed",
		}))
		require.NoError(t, err)
		assert.Equal(t, true, resultJSON(t, result)["removed"])
	})

	t.Run("missing document is not an error", func(t *testing.T) {
		result, err := s.handleRemoveDocument(ctx, callTool(map[string]interface{}{
			"id": "doomed",
		}))
		require.NoError(t, err)
		assert.Equal(t, false, resultJSON(t, result)["removed"])
	})

	t.Run("requires id", func(t *testing.T) {
		_, err := s.handleRemoveDocument(ctx, callTool(map[string]interface{}{}))
		require.Error(t, err)
	})
}

func TestHandleGetStats(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleAddDocument(ctx, callTool(map[string]interface{}{
		"content": "one two three four",
	}))
	require.NoError(t, err)

	result, err := s.handleGetStats(ctx, callTool(map[string]interface{}{}))
	require.NoError(t, err)

	resp := resultJSON(t, result)
	assert.Equal(t, float64(1), resp["total_documents"])
	assert.Equal(t, float64(4), resp["average_document_length"])
	assert.Equal(t, embedder.ProviderLocal, resp["embedding_provider"])
}
