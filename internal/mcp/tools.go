package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/docsearch-mcp/internal/ingest"
	"github.com/dshills/docsearch-mcp/internal/searcher"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyContent  = -32001 // Document content is empty
	ErrorCodeEmptyQuery    = -32002 // Query parameter is empty
	ErrorCodeImportFailed  = -32003 // Import source could not be read
)

// handleAddDocument handles the add_document tool invocation
func (s *Server) handleAddDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content, _ := args["content"].(string)
	if strings.TrimSpace(content) == "" {
		return nil, newMCPError(ErrorCodeEmptyContent, "content parameter is required and cannot be empty", map[string]interface{}{
			"param":  "content",
			"reason": "missing or empty",
		})
	}

	req := ingest.AddRequest{
		ID:      getStringDefault(args, "id", ""),
		Title:   getStringDefault(args, "title", ""),
		Content: content,
	}

	if meta, ok := args["metadata"].(map[string]interface{}); ok {
		req.Metadata = make(map[string]string, len(meta))
		for k, v := range meta {
			req.Metadata[k] = fmt.Sprintf("%v", v)
		}
	}

	id, err := s.engine.Add(ctx, req)
	if err != nil {
		if errors.Is(err, ingest.ErrValidation) {
			return nil, newMCPError(ErrorCodeInvalidParams, "validation failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to add document", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"added": true,
		"id":    id,
	})), nil
}

// handleImportDocuments handles the import_documents tool invocation.
// The source is either a path to a delimited file or inline content;
// exactly one must be provided.
func (s *Server) handleImportDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, _ := args["path"].(string)
	content, _ := args["content"].(string)
	if (path == "") == (content == "") {
		return nil, newMCPError(ErrorCodeInvalidParams, "exactly one of path or content is required", map[string]interface{}{
			"params": []string{"path", "content"},
		})
	}

	opts := ingest.ImportOptions{
		Delimiter:      s.cfg.DelimiterRune(),
		ValidateText:   getBoolDefault(args, "validate_text", false),
		SkipEmptyLines: getBoolDefault(args, "skip_empty_lines", true),
	}
	if d := getStringDefault(args, "delimiter", ""); d != "" {
		runes := []rune(d)
		if len(runes) != 1 {
			return nil, newMCPError(ErrorCodeInvalidParams, "delimiter must be a single character", map[string]interface{}{
				"param": "delimiter",
				"value": d,
			})
		}
		opts.Delimiter = runes[0]
	}

	source := strings.NewReader(content)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, newMCPError(ErrorCodeImportFailed, "failed to open import source", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
		defer func() { _ = f.Close() }()

		result, err := s.engine.AddBatch(ctx, f, opts)
		return importResponse(result, err)
	}

	result, err := s.engine.AddBatch(ctx, source, opts)
	return importResponse(result, err)
}

func importResponse(result *ingest.ImportResult, err error) (*mcp.CallToolResult, error) {
	if err != nil && result == nil {
		return nil, newMCPError(ErrorCodeImportFailed, "import failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"success":  result.Success,
		"imported": result.Imported,
		"failed":   result.Failed,
	}
	if len(result.Errors) > 0 {
		response["errors"] = result.Errors
	}
	if err != nil {
		response["aborted"] = err.Error()
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchDocuments handles the search_documents tool invocation
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", s.cfg.Search.DefaultLimit)
	if limit < 1 || limit > s.cfg.Search.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams,
			fmt.Sprintf("limit must be between 1 and %d", s.cfg.Search.MaxLimit), map[string]interface{}{
				"param": "limit",
				"value": limit,
			})
	}

	mode := getStringDefault(args, "search_mode", string(searcher.SearchModeHybrid))
	switch searcher.SearchMode(mode) {
	case searcher.SearchModeHybrid, searcher.SearchModeVector, searcher.SearchModeKeyword:
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   mode,
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	req := searcher.SearchRequest{
		Query:        query,
		Limit:        limit,
		Mode:         searcher.SearchMode(mode),
		Threshold:    getFloatDefault(args, "threshold", s.cfg.Search.Threshold),
		VectorWeight: getFloatDefault(args, "vector_weight", s.cfg.Search.VectorWeight),
		BM25Weight:   getFloatDefault(args, "bm25_weight", s.cfg.Search.BM25Weight),
	}

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = map[string]interface{}{
			"id":           r.DocumentID,
			"rank":         r.Rank,
			"score":        r.Score,
			"vector_score": r.VectorScore,
			"bm25_score":   r.BM25Score,
			"title":        r.Title,
			"excerpt":      r.Excerpt,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":         query,
		"mode":          mode,
		"total_results": resp.TotalResults,
		"results":       results,
	})), nil
}

// handleRemoveDocument handles the remove_document tool invocation
func (s *Server) handleRemoveDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, _ := args["id"].(string)
	if id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or empty",
		})
	}

	removed, err := s.engine.Remove(ctx, id)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to remove document", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"removed": removed,
		"id":      id,
	})), nil
}

// handleGetStats handles the get_stats tool invocation
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"total_documents":         stats.TotalDocuments,
		"average_document_length": stats.AverageDocumentLength,
		"updated_at":              stats.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		"embedding_provider":      s.cfg.Embedding.Provider,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a numeric parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
