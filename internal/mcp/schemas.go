package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// addDocumentTool returns the tool definition for add_document
func addDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_document",
		Description: "Add a single document to the search corpus",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Document body text (required, non-empty)",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Document title",
				},
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Document ID; generated when omitted",
				},
				"metadata": map[string]interface{}{
					"type":        "object",
					"description": "Arbitrary string key/value pairs stored with the document",
				},
			},
			Required: []string{"content"},
		},
	}
}

// importDocumentsTool returns the tool definition for import_documents
func importDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "import_documents",
		Description: "Bulk-import documents from a CSV source with automatic column mapping",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to a CSV file (mutually exclusive with content)",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Inline CSV content (mutually exclusive with path)",
				},
				"delimiter": map[string]interface{}{
					"type":        "string",
					"description": "Single-character field separator (default ',')",
				},
				"validate_text": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, reject rows whose content is not valid UTF-8 text",
					"default":     false,
				},
				"skip_empty_lines": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, silently drop fully empty rows",
					"default":     true,
				},
			},
		},
	}
}

// searchDocumentsTool returns the tool definition for search_documents
func searchDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_documents",
		Description: "Search the document corpus with hybrid vector and keyword ranking",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: hybrid (vector + keyword), vector (semantic only), or keyword (BM25 only)",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "hybrid",
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum cosine similarity; applied before score fusion (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"vector_weight": map[string]interface{}{
					"type":        "number",
					"description": "Weight of the vector score in hybrid fusion",
				},
				"bm25_weight": map[string]interface{}{
					"type":        "number",
					"description": "Weight of the normalized BM25 score in hybrid fusion",
				},
			},
			Required: []string{"query"},
		},
	}
}

// removeDocumentTool returns the tool definition for remove_document
func removeDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_document",
		Description: "Remove a document from the search corpus by ID",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the document to remove",
				},
			},
			Required: []string{"id"},
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Report corpus statistics: document count and average document length",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
