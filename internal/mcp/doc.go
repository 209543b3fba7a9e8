// Package mcp implements the Model Context Protocol (MCP) server for docsearch.
//
// The MCP server exposes five tools to AI assistants:
//   - add_document: Add a single document to the search corpus
//   - import_documents: Bulk-import documents from a CSV source
//   - search_documents: Search the corpus with hybrid ranking
//   - remove_document: Remove a document by ID
//   - get_stats: Report corpus statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates via standard input/output; all logging goes to
// stderr so stdout stays reserved for protocol messages.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	docsearch serve
//
// # Tool: add_document
//
//	Request:
//	{
//	  "name": "add_document",
//	  "arguments": {
//	    "title": "Dogs",
//	    "content": "Dogs are loyal companions.",
//	    "metadata": {"category": "pets"}
//	  }
//	}
//
//	Response:
//	{
//	  "added": true,
//	  "id": "8a1f..."
//	}
//
// # Tool: import_documents
//
// Imports a CSV file or inline CSV content. Column headers are mapped
// through locale-aware aliases, so a German "Beschreibung" column lands in
// content without configuration:
//
//	Request:
//	{
//	  "name": "import_documents",
//	  "arguments": {
//	    "path": "/data/products.csv",
//	    "delimiter": ";"
//	  }
//	}
//
//	Response:
//	{
//	  "success": false,
//	  "imported": 240,
//	  "failed": 3,
//	  "errors": ["row 17: validation failed: document content cannot be empty", ...]
//	}
//
// # Tool: search_documents
//
//	Request:
//	{
//	  "name": "search_documents",
//	  "arguments": {
//	    "query": "loyal family pets",
//	    "limit": 10,
//	    "search_mode": "hybrid",
//	    "threshold": 0.3
//	  }
//	}
//
//	Response:
//	{
//	  "query": "loyal family pets",
//	  "total_results": 2,
//	  "results": [
//	    {
//	      "rank": 1,
//	      "id": "dogs",
//	      "score": 0.81,
//	      "vector_score": 0.88,
//	      "bm25_score": 4.2,
//	      "title": "Dogs",
//	      "excerpt": "Dogs are loyal companions..."
//	    }
//	  ]
//	}
//
// # Error Handling
//
// The server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {
//	      "param": "query",
//	      "reason": "missing or empty"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, embedding provider)
//   - -32001: Document content is empty
//   - -32002: Query is empty
//   - -32003: Import source could not be read
//
// # MCP Client Configuration
//
// Configure in an MCP client's settings:
//
//	{
//	  "mcpServers": {
//	    "docsearch": {
//	      "command": "/usr/local/bin/docsearch",
//	      "args": ["serve"],
//	      "env": {
//	        "OPENAI_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// Without an API key the server falls back to the local embedding provider.
package mcp
