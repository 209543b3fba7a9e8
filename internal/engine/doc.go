// Package engine exposes the document search API as one façade over the
// ingestion pipeline, the searcher, and the store. Callers outside the
// internal tree (the MCP tool layer, the CLI) talk to an Engine rather
// than to the collaborators directly, so cache invalidation after writes
// happens in exactly one place.
package engine
