// Package ingest coordinates document ingestion: validation, embedding
// generation, and persistence.
//
// Single documents go through Pipeline.Add, which generates an ID and an
// embedding when the request carries neither. Bulk loads go through
// Pipeline.ImportCSV, which streams a delimited source, maps columns
// through locale-aware aliases (so a German "Beschreibung" header lands in
// content without configuration), and persists rows in fixed-size chunks.
//
// Each chunk is one batch embedding call followed by one transaction. A
// failing chunk fails only its own rows; committed chunks stay committed
// and pending chunks keep running. The import result reports exact
// imported/failed counts with an error list capped at MaxImportErrors.
package ingest
