// Package storage provides SQLite-based persistence for documents and
// corpus statistics.
//
// The storage layer manages:
//   - Document rows (content, metadata, embedding blobs)
//   - The derived lexical index used by keyword scoring
//   - Corpus statistics (document count, average length)
//
// # Database Schema
//
// Tables:
//   - documents: Document rows with embedding BLOBs and the derived
//     lexical_index token stream
//   - corpus_stats: Singleton row holding total_documents and
//     average_document_length
//   - schema_version: Applied migration versions
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("~/.docsearch/documents.db", 384)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.CreateDocument(ctx, &types.Document{
//	    ID:        "doc-1",
//	    Title:     "Feeding schedules",
//	    Content:   "Cats are independent pets.",
//	    Embedding: embedding,
//	})
//
// The dimension passed to NewSQLiteStore fixes the embedding length every
// write must carry. A mismatched vector is rejected with a DimensionError;
// it is never truncated or padded.
//
// # Corpus Statistics
//
// Every create, update, and delete recomputes the corpus_stats row with the
// same querier as the triggering write. Inside a transaction the statistics
// therefore commit or roll back together with the document change, and
// GetStats never returns values that lag the committed corpus.
//
// # Transactions
//
// Use transactions for atomic multi-document writes:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	for _, doc := range docs {
//	    if err := tx.CreateDocument(ctx, doc); err != nil {
//	        return err
//	    }
//	}
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Scoring Support
//
// ListCandidates returns every document projected down to the fields the
// scorer needs (tokens, word count, embedding, creation time), ordered by
// creation time then ID so ranking ties break deterministically.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (cgo_sqlite tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "cgo_sqlite"
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build
package storage
