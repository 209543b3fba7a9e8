package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/docsearch-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested document doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate document
	ErrAlreadyExists = errors.New("already exists")
	// ErrDimensionMismatch is the sentinel wrapped by DimensionError
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// DimensionError reports an embedding whose length does not match the
// dimension the store was configured with. The vector is rejected as-is,
// never truncated or padded.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db         *sql.DB
	dimensions int
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance. The dimensions value
// fixes the embedding length every write must carry; it normally comes from
// the active embedding provider.
func NewSQLiteStore(dbPath string, dimensions int) (*SQLiteStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db, dimensions: dimensions}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Dimensions returns the embedding length this store enforces
func (s *SQLiteStore) Dimensions() int {
	return s.dimensions
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, store: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStore) querier() querier {
	return s.db
}

// checkDimension enforces the fixed-dimension invariant on a write
func (s *SQLiteStore) checkDimension(embedding []float32) error {
	if embedding == nil {
		return nil
	}
	if len(embedding) != s.dimensions {
		return &DimensionError{Want: s.dimensions, Got: len(embedding)}
	}
	return nil
}

// Document operations

// createDocumentWithQuerier is the internal implementation that uses a querier.
// It derives the lexical index and word count from the content and recomputes
// corpus statistics with the same querier, so a transactional caller commits
// the document and the statistics atomically.
func (s *SQLiteStore) createDocumentWithQuerier(ctx context.Context, q querier, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := s.checkDimension(doc.Embedding); err != nil {
		return err
	}

	metadata, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return err
	}

	terms := Tokenize(doc.Title + " " + doc.Content)
	wordCount := len(Tokenize(doc.Content))

	query := `
		INSERT INTO documents (id, title, content, metadata, embedding, lexical_index, word_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err = q.ExecContext(ctx, query,
		doc.ID, doc.Title, doc.Content, metadata, serializeVector(doc.Embedding),
		joinTerms(terms), wordCount, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("document %s: %w", doc.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create document: %w", err)
	}

	doc.WordCount = wordCount
	doc.CreatedAt = now
	doc.UpdatedAt = now

	return s.recomputeStatsWithQuerier(ctx, q)
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *types.Document) error {
	return s.createDocumentWithQuerier(ctx, s.querier(), doc)
}

// getDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getDocumentWithQuerier(ctx context.Context, q querier, id string) (*types.Document, error) {
	query := `
		SELECT id, title, content, metadata, embedding, word_count, created_at, updated_at
		FROM documents
		WHERE id = ?
	`
	var doc types.Document
	var metadata sql.NullString
	var embedding []byte
	err := q.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.Title, &doc.Content, &metadata, &embedding,
		&doc.WordCount, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", id, err)
		}
	}
	if len(embedding) > 0 {
		doc.Embedding = deserializeVector(embedding)
	}
	return &doc, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), id)
}

// updateDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) updateDocumentWithQuerier(ctx context.Context, q querier, doc *types.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := s.checkDimension(doc.Embedding); err != nil {
		return err
	}

	metadata, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return err
	}

	terms := Tokenize(doc.Title + " " + doc.Content)
	wordCount := len(Tokenize(doc.Content))

	query := `
		UPDATE documents
		SET title = ?, content = ?, metadata = ?, embedding = ?,
		    lexical_index = ?, word_count = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		doc.Title, doc.Content, metadata, serializeVector(doc.Embedding),
		joinTerms(terms), wordCount, now, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	doc.WordCount = wordCount
	doc.UpdatedAt = now

	return s.recomputeStatsWithQuerier(ctx, q)
}

func (s *SQLiteStore) UpdateDocument(ctx context.Context, doc *types.Document) error {
	return s.updateDocumentWithQuerier(ctx, s.querier(), doc)
}

// deleteDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteDocumentWithQuerier(ctx context.Context, q querier, id string) error {
	result, err := q.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return s.recomputeStatsWithQuerier(ctx, q)
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), id)
}

// countDocumentsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) countDocumentsWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) CountDocuments(ctx context.Context) (int, error) {
	return s.countDocumentsWithQuerier(ctx, s.querier())
}

// Statistics operations

// recomputeStatsWithQuerier refreshes the corpus_stats singleton from the
// documents table. Called with the same querier as the triggering write so
// the statistics commit or roll back with it.
func (s *SQLiteStore) recomputeStatsWithQuerier(ctx context.Context, q querier) error {
	query := `
		UPDATE corpus_stats
		SET total_documents = (SELECT COUNT(*) FROM documents),
		    average_document_length = (SELECT COALESCE(AVG(word_count), 0) FROM documents),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`
	if _, err := q.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to recompute corpus stats: %w", err)
	}
	return nil
}

// getStatsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getStatsWithQuerier(ctx context.Context, q querier) (*types.CorpusStats, error) {
	query := `
		SELECT total_documents, average_document_length, updated_at
		FROM corpus_stats
		WHERE id = 1
	`
	var stats types.CorpusStats
	err := q.QueryRowContext(ctx, query).Scan(
		&stats.TotalDocuments, &stats.AverageDocumentLength, &stats.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus stats: %w", err)
	}
	return &stats, nil
}

func (s *SQLiteStore) GetStats(ctx context.Context) (*types.CorpusStats, error) {
	return s.getStatsWithQuerier(ctx, s.querier())
}

// Scoring support

// listCandidatesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listCandidatesWithQuerier(ctx context.Context, q querier) ([]Candidate, error) {
	query := `
		SELECT id, title, content, lexical_index, word_count, embedding, created_at
		FROM documents
		ORDER BY created_at, id
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]Candidate, 0, 256)
	for rows.Next() {
		var c Candidate
		var lexical string
		var embedding []byte
		if err := rows.Scan(&c.ID, &c.Title, &c.Content, &lexical, &c.WordCount, &embedding, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Terms = splitTerms(lexical)
		if len(embedding) > 0 {
			c.Embedding = deserializeVector(embedding)
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

func (s *SQLiteStore) ListCandidates(ctx context.Context) ([]Candidate, error) {
	return s.listCandidatesWithQuerier(ctx, s.querier())
}

// Transaction delegation

func (t *sqliteTx) CreateDocument(ctx context.Context, doc *types.Document) error {
	return t.store.createDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	return t.store.getDocumentWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) UpdateDocument(ctx context.Context, doc *types.Document) error {
	return t.store.updateDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, id string) error {
	return t.store.deleteDocumentWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) CountDocuments(ctx context.Context) (int, error) {
	return t.store.countDocumentsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) GetStats(ctx context.Context) (*types.CorpusStats, error) {
	return t.store.getStatsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) ListCandidates(ctx context.Context) ([]Candidate, error) {
	return t.store.listCandidatesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	return nil // Transactions don't own the connection
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

// Helpers

func marshalMetadata(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(data), nil
}

// isUniqueViolation detects a primary-key conflict without depending on
// driver-specific error types (both drivers include this text).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
