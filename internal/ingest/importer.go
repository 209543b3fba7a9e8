package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/docsearch-mcp/internal/embedder"
	"github.com/dshills/docsearch-mcp/pkg/types"
)

// ImportOptions configures a delimited import
type ImportOptions struct {
	Delimiter      rune   // Field separator (default ',')
	Encoding       string // Source encoding; only UTF-8 is supported
	ValidateText   bool   // Reject rows whose content is not valid text
	SkipEmptyLines bool   // Silently drop fully empty rows instead of failing them
}

// ImportResult summarizes a batch import. Imported and Failed are exact
// counts; Errors is capped at MaxImportErrors entries.
type ImportResult struct {
	Success  bool
	Imported int
	Failed   int
	Errors   []string
}

// record is a validated row awaiting persistence
type record struct {
	row     int // 1-based data row number, for error messages
	id      string
	title   string
	content string
	meta    map[string]string
}

// ImportCSV ingests documents from a delimited source.
//
// The header row is resolved through the column alias lists. Rows failing
// validation are recorded and skipped; surviving rows are grouped into
// fixed-size chunks, each embedded in one batch call and persisted in one
// transaction. A failed chunk fails all of its rows and no others; chunks
// already committed stay committed.
func (p *Pipeline) ImportCSV(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	if err := checkEncoding(opts.Encoding); err != nil {
		return nil, err
	}

	result := &ImportResult{}

	records, err := p.parseRows(r, opts, result)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		result.Success = result.Failed == 0
		return result, nil
	}

	chunkSize := p.chunkSize()
	chunks := make([][]record, 0, (len(records)+chunkSize-1)/chunkSize)
	for i := 0; i < len(records); i += chunkSize {
		end := i + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[i:end])
	}

	// Chunk failures are recorded, not propagated: returning an error
	// would cancel sibling chunks, and per-chunk isolation is the
	// contract. Only a dead store aborts the group.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, chunk := range chunks {
		g.Go(func() error {
			imported, chunkErr := p.importChunk(gctx, chunk)

			mu.Lock()
			defer mu.Unlock()
			result.Imported += imported

			if chunkErr != nil {
				result.Failed += len(chunk)
				recordError(result, fmt.Sprintf("rows %d-%d: %v",
					chunk[0].row, chunk[len(chunk)-1].row, chunkErr))
				p.logger.Warn("import chunk failed",
					zap.Int("first_row", chunk[0].row),
					zap.Int("rows", len(chunk)),
					zap.Error(chunkErr))

				if isFatal(chunkErr) {
					return chunkErr
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Committed chunks stay committed; report what happened so far
		result.Success = false
		return result, err
	}

	result.Success = result.Failed == 0

	p.logger.Info("import finished",
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed))

	return result, nil
}

// parseRows reads and validates every data row, recording per-row failures
func (p *Pipeline) parseRows(r io.Reader, opts ImportOptions, result *ImportResult) ([]record, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1 // Rows are validated individually
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: source is empty", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := resolveColumns(header)
	if cols.content < 0 {
		return nil, fmt.Errorf("%w: no content column found (tried %s)",
			ErrValidation, strings.Join(contentAliases, ", "))
	}

	var records []record
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.Failed++
			recordError(result, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		// Skipped empty rows still consume a row number so error messages
		// keep matching the file's physical data-row positions
		if isEmptyRow(row) {
			if opts.SkipEmptyLines {
				continue
			}
			result.Failed++
			recordError(result, fmt.Sprintf("row %d: empty row", rowNum))
			continue
		}

		rec, err := buildRecord(row, header, cols, rowNum, opts)
		if err != nil {
			result.Failed++
			recordError(result, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// buildRecord validates one row and maps its cells to document fields.
// Unmapped columns become metadata.
func buildRecord(row, header []string, cols columnMap, rowNum int, opts ImportOptions) (record, error) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	content := cell(cols.content)
	if strings.TrimSpace(content) == "" {
		return record{}, fmt.Errorf("%w: %v", ErrValidation, types.ErrEmptyContent)
	}
	if opts.ValidateText && !isValidText(content) {
		return record{}, fmt.Errorf("%w: content is not valid text", ErrValidation)
	}

	rec := record{
		row:     rowNum,
		id:      strings.TrimSpace(cell(cols.id)),
		title:   strings.TrimSpace(cell(cols.title)),
		content: content,
	}
	if rec.id == "" {
		rec.id = uuid.NewString()
	}

	for i, value := range row {
		if i == cols.content || i == cols.title || i == cols.id || i >= len(header) {
			continue
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		if rec.meta == nil {
			rec.meta = make(map[string]string)
		}
		rec.meta[normalizeHeader(header[i])] = value
	}

	return rec, nil
}

// importChunk embeds and persists one chunk in a single transaction.
// Any failure fails the whole chunk.
func (p *Pipeline) importChunk(ctx context.Context, chunk []record) (int, error) {
	texts := make([]string, len(chunk))
	for i, rec := range chunk {
		texts[i] = rec.content
	}

	resp, err := p.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
	if err != nil {
		return 0, fmt.Errorf("batch embedding failed: %w", err)
	}

	// Validated rows are never blank, so the filtered alignment is the
	// identity; map defensively through FilteredIndices regardless.
	vectors := make([][]float32, len(chunk))
	for i, emb := range resp.Embeddings {
		vectors[resp.FilteredIndices[i]] = emb.Vector
	}

	tx, err := p.store.BeginTx(ctx)
	if err != nil {
		return 0, fatalError{fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	for i, rec := range chunk {
		doc := &types.Document{
			ID:        rec.id,
			Title:     rec.title,
			Content:   rec.content,
			Metadata:  rec.meta,
			Embedding: vectors[i],
		}
		if err := tx.CreateDocument(ctx, doc); err != nil {
			return 0, fmt.Errorf("row %d: %w", rec.row, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit chunk: %w", err)
	}

	return len(chunk), nil
}

// fatalError marks store-level failures that should abort remaining chunks
type fatalError struct{ err error }

func (f fatalError) Error() string { return f.err.Error() }
func (f fatalError) Unwrap() error { return f.err }

func isFatal(err error) bool {
	var f fatalError
	return errors.As(err, &f)
}

func recordError(result *ImportResult, msg string) {
	if len(result.Errors) < MaxImportErrors {
		result.Errors = append(result.Errors, msg)
	}
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// isValidText rejects content carrying NUL bytes or broken UTF-8
func isValidText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

func checkEncoding(encoding string) error {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return nil
	default:
		return fmt.Errorf("%w: unsupported encoding %q", ErrValidation, encoding)
	}
}
