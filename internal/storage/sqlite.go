package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/query"
)

// SQLiteBackendName identifies the SQLite FTS5 backend.
const SQLiteBackendName = "sqlite"

// tokenizerPattern limits tokenizer declarations to names and plain arguments.
var tokenizerPattern = regexp.MustCompile(`^[A-Za-z0-9_ ]+$`)

// SQLiteOptions configures NewSQLiteBackend.
type SQLiteOptions struct {
	// Path is the database file; ":memory:" keeps everything in memory.
	Path string
	// Tokenizer is the FTS5 tokenize= declaration, e.g. "icu" or "unicode61".
	Tokenizer string
	// FallbackTokenizer is used when Tokenizer needs the extension and it cannot be loaded.
	FallbackTokenizer string
	// ExtensionPath is the resolved fts5icu extension, if any.
	ExtensionPath string
	// RequireExtension turns a missing or broken extension into ErrBackendUnavailable.
	RequireExtension bool
	Logger           *zap.Logger
}

// SQLiteBackend implements Backend with an SQLite FTS5 virtual table.
type SQLiteBackend struct {
	db        *sql.DB
	tokenizer string
	logger    *zap.Logger
}

// NewSQLiteBackend opens or creates the database at opts.Path and the documents FTS5 table.
// Parent directories are created if they do not exist.
func NewSQLiteBackend(opts SQLiteOptions) (*SQLiteBackend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Path == "" {
		opts.Path = ":memory:"
	}
	if opts.Tokenizer == "" {
		opts.Tokenizer = "unicode61"
	}
	if opts.FallbackTokenizer == "" {
		opts.FallbackTokenizer = "unicode61"
	}
	for _, tok := range []string{opts.Tokenizer, opts.FallbackTokenizer} {
		if !tokenizerPattern.MatchString(tok) {
			return nil, fmt.Errorf("invalid tokenizer %q", tok)
		}
	}
	if opts.Path != ":memory:" {
		if dir := filepath.Dir(opts.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	tokenizer := opts.Tokenizer
	driver := "sqlite3"
	if needsExtension(tokenizer) {
		if opts.ExtensionPath != "" {
			driver = extensionDriver(opts.ExtensionPath)
		} else {
			if opts.RequireExtension {
				return nil, fmt.Errorf("%w: tokenizer %q needs the fts5icu extension", ErrBackendUnavailable, tokenizer)
			}
			logger.Warn("fts5icu extension not configured, using fallback tokenizer",
				zap.String("tokenizer", tokenizer), zap.String("fallback", opts.FallbackTokenizer))
			tokenizer = opts.FallbackTokenizer
		}
	}

	db, err := openDB(driver, opts.Path)
	if err != nil && driver != "sqlite3" {
		if opts.RequireExtension {
			return nil, fmt.Errorf("%w: load extension %s: %v", ErrBackendUnavailable, opts.ExtensionPath, err)
		}
		logger.Warn("failed to load fts5icu extension, using fallback tokenizer",
			zap.String("extension", opts.ExtensionPath), zap.String("fallback", opts.FallbackTokenizer), zap.Error(err))
		tokenizer = opts.FallbackTokenizer
		db, err = openDB("sqlite3", opts.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if err := initSchema(db, tokenizer); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Info("sqlite backend ready", zap.String("path", opts.Path), zap.String("tokenizer", tokenizer))
	return &SQLiteBackend{db: db, tokenizer: tokenizer, logger: logger}, nil
}

func needsExtension(tokenizer string) bool {
	fields := strings.Fields(tokenizer)
	return len(fields) > 0 && fields[0] == "icu"
}

func openDB(driver, path string) (*sql.DB, error) {
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	return db, nil
}

func initSchema(db *sql.DB, tokenizer string) error {
	schema := fmt.Sprintf(`
	CREATE VIRTUAL TABLE IF NOT EXISTS documents USING fts5(
		id UNINDEXED,
		title,
		content,
		source UNINDEXED,
		indexed_at UNINDEXED,
		tokenize='%s'
	);`, tokenizer)
	_, err := db.Exec(schema)
	return err
}

// Name returns the backend name.
func (s *SQLiteBackend) Name() string { return SQLiteBackendName }

// Tokenizer returns the tokenizer the table was created with.
func (s *SQLiteBackend) Tokenizer() string { return s.tokenizer }

// Index inserts doc, replacing any document with the same ID.
func (s *SQLiteBackend) Index(ctx context.Context, doc *models.Document) error {
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, doc.ID); err != nil {
		return classify(err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, content, source, indexed_at) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Content, doc.Source, doc.IndexedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return classify(err)
	}
	return tx.Commit()
}

// Get returns a document by ID.
func (s *SQLiteBackend) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	var indexedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, source, indexed_at FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Source, &indexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, classify(err)
	}
	if t, err := time.Parse(time.RFC3339Nano, indexedAt); err == nil {
		doc.IndexedAt = t
	}
	return &doc, nil
}

// Delete removes a document by ID.
func (s *SQLiteBackend) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Search evaluates q with MATCH, ordered by bm25 ascending, with highlighted titles and
// content snippets.
func (s *SQLiteBackend) Search(ctx context.Context, q Query, limit int) ([]*models.SearchResult, error) {
	a := q.Annotate
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, bm25(documents) AS score,
		        highlight(documents, 1, ?, ?),
		        snippet(documents, 2, ?, ?, ?, ?)
		 FROM documents
		 WHERE documents MATCH ?
		 ORDER BY score
		 LIMIT ?`,
		a.HighlightOpen, a.HighlightClose,
		a.SnippetOpen, a.SnippetClose, a.Ellipsis, a.SnippetTokens,
		MatchString(q), limit,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var results []*models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.DocumentID, &r.Title, &r.Score, &r.Highlighted, &r.Snippet); err != nil {
			return nil, classify(err)
		}
		r.Rank = len(results) + 1
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return results, nil
}

// Count returns the number of documents matching q.
func (s *SQLiteBackend) Count(ctx context.Context, q Query) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE documents MATCH ?`, MatchString(q),
	).Scan(&count)
	if err != nil {
		return 0, classify(err)
	}
	return count, nil
}

// DocCount returns the total number of documents.
func (s *SQLiteBackend) DocCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, classify(err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

// MatchString renders q as an FTS5 MATCH argument.
func MatchString(q Query) string {
	if q.IsRaw() {
		if q.Column == "" {
			return q.Raw
		}
		return q.Column + " : (" + q.Raw + ")"
	}
	return query.Scoped(q.Column, q.Expr)
}

// classify maps SQLite errors onto ErrQueryRejected (SQL/FTS5 errors such as syntax errors)
// and ErrBackendUnavailable (everything else). Context errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrError {
		return fmt.Errorf("%w: %v", ErrQueryRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
