//go:build sqlite_fts5

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/query"
)

func newTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := NewSQLiteBackend(SQLiteOptions{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func seed(t *testing.T, b Backend, docs ...*models.Document) {
	t.Helper()
	for _, d := range docs {
		require.NoError(t, b.Index(context.Background(), d))
	}
}

func TestSQLiteBackend_CRUD(t *testing.T) {
	b := newTestSQLite(t)
	ctx := context.Background()

	doc := &models.Document{ID: "doc1", Title: "Title", Content: "Content", Source: "/tmp/a.txt"}
	require.NoError(t, b.Index(ctx, doc))
	assert.False(t, doc.IndexedAt.IsZero())

	got, err := b.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "Title", got.Title)
	assert.Equal(t, "Content", got.Content)
	assert.Equal(t, "/tmp/a.txt", got.Source)

	doc.Title = "Updated"
	require.NoError(t, b.Index(ctx, doc))
	n, err := b.DocCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	got, err = b.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)

	require.NoError(t, b.Delete(ctx, "doc1"))
	_, err = b.Get(ctx, "doc1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, b.Delete(ctx, "doc1"), ErrNotFound)
}

func TestSQLiteBackend_SearchOrderAndAnnotations(t *testing.T) {
	b := newTestSQLite(t)
	ctx := context.Background()
	seed(t, b,
		&models.Document{ID: "a", Title: "database design", Content: "database design patterns for database engineers"},
		&models.Document{ID: "b", Title: "cooking", Content: "a note on database usage in kitchens"},
		&models.Document{ID: "c", Title: "gardening", Content: "plants and soil"},
	)

	expr, ok := query.Build([]string{"database"}, models.StrategyComprehensive)
	require.True(t, ok)
	results, err := b.Search(ctx, Query{Expr: expr, Annotate: DefaultAnnotation()}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].DocumentID)
	assert.LessOrEqual(t, results[0].Score, results[1].Score)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 2, results[1].Rank)
	assert.Contains(t, results[0].Highlighted, "<mark>database</mark>")
	assert.Contains(t, results[0].Snippet, "[database]")

	count, err := b.Count(ctx, Query{Expr: expr})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	limited, err := b.Search(ctx, Query{Expr: expr, Annotate: DefaultAnnotation()}, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteBackend_ColumnScope(t *testing.T) {
	b := newTestSQLite(t)
	ctx := context.Background()
	seed(t, b,
		&models.Document{ID: "a", Title: "database", Content: "nothing here"},
		&models.Document{ID: "b", Title: "other", Content: "database content"},
	)
	expr, _ := query.Build([]string{"database"}, models.StrategyBasic)

	count, err := b.Count(ctx, Query{Expr: expr, Column: "title"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := b.Search(ctx, Query{Expr: expr, Column: "content", Annotate: DefaultAnnotation()}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].DocumentID)
}

func TestSQLiteBackend_RejectsMalformedRawQuery(t *testing.T) {
	b := newTestSQLite(t)
	seed(t, b, &models.Document{ID: "a", Title: "t", Content: "c"})

	_, err := b.Search(context.Background(), Query{Raw: `"unterminated`, Annotate: DefaultAnnotation()}, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueryRejected), "got %v", err)

	_, err = b.Count(context.Background(), Query{Raw: `AND OR`})
	assert.ErrorIs(t, err, ErrQueryRejected)
}

func TestSQLiteBackend_MissingExtension(t *testing.T) {
	dir := t.TempDir()

	b, err := NewSQLiteBackend(SQLiteOptions{Path: filepath.Join(dir, "a.db"), Tokenizer: "icu"})
	require.NoError(t, err)
	assert.Equal(t, "unicode61", b.Tokenizer())
	require.NoError(t, b.Close())

	_, err = NewSQLiteBackend(SQLiteOptions{Path: filepath.Join(dir, "b.db"), Tokenizer: "icu", RequireExtension: true})
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	b, err = NewSQLiteBackend(SQLiteOptions{
		Path:          filepath.Join(dir, "c.db"),
		Tokenizer:     "icu",
		ExtensionPath: filepath.Join(dir, "missing.so"),
	})
	require.NoError(t, err)
	assert.Equal(t, "unicode61", b.Tokenizer())
	require.NoError(t, b.Close())
}

func TestSQLiteBackend_InvalidTokenizer(t *testing.T) {
	_, err := NewSQLiteBackend(SQLiteOptions{Path: ":memory:", Tokenizer: "icu'); DROP TABLE x; --"})
	assert.Error(t, err)
}

func TestMatchString(t *testing.T) {
	expr, _ := query.Build([]string{"a1", "b2"}, models.StrategyComprehensive)
	assert.Equal(t, "a1 OR b2", MatchString(Query{Expr: expr}))
	assert.Equal(t, "title : (a1 OR b2)", MatchString(Query{Expr: expr, Column: "title"}))
	assert.Equal(t, "raw text", MatchString(Query{Raw: "raw text"}))
	assert.Equal(t, "content : (raw text)", MatchString(Query{Raw: "raw text", Column: "content"}))
}

func TestSQLiteBackend_KeywordTermsStayLiterals(t *testing.T) {
	b := newTestSQLite(t)
	ctx := context.Background()
	seed(t, b,
		&models.Document{ID: "1", Title: "pets", Content: "cats AND dogs are NOT enemies"},
		&models.Document{ID: "2", Title: "ml", Content: "scikit-learn and C++ bindings"},
	)

	for _, s := range models.Strategies {
		expr, ok := query.Build([]string{"cats", "AND", "dogs"}, s)
		require.True(t, ok)
		n, err := b.Count(ctx, Query{Expr: expr})
		require.NoError(t, err, s.String())
		assert.Equal(t, 1, n, s.String())
	}

	expr, _ := query.Build([]string{"NOT", "cats"}, models.StrategyProgressive)
	n, err := b.Count(ctx, Query{Expr: expr})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expr, _ = query.Build([]string{"scikit-learn", "C++"}, models.StrategyComprehensive)
	n, err = b.Count(ctx, Query{Expr: expr})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
