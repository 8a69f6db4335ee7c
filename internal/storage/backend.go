// Package storage provides full-text search backends that evaluate boolean query expressions.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/query"
)

var (
	// ErrQueryRejected means the backend could not parse or execute the query. Callers may
	// retry with a simpler query.
	ErrQueryRejected = errors.New("query rejected")
	// ErrBackendUnavailable means the backend connection or extension failed.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNotFound means the requested document does not exist.
	ErrNotFound = errors.New("document not found")
)

// Annotation holds the markers used for highlighting and snippet extraction.
type Annotation struct {
	HighlightOpen  string
	HighlightClose string
	SnippetOpen    string
	SnippetClose   string
	Ellipsis       string
	SnippetTokens  int
}

// DefaultAnnotation returns the markers used when none are configured.
func DefaultAnnotation() Annotation {
	return Annotation{
		HighlightOpen:  "<mark>",
		HighlightClose: "</mark>",
		SnippetOpen:    "[",
		SnippetClose:   "]",
		Ellipsis:       "...",
		SnippetTokens:  15,
	}
}

// Query is what a backend evaluates: an expression tree, or Raw text passed through verbatim
// when Expr is nil.
type Query struct {
	Expr query.Node
	Raw  string
	// Column restricts matching to "title" or "content"; empty matches both.
	Column   string
	Annotate Annotation
}

// IsRaw reports whether q passes raw text through.
func (q Query) IsRaw() bool { return q.Expr == nil }

// Backend is a full-text search backend. Search results are ordered by relevance with the
// most relevant first; Score follows the lower-is-better convention.
type Backend interface {
	Name() string
	Index(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q Query, limit int) ([]*models.SearchResult, error)
	Count(ctx context.Context, q Query) (int, error)
	DocCount(ctx context.Context) (int64, error)
	Close() error
}
