package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/highlight/highlighter/html"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/query"
)

// BleveBackendName identifies the Bleve backend.
const BleveBackendName = "bleve"

// searchable fields, in the order results annotate them.
var searchFields = []string{"title", "content"}

const (
	htmlMarkOpen  = "<mark>"
	htmlMarkClose = "</mark>"
	htmlEllipsis  = "…"
)

// bleveDoc is the stored form of a document.
type bleveDoc struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Source    string `json:"source"`
	IndexedAt string `json:"indexed_at"`
}

// BleveBackend implements Backend with a Bleve index using the CJK bigram analyzer. Expression
// trees are rendered into native Bleve queries rather than a query string.
type BleveBackend struct {
	index  bleve.Index
	logger *zap.Logger
}

// NewBleveBackend creates or opens a Bleve index at path. An empty path keeps the index in
// memory. If the mapping changes, remove the index directory to force a re-index.
func NewBleveBackend(path string, logger *zap.Logger) (*BleveBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		index, err := bleve.NewMemOnly(newIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveBackend{index: index, logger: logger}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("%w: failed to open Bleve index: %v", ErrBackendUnavailable, openErr)
		}
		logger.Info("bleve backend ready", zap.String("path", path), zap.Bool("existing", true))
		return &BleveBackend{index: index, logger: logger}, nil
	}

	index, err := bleve.New(path, newIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Bleve index: %v", ErrBackendUnavailable, err)
	}
	logger.Info("bleve backend ready", zap.String("path", path), zap.Bool("existing", false))
	return &BleveBackend{index: index, logger: logger}, nil
}

func newIndexMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// CJK bigrams so Japanese text without spaces still produces matchable tokens.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = cjk.AnalyzerName
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("id", keywordFieldMapping)

	storedOnly := bleve.NewTextFieldMapping()
	storedOnly.Index = false
	storedOnly.IncludeInAll = false
	docMapping.AddFieldMappingsAt("source", storedOnly)
	docMapping.AddFieldMappingsAt("indexed_at", storedOnly)

	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = cjk.AnalyzerName
	return im
}

// Name returns the backend name.
func (b *BleveBackend) Name() string { return BleveBackendName }

// Index indexes doc by ID, replacing any previous version.
func (b *BleveBackend) Index(ctx context.Context, doc *models.Document) error {
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = time.Now()
	}
	err := b.index.Index(doc.ID, bleveDoc{
		ID:        doc.ID,
		Title:     doc.Title,
		Content:   doc.Content,
		Source:    doc.Source,
		IndexedAt: doc.IndexedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Get returns a document by ID.
func (b *BleveBackend) Get(ctx context.Context, id string) (*models.Document, error) {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Size = 1
	req.Fields = []string{"*"}
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, b.classify(err)
	}
	if len(res.Hits) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	hit := res.Hits[0]
	doc := &models.Document{
		ID:      hit.ID,
		Title:   stringField(hit, "title"),
		Content: stringField(hit, "content"),
		Source:  stringField(hit, "source"),
	}
	if t, err := time.Parse(time.RFC3339Nano, stringField(hit, "indexed_at")); err == nil {
		doc.IndexedAt = t
	}
	return doc, nil
}

// Delete removes a document by ID.
func (b *BleveBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.Get(ctx, id); err != nil {
		return err
	}
	if err := b.index.Delete(id); err != nil {
		return b.classify(err)
	}
	return nil
}

// Search runs q and returns up to limit hits. Bleve scores higher-is-better, so scores are
// negated to keep the lower-is-better convention.
func (b *BleveBackend) Search(ctx context.Context, q Query, limit int) ([]*models.SearchResult, error) {
	bq, err := b.render(q)
	if err != nil {
		return nil, err
	}
	req := bleve.NewSearchRequest(bq)
	req.Size = limit
	req.Fields = []string{"title"}
	req.Highlight = bleve.NewHighlightWithStyle(html.Name)
	req.Highlight.Fields = searchFields

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, b.classify(err)
	}

	a := q.Annotate
	out := make([]*models.SearchResult, len(res.Hits))
	for i, hit := range res.Hits {
		title := stringField(hit, "title")
		highlighted := title
		if frags := hit.Fragments["title"]; len(frags) > 0 {
			highlighted = remark(frags[0], a.HighlightOpen, a.HighlightClose, a.Ellipsis)
		}
		var snippet string
		if frags := hit.Fragments["content"]; len(frags) > 0 {
			snippet = remark(frags[0], a.SnippetOpen, a.SnippetClose, a.Ellipsis)
		}
		out[i] = &models.SearchResult{
			DocumentID:  hit.ID,
			Title:       title,
			Score:       -hit.Score,
			Highlighted: highlighted,
			Snippet:     snippet,
			Rank:        i + 1,
		}
	}
	return out, nil
}

// Count returns the number of documents matching q.
func (b *BleveBackend) Count(ctx context.Context, q Query) (int, error) {
	bq, err := b.render(q)
	if err != nil {
		return 0, err
	}
	req := bleve.NewSearchRequest(bq)
	req.Size = 0
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return 0, b.classify(err)
	}
	return int(res.Total), nil
}

// DocCount returns the total number of documents in the index.
func (b *BleveBackend) DocCount(ctx context.Context) (int64, error) {
	n, err := b.index.DocCount()
	if err != nil {
		return 0, b.classify(err)
	}
	return int64(n), nil
}

// Close closes the index.
func (b *BleveBackend) Close() error {
	return b.index.Close()
}

// render converts q into a Bleve query. Raw text goes through the query-string parser either
// way, so malformed raw text is rejected with or without a column; a column then scopes the
// text as a field match query.
func (b *BleveBackend) render(q Query) (blevequery.Query, error) {
	if q.IsRaw() {
		qs := bleve.NewQueryStringQuery(q.Raw)
		if q.Column == "" {
			return qs, nil
		}
		if _, err := qs.Parse(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryRejected, err)
		}
		mq := bleve.NewMatchQuery(q.Raw)
		mq.SetField(q.Column)
		return mq, nil
	}
	return renderNode(q.Expr, q.Column), nil
}

func renderNode(n query.Node, column string) blevequery.Query {
	switch v := n.(type) {
	case *query.Literal:
		if column != "" {
			return literalQuery(v, column)
		}
		parts := make([]blevequery.Query, len(searchFields))
		for i, field := range searchFields {
			parts[i] = literalQuery(v, field)
		}
		return bleve.NewDisjunctionQuery(parts...)
	case *query.Group:
		children := make([]blevequery.Query, len(v.Children))
		for i, c := range v.Children {
			children[i] = renderNode(c, column)
		}
		if v.Op == query.And {
			return bleve.NewConjunctionQuery(children...)
		}
		return bleve.NewDisjunctionQuery(children...)
	default:
		return bleve.NewMatchNoneQuery()
	}
}

func literalQuery(l *query.Literal, field string) blevequery.Query {
	switch {
	case l.Prefix:
		pq := bleve.NewPrefixQuery(strings.ToLower(l.Text))
		pq.SetField(field)
		return pq
	case l.Phrase:
		pq := bleve.NewMatchPhraseQuery(l.Text)
		pq.SetField(field)
		return pq
	default:
		mq := bleve.NewMatchQuery(l.Text)
		mq.SetField(field)
		mq.SetOperator(blevequery.MatchQueryOperatorAnd)
		return mq
	}
}

// remark swaps the html highlighter's markers for the configured ones.
func remark(fragment, open, close, ellipsis string) string {
	r := strings.NewReplacer(htmlMarkOpen, open, htmlMarkClose, close, htmlEllipsis, ellipsis)
	return r.Replace(fragment)
}

func stringField(hit *search.DocumentMatch, name string) string {
	s, _ := hit.Fields[name].(string)
	return s
}

func (b *BleveBackend) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, bleve.ErrorIndexClosed) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrQueryRejected, err)
}
