// Package search runs expanded queries against a full-text backend.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/expansion"
	"github.com/hyperjump/tansaku/internal/metrics"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/storage"
	"github.com/hyperjump/tansaku/internal/terms"
)

// RejectReasonTimeout is the reject reason when the backend call runs out of time.
const RejectReasonTimeout = "timeout"

// Engine extracts, expands and builds a query, then evaluates it on a backend.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	backend   storage.Backend
	extractor *terms.Extractor
	expander  *expansion.Engine
	config    *config.SearchConfig
	strategy  models.Strategy
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDefaultStrategy sets the strategy used by requests that do not name one.
func WithDefaultStrategy(s models.Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// NewEngine creates a search engine. Nil extractor, expander or cfg fall back to defaults.
func NewEngine(
	backend storage.Backend,
	extractor *terms.Extractor,
	expander *expansion.Engine,
	cfg *config.SearchConfig,
	opts ...Option,
) *Engine {
	if extractor == nil {
		extractor = terms.NewExtractor()
	}
	if expander == nil {
		expander = expansion.NewEngine(nil)
	}
	if cfg == nil {
		cfg = &config.Default().Search
	}
	e := &Engine{
		backend:   backend,
		extractor: extractor,
		expander:  expander,
		config:    cfg,
		strategy:  models.StrategyComprehensive,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backend returns the backend searches run against.
func (e *Engine) Backend() storage.Backend { return e.backend }

// DefaultStrategy returns the strategy used when a request names none.
func (e *Engine) DefaultStrategy() models.Strategy { return e.strategy }

// Search expands raw with strategy and returns up to limit results. A limit <= 0 uses the
// configured default and limits above the configured maximum are capped. Rejected queries and timeouts yield an empty response with Rejected
// set; only an unavailable backend is returned as an error.
func (e *Engine) Search(ctx context.Context, raw string, strategy models.Strategy, limit int) (*models.SearchResponse, error) {
	return e.search(ctx, raw, strategy, limit, "")
}

// Run validates req, applies defaults, and searches.
func (e *Engine) Run(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	if err := req.Validate(e.config.DefaultLimit, e.config.MaxLimit); err != nil {
		return nil, err
	}
	strategy := e.strategy
	if req.Strategy != nil {
		strategy = *req.Strategy
	}
	return e.search(ctx, req.Query, strategy, req.Limit, req.Column)
}

func (e *Engine) search(ctx context.Context, raw string, strategy models.Strategy, limit int, column string) (*models.SearchResponse, error) {
	start := time.Now()
	limit = models.ClampLimit(limit, e.config.DefaultLimit, e.config.MaxLimit)

	p := e.plan(raw, strategy)
	q := p.query(column, e.annotation())

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	results, err := e.backend.Search(ctx, q, limit)

	resp := &models.SearchResponse{
		Plan:    p.ExpansionPlan,
		Results: []*models.SearchResult{},
		Backend: e.backend.Name(),
	}
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
		if len(results) > 0 {
			resp.Results = results
		} else {
			outcome = metrics.OutcomeEmpty
		}
	case errors.Is(err, storage.ErrQueryRejected):
		outcome = metrics.OutcomeRejected
		resp.Rejected = true
		resp.RejectReason = err.Error()
		e.logger.Warn("query rejected by backend",
			zap.String("backend", e.backend.Name()),
			zap.String("match", p.Match),
			zap.Error(err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		outcome = metrics.OutcomeTimeout
		resp.Rejected = true
		resp.RejectReason = RejectReasonTimeout
		e.logger.Warn("search timed out",
			zap.String("backend", e.backend.Name()),
			zap.String("match", p.Match),
			zap.Error(err))
	default:
		metrics.ObserveSearch(e.backend.Name(), strategy.String(), metrics.OutcomeUnavailable, time.Since(start))
		return nil, fmt.Errorf("search failed: %w", err)
	}

	resp.Total = len(resp.Results)
	resp.QueryTime = time.Since(start).Milliseconds()
	metrics.ObserveSearch(e.backend.Name(), strategy.String(), outcome, time.Since(start))
	return resp, nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.Timeout > 0 {
		return context.WithTimeout(ctx, e.config.Timeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) annotation() storage.Annotation {
	return storage.Annotation{
		HighlightOpen:  e.config.HighlightOpen,
		HighlightClose: e.config.HighlightClose,
		SnippetOpen:    e.config.SnippetOpen,
		SnippetClose:   e.config.SnippetClose,
		Ellipsis:       e.config.SnippetEllipsis,
		SnippetTokens:  e.config.SnippetTokens,
	}
}
