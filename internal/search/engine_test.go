package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/storage"
	"github.com/hyperjump/tansaku/internal/terms"
)

// fakeBackend records queries and returns canned answers.
type fakeBackend struct {
	results   []*models.SearchResult
	searchErr error
	countFn   func(q storage.Query) (int, error)
	block     bool
	queries   []storage.Query
	limits    []int
}

func (f *fakeBackend) Name() string { return "fake" }
func (f *fakeBackend) Index(context.Context, *models.Document) error { return nil }
func (f *fakeBackend) Get(_ context.Context, id string) (*models.Document, error) {
	return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
}
func (f *fakeBackend) Delete(context.Context, string) error    { return nil }
func (f *fakeBackend) DocCount(context.Context) (int64, error) { return 0, nil }
func (f *fakeBackend) Close() error                            { return nil }

func (f *fakeBackend) Search(ctx context.Context, q storage.Query, limit int) ([]*models.SearchResult, error) {
	f.queries = append(f.queries, q)
	f.limits = append(f.limits, limit)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.results, f.searchErr
}

func (f *fakeBackend) Count(_ context.Context, q storage.Query) (int, error) {
	f.queries = append(f.queries, q)
	if f.countFn == nil {
		return 0, nil
	}
	return f.countFn(q)
}

func newTestEngine(b storage.Backend, opts ...Option) *Engine {
	cfg := config.Default().Search
	x := terms.NewExtractor(terms.WithParticleBreaks(terms.DefaultParticles))
	return NewEngine(b, x, nil, &cfg, opts...)
}

func TestEngine_ExpandScenario(t *testing.T) {
	e := newTestEngine(&fakeBackend{})

	plan := e.Expand("データベース設計と機械学習の統合システム開発", models.StrategyComprehensive)
	assert.False(t, plan.Fallback)
	assert.Equal(t, []string{"データベース設計", "機械学習", "統合システム開発"}, models.TermTexts(plan.Terms))
	assert.Equal(t,
		"データベース設計 OR 情報 OR 統計 OR 機械学習 OR AI OR 人工知能 OR Python OR 統合システム開発 OR アーキテクチャ OR 設計 OR 開発",
		plan.Match)

	basic := e.Expand("データベース設計と機械学習の統合システム開発", models.StrategyBasic)
	assert.Equal(t, `"データベース設計" OR "機械学習" OR "統合システム開発"`, basic.Match)

	progressive := e.Expand("データベース設計と機械学習の統合システム開発", models.StrategyProgressive)
	assert.Equal(t, "データベース設計 OR 機械学習 OR 統合システム開発", progressive.Match)
}

func TestEngine_ExpandSingleTermProgressive(t *testing.T) {
	e := newTestEngine(&fakeBackend{})
	plan := e.Expand("機械学習", models.StrategyProgressive)
	assert.Equal(t, "機械学習", plan.Match)
	assert.Equal(t, []string{"機械学習"}, plan.Expanded)
}

func TestEngine_ExpandFallback(t *testing.T) {
	e := newTestEngine(&fakeBackend{})
	plan := e.Expand("a 1 。", models.StrategyComprehensive)
	assert.True(t, plan.Fallback)
	assert.Equal(t, "a 1 。", plan.Match)
	assert.Empty(t, plan.Terms)
	assert.NotNil(t, plan.Expanded)
}

func TestEngine_SearchPassesExpressionAndAnnotation(t *testing.T) {
	fb := &fakeBackend{results: []*models.SearchResult{{DocumentID: "2", Rank: 1, Score: -1.5}}}
	e := newTestEngine(fb)

	resp, err := e.Search(context.Background(), "機械学習", models.StrategyComprehensive, 0)
	require.NoError(t, err)
	require.Len(t, fb.queries, 1)

	q := fb.queries[0]
	assert.False(t, q.IsRaw())
	assert.Equal(t, "機械学習 OR AI OR 人工知能 OR Python", q.Expr.String())
	assert.Equal(t, "<mark>", q.Annotate.HighlightOpen)
	assert.Equal(t, "[", q.Annotate.SnippetOpen)
	assert.Equal(t, 15, q.Annotate.SnippetTokens)
	assert.Equal(t, 10, fb.limits[0])

	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "fake", resp.Backend)
	assert.False(t, resp.Rejected)
	assert.Equal(t, models.StrategyComprehensive, resp.Plan.Strategy)
}

func TestEngine_SearchRawFallback(t *testing.T) {
	fb := &fakeBackend{}
	e := newTestEngine(fb)

	resp, err := e.Search(context.Background(), "!!", models.StrategyBasic, 5)
	require.NoError(t, err)
	require.Len(t, fb.queries, 1)
	assert.True(t, fb.queries[0].IsRaw())
	assert.Equal(t, "!!", fb.queries[0].Raw)
	assert.True(t, resp.Plan.Fallback)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, 0, resp.Total)
}

func TestEngine_SearchRejectedYieldsEmptyResult(t *testing.T) {
	fb := &fakeBackend{searchErr: fmt.Errorf("%w: fts5: syntax error near \"\"", storage.ErrQueryRejected)}
	e := newTestEngine(fb)

	resp, err := e.Search(context.Background(), "データ", models.StrategyBasic, 10)
	require.NoError(t, err)
	assert.True(t, resp.Rejected)
	assert.Contains(t, resp.RejectReason, "syntax error")
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, 0, resp.Total)
}

func TestEngine_SearchUnavailableIsAnError(t *testing.T) {
	fb := &fakeBackend{searchErr: fmt.Errorf("%w: disk I/O error", storage.ErrBackendUnavailable)}
	e := newTestEngine(fb)

	resp, err := e.Search(context.Background(), "データ", models.StrategyBasic, 10)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
}

func TestEngine_SearchTimeout(t *testing.T) {
	cfg := config.Default().Search
	cfg.Timeout = 10 * time.Millisecond
	e := NewEngine(&fakeBackend{block: true}, nil, nil, &cfg)

	resp, err := e.Search(context.Background(), "データ", models.StrategyBasic, 10)
	require.NoError(t, err)
	assert.True(t, resp.Rejected)
	assert.Equal(t, RejectReasonTimeout, resp.RejectReason)
	assert.Empty(t, resp.Results)
}

func TestEngine_Run(t *testing.T) {
	fb := &fakeBackend{}
	e := newTestEngine(fb, WithDefaultStrategy(models.StrategyBasic))

	_, err := e.Run(context.Background(), &models.SearchRequest{})
	assert.Error(t, err)
	_, err = e.Run(context.Background(), &models.SearchRequest{Query: "x", Column: "body"})
	assert.Error(t, err)
	assert.Empty(t, fb.queries)

	resp, err := e.Run(context.Background(), &models.SearchRequest{Query: "機械学習", Limit: 500, Column: "title"})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyBasic, resp.Plan.Strategy)
	assert.Equal(t, 100, fb.limits[0])
	assert.Equal(t, "title", fb.queries[0].Column)

	progressive := models.StrategyProgressive
	resp, err = e.Run(context.Background(), &models.SearchRequest{Query: "機械学習", Strategy: &progressive})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyProgressive, resp.Plan.Strategy)
	assert.Equal(t, 10, fb.limits[1])
}

func TestEngine_Compare(t *testing.T) {
	fb := &fakeBackend{countFn: func(q storage.Query) (int, error) {
		if q.IsRaw() {
			return 0, nil
		}
		return 3, nil
	}}
	e := newTestEngine(fb)

	report := e.Compare(context.Background(), "機械学習")
	assert.Equal(t, "機械学習", report.Query)
	assert.Equal(t, "機械学習 OR AI OR 人工知能 OR Python", report.ExpandedQuery)
	assert.Equal(t, 0, report.OriginalHits)
	assert.Equal(t, 3, report.ExpandedHits)
	assert.Equal(t, 3, report.Improvement)
	assert.InDelta(t, 3.0, report.ImprovementRatio, 1e-9)
}

func TestEngine_CompareCountsFailuresAsZero(t *testing.T) {
	fb := &fakeBackend{countFn: func(q storage.Query) (int, error) {
		if q.IsRaw() {
			return 0, fmt.Errorf("%w: fts5: syntax error", storage.ErrQueryRejected)
		}
		return 0, fmt.Errorf("%w: gone", storage.ErrBackendUnavailable)
	}}
	e := newTestEngine(fb)

	report := e.Compare(context.Background(), "データベース設計の方法")
	assert.Equal(t, 0, report.OriginalHits)
	assert.Equal(t, 0, report.ExpandedHits)
	assert.Equal(t, 0, report.Improvement)
	assert.Zero(t, report.ImprovementRatio)
}

func TestEngine_CompareStrategies(t *testing.T) {
	fb := &fakeBackend{}
	e := newTestEngine(fb)

	resps, err := e.CompareStrategies(context.Background(), "データベース設計と機械学習の統合システム開発", 3)
	require.NoError(t, err)
	require.Len(t, resps, 3)
	for i, s := range models.Strategies {
		assert.Equal(t, s, resps[i].Plan.Strategy)
	}
	assert.Equal(t, []int{3, 3, 3}, fb.limits)

	fb.searchErr = fmt.Errorf("%w: closed", storage.ErrBackendUnavailable)
	_, err = e.CompareStrategies(context.Background(), "データ", 3)
	assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
}

func TestEngine_LimitsAreClampedToConfig(t *testing.T) {
	fb := &fakeBackend{}
	e := newTestEngine(fb)
	cfg := config.Default().Search

	_, err := e.CompareStrategies(context.Background(), "機械学習", 10000)
	require.NoError(t, err)
	assert.Equal(t, []int{cfg.MaxLimit, cfg.MaxLimit, cfg.MaxLimit}, fb.limits)

	fb.limits = nil
	_, err = e.Search(context.Background(), "機械学習", models.StrategyBasic, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{cfg.DefaultLimit}, fb.limits)
}

func TestEngine_RunRejectsInvalidRequest(t *testing.T) {
	fb := &fakeBackend{}
	e := newTestEngine(fb)

	_, err := e.Run(context.Background(), &models.SearchRequest{Query: ""})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
	_, err = e.Run(context.Background(), &models.SearchRequest{Query: "x", Column: "id"})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
	assert.Empty(t, fb.queries)
}
