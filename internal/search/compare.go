package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/metrics"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/storage"
)

// Compare counts hits for raw as typed and for its comprehensive expansion. A count that
// fails for any reason is reported as 0, so Compare never fails.
func (e *Engine) Compare(ctx context.Context, raw string) *models.ComparisonReport {
	original := e.count(ctx, storage.Query{Raw: raw})

	p := e.plan(raw, models.StrategyComprehensive)
	expanded := e.count(ctx, p.query("", storage.Annotation{}))

	metrics.ComparisonsTotal.Inc()
	return models.NewComparisonReport(raw, p.Match, original, expanded)
}

func (e *Engine) count(ctx context.Context, q storage.Query) int {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	n, err := e.backend.Count(ctx, q)
	if err != nil {
		e.logger.Debug("count failed, reporting 0",
			zap.String("backend", e.backend.Name()),
			zap.Bool("raw", q.IsRaw()),
			zap.Error(err))
		return 0
	}
	return n
}

// CompareStrategies searches raw once per strategy, in declaration order.
func (e *Engine) CompareStrategies(ctx context.Context, raw string, limit int) ([]*models.SearchResponse, error) {
	out := make([]*models.SearchResponse, 0, len(models.Strategies))
	for _, s := range models.Strategies {
		resp, err := e.Search(ctx, raw, s, limit)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", s, err)
		}
		out = append(out, resp)
	}
	return out, nil
}
