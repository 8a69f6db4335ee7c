package search

import (
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/metrics"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/query"
	"github.com/hyperjump/tansaku/internal/storage"
)

// plan pairs the public expansion plan with the expression it was serialised from.
type plan struct {
	*models.ExpansionPlan
	expr query.Node
}

func (p *plan) query(column string, a storage.Annotation) storage.Query {
	q := storage.Query{Expr: p.expr, Column: column, Annotate: a}
	if p.expr == nil {
		q.Raw = p.Query
	}
	return q
}

// Expand extracts terms from raw, expands them and builds the boolean expression, without
// touching the backend. When nothing can be extracted the plan falls back to raw.
func (e *Engine) Expand(raw string, strategy models.Strategy) *models.ExpansionPlan {
	return e.plan(raw, strategy).ExpansionPlan
}

func (e *Engine) plan(raw string, strategy models.Strategy) *plan {
	extracted := e.extractor.Extract(raw)
	expanded := e.expander.Expand(extracted, strategy)
	expr, ok := query.Build(expanded, strategy)

	p := &plan{
		ExpansionPlan: &models.ExpansionPlan{
			Query:    raw,
			Strategy: strategy,
			Terms:    extracted,
			Expanded: expanded,
		},
	}
	if ok {
		p.expr = expr
		p.Match = query.FTS5(expr)
	} else {
		p.Match = raw
		p.Fallback = true
	}
	if p.Terms == nil {
		p.Terms = []models.Term{}
	}
	if p.Expanded == nil {
		p.Expanded = []string{}
	}

	metrics.ObserveExpansion(strategy.String(), len(expanded))
	e.logger.Debug("query expanded",
		zap.String("query", raw),
		zap.Stringer("strategy", strategy),
		zap.Strings("terms", models.TermTexts(extracted)),
		zap.Strings("expanded", expanded),
		zap.String("match", p.Match),
		zap.Bool("fallback", p.Fallback))
	return p
}
