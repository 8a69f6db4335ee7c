package expansion

import (
	"github.com/hyperjump/tansaku/internal/models"
)

// TableSource supplies the rule table to consult. *RuleSet and a fixed table both satisfy it.
type TableSource interface {
	Table() *RuleTable
}

// Table returns t itself so a RuleTable can be used as a fixed TableSource.
func (t *RuleTable) Table() *RuleTable { return t }

// Engine expands extracted terms according to a strategy.
type Engine struct {
	rules TableSource
}

// NewEngine returns an engine consulting rules (DefaultRules when nil).
func NewEngine(rules TableSource) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Expand returns the term texts to build a query from. Basic and Progressive pass texts through;
// Comprehensive appends related terms after each triggering term and deduplicates, keeping the
// first occurrence. An empty input yields an empty result.
func (e *Engine) Expand(terms []models.Term, strategy models.Strategy) []string {
	if len(terms) == 0 {
		return nil
	}
	texts := models.TermTexts(terms)
	if strategy != models.StrategyComprehensive {
		return texts
	}
	table := e.rules.Table()
	expanded := make([]string, 0, len(texts)*2)
	for _, text := range texts {
		expanded = append(expanded, text)
		expanded = table.Related(expanded, text)
	}
	return dedupe(expanded)
}

func dedupe(texts []string) []string {
	seen := make(map[string]bool, len(texts))
	out := texts[:0]
	for _, t := range texts {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
