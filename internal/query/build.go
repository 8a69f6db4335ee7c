package query

import "github.com/hyperjump/tansaku/internal/models"

// ProgressiveCoreSize is the number of leading terms ANDed together in a long progressive query.
const ProgressiveCoreSize = 3

// Build groups texts according to strategy. ok is false when texts is empty; the caller must
// then send the raw query text unchanged.
func Build(texts []string, strategy models.Strategy) (Node, bool) {
	if len(texts) == 0 {
		return nil, false
	}
	switch strategy {
	case models.StrategyBasic:
		return NewGroup(Or, literals(texts, true)...), true
	case models.StrategyProgressive:
		return buildProgressive(texts), true
	default:
		return NewGroup(Or, literals(texts, false)...), true
	}
}

// buildProgressive ANDs short queries, ORs medium ones, and for longer ones ORs an AND of the
// first terms with an OR of the rest.
func buildProgressive(texts []string) Node {
	n := len(texts)
	switch {
	case n <= 2:
		return NewGroup(And, literals(texts, false)...)
	case n <= 4:
		return NewGroup(Or, literals(texts, false)...)
	}
	core := NewGroup(And, literals(texts[:ProgressiveCoreSize], false)...)
	rest := texts[ProgressiveCoreSize:]
	if len(rest) == 0 {
		return core
	}
	return NewGroup(Or, core, NewGroup(Or, literals(rest, false)...))
}

func literals(texts []string, phrase bool) []Node {
	out := make([]Node, len(texts))
	for i, t := range texts {
		out[i] = &Literal{Text: t, Phrase: phrase}
	}
	return out
}
