package models

import (
	"fmt"
	"strings"
)

// Strategy selects how extracted terms are broadened and grouped into a boolean query.
type Strategy int

const (
	// StrategyBasic ORs every extracted term as an exact phrase.
	StrategyBasic Strategy = iota
	// StrategyComprehensive adds related terms from the rule table and ORs bare terms.
	StrategyComprehensive
	// StrategyProgressive tiers AND/OR grouping by the number of terms.
	StrategyProgressive
)

// Strategies lists every strategy in declaration order.
var Strategies = []Strategy{StrategyBasic, StrategyComprehensive, StrategyProgressive}

func (s Strategy) String() string {
	switch s {
	case StrategyBasic:
		return "basic"
	case StrategyComprehensive:
		return "comprehensive"
	case StrategyProgressive:
		return "progressive"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy parses a strategy name, case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "basic":
		return StrategyBasic, nil
	case "comprehensive":
		return StrategyComprehensive, nil
	case "progressive":
		return StrategyProgressive, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (want basic, comprehensive, or progressive)", name)
	}
}

// MarshalText implements encoding.TextMarshaler so strategies encode by name in JSON and YAML.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
