// Package expansion broadens extracted terms with related terms from an ordered rule table.
package expansion

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Rule associates a trigger substring with related terms.
type Rule struct {
	Trigger string   `yaml:"trigger" json:"trigger"`
	Related []string `yaml:"related" json:"related"`
}

// RuleTable is an ordered, read-only list of rules. Tables are never modified after
// construction; build a new one to change rules.
type RuleTable struct {
	rules []Rule
}

// NewRuleTable copies rules into a new table. Rules with an empty trigger are rejected.
func NewRuleTable(rules []Rule) (*RuleTable, error) {
	copied := make([]Rule, 0, len(rules))
	for i, r := range rules {
		trigger := strings.TrimSpace(r.Trigger)
		if trigger == "" {
			return nil, fmt.Errorf("rule %d: trigger cannot be empty", i)
		}
		related := make([]string, 0, len(r.Related))
		for _, term := range r.Related {
			if term = strings.TrimSpace(term); term != "" {
				related = append(related, term)
			}
		}
		copied = append(copied, Rule{Trigger: trigger, Related: related})
	}
	return &RuleTable{rules: copied}, nil
}

// DefaultRules returns the built-in illustrative table.
func DefaultRules() *RuleTable {
	return &RuleTable{rules: []Rule{
		{Trigger: "データ", Related: []string{"情報", "統計"}},
		{Trigger: "機械学習", Related: []string{"AI", "人工知能", "Python"}},
		{Trigger: "システム", Related: []string{"アーキテクチャ", "設計", "開発"}},
	}}
}

// Len returns the number of rules.
func (t *RuleTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Rules returns a copy of the rules in table order.
func (t *RuleTable) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = Rule{Trigger: r.Trigger, Related: append([]string(nil), r.Related...)}
	}
	return out
}

// Related appends to dst the related terms of every rule whose trigger occurs in text.
func (t *RuleTable) Related(dst []string, text string) []string {
	if t == nil {
		return dst
	}
	for _, r := range t.rules {
		if strings.Contains(text, r.Trigger) {
			dst = append(dst, r.Related...)
		}
	}
	return dst
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRules parses a YAML rule document of the form:
//
//	rules:
//	  - trigger: データ
//	    related: [情報, 統計]
func ParseRules(data []byte) (*RuleTable, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return NewRuleTable(f.Rules)
}

// LoadRules reads and parses the YAML rule file at path.
func LoadRules(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return ParseRules(data)
}

// RuleSet holds the current table. Replacing the table is atomic; readers always see a
// complete, immutable table.
type RuleSet struct {
	current atomic.Pointer[RuleTable]
}

// NewRuleSet returns a RuleSet holding table (DefaultRules when nil).
func NewRuleSet(table *RuleTable) *RuleSet {
	if table == nil {
		table = DefaultRules()
	}
	rs := &RuleSet{}
	rs.current.Store(table)
	return rs
}

// Table returns the current table.
func (rs *RuleSet) Table() *RuleTable {
	return rs.current.Load()
}

// Replace swaps in table. A nil table is ignored.
func (rs *RuleSet) Replace(table *RuleTable) {
	if table != nil {
		rs.current.Store(table)
	}
}

// Reload loads path and swaps it in. On error the current table is kept.
func (rs *RuleSet) Reload(path string) error {
	table, err := LoadRules(path)
	if err != nil {
		return err
	}
	rs.Replace(table)
	return nil
}
