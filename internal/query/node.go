// Package query builds boolean query expressions from term lists and serializes them for
// full-text backends.
package query

import "strings"

// Op is a group operator.
type Op int

const (
	And Op = iota
	Or
)

func (o Op) String() string {
	if o == And {
		return "AND"
	}
	return "OR"
}

// Node is a query expression node: *Literal or *Group.
type Node interface {
	node()
	String() string
}

// Literal is a single term. Phrase literals match the exact token sequence; Prefix literals
// match any token starting with Text.
type Literal struct {
	Text   string
	Phrase bool
	Prefix bool
}

// Group combines children with one operator. Groups always have at least one child.
type Group struct {
	Op       Op
	Children []Node
}

func (*Literal) node() {}
func (*Group) node()   {}

func (l *Literal) String() string { return FTS5(l) }
func (g *Group) String() string   { return FTS5(g) }

// NewGroup returns a group of children, or nil when children is empty.
func NewGroup(op Op, children ...Node) *Group {
	if len(children) == 0 {
		return nil
	}
	return &Group{Op: op, Children: children}
}

// Walk calls fn for n and every descendant, depth-first in child order.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	if g, ok := n.(*Group); ok {
		for _, c := range g.Children {
			Walk(c, fn)
		}
	}
}

// Leaves returns the literal texts of n in order.
func Leaves(n Node) []string {
	var out []string
	Walk(n, func(n Node) {
		if l, ok := n.(*Literal); ok {
			out = append(out, l.Text)
		}
	})
	return out
}

// quote renders text as an FTS5 string, doubling embedded double quotes.
func quote(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}
