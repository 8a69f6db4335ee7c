package query

import "strings"

// FTS5 renders n in SQLite FTS5 MATCH syntax. Phrase literals are quoted, bare literals are
// written as-is unless they are an FTS5 keyword or contain a character outside the bareword
// set, prefix literals get a trailing "*". Nested groups are parenthesized; a group
// with one child renders as that child.
func FTS5(n Node) string {
	var b strings.Builder
	writeFTS5(&b, n, false)
	return b.String()
}

// Scoped renders n restricted to column using an FTS5 column filter. An empty column renders
// n unscoped.
func Scoped(column string, n Node) string {
	if column == "" {
		return FTS5(n)
	}
	var b strings.Builder
	b.WriteString(column)
	b.WriteString(" : (")
	writeFTS5(&b, n, false)
	b.WriteByte(')')
	return b.String()
}

func writeFTS5(b *strings.Builder, n Node, nested bool) {
	switch v := n.(type) {
	case *Literal:
		if v.Phrase || !bareword(v.Text) {
			b.WriteString(quote(v.Text))
		} else {
			b.WriteString(v.Text)
		}
		if v.Prefix {
			b.WriteByte('*')
		}
	case *Group:
		if len(v.Children) == 1 {
			writeFTS5(b, v.Children[0], nested)
			return
		}
		if nested {
			b.WriteByte('(')
		}
		sep := " " + v.Op.String() + " "
		for i, c := range v.Children {
			if i > 0 {
				b.WriteString(sep)
			}
			writeFTS5(b, c, true)
		}
		if nested {
			b.WriteByte(')')
		}
	}
}

// fts5Keywords are the barewords FTS5 parses as operators. Matching is case-sensitive.
var fts5Keywords = map[string]bool{"AND": true, "OR": true, "NOT": true, "NEAR": true}

// bareword reports whether text can be written unquoted: non-empty, not a keyword, and made
// only of ASCII letters, digits, "_", U+001A or non-ASCII characters.
func bareword(text string) bool {
	if text == "" || fts5Keywords[text] {
		return false
	}
	for _, r := range text {
		switch {
		case r >= 0x80, r == '_', r == 0x1A:
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
