package indexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxTitleRunes bounds titles derived from content.
const maxTitleRunes = 60

// Preprocess trims text and collapses each whitespace run, including ideographic spaces,
// into a single ASCII space.
func Preprocess(text string) string {
	return strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
}

// DeriveTitle returns the first non-empty line of content, cut to maxTitleRunes.
func DeriveTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxTitleRunes {
			return string([]rune(line)[:maxTitleRunes])
		}
		return line
	}
	return ""
}
