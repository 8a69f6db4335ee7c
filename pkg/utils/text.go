package utils

import (
	"strings"
	"unicode/utf8"
)

// Truncate returns s cut to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

// StripMarkers removes every occurrence of the given markers from s, turning annotated
// text back into plain text.
func StripMarkers(s string, markers ...string) string {
	pairs := make([]string, 0, len(markers)*2)
	for _, m := range markers {
		if m != "" {
			pairs = append(pairs, m, "")
		}
	}
	if len(pairs) == 0 {
		return s
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
