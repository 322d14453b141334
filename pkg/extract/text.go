package extract

import "strings"

// Ellipsis marks truncated content.
const Ellipsis = "..."

// Clean collapses every whitespace run, line breaks included, to a single
// space and trims the ends.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns s unchanged when it has at most n runes, otherwise the
// first n runes followed by Ellipsis.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + Ellipsis
		}
		count++
	}
	return s
}
