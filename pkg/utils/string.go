package utils

import "strings"

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// SingleLine collapses every run of whitespace in s into a single space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
