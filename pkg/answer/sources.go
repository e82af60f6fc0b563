package answer

import (
	"strconv"
	"strings"
)

const (
	labelSource = "Source "
	labelPage   = "Page "
)

// findLabels returns the byte offset of every "Source <N> (Page <M>):"
// label in s, in order.
func findLabels(s string) []int {
	var offsets []int

	for from := 0; from < len(s); {
		i := strings.Index(s[from:], labelSource)
		if i < 0 {
			break
		}

		at := from + i
		if n := matchLabel(s[at:]); n > 0 {
			offsets = append(offsets, at)
			from = at + n
			continue
		}
		from = at + len(labelSource)
	}

	return offsets
}

// matchLabel returns the length of the "Source <N> (Page <M>):" label at the
// start of s, or 0 if s does not start with one.
func matchLabel(s string) int {
	rest, ok := strings.CutPrefix(s, labelSource)
	if !ok {
		return 0
	}

	if rest, ok = cutDigits(rest); !ok {
		return 0
	}
	if rest, ok = strings.CutPrefix(rest, " ("+labelPage); !ok {
		return 0
	}
	if rest, ok = cutDigits(rest); !ok {
		return 0
	}
	if rest, ok = strings.CutPrefix(rest, "):"); !ok {
		return 0
	}

	return len(s) - len(rest)
}

// cutDigits strips a non-empty run of ASCII digits from the front of s.
func cutDigits(s string) (string, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[i:], i > 0
}

// pageNumber returns the number following the first "Page " in s that is
// followed by digits, or 0 if there is none.
func pageNumber(s string) int {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], labelPage)
		if i < 0 {
			return 0
		}

		start := from + i + len(labelPage)
		rest, ok := cutDigits(s[start:])
		if ok {
			n, err := strconv.Atoi(s[start : len(s)-len(rest)])
			if err != nil {
				return 0
			}
			return n
		}
		from = start
	}

	return 0
}

// parseRecord turns the accumulated text of one source record into a
// Citation. A leading label is stripped from the excerpt.
func parseRecord(raw string) Citation {
	text := strings.TrimLeft(raw, " \t\r\n")
	if n := matchLabel(text); n > 0 {
		text = text[n:]
	}

	return Citation{
		Text: strings.TrimSpace(text),
		Page: pageNumber(raw),
	}
}
