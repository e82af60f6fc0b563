package api

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
)

const excerptRadius = 160

// match is a page that shares terms with a query.
type match struct {
	page    int
	score   int
	excerpt string
}

// terms splits a query into lowercase words of three letters or more.
func terms(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(words))
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// rank scores pages by how often they contain the query terms and returns
// at most limit matches, best first. Ties keep page order.
func rank(pages []string, query string, limit int) []match {
	qt := terms(query)
	if len(qt) == 0 {
		return nil
	}

	var matches []match
	for i, text := range pages {
		lower := strings.ToLower(text)

		score, first := 0, -1
		for _, t := range qt {
			n := strings.Count(lower, t)
			if n == 0 {
				continue
			}
			score += n
			if at := strings.Index(lower, t); first < 0 || at < first {
				first = at
			}
		}
		if score == 0 {
			continue
		}

		matches = append(matches, match{
			page:    i + 1,
			score:   score,
			excerpt: excerpt(text, first),
		})
	}

	slices.SortStableFunc(matches, func(a, b match) int {
		return cmp.Compare(b.score, a.score)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// excerpt cuts a window of text around byte offset at, on word boundaries.
func excerpt(text string, at int) string {
	at = min(max(at, 0), len(text))
	start := max(at-excerptRadius, 0)
	end := min(at+excerptRadius, len(text))

	if start > 0 {
		if i := strings.IndexByte(text[start:at], ' '); i >= 0 {
			start += i + 1
		}
	}
	if end < len(text) {
		if i := strings.LastIndexByte(text[at:end], ' '); i > 0 {
			end = at + i
		}
	}

	out := strings.TrimSpace(text[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}
