package api

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor returns the plain text of every page of a document, in page
// order.
type Extractor func(path string) ([]string, error)

// extractPDF reads page text with ledongthuc/pdf. Pages without extractable
// text yield an empty entry so page numbers stay aligned.
func extractPDF(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]string, r.NumPage())
	for i := range pages {
		p := r.Page(i + 1)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("reading page %d of %s: %w", i+1, path, err)
		}
		pages[i] = strings.Join(strings.Fields(text), " ")
	}

	return pages, nil
}
