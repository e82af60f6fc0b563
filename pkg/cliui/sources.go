package cliui

import (
	"fmt"
	"io"

	"github.com/papercomputeco/ragdesk/pkg/utils"
	"github.com/papercomputeco/ragdesk/pkg/viewer"
)

const excerptWidth = 96

// RenderSources writes a numbered list of citation links:
//
//	[1] p. 3  excerpt text...
//	    https://host/files/abc#page=3
func RenderSources(w io.Writer, links []viewer.Link) {
	if len(links) == 0 {
		return
	}

	fmt.Fprintf(w, "\n  %s\n", HeaderStyle.Render("Sources"))
	for i, l := range links {
		fmt.Fprintf(w, "  %s %s  %s\n",
			KeyStyle.Render(fmt.Sprintf("[%d]", i+1)),
			NameStyle.Render(fmt.Sprintf("p. %d", l.Page)),
			ValueStyle.Render(utils.Truncate(utils.SingleLine(l.Citation.Text), excerptWidth)),
		)
		if l.URL != "" {
			fmt.Fprintf(w, "      %s\n", DimStyle.Render(l.URL))
		}
	}
	fmt.Fprintln(w)
}

// RenderPairs writes aligned key/value rows, rendering empty values as
// <not set>.
func RenderPairs(w io.Writer, keys []string, value func(key string) string) {
	maxLen := 0
	for _, k := range keys {
		maxLen = max(maxLen, len(k))
	}

	for _, k := range keys {
		v := value(k)
		if v == "" {
			fmt.Fprintf(w, "  %s  %s\n", KeyStyle.Render(fmt.Sprintf("%-*s", maxLen, k)), DimStyle.Render("<not set>"))
			continue
		}
		fmt.Fprintf(w, "  %s  %s\n", KeyStyle.Render(fmt.Sprintf("%-*s", maxLen, k)), ValueStyle.Render(v))
	}
}
