package cliui

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/papercomputeco/ragdesk/pkg/answer"
	"github.com/papercomputeco/ragdesk/pkg/viewer"
)

// AnswerPrinter is an answer.Sink for the terminal. Chunks are written as
// they arrive, or buffered and rendered as markdown by Finish when render
// is set. Citations are printed by Finish.
type AnswerPrinter struct {
	w      io.Writer
	render bool
	width  int

	text      strings.Builder
	citations []answer.Citation
}

// NewAnswerPrinter creates an AnswerPrinter writing to w. width is the
// markdown wrap width.
func NewAnswerPrinter(w io.Writer, render bool, width int) *AnswerPrinter {
	return &AnswerPrinter{
		w:      w,
		render: render,
		width:  width,
	}
}

func (p *AnswerPrinter) OnAnswerChunk(text string) {
	p.text.WriteString(text)
	if !p.render {
		fmt.Fprint(p.w, text)
	}
}

func (p *AnswerPrinter) OnSourcesReady(sources []answer.Citation) {
	p.citations = slices.Clone(sources)
}

// Answer returns the answer text received so far.
func (p *AnswerPrinter) Answer() string {
	return p.text.String()
}

// Citations returns the citations received, if any.
func (p *AnswerPrinter) Citations() []answer.Citation {
	return p.citations
}

// Finish completes the answer output and prints the sources, resolving
// their page links through files. When the file lookup fails the sources
// are still printed, without links, and the lookup error is returned.
func (p *AnswerPrinter) Finish(ctx context.Context, files viewer.FileInfoer, documentID string) error {
	text := p.text.String()

	switch {
	case p.render && text != "":
		rendered, err := RenderMarkdown(text, p.width)
		if err != nil {
			rendered = text + "\n"
		}
		fmt.Fprint(p.w, rendered)
	case text != "" && !strings.HasSuffix(text, "\n"):
		fmt.Fprintln(p.w)
	}

	if len(p.citations) == 0 {
		return nil
	}

	links, err := viewer.Resolve(ctx, files, documentID, p.citations)
	if err != nil {
		links = make([]viewer.Link, 0, len(p.citations))
		for _, c := range p.citations {
			links = append(links, viewer.Link{Citation: c, Page: viewer.DisplayPage(c)})
		}
	}

	RenderSources(p.w, links)
	return err
}
