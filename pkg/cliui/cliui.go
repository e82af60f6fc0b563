// Package cliui holds the terminal presentation shared by ragdesk commands:
// styles, step indicators, the streamed answer printer, citation lists and
// markdown rendering.
package cliui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	NameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	HeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true).Underline(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const spinnerInterval = 80 * time.Millisecond

// Step runs fn and then prints msg on w behind a ✓ or ✗ with the elapsed
// time. On a terminal a spinner stands in for the mark while fn runs; other
// writers get only the final line, so redirected output carries no \r frames.
func Step(w io.Writer, msg string, fn func() error) error {
	var stop func()
	if IsTerminal(w) {
		stop = spin(w, msg)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	prefix := ""
	if stop != nil {
		stop()
		prefix = "\r"
	}
	fmt.Fprintf(w, "%s  %s %s %s\n",
		prefix,
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)

	return err
}

// spin animates frames in front of msg until the returned func is called.
// The func returns after the last frame is written.
func spin(w io.Writer, msg string) func() {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			fmt.Fprintf(w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), msg)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// RenderMarkdown renders an answer for the terminal, wrapped at width
// columns (80 when width is not positive). On failure the content is
// returned unchanged alongside the error.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
