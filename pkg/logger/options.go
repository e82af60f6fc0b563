package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Option configures a Logger created with New.
type Option func(*config)

// Format selects the handler New builds.
type Format int

const (
	// FormatText is slog's key=value text format.
	FormatText Format = iota

	// FormatPretty is the colorized charmbracelet/log output of the CLI.
	FormatPretty

	// FormatJSON writes one object per record, for log files and collectors.
	FormatJSON
)

var formatNames = map[Format]string{
	FormatText:   "text",
	FormatPretty: "pretty",
	FormatJSON:   "json",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat maps a --log-format value to a Format. Matching ignores case.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return f, nil
		}
	}
	return FormatText, fmt.Errorf("unknown log format %q (want text, pretty or json)", s)
}

// WithDebug sets the log level to Debug when true, Info otherwise.
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = slog.LevelDebug
		} else {
			c.level = slog.LevelInfo
		}
	}
}

// WithFormat picks the output format. The last WithFormat wins.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithWriter sends output to w alone. A nil w leaves the writers unchanged.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.writers = []io.Writer{w}
		}
	}
}

// WithWriters sends output to every non-nil writer in ws.
func WithWriters(ws ...io.Writer) Option {
	return func(c *config) {
		c.writers = c.writers[:0:0]
		for _, w := range ws {
			if w != nil {
				c.writers = append(c.writers, w)
			}
		}
	}
}

// WithSource includes source file:line in log output.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}
