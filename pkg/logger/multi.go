package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Multi returns a logger that hands each record to every non-nil logger in
// loggers. A failing handler does not stop the others; their errors are
// joined.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	handlers := make([]slog.Handler, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			handlers = append(handlers, l.Handler())
		}
	}
	return slog.New(fanout(handlers))
}

// Tee keeps base and also appends JSON records to the file at path,
// creating it and its parent directory when missing. opts configure the
// file logger; its format is always JSON. The returned func closes the file.
func Tee(base *slog.Logger, path string, opts ...Option) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	fileLogger := New(append(opts, WithFormat(FormatJSON), WithWriter(f))...)
	return Multi(base, fileLogger), f.Close, nil
}

type fanout []slog.Handler

func (hs fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (hs fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		// Handlers may retain attrs, so each gets its own copy.
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (hs fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(hs))
	for i, h := range hs {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (hs fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(hs))
	for i, h := range hs {
		out[i] = h.WithGroup(name)
	}
	return out
}
