// Package sse provides a minimal, purpose-built reader for the line-framed
// server-sent-event style stream returned by the document query endpoint.
//
// The upstream service writes one "data: <json>" message per line over a
// chunked HTTP body. Chunk boundaries are chosen by the transport, so a
// single read can end in the middle of a line or in the middle of a
// multi-byte UTF-8 sequence. LineReader hides both.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultChunkSize = 4 * 1024

// LineReader reads raw bytes from a source io.Reader one chunk at a time,
// decodes them as UTF-8 and yields every line the chunk completed.
//
// ┌──────────────────┐
// │ source io.Reader │  arbitrary byte chunks
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │  UTF-8 decoder   │  holds incomplete sequences until the next chunk
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │ LineReader.Next  │  holds the trailing partial line
// └──────────────────┘
// │
// ▼
// []string complete lines
type LineReader struct {
	src io.Reader
	buf []byte

	// partial is the decoded tail of the stream that has not yet been
	// terminated by a newline.
	partial strings.Builder
	done    bool
}

// LineReaderOption configures a LineReader.
type LineReaderOption func(*LineReader)

// WithChunkSize sets the maximum number of bytes consumed by a single Next
// call. Values below 1 fall back to the default.
func WithChunkSize(n int) LineReaderOption {
	return func(r *LineReader) {
		if n > 0 {
			r.buf = make([]byte, n)
		}
	}
}

// NewLineReader returns a LineReader over src.
//
// The decoder is stateful: a multi-byte sequence split across two reads is
// emitted once, whole, after the second read. Only sequences that are
// actually invalid (or still incomplete when the source ends) are replaced
// with U+FFFD.
func NewLineReader(src io.Reader, opts ...LineReaderOption) *LineReader {
	r := &LineReader{
		src: transform.NewReader(src, unicode.UTF8.NewDecoder()),
		buf: make([]byte, defaultChunkSize),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Next performs a single read against the source and returns the lines that
// read completed, with their "\n" or "\r\n" terminators removed. It may
// return zero lines when the chunk did not finish one.
//
// When the source is exhausted Next returns any unterminated trailing line
// together with io.EOF. Every later call returns nil, io.EOF.
func (r *LineReader) Next() ([]string, error) {
	if r.done {
		return nil, io.EOF
	}

	n, err := r.src.Read(r.buf)

	var lines []string
	if n > 0 {
		lines = r.split(r.buf[:n])
	}

	if err != nil {
		if !errors.Is(err, io.EOF) {
			return lines, err
		}

		r.done = true
		if r.partial.Len() > 0 {
			lines = append(lines, strings.TrimSuffix(r.partial.String(), "\r"))
			r.partial.Reset()
		}
		return lines, io.EOF
	}

	return lines, nil
}

// split appends decoded bytes to the partial line and cuts off every line
// terminated within them. The decoder only emits whole runes, and '\n' is
// never part of a multi-byte sequence, so cutting on the byte is safe.
func (r *LineReader) split(p []byte) []string {
	var lines []string

	for {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			r.partial.Write(p)
			return lines
		}

		r.partial.Write(p[:i])
		lines = append(lines, strings.TrimSuffix(r.partial.String(), "\r"))
		r.partial.Reset()
		p = p[i+1:]
	}
}

// ParseField splits a single SSE line into its field name and value.
//
// Per the SSE spec, a line has the form "field:value" where the first
// space after the colon is optional and stripped if present. A line with
// no colon is a field name with an empty value, and a comment line
// (leading ':') yields an empty field name.
func ParseField(line string) (field, value string) {
	before, after, ok := strings.Cut(line, ":")
	if !ok {
		return line, ""
	}

	return before, strings.TrimPrefix(after, " ")
}
