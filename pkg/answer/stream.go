package answer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/papercomputeco/ragdesk/pkg/logger"
	"github.com/papercomputeco/ragdesk/pkg/sse"
)

// QueryStream holds the parse state of a single query response. It is
// driven by one goroutine and must not be reused for a second response.
type QueryStream struct {
	sink      Sink
	logger    *slog.Logger
	chunkSize int

	phase   Phase
	pending strings.Builder
	sources []Citation

	// finished is set once the stream reached a terminal event, either an
	// explicit done payload or the end of the body.
	finished bool

	// ctx is the context of the Run in progress. It is read only by the
	// driving goroutine.
	ctx context.Context

	// abandoned is the only field touched from outside the driving
	// goroutine.
	abandoned atomic.Bool
}

// Option configures a QueryStream.
type Option func(*QueryStream)

// WithLogger sets the logger used for skipped lines and records.
func WithLogger(l *slog.Logger) Option {
	return func(s *QueryStream) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChunkSize bounds the number of bytes consumed per read.
func WithChunkSize(n int) Option {
	return func(s *QueryStream) {
		s.chunkSize = n
	}
}

// NewQueryStream creates a QueryStream that reports to sink. A nil sink
// parses without reporting.
func NewQueryStream(sink Sink, opts ...Option) *QueryStream {
	s := &QueryStream{
		sink:   sink,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Phase returns the section currently being parsed.
func (s *QueryStream) Phase() Phase {
	return s.phase
}

// Sources returns a copy of the citations finalized so far.
func (s *QueryStream) Sources() []Citation {
	return slices.Clone(s.sources)
}

// Finished reports whether the stream reached its terminal event.
func (s *QueryStream) Finished() bool {
	return s.finished
}

// Abandon stops all further sink calls. It is safe to call from any
// goroutine. A Run in progress returns at its next check.
func (s *QueryStream) Abandon() {
	s.abandoned.Store(true)
}

// Abandoned reports whether Abandon was called.
func (s *QueryStream) Abandoned() bool {
	return s.abandoned.Load()
}

// stopped reports whether sink calls must stop: the stream was abandoned or
// the context of the current Run is done. It does not wait for the
// AfterFunc registered by Run, so a cancel issued from inside a sink call
// takes effect before the next one.
func (s *QueryStream) stopped() bool {
	if s.abandoned.Load() {
		return true
	}
	if s.ctx != nil && s.ctx.Err() != nil {
		s.Abandon()
		return true
	}
	return false
}

// Run consumes body until it is exhausted, a done payload arrives, ctx is
// done or the stream is abandoned.
//
// When ctx is done the stream is abandoned and, if body is an io.Closer, the
// body is closed to release a blocked read. In that case Run returns
// ctx.Err() and the read failure caused by the close is discarded.
// Transport failures are returned as *ReadError.
func (s *QueryStream) Run(ctx context.Context, body io.Reader) error {
	if body == nil {
		return ErrNilBody
	}
	if err := ctx.Err(); err != nil {
		s.Abandon()
		return err
	}
	s.ctx = ctx

	stop := context.AfterFunc(ctx, func() {
		s.Abandon()
		if c, ok := body.(io.Closer); ok {
			_ = c.Close()
		}
	})
	defer stop()

	lr := sse.NewLineReader(body, sse.WithChunkSize(s.chunkSize))

	for {
		if s.stopped() {
			return s.abandonErr(ctx)
		}

		lines, err := lr.Next()
		for _, line := range lines {
			if s.stopped() {
				return s.abandonErr(ctx)
			}
			s.HandleLine(line)
		}

		if s.stopped() {
			return s.abandonErr(ctx)
		}
		if s.finished {
			return nil
		}

		if err != nil {
			if s.stopped() {
				return s.abandonErr(ctx)
			}
			if errors.Is(err, io.EOF) {
				s.Finish()
				if s.stopped() {
					return s.abandonErr(ctx)
				}
				return nil
			}
			return &ReadError{Err: err}
		}
	}
}

func (s *QueryStream) abandonErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrAbandoned
}

// HandleLine processes one complete protocol line. Lines that are not data
// lines, or whose payload cannot be decoded, are logged and skipped. Lines
// after the terminal event are ignored.
func (s *QueryStream) HandleLine(line string) {
	if s.finished || strings.TrimSpace(line) == "" {
		return
	}

	field, value := sse.ParseField(line)
	if field != dataField {
		s.logger.Debug("skipping non-data line", "line", line)
		return
	}

	var p payload
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		s.logger.Debug("skipping malformed data line",
			"error", err,
			"line", line,
		)
		return
	}

	if p.Chunk == nil && !p.Done {
		s.logger.Debug("skipping unrecognized payload", "line", line)
		return
	}

	if p.Chunk != nil {
		s.handleChunk(*p.Chunk)
	}

	if p.Done {
		s.Finish()
	}
}

// Finish finalizes the stream: the pending record is flushed and, when at
// least one citation was parsed, the sink receives them. Calling Finish
// more than once has no further effect.
func (s *QueryStream) Finish() {
	if s.finished {
		return
	}
	s.finished = true

	s.flush()

	if len(s.sources) == 0 || s.sink == nil || s.stopped() {
		return
	}
	s.sink.OnSourcesReady(slices.Clone(s.sources))
}

func (s *QueryStream) handleChunk(text string) {
	if s.phase == PhaseAnswer {
		before, after, found := strings.Cut(text, SourcesSentinel)
		if !found {
			s.emitChunk(text)
			return
		}

		if before != "" {
			s.emitChunk(before)
		}

		s.phase = PhaseSources
		s.logger.Debug("entering sources section")
		text = after
	}

	s.accumulate(text)
}

func (s *QueryStream) emitChunk(text string) {
	if s.sink == nil || s.stopped() {
		return
	}
	s.sink.OnAnswerChunk(text)
}

// accumulate adds sources-section text to the pending record. Every record
// label in text finalizes the pending record and starts a new one.
func (s *QueryStream) accumulate(text string) {
	labels := findLabels(text)
	if len(labels) == 0 {
		s.pending.WriteString(text)
		return
	}

	s.pending.WriteString(text[:labels[0]])
	for i, start := range labels {
		end := len(text)
		if i+1 < len(labels) {
			end = labels[i+1]
		}

		s.flush()
		s.pending.WriteString(text[start:end])
	}
}

// flush finalizes the pending record into sources.
func (s *QueryStream) flush() {
	raw := s.pending.String()
	s.pending.Reset()

	if strings.TrimSpace(raw) == "" {
		return
	}

	c := parseRecord(raw)
	if c.Text == "" {
		s.logger.Debug("dropping source record with empty excerpt", "raw", raw)
		return
	}
	if c.Page == 0 {
		s.logger.Debug("source record has no page number", "raw", raw)
	}

	s.sources = append(s.sources, c)
}
