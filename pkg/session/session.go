// Package session runs query streams for a chat surface, keeping at most
// one stream active per surface.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ragdesk/pkg/answer"
	"github.com/papercomputeco/ragdesk/pkg/apiclient"
	"github.com/papercomputeco/ragdesk/pkg/history"
	"github.com/papercomputeco/ragdesk/pkg/logger"
)

// ErrSuperseded is returned by a Submit whose stream was replaced by a
// newer Submit on the same surface.
var ErrSuperseded = errors.New("query superseded by a newer query")

// Querier opens the response stream of a document query.
type Querier interface {
	Query(ctx context.Context, req apiclient.QueryRequest) (io.ReadCloser, error)
}

// Recorder receives finished exchanges.
type Recorder interface {
	Enqueue(e *history.Exchange) bool
}

// Surface is one chat/query surface.
type Surface struct {
	querier  Querier
	recorder Recorder
	logger   *slog.Logger
	tenantID string
	now      func() time.Time

	// generation identifies the stream allowed to reach its sink. It is
	// bumped whenever the active stream is superseded or canceled.
	generation atomic.Uint64

	// mu guards cancel and owner, and is held across every sink callback
	// so that the generation check and the call are atomic.
	mu     sync.Mutex
	cancel context.CancelCauseFunc
	owner  uint64

	// delivering is set while a sink callback runs under mu.
	delivering atomic.Pointer[delivery]
}

// delivery identifies the stream whose sink callback holds the surface
// lock.
type delivery struct {
	generation uint64
	cancel     context.CancelCauseFunc
}

// Option configures a Surface.
type Option func(*Surface)

// WithRecorder hands every finished exchange to r.
func WithRecorder(r Recorder) Option {
	return func(s *Surface) {
		s.recorder = r
	}
}

// WithLogger sets the surface logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Surface) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTenant tags recorded exchanges with tenantID.
func WithTenant(tenantID string) Option {
	return func(s *Surface) {
		s.tenantID = tenantID
	}
}

// NewSurface creates a Surface that opens streams with q.
func NewSurface(q Querier, opts ...Option) *Surface {
	s := &Surface{
		querier: q,
		logger:  logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit cancels any in-flight stream on the surface, opens a new query
// stream and parses it into sink on the calling goroutine. It returns when
// the stream completes, fails or is abandoned.
//
// A stream replaced by a later Submit returns ErrSuperseded; one stopped by
// Cancel returns context.Canceled. No sink callback of the replaced stream
// starts after Submit or Cancel returns. Cancel called from another
// goroutine may return while a callback that already started is still
// running.
//
// Submit must not be called from inside a sink callback. Cancel and Active
// may be.
func (s *Surface) Submit(ctx context.Context, req apiclient.QueryRequest, sink answer.Sink) error {
	runCtx, cancel := context.WithCancelCause(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
	}
	gen := s.generation.Add(1)
	s.cancel = cancel
	s.owner = gen
	s.mu.Unlock()

	defer s.release(gen, cancel)

	guard := &guardedSink{
		surface:    s,
		generation: gen,
		cancel:     cancel,
		sink:       sink,
	}

	exchange := &history.Exchange{
		ID:         uuid.NewString(),
		TenantID:   s.tenantID,
		DocumentID: req.DocumentID,
		Query:      req.Query,
		StartedAt:  s.now(),
	}

	s.logger.Debug("submitting query",
		"exchange_id", exchange.ID,
		"document_id", req.DocumentID,
	)

	err := s.run(runCtx, req, guard)
	if s.generation.Load() != gen {
		// Replaced or canceled, possibly after the stream had already
		// reached its end.
		err = context.Cause(runCtx)
	} else {
		err = cause(runCtx, err)
	}

	s.record(exchange, guard, err)
	return err
}

func (s *Surface) run(ctx context.Context, req apiclient.QueryRequest, guard *guardedSink) error {
	body, err := s.querier.Query(ctx, req)
	if err != nil {
		return err
	}
	defer body.Close()

	stream := answer.NewQueryStream(guard, answer.WithLogger(s.logger))
	return stream.Run(ctx, body)
}

// cause replaces a context error with the cancellation cause of ctx, so a
// superseded stream reports ErrSuperseded.
func cause(ctx context.Context, err error) error {
	if err == nil || ctx.Err() == nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, answer.ErrAbandoned) {
		if c := context.Cause(ctx); c != nil {
			return c
		}
	}
	return err
}

// release clears the active stream if it is still the one started as gen.
func (s *Surface) release(gen uint64, cancel context.CancelCauseFunc) {
	s.mu.Lock()
	if s.owner == gen {
		s.cancel = nil
		s.owner = 0
	}
	s.mu.Unlock()

	cancel(nil)
}

// Cancel abandons the active stream, if any.
func (s *Surface) Cancel() {
	if !s.mu.TryLock() {
		if d := s.delivering.Load(); d != nil {
			// A sink callback holds the lock, possibly the caller's own.
			// Bumping the generation stops every later callback without
			// waiting for it.
			d.cancel(context.Canceled)
			s.generation.CompareAndSwap(d.generation, d.generation+1)
			return
		}
		s.mu.Lock()
	}
	defer s.mu.Unlock()

	if s.cancel == nil || s.owner != s.generation.Load() {
		return
	}
	s.cancel(context.Canceled)
	s.generation.Add(1)
	s.cancel = nil
	s.owner = 0
}

// Active reports whether a stream is in flight on the surface.
func (s *Surface) Active() bool {
	if !s.mu.TryLock() {
		if d := s.delivering.Load(); d != nil {
			return s.generation.Load() == d.generation
		}
		s.mu.Lock()
	}
	defer s.mu.Unlock()
	return s.cancel != nil && s.owner == s.generation.Load()
}

func (s *Surface) record(e *history.Exchange, guard *guardedSink, err error) {
	e.CompletedAt = s.now()
	e.Answer = guard.answer.String()
	e.Citations = guard.citations

	switch {
	case err == nil:
		e.Outcome = history.OutcomeCompleted
	case errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled), errors.Is(err, answer.ErrAbandoned):
		e.Outcome = history.OutcomeCanceled
	default:
		e.Outcome = history.OutcomeFailed
		e.Error = err.Error()
	}

	s.logger.Debug("query finished",
		"exchange_id", e.ID,
		"outcome", e.Outcome,
		"duration", e.Duration(),
	)

	if s.recorder == nil {
		return
	}
	if !s.recorder.Enqueue(e) {
		s.logger.Warn("exchange not recorded", "exchange_id", e.ID)
	}
}

// guardedSink forwards to sink only while its generation is current, and
// keeps what it saw for the exchange record. It is only called from the
// goroutine running the stream.
type guardedSink struct {
	surface    *Surface
	generation uint64
	cancel     context.CancelCauseFunc
	sink       answer.Sink

	answer    strings.Builder
	citations []answer.Citation
}

// deliver runs call under the surface lock if the stream is still current.
func (g *guardedSink) deliver(call func(answer.Sink)) {
	if g.sink == nil {
		return
	}

	s := g.surface
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation.Load() != g.generation {
		return
	}

	s.delivering.Store(&delivery{generation: g.generation, cancel: g.cancel})
	defer s.delivering.Store(nil)

	call(g.sink)
}

func (g *guardedSink) OnAnswerChunk(text string) {
	g.answer.WriteString(text)
	g.deliver(func(sink answer.Sink) { sink.OnAnswerChunk(text) })
}

func (g *guardedSink) OnSourcesReady(citations []answer.Citation) {
	g.citations = slices.Clone(citations)
	g.deliver(func(sink answer.Sink) { sink.OnSourcesReady(citations) })
}
