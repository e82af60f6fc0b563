// Package recorder provides an asynchronous worker pool that persists
// finished query exchanges using the provided history.Driver and publishes
// completion events using the provided eventstream.Publisher.
//
// The pool keeps storage and event I/O off the chat path: the answer is
// already on screen by the time its exchange is recorded.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/ragdesk/pkg/eventstream"
	"github.com/papercomputeco/ragdesk/pkg/history"
	"github.com/papercomputeco/ragdesk/pkg/logger"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 64
	defaultJobTimeout        = 15 * time.Second
)

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the history backend exchanges are persisted to.
	Driver history.Driver

	// Publisher is the optional event stream for completion events.
	Publisher eventstream.Publisher

	// Client names the publishing client in emitted events.
	Client string

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// JobTimeout bounds the storage and publish calls of one job.
	JobTimeout time.Duration

	Logger *slog.Logger
}

// Pool processes exchanges asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan *history.Exchange
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("recorder requires a history driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan *history.Exchange, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits an exchange for recording.
// Returns true if enqueued, false if the queue is full, resulting in the exchange being dropped
func (p *Pool) Enqueue(e *history.Exchange) bool {
	select {
	case p.queue <- e:
		p.logger.Debug("exchange queued",
			"exchange_id", e.ID,
			"document_id", e.DocumentID,
		)
		return true
	default:
		p.logger.Error("exchange not queued, queue full, exchange dropped",
			"exchange_id", e.ID,
			"document_id", e.DocumentID,
		)
		return false
	}
}

// Close signals workers to stop and waits for queued exchanges to drain.
// No Enqueue may happen after Close.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
	})
}

// worker is the inner worker thread that continuously pulls exchanges off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("recorder worker started", "worker_id", id)

	for e := range p.queue {
		p.processJob(e)
	}

	p.logger.Debug("recorder worker stopped", "worker_id", id)
}

// processJob stores the exchange and, when it was new, publishes its
// completion event. Failures are logged; the chat never waits on them.
func (p *Pool) processJob(e *history.Exchange) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	isNew, err := p.config.Driver.Put(ctx, e)
	if err != nil {
		p.logger.Error("storing exchange failed",
			"exchange_id", e.ID,
			"error", err,
		)
		return
	}

	p.logger.Debug("exchange stored",
		"exchange_id", e.ID,
		"document_id", e.DocumentID,
		"outcome", e.Outcome,
		"is_new", isNew,
	)

	if !isNew || p.config.Publisher == nil {
		return
	}

	event := eventstream.NewQueryCompletedEvent(e, p.config.Client)
	if err := p.config.Publisher.PublishQuery(ctx, event); err != nil {
		p.logger.Warn("publishing query event failed",
			"exchange_id", e.ID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("query event published",
		"exchange_id", e.ID,
		"event_id", event.EventID,
	)
}
