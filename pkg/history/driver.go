// Package history persists finished query exchanges.
package history

import (
	"context"
	"time"

	"github.com/papercomputeco/ragdesk/pkg/answer"
)

// Outcome is how a query exchange ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCanceled  Outcome = "canceled"
)

// Exchange is one submitted query and what came back for it.
type Exchange struct {
	ID         string
	TenantID   string
	DocumentID string
	Query      string

	// Answer is the concatenation of every answer chunk received, which is
	// partial for failed and canceled exchanges.
	Answer    string
	Citations []answer.Citation

	Outcome Outcome
	Error   string

	StartedAt   time.Time
	CompletedAt time.Time
}

// Duration is the wall time between submit and the terminal event.
func (e *Exchange) Duration() time.Duration {
	return e.CompletedAt.Sub(e.StartedAt)
}

// Filter narrows a List call. Zero fields match everything.
type Filter struct {
	TenantID   string
	DocumentID string

	// Limit caps the number of exchanges returned; 0 is unlimited.
	Limit int
}

// Matches reports whether e passes the filter's field constraints.
func (f Filter) Matches(e *Exchange) bool {
	if f.TenantID != "" && e.TenantID != f.TenantID {
		return false
	}
	if f.DocumentID != "" && e.DocumentID != f.DocumentID {
		return false
	}
	return true
}

// Driver defines the interface for persisting and retrieving exchanges in a
// storage backend.
type Driver interface {
	// Put stores an exchange. Returns true if the exchange was newly
	// inserted, false if one with the same ID already exists, in which case
	// Put is a no-op.
	Put(ctx context.Context, e *Exchange) (bool, error)

	// Get retrieves an exchange by its ID.
	Get(ctx context.Context, id string) (*Exchange, error)

	// List returns the exchanges matching f, most recently started first.
	List(ctx context.Context, f Filter) ([]*Exchange, error)

	// Close closes the store and releases any resources.
	Close() error
}
