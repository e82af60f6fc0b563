package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/ragdesk/pkg/history"
)

// Driver implements history.Driver using an in-memory map.
type Driver struct {
	mu sync.RWMutex

	// exchanges is keyed by exchange ID
	exchanges map[string]*history.Exchange
}

// NewDriver creates a new in-memory history store.
func NewDriver() *Driver {
	return &Driver{
		exchanges: make(map[string]*history.Exchange),
	}
}

// Put stores a copy of e.
func (d *Driver) Put(_ context.Context, e *history.Exchange) (bool, error) {
	if err := history.Validate(e); err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.exchanges[e.ID]; ok {
		return false, nil
	}

	d.exchanges[e.ID] = clone(e)
	return true, nil
}

// Get retrieves an exchange by its ID.
func (d *Driver) Get(_ context.Context, id string) (*history.Exchange, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.exchanges[id]
	if !ok {
		return nil, history.NotFoundError{ID: id}
	}

	return clone(e), nil
}

// List returns matching exchanges, most recently started first.
func (d *Driver) List(_ context.Context, f history.Filter) ([]*history.Exchange, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*history.Exchange, 0, len(d.exchanges))
	for _, e := range d.exchanges {
		if f.Matches(e) {
			result = append(result, clone(e))
		}
	}

	slices.SortFunc(result, func(a, b *history.Exchange) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

// Close is a no-op for the in-memory store.
func (d *Driver) Close() error {
	return nil
}

func clone(e *history.Exchange) *history.Exchange {
	cp := *e
	cp.Citations = slices.Clone(e.Citations)
	return &cp
}
