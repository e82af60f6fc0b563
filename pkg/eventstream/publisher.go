package eventstream

import "context"

// Publisher publishes query events to an event stream backend.
type Publisher interface {
	PublishQuery(ctx context.Context, event *QueryCompletedEvent) error
	Close() error
}
