package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ragdesk/pkg/history"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeQueryCompleted is emitted after a query exchange is persisted.
	EventTypeQueryCompleted = "ragdesk.query.completed"
)

// QueryCompletedEvent is a transport-neutral event payload for a finished
// query exchange.
type QueryCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Exchange      QueryMeta   `json:"exchange"`
}

// EventSource identifies where the query originated.
type EventSource struct {
	TenantID   string `json:"tenant_id,omitempty"`
	DocumentID string `json:"document_id"`
	Client     string `json:"client,omitempty"`
}

// QueryMeta captures the exchange lifecycle for the event. Answer text and
// excerpts are not carried.
type QueryMeta struct {
	ExchangeID    string    `json:"exchange_id"`
	Query         string    `json:"query"`
	Outcome       string    `json:"outcome"`
	Error         string    `json:"error,omitempty"`
	AnswerBytes   int       `json:"answer_bytes"`
	CitationCount int       `json:"citation_count"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	DurationMs    int64     `json:"duration_ms"`
}

// NewQueryCompletedEvent builds the event for a finished exchange.
func NewQueryCompletedEvent(e *history.Exchange, client string) *QueryCompletedEvent {
	return &QueryCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeQueryCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: EventSource{
			TenantID:   e.TenantID,
			DocumentID: e.DocumentID,
			Client:     client,
		},
		Exchange: QueryMeta{
			ExchangeID:    e.ID,
			Query:         e.Query,
			Outcome:       string(e.Outcome),
			Error:         e.Error,
			AnswerBytes:   len(e.Answer),
			CitationCount: len(e.Citations),
			StartedAt:     e.StartedAt,
			CompletedAt:   e.CompletedAt,
			DurationMs:    e.Duration().Milliseconds(),
		},
	}
}
