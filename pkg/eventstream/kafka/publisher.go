// Package kafka publishes query events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/ragdesk/pkg/eventstream"
)

const defaultWriteTimeout = 10 * time.Second

// Config is the configuration for a Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single publish. Defaults to 10s.
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes events as JSON messages keyed by document ID, so the
// events of one document stay ordered within a partition.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewPublisher creates a Kafka publisher.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}

	timeout := c.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(c.Brokers...),
			Topic:                  c.Topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           timeout,
		},
		timeout: timeout,
	}, nil
}

// PublishQuery writes one event.
func (p *Publisher) PublishQuery(ctx context.Context, event *eventstream.QueryCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilQueryEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling query event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.Source.DocumentID),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing query event %s: %w", event.EventID, err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
