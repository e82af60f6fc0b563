package testutils

import (
	"slices"
	"strings"
	"sync"

	"github.com/papercomputeco/ragdesk/pkg/answer"
)

// SinkEvent is one recorded call on a RecordingSink.
type SinkEvent struct {
	// Kind is "chunk" or "sources".
	Kind    string
	Text    string
	Sources []answer.Citation
}

// RecordingSink is an answer.Sink that records every call in order.
type RecordingSink struct {
	mu     sync.Mutex
	events []SinkEvent

	// OnChunk, when set, runs after a chunk has been recorded.
	OnChunk func(text string)
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) OnAnswerChunk(text string) {
	s.mu.Lock()
	s.events = append(s.events, SinkEvent{Kind: "chunk", Text: text})
	hook := s.OnChunk
	s.mu.Unlock()

	if hook != nil {
		hook(text)
	}
}

func (s *RecordingSink) OnSourcesReady(sources []answer.Citation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, SinkEvent{Kind: "sources", Sources: sources})
}

// Events returns a copy of every recorded call.
func (s *RecordingSink) Events() []SinkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// Chunks returns the text of every OnAnswerChunk call.
func (s *RecordingSink) Chunks() []string {
	var chunks []string
	for _, e := range s.Events() {
		if e.Kind == "chunk" {
			chunks = append(chunks, e.Text)
		}
	}
	return chunks
}

// Answer joins every chunk.
func (s *RecordingSink) Answer() string {
	return strings.Join(s.Chunks(), "")
}

// SourceCalls returns the argument of every OnSourcesReady call.
func (s *RecordingSink) SourceCalls() [][]answer.Citation {
	var calls [][]answer.Citation
	for _, e := range s.Events() {
		if e.Kind == "sources" {
			calls = append(calls, e.Sources)
		}
	}
	return calls
}
