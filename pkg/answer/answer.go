// Package answer parses the streaming response of a document query into
// live answer text and a final list of source citations.
//
// A response body is a sequence of "data: <json>" lines. Each payload is
// either {"chunk": "<text>"} or {"done": true}. Chunks carry answer text
// until one contains the "--- Sources ---" sentinel; everything after it is
// a block of "Source <N> (Page <M>): <excerpt>" records that are collected
// and handed to the Sink once, when the stream ends.
package answer

import "fmt"

// SourcesSentinel marks the transition from answer text to source records.
const SourcesSentinel = "--- Sources ---"

// dataField is the SSE field that carries protocol payloads.
const dataField = "data"

// Phase is the section of the response currently being parsed.
type Phase int

const (
	// PhaseAnswer forwards chunks to the sink as they arrive.
	PhaseAnswer Phase = iota

	// PhaseSources accumulates chunks into citation records.
	PhaseSources
)

func (p Phase) String() string {
	switch p {
	case PhaseAnswer:
		return "answer"
	case PhaseSources:
		return "sources"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Citation is one source record: a page of the queried document and the
// excerpt the answer was grounded on.
type Citation struct {
	Text string `json:"text"`

	// Page is the page number exactly as it appeared on the wire, or 0 when
	// the record carried none. Display code decides how to present 0.
	Page int `json:"page"`
}

// Sink receives the output of a QueryStream.
type Sink interface {
	// OnAnswerChunk is called once per answer chunk, in arrival order.
	OnAnswerChunk(text string)

	// OnSourcesReady is called at most once, after every OnAnswerChunk call,
	// and only when at least one citation was parsed.
	OnSourcesReady(sources []Citation)
}

// SinkFuncs adapts plain functions to a Sink. Either field may be nil.
type SinkFuncs struct {
	AnswerChunk  func(text string)
	SourcesReady func(sources []Citation)
}

func (f SinkFuncs) OnAnswerChunk(text string) {
	if f.AnswerChunk != nil {
		f.AnswerChunk(text)
	}
}

func (f SinkFuncs) OnSourcesReady(sources []Citation) {
	if f.SourcesReady != nil {
		f.SourcesReady(sources)
	}
}

// payload is the JSON body of a data line.
type payload struct {
	Chunk *string `json:"chunk"`
	Done  bool    `json:"done"`
}
