package testutils

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
)

// ChunkReader is an io.Reader that returns exactly one of its chunks per
// Read call, the way a chunked HTTP body surfaces transport frames.
type ChunkReader struct {
	mu     sync.Mutex
	chunks [][]byte

	// Err is returned once every chunk has been read. Defaults to io.EOF.
	Err error

	// Closed reports whether Close was called.
	Closed bool
}

// NewChunkReader builds a ChunkReader from string chunks.
func NewChunkReader(chunks ...string) *ChunkReader {
	r := &ChunkReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

// NewByteChunkReader builds a ChunkReader from raw byte chunks, which can
// split multi-byte UTF-8 sequences.
func NewByteChunkReader(chunks ...[]byte) *ChunkReader {
	return &ChunkReader{chunks: chunks}
}

func (r *ChunkReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Closed {
		return 0, errors.New("read on closed body")
	}

	if len(r.chunks) == 0 {
		if r.Err != nil {
			return 0, r.Err
		}
		return 0, io.EOF
	}

	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

// Close marks the reader closed.
func (r *ChunkReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed = true
	return nil
}

// DataLines renders each payload as a "data: <payload>\n" protocol line.
func DataLines(payloads ...string) string {
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString("data: ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}

// BlockingReader serves its prefix, then blocks every further Read until
// Close is called. It stands in for a hung upstream.
type BlockingReader struct {
	prefix  *ChunkReader
	release chan struct{}
	once    sync.Once
}

// NewBlockingReader creates a BlockingReader that first returns chunks.
func NewBlockingReader(chunks ...string) *BlockingReader {
	return &BlockingReader{
		prefix:  NewChunkReader(chunks...),
		release: make(chan struct{}),
	}
}

func (r *BlockingReader) Read(p []byte) (int, error) {
	n, err := r.prefix.Read(p)
	if n > 0 || !errors.Is(err, io.EOF) {
		return n, err
	}

	<-r.release
	return 0, errors.New("use of closed network connection")
}

// Close unblocks pending reads.
func (r *BlockingReader) Close() error {
	r.once.Do(func() { close(r.release) })
	return nil
}

// ChunkLine renders a {"chunk": text} data line.
func ChunkLine(text string) string {
	payload, _ := json.Marshal(map[string]string{"chunk": text})
	return "data: " + string(payload) + "\n"
}

// DoneLine is the explicit end-of-stream data line.
const DoneLine = "data: {\"done\": true}\n"
