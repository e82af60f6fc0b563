package answer

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNilBody is returned when a response carries no body to parse.
	ErrNilBody = errors.New("response has no body")

	// ErrRead matches every ReadError via errors.Is.
	ErrRead = errors.New("reading answer stream")

	// ErrAbandoned is returned by Run when the stream was abandoned through
	// Abandon rather than through its context.
	ErrAbandoned = errors.New("query stream abandoned")
)

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 4 * 1024

// StatusError is returned for a non-2xx query response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("query failed with status %d", e.Code)
	}
	return fmt.Sprintf("query failed with status %d: %s", e.Code, e.Body)
}

// ReadError wraps a transport failure that happened mid-stream.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "reading answer stream: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func (e *ReadError) Is(target error) bool {
	return target == ErrRead
}

// CheckResponse validates a query response before its body is parsed. On a
// non-2xx status it consumes a bounded prefix of the body for the error.
func CheckResponse(resp *http.Response) error {
	if resp == nil {
		return ErrNilBody
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body []byte
		if resp.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		}
		return &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(body)),
		}
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return ErrNilBody
	}

	return nil
}
