package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Query submits a question about a document and returns the open response
// body for an answer.QueryStream to consume. The caller must close it.
//
// The request is bound to ctx only: canceling ctx aborts the stream. A
// non-2xx status yields *answer.StatusError and a response without a body
// yields answer.ErrNilBody.
func (c *Client) Query(ctx context.Context, req QueryRequest) (io.ReadCloser, error) {
	if req.DocumentID == "" {
		return nil, errors.New("document id is required")
	}
	if req.Query == "" {
		return nil, errors.New("query is required")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling query: %w", err)
	}

	target := c.endpoint("documents", req.DocumentID, "query")
	httpReq, err := c.newRequest(ctx, http.MethodPost, target, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("submitting query",
		"document_id", req.DocumentID,
		"query_len", len(req.Query),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: sending query: %w", ErrTransport, err)
	}

	if err := checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp.Body, nil
}
