// Package apiclient is the HTTP client for the external document service:
// tenant and user administration, document upload and listing, file lookup
// and the streaming document query.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/ragdesk/pkg/answer"
	"github.com/papercomputeco/ragdesk/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// TenantHeader scopes a request to a tenant.
const TenantHeader = "X-Tenant-ID"

// ErrTransport matches failures to reach the document service at all, as
// opposed to the service answering with an error status.
var ErrTransport = errors.New("document service unreachable")

// Config is the configuration for a Client.
type Config struct {
	// BaseURL is the service root, e.g. "http://localhost:8000".
	BaseURL string

	// Token is sent as a bearer token when non-empty.
	Token string

	// TenantID is sent in the X-Tenant-ID header when non-empty.
	TenantID string

	// Timeout bounds non-streaming calls. Query streams are bounded only by
	// the caller's context.
	Timeout time.Duration

	// HTTPClient overrides the underlying client. It must not set a
	// client-wide Timeout if long query streams are expected.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client talks to the document service.
type Client struct {
	base    *url.URL
	token   string
	tenant  string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client.
func New(c Config) (*Client, error) {
	if c.BaseURL == "" {
		return nil, errors.New("api base URL is required")
	}

	base, err := url.Parse(strings.TrimRight(c.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing api base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported api base URL scheme %q", base.Scheme)
	}

	client := &Client{
		base:    base,
		token:   c.Token,
		tenant:  c.TenantID,
		timeout: c.Timeout,
		http:    c.HTTPClient,
		logger:  c.Logger,
	}

	if client.timeout <= 0 {
		client.timeout = defaultTimeout
	}
	if client.http == nil {
		client.http = &http.Client{}
	}
	if client.logger == nil {
		client.logger = logger.Nop()
	}

	return client, nil
}

// WithTenant returns a copy of the client scoped to tenantID.
func (c *Client) WithTenant(tenantID string) *Client {
	cp := *c
	cp.tenant = tenantID
	return &cp
}

// Tenant returns the tenant the client is scoped to.
func (c *Client) Tenant() string {
	return c.tenant
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/api/" + strings.Join(escaped, "/")
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.tenant != "" {
		req.Header.Set(TenantHeader, c.tenant)
	}

	return req, nil
}

// doJSON performs a bounded request and decodes a JSON response into out
// (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	return c.do(ctx, method, target, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader, contentType string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, target, body, contentType)
	if err != nil {
		return err
	}

	c.logger.Debug("api request", "method", method, "url", target)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return checkResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", target, err)
	}
	return nil
}

// checkResponse validates resp with answer.CheckResponse, lifting the
// service's {"error": "..."} message into the *answer.StatusError.
func checkResponse(resp *http.Response) error {
	err := answer.CheckResponse(resp)

	var se *answer.StatusError
	if errors.As(err, &se) {
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error != "" {
			se.Body = body.Error
		}
	}
	return err
}
