// Package posapi is a thin typed client for the POS backend under
// verification. It owns transport concerns only: bearer auth, per-call
// timeouts, JSON decoding, and error classification. What a response
// *means* is the business of the state and check packages.
package posapi

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
	"os"
	"strings"
	"time"

	"github.com/sysme/poscheck/internal/fault"
)

// prefix is the backend's API root. All observed endpoints live under it.
const prefix = "/api/v1"

// CallEvent records one HTTP exchange for the scenario trace.
type CallEvent struct {
	Method   string        `json:"method"`
	Path     string        `json:"path"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration"`
}

// Recorder receives call events as they complete. The scenario context
// implements it to build the per-scenario trace.
type Recorder interface {
	Record(ev CallEvent)
}

// Response is a decoded backend reply. Exactly one of Body or List is
// populated for JSON payloads; both are nil for empty bodies (204).
type Response struct {
	Status int
	Body   map[string]any // top-level JSON object
	List   []any          // top-level JSON array
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status <= 299 }

// Data returns the "data" envelope as a list when present, falling
// back to a top-level array. List endpoints wrap their items either way.
func (r *Response) Data() []any {
	if r.Body != nil {
		if d, ok := r.Body["data"].([]any); ok {
			return d
		}
	}
	return r.List
}

// Client drives the POS backend HTTP API.
type Client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
	rec    Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithRecorder attaches a trace recorder.
func WithRecorder(rec Recorder) Option {
	return func(c *Client) { c.rec = rec }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the backend at baseURL with the given
// per-call timeout. No retries are performed: a transient failure is
// reported, not silently retried, so real defects stay visible.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues one HTTP call and decodes the reply.
// Transport errors, timeouts, and malformed JSON all classify as
// infrastructure failures; non-2xx statuses do not (they are data for
// the caller's assertions).
func (c *Client) do(ctx context.Context, method, path, token string, body any) (*Response, error) {
	op := method + " " + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fault.Infrastructure(op, "failed to encode request body", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return nil, fault.Infrastructure(op, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, fault.Infrastructure(op, "request timed out", err)
		}
		return nil, fault.Infrastructure(op, "request failed", err)
	}
	defer resp.Body.Close()

	if c.rec != nil {
		c.rec.Record(CallEvent{Method: method, Path: path, Status: resp.StatusCode, Duration: elapsed})
	}
	c.logger.Debug("api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", elapsed,
	)

	out := &Response{Status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Infrastructure(op, "failed to read response body", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fault.Infrastructure(op, "malformed JSON response", err)
	}
	switch v := decoded.(type) {
	case map[string]any:
		out.Body = v
	case []any:
		out.List = v
	}
	return out, nil
}

// query builds a path with URL-encoded query parameters, skipping
// empty values.
func query(path string, params map[string]string) string {
	vals := url.Values{}
	for k, v := range params {
		if v != "" {
			vals.Set(k, v)
		}
	}
	if len(vals) == 0 {
		return path
	}
	return path + "?" + vals.Encode()
}

// pathID appends an id segment, escaping it.
func pathID(path, id string) string {
	return fmt.Sprintf("%s/%s", path, url.PathEscape(id))
}
