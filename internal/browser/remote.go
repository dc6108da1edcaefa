package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sysme/poscheck/internal/fault"
)

// Remote delegates Driver calls to an external automation engine over
// localhost HTTP. The engine exposes:
//
//	POST /session/navigate {url}
//	POST /session/fill     {locator, value}
//	POST /session/click    {locator}
//	GET  /session/state            -> {state}
//	GET  /session/frames           -> {frames: [...]}
//	GET  /session/text?locator=... -> {text}
type Remote struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

// NewRemote creates a Remote for the engine at baseURL.
func NewRemote(baseURL string, timeout time.Duration, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Remote{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Navigate implements Driver.
func (r *Remote) Navigate(ctx context.Context, url string) error {
	_, err := r.post(ctx, "/session/navigate", map[string]string{"url": url})
	return err
}

// Fill implements Driver.
func (r *Remote) Fill(ctx context.Context, locator, value string) error {
	_, err := r.post(ctx, "/session/fill", map[string]string{"locator": locator, "value": value})
	return err
}

// Click implements Driver.
func (r *Remote) Click(ctx context.Context, locator string) error {
	_, err := r.post(ctx, "/session/click", map[string]string{"locator": locator})
	return err
}

// WaitForState implements Driver. It polls the engine's state endpoint
// with exponential backoff (100ms doubling, 2s cap) rather than fixed
// sleeps, so fast transitions are observed fast and slow ones don't
// flake. Reaching the deadline without the state is an assertion
// failure; losing the engine is an infrastructure failure.
func (r *Remote) WaitForState(ctx context.Context, state string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	backoff := 100 * time.Millisecond
	last := ""

	for {
		body, err := r.get(ctx, "/session/state")
		if err != nil {
			return err
		}
		got, _ := body["state"].(string)
		if got == state {
			return nil
		}
		last = got

		if time.Now().After(deadline) {
			return fault.Assertion("wait_for_state",
				fmt.Sprintf("UI state %q not reached within %s (last observed %q)", state, timeout, last), nil)
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fault.Infrastructure("wait_for_state", "context cancelled", ctx.Err())
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}

// Frames implements Driver.
func (r *Remote) Frames(ctx context.Context) ([]string, error) {
	body, err := r.get(ctx, "/session/frames")
	if err != nil {
		return nil, err
	}
	raw, _ := body["frames"].([]any)
	frames := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			frames = append(frames, s)
		}
	}
	return frames, nil
}

// Text implements Driver.
func (r *Remote) Text(ctx context.Context, locator string) (string, error) {
	// Locators routinely start with "#", which raw concatenation would
	// turn into a URL fragment and silently drop.
	body, err := r.get(ctx, "/session/text?"+url.Values{"locator": {locator}}.Encode())
	if err != nil {
		return "", err
	}
	text, _ := body["text"].(string)
	return text, nil
}

func (r *Remote) post(ctx context.Context, path string, payload any) (map[string]any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fault.Infrastructure("POST "+path, "failed to encode payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+path, bytes.NewReader(data))
	if err != nil {
		return nil, fault.Infrastructure("POST "+path, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return r.roundTrip(req, "POST "+path)
}

func (r *Remote) get(ctx context.Context, path string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+path, nil)
	if err != nil {
		return nil, fault.Infrastructure("GET "+path, "failed to build request", err)
	}
	return r.roundTrip(req, "GET "+path)
}

func (r *Remote) roundTrip(req *http.Request, op string) (map[string]any, error) {
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fault.Infrastructure(op, "browser engine unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Infrastructure(op, "failed to read engine response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fault.Infrastructure(op,
			fmt.Sprintf("browser engine returned status %d: %s", resp.StatusCode, bytes.TrimSpace(raw)), nil)
	}

	body := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fault.Infrastructure(op, "malformed engine response", err)
		}
	}
	r.logger.Debug("browser call", "op", op, "status", resp.StatusCode)
	return body, nil
}
