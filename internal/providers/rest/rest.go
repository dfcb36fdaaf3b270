// Package rest is the shared HTTP plumbing for provider clients. It maps
// request failures and non-2xx responses into TRANSPORT_FAILURE errors so
// handlers only deal with decoded bodies.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/homeroomhq/homeroom/pkg/schema"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultMaxResponseBody = 10 * 1024 * 1024 // 10MB
)

// Auth configures request authentication.
type Auth struct {
	Bearer   string // Authorization: Bearer <token>
	Username string // basic auth, with Password
	Password string
}

// Client issues JSON and form-encoded requests against one provider API.
type Client struct {
	base   string
	http   *http.Client
	maxLen int64
}

// New creates a Client for the given base URL. A zero timeout uses the default.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		maxLen: defaultMaxResponseBody,
	}
}

// GetJSON issues a GET and decodes the JSON response.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, auth Auth) (map[string]any, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeTransportFailure, "failed to build request").WithCause(err)
	}
	return c.do(req, auth)
}

// PostJSON issues a POST with a JSON body and decodes the JSON response.
func (c *Client) PostJSON(ctx context.Context, path string, body any, auth Auth) (map[string]any, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeTransportFailure, "failed to marshal request body").WithCause(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(raw))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeTransportFailure, "failed to build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, auth)
}

// PostForm issues a form-encoded POST and decodes the JSON response.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, auth Auth) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeTransportFailure, "failed to build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, auth)
}

func (c *Client) do(req *http.Request, auth Auth) (map[string]any, error) {
	if auth.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+auth.Bearer)
	} else if auth.Username != "" {
		req.SetBasicAuth(auth.Username, auth.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeTransportFailure, "request failed: %v", err).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxLen))
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeTransportFailure, "failed to read response body").WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, schema.NewErrorf(schema.ErrCodeTransportFailure, "%s returned %s: %s",
			req.URL.Host, resp.Status, errorSummary(raw)).
			WithDetails(map[string]any{"status_code": resp.StatusCode})
	}

	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Some endpoints answer 2xx with a non-JSON body.
		return map[string]any{"raw": string(raw)}, nil
	}
	return decoded, nil
}

// errorSummary extracts a short human-readable message from an error body.
// Providers disagree on the field name, so a few common shapes are tried
// before falling back to the truncated raw body.
func errorSummary(raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"message", "error_description", "error"} {
			switch v := body[key].(type) {
			case string:
				if v != "" {
					return v
				}
			case map[string]any:
				if msg, ok := v["message"].(string); ok && msg != "" {
					return msg
				}
			}
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "no response body"
	}
	return s
}
