package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/declutter/pkg/errors"
	"github.com/matzehuels/declutter/pkg/pipeline"
	"github.com/matzehuels/declutter/pkg/scene"
)

// Defaults for [Client].
const (
	DefaultTimeout  = 30 * time.Second
	DefaultAttempts = 3
	DefaultBackoff  = 500 * time.Millisecond
)

// APIError is a non-2xx response of the server.
type APIError struct {
	Status  int
	Code    errors.Code
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("server: %d: %s", e.Status, e.Message)
}

// Client calls a declutter server.
type Client struct {
	baseURL  string
	http     *http.Client
	attempts int
	backoff  time.Duration
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry sets the number of attempts and the initial backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.backoff = backoff
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid server URL %q", baseURL)
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: DefaultTimeout},
		attempts: DefaultAttempts,
		backoff:  DefaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session is an open server session.
type Session struct {
	ID        string `json:"id"`
	ExpiresAt string `json:"expires_at"`
}

// CreateSession opens a new session.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var sess Session
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", nil, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession drops a session and its default placements.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(id), nil, nil, nil)
}

// Generalize posts sc to the session. Only the query-expressible options
// are sent: name, pan, hide_unplaced and refresh.
func (c *Client) Generalize(ctx context.Context, id string, sc *scene.Scene, opts pipeline.Options) (*pipeline.Result, error) {
	if opts.Style != nil {
		work := *sc
		work.ApplyStyle(opts.Style)
		sc = &work
	}
	body, err := json.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}

	q := url.Values{}
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}
	if opts.PanX != 0 {
		q.Set("pan_x", strconv.Itoa(opts.PanX))
	}
	if opts.PanY != 0 {
		q.Set("pan_y", strconv.Itoa(opts.PanY))
	}
	if opts.HideUnplaced {
		q.Set("hide_unplaced", "true")
	}
	if opts.Refresh {
		q.Set("refresh", "true")
	}

	var res pipeline.Result
	path := "/v1/sessions/" + url.PathEscape(id) + "/generalize"
	if err := c.do(ctx, http.MethodPost, path, q, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return Retry(ctx, c.attempts, c.backoff, func() error {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &RetryableError{Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			apiErr := decodeError(resp)
			if resp.StatusCode >= 500 {
				return &RetryableError{Err: apiErr}
			}
			return apiErr
		}
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string      `json:"error"`
		Code  errors.Code `json:"code"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
