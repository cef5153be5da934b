// Package rpc performs JSON calls against the POS backend.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Config describes the backend a Client talks to.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base URL is required")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithBearerToken authenticates every call with an Authorization header.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.bearer = token
	}
}

// WithAcceptedStatus narrows success to the listed status codes.
func WithAcceptedStatus(codes ...int) Option {
	return func(c *Client) {
		c.accepted = codes
	}
}

// Client posts JSON payloads to backend routes. Each call is bounded by the
// configured timeout and succeeds on a 2xx response unless
// WithAcceptedStatus says otherwise.
type Client struct {
	baseURL  string
	apiKey   string
	bearer   string
	accepted []int
	timeout  time.Duration
	http     *http.Client
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rpc config: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: timeout,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Call posts payload as JSON to path. The response body is discarded.
func (c *Client) Call(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Kind: KindEncode, Path: path, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindEncode, Path: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: transportKind(err), Path: path, Err: err}
	}
	defer resp.Body.Close()

	if !c.acceptable(resp.StatusCode) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Kind:       KindStatus,
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) acceptable(code int) bool {
	if len(c.accepted) == 0 {
		return code >= 200 && code <= 299
	}
	return slices.Contains(c.accepted, code)
}

// transportKind separates timeouts from other transport failures. A call
// cancelled by its caller is a transport failure, not a timeout.
func transportKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}
