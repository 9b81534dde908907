// Package api is the authenticated request gateway to the tracker server.
// Every call attaches the session's bearer token; a 401 clears the session
// and surfaces as *UnauthorizedError without any retry. Login and register
// are the exception: they go out anonymously and a 401 from them is a
// rejected credential, not a lost session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// TokenSource is the part of the session the gateway depends on.
type TokenSource interface {
	// Current returns the active token and whether there is one.
	Current() (string, bool)

	// Clear drops the credential after the server rejected it.
	Clear() error
}

// Client is a thin HTTP client for the tracker REST API. It handles bearer
// token injection, JSON marshaling and error classification. It keeps no
// cache and issues exactly one request per call, except that an idempotent
// GET may be retried once after a transport failure.
type Client struct {
	baseURL         string
	tokens          TokenSource
	httpClient      *http.Client
	retryIdempotent bool
	logger          *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetryIdempotent enables one retry of a GET after a transport failure.
func WithRetryIdempotent(enabled bool) Option {
	return func(c *Client) { c.retryIdempotent = enabled }
}

// WithLogger sets the logger for request failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new API client. baseURL is the root every request
// path is appended to (e.g. https://tracker.example.com/api). tokens may be
// nil for a client that never authenticates.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the root URL requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with a JSON body and unmarshals the
// JSON response. body may be nil.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put performs an HTTP PUT request with a JSON body and unmarshals the
// JSON response.
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// Delete performs an HTTP DELETE request.
func (c *Client) Delete(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodDelete, path, nil, result)
}

// postAnonymous is Post without the session: no bearer header is sent and
// a 401 comes back as a *ResponseError with the session left alone.
func (c *Client) postAnonymous(ctx context.Context, path string, body, result any) error {
	return c.send(ctx, http.MethodPost, path, body, result, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	return c.send(ctx, method, path, body, result, true)
}

// send is the core HTTP method that builds the request, attaches the
// credential when authenticated is set, classifies failures and decodes
// the response.
func (c *Client) send(
	ctx context.Context,
	method string,
	path string,
	body any,
	result any,
	authenticated bool,
) error {
	url := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	attempts := 1
	if method == http.MethodGet && c.retryIdempotent {
		attempts = 2
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if reqErr != nil {
			return fmt.Errorf("creating request: %w", reqErr)
		}

		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if authenticated && c.tokens != nil {
			if token, ok := c.tokens.Current(); ok {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		resp, err = c.httpClient.Do(req)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		c.logger.Debug("request failed", "method", method, "path", path, "attempt", attempt+1, "error", err)
	}
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", path, "error", err)
		return &NetworkError{Method: method, Path: path, Err: err}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return &NetworkError{
			Method: method,
			Path:   path,
			Err:    fmt.Errorf("reading response body: %w", readErr),
		}
	}

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		return c.unauthorized(method, path, respBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respErr := parseErrorBody(method, path, resp.StatusCode, respBody)
		c.logger.Info("request rejected", "method", method, "path", path, "status", resp.StatusCode)
		return respErr
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}

// unauthorized clears the session and builds the error returned to the
// caller. The request is never retried.
func (c *Client) unauthorized(method, path string, body []byte) error {
	authErr := &UnauthorizedError{Method: method, Path: path}
	if parsed := parseErrorBody(method, path, http.StatusUnauthorized, body); parsed.Message != "" {
		authErr.Message = parsed.Message
	}

	c.logger.Warn("server rejected credential, clearing session", "method", method, "path", path)
	if c.tokens != nil {
		if err := c.tokens.Clear(); err != nil {
			c.logger.Error("clearing session after 401", "error", err)
		}
	}
	return authErr
}

// listEnvelope is the {"items": [...]} shape some list endpoints use.
type listEnvelope[T any] struct {
	Items []T `json:"items"`
}

// getList fetches a list endpoint that answers with either a bare JSON
// array or an {"items": [...]} envelope.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding list: %w", err)
		}
		return items, nil
	}

	var env listEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decoding list envelope: %w", err)
	}
	if env.Items == nil {
		return []T{}, nil
	}
	return env.Items, nil
}
