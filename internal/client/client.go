// Package client provides an HTTP client for the anonyfiles processing service.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is used when neither an explicit URL nor ANONYFILES_API_URL is set.
const DefaultBaseURL = "http://127.0.0.1:8000/api"

// RequestIDHeader carries a per-request id for server-side log correlation.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of an error response is kept in memory.
const maxErrorBody = 64 << 10

// maxBodyLogLen is the maximum length for logged response bodies before truncation.
const maxBodyLogLen = 200

// slowRequestThreshold is the duration above which requests are logged at WARN level.
const slowRequestThreshold = 5 * time.Second

// Client is an HTTP client for the anonyfiles service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a new client.
// If baseURL is empty, uses ANONYFILES_API_URL env var or defaults to DefaultBaseURL.
// The default timeout is 10 minutes since uploads of large files are synchronous.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("ANONYFILES_API_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a request and returns the raw response.
// Transport failures are returned as *NetworkError; the caller owns resp.Body.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err,
		)
		return nil, &NetworkError{Op: method + " " + path, Err: err}
	}

	duration := time.Since(start)
	attrs := []any{
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
		"request_id", requestID,
	}
	if duration > slowRequestThreshold {
		c.logger.Warn("slow request", attrs...)
	} else {
		c.logger.Debug("request completed", attrs...)
	}
	return resp, nil
}

// doJSON sends a request and returns the response body.
// Non-2xx responses are returned as *BackendError.
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("backend error",
			"path", path,
			"status", resp.StatusCode,
			"body", truncate(string(data), maxBodyLogLen),
		)
		return nil, newBackendError(resp.StatusCode, data)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read response " + path, Err: err}
	}
	return data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
