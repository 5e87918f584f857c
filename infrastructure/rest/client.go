// Package rest talks to the backend's request/response endpoints:
// conversation history, protected media, uploads and the user directory.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the authenticated HTTP base shared by the endpoint clients.
type Client struct {
	http    *http.Client
	baseURL string
	log     *slog.Logger
}

func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// get performs an authenticated GET. failure is the sentinel wrapped around
// every error so callers can tell which operation failed.
func (c *Client) get(ctx context.Context, token, path string, query url.Values, failure error) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", failure, err)
	}
	return c.do(token, path, request, failure)
}

// post sends body as an authenticated POST with the given content type.
func (c *Client) post(ctx context.Context, token, path, contentType string, body io.Reader, failure error) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", failure, err)
	}
	request.Header.Set("Content-Type", contentType)
	return c.do(token, path, request, failure)
}

func (c *Client) do(token, path string, request *http.Request, failure error) ([]byte, error) {
	request.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	response, err := c.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", failure, request.Method, path, err)
	}
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", failure, path, err)
	}
	c.log.Debug("Request done", "method", request.Method, "path", path, "status", response.StatusCode, "took", time.Since(start))
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s: unexpected status %d", failure, request.Method, path, response.StatusCode)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, token, path string, query url.Values, failure error, out any) error {
	body, err := c.get(ctx, token, path, query, failure)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", failure, path, err)
	}
	return nil
}
