// Package httpclient is a small JSON-over-HTTP client for outbound calls.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// ResponseInfo carries response details.
type ResponseInfo struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Client sends requests relative to a base URL with fixed headers.
type Client struct {
	baseURL string
	headers map[string]string
	http    *http.Client
}

// New creates a client. Empty header values are skipped when sending.
func New(baseURL string, timeout time.Duration, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends body to baseURL+path and reads the whole response.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (ResponseInfo, error) {
	var info ResponseInfo

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return info, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	info.Duration = time.Since(start)
	if err != nil {
		return info, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	info.StatusCode = resp.StatusCode
	info.Headers = resp.Header
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return info, fmt.Errorf("read response body failed: %w", err)
	}
	info.Body = bodyBytes
	return info, nil
}

// DoJSON marshals in, sends it and decodes a 2xx response into out.
// out may be nil when the body is not needed.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) (int, error) {
	var body []byte
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request failed: %w", err)
		}
		body = data
	}
	info, err := c.Do(ctx, method, path, body)
	if err != nil {
		return info.StatusCode, err
	}
	if info.StatusCode < 200 || info.StatusCode >= 300 {
		return info.StatusCode, fmt.Errorf("unexpected status %d: %s", info.StatusCode, snippet(info.Body))
	}
	if out != nil && len(info.Body) > 0 {
		if err := json.Unmarshal(info.Body, out); err != nil {
			return info.StatusCode, fmt.Errorf("decode response failed: %w", err)
		}
	}
	return info.StatusCode, nil
}

func snippet(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
