// Package fetch obtains scene payloads from the generator service, with
// an optional Redis cache in front of it.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gogpu/shaderscene"
)

// maxResponseSize bounds the generator response body.
const maxResponseSize = 8 << 20

// Generator produces a raw scene payload for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Client calls the generator service over HTTP.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient returns a client posting prompts to endpoint. Each request is
// bounded by timeout when it is positive.
func NewClient(endpoint string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		timeout:  timeout,
		http:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// Generate posts {"prompt": prompt} and returns the response body. Every
// failure matches shaderscene.ErrFetchFailed.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", shaderscene.ErrFetchFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shaderscene.ErrFetchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shaderscene.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", shaderscene.ErrFetchFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: generator returned %s", shaderscene.ErrFetchFailed, resp.Status)
	}
	return data, nil
}
