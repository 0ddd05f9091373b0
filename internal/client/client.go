// Package client submits contact forms to a running gateway over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"contactgate/internal/form"
	"contactgate/internal/gateway"
)

const (
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// Client posts submissions to a gateway endpoint such as
// http://localhost:8845/api/contact.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after
// DefaultTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts sub and decodes the gateway result. Non-2xx responses still
// carry a result body; only transport failures and undecodable bodies are
// returned as errors.
func (c *Client) Submit(ctx context.Context, sub form.Submission) (gateway.Result, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return gateway.Result{}, fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return gateway.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if sub.Lang != nil {
		req.Header.Set("Accept-Language", sub.Lang.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gateway.Result{}, fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gateway.Result{}, fmt.Errorf("failed to read gateway response: %w", err)
	}

	var res gateway.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return gateway.Result{}, fmt.Errorf("unexpected gateway response (status %d): %w", resp.StatusCode, err)
	}
	return res, nil
}
