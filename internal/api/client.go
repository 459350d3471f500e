// Package api is the HTTP client for the fieldsync backend. The sync
// engine drives it during drain cycles; every call carries a context so
// an in-flight upload can be cancelled when connectivity drops or the
// app is backgrounded.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/guardpost/fieldsync/internal/errs"
)

// TokenProvider supplies the bearer token for protected endpoints.
// Token issuance itself is an external collaborator.
type TokenProvider interface {
	GetToken() string
	IsTokenValid() bool
}

// StaticToken is a TokenProvider around a fixed token, useful for tests
// and for CLI invocations that already hold a token.
type StaticToken string

// GetToken returns the token.
func (s StaticToken) GetToken() string { return string(s) }

// IsTokenValid reports whether a token is present.
func (s StaticToken) IsTokenValid() bool { return s != "" }

// Client talks to the fieldsync backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
}

// New creates a client for the given base URL.
func New(baseURL string, timeout time.Duration, tokens TokenProvider) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// statusMessage is the structured error body protected endpoints return.
type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// do sends a request with auth and JSON headers and decodes the
// response into out (when non-nil). Network failures come back as
// transient errors so the sync queue retries them; HTTP statuses map
// through the shared taxonomy.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	if c.tokens != nil && !c.tokens.IsTokenValid() {
		return errs.Unauthorized("%s: token missing or expired", op)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		req.Header.Set("Authorization", "Bearer "+c.tokens.GetToken())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts, refused connections, cancelled contexts: all
		// retryable from the queue's point of view.
		return errs.Transient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var sm statusMessage
		if decodeErr := json.NewDecoder(resp.Body).Decode(&sm); decodeErr == nil && sm.Message != "" {
			opMsg := fmt.Sprintf("%s: %s", op, sm.Message)
			return errs.FromHTTPStatus(opMsg, resp.StatusCode)
		}
		return errs.FromHTTPStatus(op, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errs.Transient(op, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// postJSON marshals payload and POSTs it.
func (c *Client) postJSON(ctx context.Context, op, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}
	return c.do(ctx, op, http.MethodPost, path, bytes.NewReader(data), "application/json", out)
}

// getJSON GETs and decodes a JSON response.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, "", out)
}
