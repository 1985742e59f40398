// Package client is the Go SDK for the SeaTime API. Besides plain request
// helpers it carries the client half of subscription enforcement: a cached
// subscription snapshot and an Enforcer that blocks gated actions locally
// and recognizes the server's subscription denials.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the SeaTime API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithClock overrides the clock used for local subscription evaluation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusResponse is the body of GET /api/subscription/status. Dates are
// kept as decoded so they go through the same parsing as any other input.
type StatusResponse struct {
	Status      string `json:"status"`
	RawStatus   string `json:"rawStatus"`
	IsActive    bool   `json:"isActive"`
	ExpiresAt   any    `json:"expiresAt"`
	TrialEndsAt any    `json:"trialEndsAt"`
	CheckedAt   any    `json:"checkedAt"`
}

// SubscriptionStatus fetches the caller's subscription state.
func (c *Client) SubscriptionStatus(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/subscription/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type pauseTrackingResponse struct {
	Success       bool  `json:"success"`
	VesselsPaused int64 `json:"vesselsPaused"`
}

// PauseTracking asks the server to stop tracking all of the caller's vessels.
func (c *Client) PauseTracking(ctx context.Context) (bool, error) {
	var out pauseTrackingResponse
	if err := c.do(ctx, http.MethodPost, "/api/subscription/pause-tracking", nil, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
