// Package backendapi is the client for the storefront's REST backend, which
// brokers the Google token exchange and owns token issuance.
package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/partsbay/storefront/internal/errors"
)

const (
	exchangePath = "/auth/google/callback"
	refreshPath  = "/auth/refresh"
	logoutPath   = "/auth/logout"

	defaultTimeout = 10 * time.Second
)

// Client calls the backend's auth endpoints. Every request carries an
// explicit timeout; a hung backend must not stall a login or refresh flow
// indefinitely.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option defines a function type to modify the Client instance
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client (primarily for testing)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a backend API client rooted at baseURL
func NewClient(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ExchangeCode trades an authorization code for a session. Transport
// failures map to ErrNetworkFailure so the UI can offer a retry; HTTP
// failures map to ErrExchangeFailed with the backend's message when one is
// present.
func (c *Client) ExchangeCode(ctx context.Context, code, state string) (*TokenResponse, error) {
	body := map[string]string{"code": code}
	if state != "" {
		body["state"] = state
	}

	status, raw, err := c.post(ctx, exchangePath, body, "")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetworkFailure, "token exchange: %v", err)
	}

	if status < 200 || status > 299 {
		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.text() != "" {
			return nil, errors.Wrapf(errors.ErrExchangeFailed, "%s (status %d)", errResp.text(), status)
		}
		return nil, errors.Wrapf(errors.ErrExchangeFailed, "status %d", status)
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(raw, &tokenResp); err != nil {
		return nil, errors.Wrapf(errors.ErrExchangeFailed, "malformed response: %v", err)
	}
	if tokenResp.Token == "" {
		return nil, errors.Wrapf(errors.ErrExchangeFailed, "response contains no token")
	}
	return &tokenResp, nil
}

// Refresh mints a new access token from a refresh token. A 401 or 403 means
// the refresh token itself is invalid and maps to ErrSessionExpired.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	if refreshToken == "" {
		return nil, errors.ErrUnauthenticated
	}

	status, raw, err := c.post(ctx, refreshPath, map[string]string{"refreshToken": refreshToken}, "")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetworkFailure, "refresh: %v", err)
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, errors.Wrapf(errors.ErrSessionExpired, "refresh token rejected (status %d)", status)
	}
	if status < 200 || status > 299 {
		var errResp errorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.text() != "" {
			return nil, fmt.Errorf("refresh failed: %s (status %d)", errResp.text(), status)
		}
		return nil, fmt.Errorf("refresh failed with status %d", status)
	}

	var refreshResp RefreshResponse
	if err := json.Unmarshal(raw, &refreshResp); err != nil {
		return nil, fmt.Errorf("refresh: malformed response: %w", err)
	}
	if refreshResp.Token == "" {
		return nil, fmt.Errorf("refresh: response contains no token")
	}
	return &refreshResp, nil
}

// Logout notifies the backend that the session is over. The response body is
// ignored; only the status matters, and even that is best-effort for the
// caller.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	status, _, err := c.post(ctx, logoutPath, struct{}{}, accessToken)
	if err != nil {
		return errors.Wrapf(errors.ErrNetworkFailure, "logout: %v", err)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("logout failed with status %d", status)
	}
	return nil
}

// post performs the whole round trip before the request context is released
func (c *Client) post(ctx context.Context, path string, body any, bearer string) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}
