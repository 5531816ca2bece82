// Package httpclient decorates outgoing requests with a valid bearer token
// and reacts to authorization failures.
package httpclient

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/partsbay/storefront/internal/errors"
)

// SessionSource is the slice of the session manager the wrapper consumes
type SessionSource interface {
	// ValidToken resolves a usable bearer token, refreshing first if needed
	ValidToken(ctx context.Context) (string, error)

	// InvalidateSession tears the session down after the backend rejected it
	InvalidateSession(ctx context.Context)
}

// Client issues bearer-authenticated requests
type Client struct {
	src        SessionSource
	httpClient *http.Client
	log        zerolog.Logger
}

// Option defines a function type to modify the Client instance
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client (primarily for testing)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates an authenticated client over the given session source
func New(src SessionSource, options ...Option) *Client {
	c := &Client{
		src:        src,
		httpClient: http.DefaultClient,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Do resolves a token, attaches it, and issues the request. The
// Authorization header is set over any caller-supplied value; callers cannot
// unset it. A 401 tears the session down and surfaces ErrSessionExpired; the
// request is never retried here, so a broken session cannot loop.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	token, err := c.src.ValidToken(req.Context())
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetworkFailure, "%s %s: %v", req.Method, req.URL, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.log.Warn().Str("url", req.URL.String()).Msg("authenticated request rejected, tearing session down")
		c.src.InvalidateSession(req.Context())
		return nil, errors.Wrapf(errors.ErrSessionExpired, "%s %s returned 401", req.Method, req.URL)
	}

	return resp, nil
}

// Get issues an authenticated GET
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}
