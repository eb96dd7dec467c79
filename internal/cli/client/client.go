package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// DefaultBaseURL is used when no server origin is configured
const DefaultBaseURL = "http://localhost:8000"

const (
	// TokenHealthPath reports whether the auth_token cookie is still usable
	TokenHealthPath = "/accounts/user/token-health/"
	// LogoutPath destroys the server-side session
	LogoutPath = "/accounts/user/logout"
	// LoginRoute is where the user is sent once the session is gone
	LoginRoute = "/login"
)

// SessionFlag is the local "logged in" marker kept next to the session cookie
type SessionFlag interface {
	SetLoggedIn(loggedIn bool) error
}

// Navigator moves the user to another view of the application
type Navigator interface {
	Navigate(route string)
}

// Client represents an HTTP client for the postmat API.
// Credentials travel as cookies held in the client's jar.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     zerolog.Logger
	jar        http.CookieJar
	flag       SessionFlag
	navigator  Navigator

	// checkingToken is held while a token health check runs
	checkingToken atomic.Bool
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. The client is copied; its jar is
// kept unless WithCookieJar is also given.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCookieJar replaces the in-memory cookie jar
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithLogger sets the logger used for request and interceptor diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSessionFlag sets the local logged-in flag cleared on forced logout
func WithSessionFlag(flag SessionFlag) Option {
	return func(c *Client) {
		c.flag = flag
	}
}

// WithNavigator sets where the client sends the user after a forced logout
func WithNavigator(navigator Navigator) Option {
	return func(c *Client) {
		c.navigator = navigator
	}
}

// New creates a new API client for the given origin
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	httpClient := *c.httpClient
	c.httpClient = &httpClient
	if c.jar != nil {
		c.httpClient.Jar = c.jar
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	return c, nil
}

// BaseURL returns the origin all request paths are resolved against
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Cookies returns the cookies the jar would send to the API origin
func (c *Client) Cookies() []*http.Cookie {
	return c.httpClient.Jar.Cookies(c.baseURL)
}

// Do sends a request and decodes a successful JSON response into out.
// body is JSON-encoded when non-nil; out may be nil to discard the response.
// Non-2xx responses are returned as *APIError. A 401 runs the session-expiry
// check before the error is returned; the returned error is always the
// original one.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, intercept bool) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(method, path, resp)
		if intercept && apiErr.StatusCode == http.StatusUnauthorized {
			c.handleUnauthorized(ctx)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}
	target := *c.baseURL
	target.Path = c.baseURL.Path + "/" + strings.TrimLeft(ref.Path, "/")
	target.RawQuery = ref.RawQuery

	var reader io.Reader
	var size int
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
		size = len(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", target.String()).
		Int("body_bytes", size).
		Msg("Outgoing request")

	return req, nil
}
