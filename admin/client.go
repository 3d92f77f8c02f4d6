// Package admin implements the HTTP client for the backend's admin API and
// the generic entity service generated clients are built on. The client
// owns bearer auth headers, timeouts and retry with exponential backoff;
// query shapes and transaction steps are validated by their own packages
// before any request is issued.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/syssam/instant"
	"github.com/syssam/instant/query"
	"github.com/syssam/instant/transact"
)

// Default transport settings, matching the hosted backend's limits.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultBackoffFactor = 500 * time.Millisecond
)

var retryStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// Client is the admin API client. All methods are safe for concurrent use;
// each call is an independent request/response exchange with no ordering
// guarantee between concurrent calls.
type Client struct {
	appID      string
	token      string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger

	// Auth exposes the runtime auth flows (magic codes, refresh tokens).
	Auth *AuthService
	// Storage exposes the admin file storage endpoints.
	Storage *StorageService
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = trimTrailingSlash(u)
		}
	}
}

// WithHTTPClient sets a custom http.Client. Its timeout takes precedence
// over WithTimeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxRetries sets how many times a failed request is retried. Only
// transient transport errors and 429/5xx responses are retried; the default
// is zero.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoffFactor sets the base delay of the exponential backoff between
// retries: the n-th retry waits factor * 2^(n-1), unless the server sent a
// Retry-After.
func WithBackoffFactor(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.backoff = d
		}
	}
}

// WithLogger sets the structured logger used for request failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates an admin client for the given app, authenticated with
// its admin token.
func NewClient(appID, adminToken string, opts ...Option) *Client {
	c := &Client{
		appID:      appID,
		token:      adminToken,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		backoff:    DefaultBackoffFactor,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Auth = &AuthService{client: c}
	c.Storage = &StorageService{client: c}
	return c
}

// AppID returns the app this client is bound to.
func (c *Client) AppID() string { return c.appID }

// QueryResult maps each queried collection to its records.
type QueryResult map[string][]map[string]any

// Query executes a compiled query shape and returns the records per
// collection.
func (c *Client) Query(ctx context.Context, shape query.Shape) (QueryResult, error) {
	var out QueryResult
	if err := c.postJSON(ctx, adminQueryPath(), map[string]any{"query": shape}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TxResponse is the result of a transaction.
type TxResponse struct {
	IDs []string `json:"ids"`
}

// Transact validates the steps and executes them as one transaction. A
// malformed step aborts before any request is issued.
func (c *Client) Transact(ctx context.Context, steps ...transact.Step) (*TxResponse, error) {
	encoded, err := transact.EncodeSteps(steps...)
	if err != nil {
		return nil, err
	}
	var out TxResponse
	if err := c.postJSON(ctx, adminTransactPath(), map[string]any{"steps": encoded}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("instant: encoding request body: %w", err)
	}
	header := http.Header{"Content-Type": []string{"application/json"}}
	return c.request(ctx, http.MethodPost, path, header, payload, out)
}

// request performs one HTTP exchange with retry. The attempt loop retries
// transient transport errors and the configured status codes, honoring a
// numeric Retry-After when present.
func (c *Client) request(ctx context.Context, method, path string, header http.Header, body []byte, out any) error {
	url := c.baseURL + path
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return &instant.APIError{Method: method, URL: url, Cause: err}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("App-Id", c.appID)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		for k, vs := range header {
			req.Header[k] = vs
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil {
				if err := c.sleep(ctx, c.backoffDelay(attempt)); err != nil {
					return err
				}
				continue
			}
			return &instant.APIError{Method: method, URL: url, Cause: err}
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return &instant.APIError{StatusCode: resp.StatusCode, Method: method, URL: url, Cause: readErr}
		}

		if resp.StatusCode >= 400 {
			if _, retryable := retryStatuses[resp.StatusCode]; retryable && attempt < c.maxRetries {
				if err := c.sleep(ctx, retryDelay(resp, c.backoffDelay(attempt))); err != nil {
					return err
				}
				continue
			}
			c.logger.Error("admin request failed",
				"method", method,
				"path", path,
				"status", resp.StatusCode,
			)
			return &instant.APIError{
				StatusCode: resp.StatusCode,
				Method:     method,
				URL:        url,
				Body:       string(data),
			}
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return &instant.APIError{StatusCode: resp.StatusCode, Method: method, URL: url, Cause: err}
			}
		}
		return nil
	}
}

// backoffDelay returns the exponential delay before retry attempt+1.
func (c *Client) backoffDelay(attempt int) time.Duration {
	return c.backoff * (1 << attempt)
}

func retryDelay(resp *http.Response, fallback time.Duration) time.Duration {
	if after := resp.Header.Get("Retry-After"); after != "" {
		if secs, err := strconv.ParseFloat(after, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return fallback
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func trimTrailingSlash(u string) string {
	for len(u) > 0 && u[len(u)-1] == '/' {
		u = u[:len(u)-1]
	}
	return u
}
