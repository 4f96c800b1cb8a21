// Package fetch retrieves resource collections from the dashboard API.
//
// A Client issues GET /api/<resource> and decodes the JSON array into
// records. It does not retry; a failed fetch surfaces as a load error and
// the user refreshes.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/panel/internal/dashboard"
	"github.com/abelbrown/panel/internal/model"
	"github.com/abelbrown/panel/internal/otel"
	"github.com/abelbrown/panel/internal/record"
)

const (
	// DefaultTimeout bounds a whole request.
	DefaultTimeout = 10 * time.Second

	// maxBody caps a response body.
	maxBody = 8 << 20
)

// HTTPError reports a non-200 response.
type HTTPError struct {
	StatusCode int
	Status     string
	Path       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.Path, e.Status)
}

// Client fetches resources from one API base URL.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *otel.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithLimiter replaces the default rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger reports fetch failures to log.
func WithLogger(log *otel.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a Client for baseURL, e.g. "http://127.0.0.1:8080".
// By default it allows one request per 250ms with a burst of 4.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch retrieves and decodes every record of res.
func (c *Client) Fetch(ctx context.Context, res dashboard.Resource) ([]record.Record, error) {
	records, err := c.fetch(ctx, res)
	if err != nil {
		c.log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindFetchError, Comp: "fetch",
			View: string(res), Err: err.Error()})
	}
	return records, err
}

func (c *Client) fetch(ctx context.Context, res dashboard.Resource) ([]record.Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+res.Path(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Path: res.Path()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	records, err := res.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res, err)
	}
	return records, nil
}

// Fetcher returns a model.Fetcher that loads res through c.
func (c *Client) Fetcher(res dashboard.Resource) model.Fetcher {
	return model.FetcherFunc(func(ctx context.Context) ([]record.Record, error) {
		return c.Fetch(ctx, res)
	})
}
