package teamdesk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrCredentials is returned before any request is made when neither a
	// token nor a username/password pair is configured.
	ErrCredentials = errors.New("TeamDesk credentials are not configured. Provide TEAMDESK_TOKEN or TEAMDESK_USER/TEAMDESK_PASSWORD")

	// ErrUnexpectedShape is returned when a page body is not a JSON array of rows.
	ErrUnexpectedShape = errors.New("unexpected TeamDesk response shape; expected array")
)

// StatusError is a non-2xx response from the select endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("TeamDesk request failed (%d): %s", e.StatusCode, e.Body)
}

// Client is the interface for reading the palletizing table.
type Client interface {
	FetchAll(ctx context.Context) ([]Row, error)
}

// Observer receives fetch telemetry. Implementations must be safe for
// concurrent use because pages are fetched in parallel.
type Observer interface {
	PageFetched(duration time.Duration, rows int)
	RetryScheduled(statusCode int)
}

// Config holds the connection and pagination settings for TeamDesk.
type Config struct {
	Domain string
	AppID  string
	Table  string
	View   string
	Filter string

	// BaseURL overrides the https://{Domain} origin.
	BaseURL string

	// Auth: Token wins over User/Password.
	Token    string
	User     string
	Password string

	PageSize    int
	Concurrency int
	MaxRetries  int

	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	Timeout        time.Duration
}

const (
	DefaultPageSize       = 500
	DefaultConcurrency    = 3
	DefaultMaxRetries     = 5
	DefaultRetryBaseDelay = 750 * time.Millisecond
	DefaultRetryMaxDelay  = 6000 * time.Millisecond
)

// Option customises a client built by NewClient.
type Option func(*httpClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver attaches fetch telemetry.
func WithObserver(obs Observer) Option {
	return func(c *httpClient) {
		c.obs = obs
	}
}

// NewClient creates a TeamDesk client based on the provided configuration.
func NewClient(cfg Config, opts ...Option) Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	c := &httpClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
