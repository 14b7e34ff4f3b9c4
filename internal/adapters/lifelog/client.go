// Package lifelog provides the client for the remote lifelog API
package lifelog

import (
	"time"

	"lifesync/internal/platform/logger"
	"lifesync/internal/platform/net/client"
)

const (
	baseURLDefault  = "https://api.limitless.ai/v1"
	defaultPageSize = 10
	defaultUA       = "lifesync-sync"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	PageSize  int
	Timeout   time.Duration

	// Retry config, see client.Options
	MaxRetries       int
	RetryBase        time.Duration
	RateLimitRetries int
}

// Client fetches lifelog pages through the shared retrying HTTP client
type Client struct {
	http *client.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	return &Client{
		http: client.New(client.Options{
			Name:             "lifelog",
			UserAgent:        o.UserAgent,
			Timeout:          o.Timeout,
			MaxRetries:       o.MaxRetries,
			RetryBase:        o.RetryBase,
			RateLimitRetries: o.RateLimitRetries,
		}),
		opts: o,
		log:  *logger.Named("lifelog"),
		now:  time.Now,
	}
}

// HasKey reports whether an API key is configured
func (c *Client) HasKey() bool { return c.opts.APIKey != "" }

// CancelAll aborts every in-flight request and pending retry
func (c *Client) CancelAll() int { return c.http.CancelAll() }
