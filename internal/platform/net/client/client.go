// Package client provides the resilient HTTP client shared by the remote adapters.
// It owns the retry policy and the registry of in-flight requests
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultTimeout          = 30 * time.Second
	defaultMaxRetries       = 5
	defaultRetryBase        = time.Second
	defaultRateLimitRetries = 20
	maxRateLimitWait        = 60 * time.Second
	maxBackoff              = 60 * time.Second
	maxShift                = 16
)

// Options configures the Client
type Options struct {
	// Name tags logs and error messages, e.g. "lifelog" or "llm"
	Name      string
	UserAgent string
	Timeout   time.Duration

	// MaxRetries bounds retries of 5xx responses and transport failures
	MaxRetries int
	RetryBase  time.Duration

	// RateLimitRetries bounds 429 retries separately from MaxRetries.
	// Negative means unbounded (retry until canceled)
	RateLimitRetries int
}

// Client issues requests with retries, rate limit handling and abortable backoff
type Client struct {
	http   *http.Client
	opts   Options
	log    logger.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
	jitter func(time.Duration) time.Duration

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// New creates a new Client with sane defaults
func New(o Options) *Client {
	if o.Name == "" {
		o.Name = "http"
	}
	if o.UserAgent == "" {
		o.UserAgent = "lifesync"
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.RateLimitRetries == 0 {
		o.RateLimitRetries = defaultRateLimitRetries
	}
	return &Client{
		http:   &http.Client{Timeout: o.Timeout},
		opts:   o,
		log:    *logger.Named(o.Name),
		now:    time.Now,
		sleep:  sleepCtx,
		jitter: uniformJitter,
		active: map[string]context.CancelFunc{},
	}
}

// Name returns the name the client logs under
func (c *Client) Name() string { return c.opts.Name }

// StatusError carries the status and a body tail of a failed response
type StatusError struct {
	Status int
	Body   string
}

// Error interface
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d body %s", e.Status, e.Body)
}

// HTTPStatus reports the status code of a failed response wrapped anywhere in err, or 0
func HTTPStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// Builder produces a fresh request for every attempt so bodies can be replayed
type Builder func(ctx context.Context) (*http.Request, error)

// Do issues the request built by build and applies the retry policy:
//   - 401 fails at once with Unauthorized
//   - 5xx and transport errors retry with exponential backoff up to MaxRetries
//   - 429 retries honoring Retry-After, capped at 60s per wait, up to RateLimitRetries
//   - anything else non 2xx fails at once with Upstream
//
// The returned body must be closed; closing it releases the request registration
func (c *Client) Do(ctx context.Context, build Builder) (*http.Response, error) {
	id := uuid.NewString()
	reqCtx, cancel := context.WithCancel(ctx)
	c.register(id, cancel)
	release := func() {
		c.unregister(id)
		cancel()
	}

	resp, err := c.do(reqCtx, ctx, build)
	if err != nil {
		release()
		return nil, err
	}
	resp.Body = &trackedBody{ReadCloser: resp.Body, ctx: reqCtx, done: release}
	return resp, nil
}

func (c *Client) do(ctx, parent context.Context, build Builder) (*http.Response, error) {
	attempts := 0
	limited := 0
	for {
		if ctx.Err() != nil {
			return nil, c.aborted(ctx, parent)
		}

		req, err := build(ctx)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "%s new request failed", c.opts.Name)
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, c.aborted(ctx, parent)
			}
			if attempts >= c.opts.MaxRetries {
				return nil, perr.Wrapf(err, perr.ErrorCodeNetwork, "%s request failed after %d retries", c.opts.Name, attempts)
			}
			back := c.backoff(attempts, false)
			c.log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempts).Msg("transport error retrying")
			if c.sleep(ctx, back) != nil {
				return nil, c.aborted(ctx, parent)
			}
			attempts++
			continue
		}

		c.log.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Int("rate_limited", limited).
			Dur("latency", lat).
			Msg("http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil

		case resp.StatusCode == http.StatusUnauthorized:
			_ = drainAndClose(resp.Body)
			return nil, perr.Wrapf(&StatusError{Status: resp.StatusCode}, perr.ErrorCodeUnauthorized,
				"%s rejected the credential, check the configured key", c.opts.Name)

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := computeWait(resp.Header, c.now())
			if wait <= 0 {
				wait = c.backoff(limited, false)
			}
			wait = min(wait, maxRateLimitWait)
			_ = drainAndClose(resp.Body)
			if c.opts.RateLimitRetries > 0 && limited >= c.opts.RateLimitRetries {
				return nil, perr.Wrapf(&StatusError{Status: resp.StatusCode}, perr.ErrorCodeTooManyRequests,
					"%s still rate limited after %d retries", c.opts.Name, limited)
			}
			c.log.Warn().Dur("sleep", wait).Int("retry", limited).Msg("rate limited backing off")
			if c.sleep(ctx, wait) != nil {
				return nil, c.aborted(ctx, parent)
			}
			limited++
			continue

		case resp.StatusCode >= 500:
			_ = drainAndClose(resp.Body)
			if attempts >= c.opts.MaxRetries {
				return nil, perr.Wrapf(&StatusError{Status: resp.StatusCode}, perr.ErrorCodeUnavailable,
					"%s server error after %d retries", c.opts.Name, attempts)
			}
			back := c.backoff(attempts, resp.StatusCode == http.StatusGatewayTimeout)
			c.log.Warn().Int("status", resp.StatusCode).Dur("retry_in", back).Int("attempt", attempts).Msg("server error retrying")
			if c.sleep(ctx, back) != nil {
				return nil, c.aborted(ctx, parent)
			}
			attempts++
			continue

		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, perr.Wrapf(&StatusError{Status: resp.StatusCode, Body: string(body)}, perr.ErrorCodeUpstream,
				"%s unexpected response", c.opts.Name)
		}
	}
}

// aborted classifies why the request context ended. A parent deadline is a
// network failure; everything else (CancelAll, parent cancel) is a cancellation
func (c *Client) aborted(ctx, parent context.Context) error {
	if errors.Is(parent.Err(), context.DeadlineExceeded) {
		return perr.Wrapf(parent.Err(), perr.ErrorCodeNetwork, "%s request timed out", c.opts.Name)
	}
	cause := ctx.Err()
	if cause == nil {
		cause = context.Canceled
	}
	return perr.Wrapf(cause, perr.ErrorCodeCanceled, "%s request canceled", c.opts.Name)
}

// backoff returns base*2^attempt plus jitter in [0, base), capped at maxBackoff.
// The base doubles for gateway timeouts
func (c *Client) backoff(attempt int, gatewayTimeout bool) time.Duration {
	base := c.opts.RetryBase
	if gatewayTimeout {
		base *= 2
	}
	shift := min(max(attempt, 0), maxShift)
	return min(base<<uint(shift)+c.jitter(base), maxBackoff)
}

// CancelAll aborts every registered request, including ones sleeping in backoff,
// and empties the registry. It returns how many requests were aborted
func (c *Client) CancelAll() int {
	c.mu.Lock()
	fns := c.active
	c.active = map[string]context.CancelFunc{}
	c.mu.Unlock()

	for _, cancel := range fns {
		cancel()
	}
	if len(fns) > 0 {
		c.log.Info().Int("requests", len(fns)).Msg("canceled active requests")
	}
	return len(fns)
}

// Active returns the number of registered requests
func (c *Client) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

func (c *Client) register(id string, cancel context.CancelFunc) {
	c.mu.Lock()
	c.active[id] = cancel
	c.mu.Unlock()
}

func (c *Client) unregister(id string) {
	c.mu.Lock()
	delete(c.active, id)
	c.mu.Unlock()
}

// DecodeJSON reads at most limit bytes of resp into out and closes the body.
// A read cut short by CancelAll surfaces as a Canceled error
func (c *Client) DecodeJSON(resp *http.Response, limit int64, out any) error {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("close body failed")
		}
	}()
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		if tb, ok := resp.Body.(*trackedBody); ok && tb.ctx.Err() != nil {
			return perr.Wrapf(err, perr.ErrorCodeCanceled, "%s read canceled", c.opts.Name)
		}
		return perr.Wrapf(err, perr.ErrorCodeNetwork, "%s read body failed", c.opts.Name)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "%s decode response failed", c.opts.Name)
	}
	return nil
}

// trackedBody releases the request registration once the caller is done reading
type trackedBody struct {
	io.ReadCloser
	ctx  context.Context
	once sync.Once
	done func()
}

func (b *trackedBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.done)
	return err
}

func uniformJitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(base)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
