// Package transport sends composed chat requests and recovers from rate
// limiting with a bounded retry loop.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/chatwidget/internal/compose"
)

const (
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries = 4
	// BaseDelay is the first backoff step when no Retry-After hint is given.
	BaseDelay = 500 * time.Millisecond
)

// ErrNetwork matches any *NetworkError with errors.Is.
var ErrNetwork = errors.New("network failure")

// NetworkError reports a transport-level failure where no response arrived.
type NetworkError struct {
	Attempt int
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure on attempt %d: %v", e.Attempt+1, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ErrNetwork).
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Doer is the subset of *http.Client the transport needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Transport delivers requests, retrying on 429 responses only.
type Transport struct {
	client     Doer
	maxRetries int
	baseDelay  time.Duration
	sleep      SleepFunc
	logger     *slog.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithMaxRetries overrides MaxRetries.
func WithMaxRetries(n int) Option {
	return func(t *Transport) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithBaseDelay overrides BaseDelay.
func WithBaseDelay(d time.Duration) Option {
	return func(t *Transport) { t.baseDelay = d }
}

// WithSleep replaces the wait between attempts. Tests use it to record delays.
func WithSleep(fn SleepFunc) Option {
	return func(t *Transport) { t.sleep = fn }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// New creates a Transport. A nil client means http.DefaultClient.
func New(client Doer, opts ...Option) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	t := &Transport{
		client:     client,
		maxRetries: MaxRetries,
		baseDelay:  BaseDelay,
		sleep:      sleepContext,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send performs req, retrying while the server answers 429 Too Many Requests.
//
// Any other status is returned immediately. A network failure is returned
// immediately as a *NetworkError. When retries are exhausted the final 429
// response is returned with a nil error so the caller can report it. The
// caller owns the returned body.
func (t *Transport) Send(ctx context.Context, req *compose.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		httpReq, err := req.HTTPRequest(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := t.client.Do(httpReq)
		if err != nil {
			return nil, &NetworkError{Attempt: attempt, Err: err}
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= t.maxRetries {
			return resp, nil
		}

		delay := Backoff(attempt, resp.Header.Get("Retry-After"), t.baseDelay)
		drain(resp)

		t.logger.Info("Rate limited, retrying",
			"attempt", attempt+1,
			"delay", delay,
			"status", resp.StatusCode)

		if err := t.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("wait before retry: %w", err)
		}
	}
}

// Backoff returns the wait before the next attempt. A Retry-After value in
// whole seconds is honoured exactly; otherwise the delay is base * 2^attempt.
func Backoff(attempt int, retryAfter string, base time.Duration) time.Duration {
	if s := strings.TrimSpace(retryAfter); s != "" {
		secs, err := strconv.ParseInt(s, 10, 64)
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(s, "-") {
			secs, err = maxRetryAfterSecs, nil
		}
		if err == nil && secs >= 0 {
			return time.Duration(min(secs, maxRetryAfterSecs)) * time.Second
		}
	}
	return base * time.Duration(1<<attempt)
}

// maxRetryAfterSecs is the largest Retry-After that fits in a time.Duration.
const maxRetryAfterSecs = math.MaxInt64 / int64(time.Second)

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
