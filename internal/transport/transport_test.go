package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/chatwidget/internal/compose"
	"github.com/ashureev/chatwidget/internal/domain"
	"github.com/ashureev/chatwidget/internal/session"
)

type recordedSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleep) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func (r *recordedSleep) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func newRequest(t *testing.T, endpoint string) *compose.Request {
	t.Helper()
	req, err := compose.Build(compose.Input{
		Endpoint:  endpoint,
		AuthToken: "secret",
		Message: domain.OutboundMessage{
			SessionID: "web_000000000001",
			Text:      "hi",
			Language:  domain.LocaleEnglish,
		},
	})
	require.NoError(t, err)
	return req
}

func TestSendAlways429ExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rec := &recordedSleep{}
	tr := New(srv.Client(), WithSleep(rec.sleep))

	resp, err := tr.Send(context.Background(), newRequest(t, srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(MaxRetries+1), hits.Load())
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
	}, rec.recorded())
}

func TestSendHonoursRetryAfter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"reply":"ok"}`)
	}))
	defer srv.Close()

	rec := &recordedSleep{}
	tr := New(srv.Client(), WithSleep(rec.sleep))

	resp, err := tr.Send(context.Background(), newRequest(t, srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.recorded())
}

func TestSendReturnsNon429Immediately(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(status)
		}))

		rec := &recordedSleep{}
		resp, err := New(srv.Client(), WithSleep(rec.sleep)).Send(context.Background(), newRequest(t, srv.URL))
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, status, resp.StatusCode)
		assert.Equal(t, int32(1), hits.Load(), "status %d", status)
		assert.Empty(t, rec.recorded())
		srv.Close()
	}
}

func TestSendReplaysHeadersAndBody(t *testing.T) {
	var (
		mu     sync.Mutex
		seen   []string
		bodies []string
	)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, r.Header.Get(session.HeaderName)+"|"+r.Header.Get("Authorization"))
		bodies = append(bodies, string(body))
		mu.Unlock()
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := &recordedSleep{}
	resp, err := New(srv.Client(), WithSleep(rec.sleep)).Send(context.Background(), newRequest(t, srv.URL))
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, seen, 3)
	for i := range seen {
		assert.Equal(t, "web_000000000001|Bearer secret", seen[i])
		assert.Equal(t, bodies[0], bodies[i])
	}
	assert.NotEmpty(t, bodies[0])
}

type failingDoer struct{ calls int }

func (f *failingDoer) Do(*http.Request) (*http.Response, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestSendNetworkErrorIsDistinct(t *testing.T) {
	doer := &failingDoer{}
	rec := &recordedSleep{}

	resp, err := New(doer, WithSleep(rec.sleep)).Send(context.Background(), newRequest(t, "http://chat.invalid/api/chat"))
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, 0, netErr.Attempt)
	assert.Contains(t, netErr.Error(), "connection refused")
	assert.Equal(t, 1, doer.calls)
	assert.Empty(t, rec.recorded())
}

func TestSendStopsWhenContextDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := New(srv.Client(), WithSleep(func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}))
	_, err := tr.Send(ctx, newRequest(t, srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		name       string
		attempt    int
		retryAfter string
		want       time.Duration
	}{
		{"first attempt", 0, "", 500 * time.Millisecond},
		{"fourth attempt", 3, "", 4 * time.Second},
		{"seconds hint", 0, "2", 2 * time.Second},
		{"hint wins over attempt", 3, "1", time.Second},
		{"zero hint", 2, "0", 0},
		{"padded hint", 0, " 3 ", 3 * time.Second},
		{"http date falls back", 1, "Wed, 21 Oct 2015 07:28:00 GMT", time.Second},
		{"fraction falls back", 0, "1.5", 500 * time.Millisecond},
		{"negative falls back", 0, "-1", 500 * time.Millisecond},
		{"huge hint clamps", 0, "9999999999999", time.Duration(maxRetryAfterSecs) * time.Second},
		{"out of range hint clamps", 0, "99999999999999999999", time.Duration(maxRetryAfterSecs) * time.Second},
		{"out of range negative falls back", 1, "-99999999999999999999", time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Backoff(tt.attempt, tt.retryAfter, BaseDelay))
		})
	}
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestNewDefaults(t *testing.T) {
	tr := New(nil)
	assert.Equal(t, http.DefaultClient, tr.client)
	assert.Equal(t, MaxRetries, tr.maxRetries)
	assert.Equal(t, BaseDelay, tr.baseDelay)

	tr = New(nil, WithMaxRetries(1), WithBaseDelay(time.Millisecond))
	assert.Equal(t, 1, tr.maxRetries)
	assert.Equal(t, time.Millisecond, tr.baseDelay)
	assert.True(t, strings.HasPrefix((&NetworkError{Err: errors.New("x")}).Error(), "network failure on attempt 1"))
}
