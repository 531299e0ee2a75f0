// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// No real waits in tests.
	Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	RetryBaseDelay = time.Millisecond
}

// recordSleeps swaps Sleep for a recorder for the duration of the test.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	old := Sleep
	Sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	t.Cleanup(func() { Sleep = old })
	return &waits
}

type payload struct {
	Value string `json:"value"`
}

func TestGetJSON_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer ts.Close()

	header := http.Header{}
	header.Set("x-api-key", "secret")

	var out payload
	err := GetJSON(context.Background(), ts.Client(), ts.URL, header, Policy{}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSON_RetryAfterDigits(t *testing.T) {
	waits := recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"value":"later"}`))
	}))
	defer ts.Close()

	var out payload
	err := GetJSON(context.Background(), ts.Client(), ts.URL, nil, Policy{RetryDelay: 3 * time.Second}, &out)
	require.NoError(t, err)
	assert.Equal(t, "later", out.Value)
	assert.Equal(t, []time.Duration{7 * time.Second}, *waits)
}

func TestGetJSON_RetryAfterDateFallsBack(t *testing.T) {
	waits := recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	var out payload
	require.NoError(t, GetJSON(context.Background(), ts.Client(), ts.URL, nil, Policy{RetryDelay: 3 * time.Second}, &out))
	assert.Equal(t, []time.Duration{3 * time.Second}, *waits)
}

func TestGetJSON_ServerErrorThenSuccess(t *testing.T) {
	var retries []RetryReason
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"value":"up"}`))
	}))
	defer ts.Close()

	policy := Policy{OnRetry: func(_ int, reason RetryReason, _ time.Duration, _ error) {
		retries = append(retries, reason)
	}}
	var out payload
	require.NoError(t, GetJSON(context.Background(), ts.Client(), ts.URL, nil, policy, &out))
	assert.Equal(t, "up", out.Value)
	assert.Equal(t, []RetryReason{ReasonServerError, ReasonServerError}, retries)
}

func TestGetJSON_NonRetryableStatus(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad query", http.StatusBadRequest)
	}))
	defer ts.Close()

	var out payload
	err := GetJSON(context.Background(), ts.Client(), ts.URL, nil, Policy{}, &out)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Contains(t, se.Body, "bad query")
	assert.False(t, IsExhausted(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSON_Exhausted(t *testing.T) {
	waits := recordSleeps(t)
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	var out payload
	err := GetJSON(context.Background(), ts.Client(), ts.URL, nil, Policy{MaxAttempts: 4}, &out)
	require.Error(t, err)

	var re *RequestExhaustedError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, ts.URL, re.URL)
	assert.Equal(t, 4, re.Attempts)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Len(t, *waits, 3)

	var se *StatusError
	require.True(t, errors.As(err, &se), "last underlying error is preserved")
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestGetJSON_DefaultAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	var out payload
	err := GetJSON(context.Background(), ts.Client(), ts.URL, nil, Policy{}, &out)
	assert.True(t, IsExhausted(err))
	assert.Equal(t, int32(defaultMaxAttempts), atomic.LoadInt32(&calls))
}

func TestGetJSON_TransportErrorExhausts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	var out payload
	err := GetJSON(context.Background(), http.DefaultClient, url, nil, Policy{MaxAttempts: 2}, &out)
	assert.True(t, IsExhausted(err))
}

func TestGetJSON_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out payload
	err := GetJSON(ctx, ts.Client(), ts.URL, nil, Policy{}, &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsExhausted(err))
}

func TestRetryAfter(t *testing.T) {
	fallback := 3 * time.Second
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", fallback},
		{"0", 0},
		{"12", 12 * time.Second},
		{"1.5", fallback},
		{"-1", fallback},
		{"soon", fallback},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.header, fallback); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
