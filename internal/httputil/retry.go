// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the API clients.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Sleep waits for d or until ctx is done. Tests replace it to avoid real
// waits and to record the delays that would have been taken.
var Sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const (
	defaultMaxAttempts = 10
	defaultRetryDelay  = 3 * time.Second
	maxErrorBody       = 512
)

// RetryReason classifies why an attempt is being retried.
type RetryReason string

const (
	ReasonRateLimited RetryReason = "rate_limited"
	ReasonServerError RetryReason = "server_error"
	ReasonTransport   RetryReason = "transport"
	ReasonDecode      RetryReason = "decode"
)

// Policy controls GetJSON's retry loop. Zero values select the defaults:
// ten attempts and a three second delay.
type Policy struct {
	MaxAttempts int
	RetryDelay  time.Duration

	// OnRetry, when set, is called before each wait with the attempt that
	// just failed.
	OnRetry func(attempt int, reason RetryReason, wait time.Duration, err error)
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p Policy) delay() time.Duration {
	if p.RetryDelay <= 0 {
		return defaultRetryDelay
	}
	return p.RetryDelay
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// RequestExhaustedError is returned when every attempt failed with a
// retryable condition. Err is the last underlying failure.
type RequestExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *RequestExhaustedError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *RequestExhaustedError) Unwrap() error { return e.Err }

// IsExhausted reports whether err is (or wraps) a RequestExhaustedError.
func IsExhausted(err error) bool {
	var re *RequestExhaustedError
	return errors.As(err, &re)
}

// GetJSON issues a GET for rawURL and decodes a 2xx body into out.
//
// HTTP 429 waits for Retry-After seconds when the header is all digits and
// for the policy delay otherwise. HTTP 5xx, transport errors, timeouts, and
// undecodable bodies wait for the policy delay. Any other status returns a
// *StatusError immediately. When the attempts run out the result is a
// *RequestExhaustedError. Context cancellation returns ctx.Err().
func GetJSON(ctx context.Context, client *http.Client, rawURL string, header http.Header, policy Policy, out any) error {
	if client == nil {
		client = http.DefaultClient
	}

	maxAttempts := policy.attempts()
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		wait, reason, err := getOnce(ctx, client, rawURL, header, policy.delay(), out)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if reason == "" {
			return err
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, reason, wait, err)
		}
		if err := Sleep(ctx, wait); err != nil {
			return err
		}
	}
	return &RequestExhaustedError{URL: rawURL, Attempts: maxAttempts, Err: lastErr}
}

// getOnce performs a single attempt. A non-empty reason marks err as
// retryable after waiting for the returned duration.
func getOnce(ctx context.Context, client *http.Client, rawURL string, header http.Header, delay time.Duration, out any) (time.Duration, RetryReason, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, "", fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return delay, ReasonTransport, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return retryAfter(resp.Header.Get("Retry-After"), delay), ReasonRateLimited,
			&StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return delay, ReasonServerError, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return delay, ReasonDecode, fmt.Errorf("decoding response: %w", err)
	}
	return 0, "", nil
}

// retryAfter honours a Retry-After header made only of digits. Dates and
// anything else fall back to the policy delay.
func retryAfter(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return fallback
		}
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
