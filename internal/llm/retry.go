// Package llm holds provider-independent pieces of the LLM client layer:
// the retry policy and the status error type providers report failures with.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// StatusError indicates a provider returned a non-2xx HTTP status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// IsRetryableStatus reports whether an HTTP status is worth retrying.
func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// RetryPolicy retries an operation with exponential backoff. Only errors
// carrying a retryable StatusError are retried; everything else fails fast.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the provider defaults: 3 attempts starting at
// one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 1 * time.Second, MaxDelay: 30 * time.Second}
}

// Do runs fn until it succeeds, exhausts the attempts, or hits a
// non-retryable error. A Retry-After hint from the provider overrides the
// computed backoff for that attempt.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := p.backoff(attempt, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var se *StatusError
		if !errors.As(lastErr, &se) || !IsRetryableStatus(se.StatusCode) {
			return lastErr
		}
	}
	return lastErr
}

func (p RetryPolicy) backoff(attempt int, lastErr error) time.Duration {
	var se *StatusError
	if errors.As(lastErr, &se) && se.RetryAfter > 0 {
		return se.RetryAfter
	}
	base := p.BaseDelay
	if base <= 0 {
		base = 1 * time.Second
	}
	delay := base << (attempt - 1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// ParseRetryAfterHeader parses a Retry-After header value into a duration.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) time.Duration {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
