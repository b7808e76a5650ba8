package service

import (
	"context"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialBackoff is the initial backoff duration (default: 100ms)
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration (default: 10s)
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff (default: 2.0)
	BackoffMultiplier float64

	// Jitter adds up to 25% randomness to backoff (default: true)
	Jitter bool

	// RetryableStatusCodes are HTTP status codes that trigger retries
	RetryableStatusCodes map[int]bool

	// Enabled indicates whether retries are enabled
	Enabled bool
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
		RetryableStatusCodes: map[int]bool{
			http.StatusRequestTimeout:      true, // 408
			http.StatusTooManyRequests:     true, // 429
			http.StatusInternalServerError: true, // 500
			http.StatusBadGateway:          true, // 502
			http.StatusServiceUnavailable:  true, // 503
			http.StatusGatewayTimeout:      true, // 504
		},
		Enabled: true,
	}
}

// NoRetry returns a configuration that sends every request once
func NoRetry() *RetryConfig {
	return &RetryConfig{}
}

// shouldRetry determines if a request should be retried based on status code
func (rc *RetryConfig) shouldRetry(statusCode int) bool {
	if !rc.Enabled {
		return false
	}
	return rc.RetryableStatusCodes[statusCode]
}

// getBackoffDuration calculates the backoff duration for the given attempt
func (rc *RetryConfig) getBackoffDuration(attempt int) time.Duration {
	backoff := float64(rc.InitialBackoff) * math.Pow(rc.BackoffMultiplier, float64(attempt))
	if backoff > float64(rc.MaxBackoff) {
		backoff = float64(rc.MaxBackoff)
	}

	if rc.Jitter {
		backoff += backoff * 0.25 * rand.Float64()
	}

	return time.Duration(backoff)
}

// retryAfter reads a Retry-After header given in seconds
func retryAfter(resp *http.Response, limit time.Duration) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0, false
	}
	d := time.Duration(secs) * time.Second
	if d > limit {
		d = limit
	}
	return d, true
}

// retryWithBackoff executes fn until it returns a non-retryable response, the
// attempts run out, or ctx is done. onRetry is called before each retry with
// the status that caused it, or 0 for a transport error.
func retryWithBackoff(ctx context.Context, config *RetryConfig, fn func() (*http.Response, error), onRetry func(attempt, status int, err error)) (*http.Response, error) {
	if config == nil || !config.Enabled {
		return fn()
	}

	var (
		resp    *http.Response
		lastErr error
	)
	for attempt := 0; ; attempt++ {
		resp, lastErr = fn()
		if lastErr == nil && !config.shouldRetry(resp.StatusCode) {
			return resp, nil
		}
		if lastErr != nil && ctx.Err() != nil {
			return nil, lastErr
		}
		if attempt >= config.MaxRetries {
			break
		}

		wait := config.getBackoffDuration(attempt)
		status := 0
		if lastErr == nil {
			status = resp.StatusCode
			if d, ok := retryAfter(resp, config.MaxBackoff); ok {
				wait = d
			}
			resp.Body.Close()
		}
		if onRetry != nil {
			onRetry(attempt+1, status, lastErr)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return resp, nil
}
