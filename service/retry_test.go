package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()

	for _, status := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, cfg.shouldRetry(status), "status %d", status)
	}
	for _, status := range []int{200, 400, 401, 404, 422} {
		assert.False(t, cfg.shouldRetry(status), "status %d", status)
	}

	cfg.Enabled = false
	assert.False(t, cfg.shouldRetry(503))
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.Jitter = false

	assert.Equal(t, 100*time.Millisecond, cfg.getBackoffDuration(0))
	assert.Equal(t, 200*time.Millisecond, cfg.getBackoffDuration(1))
	assert.Equal(t, 400*time.Millisecond, cfg.getBackoffDuration(2))
	assert.Equal(t, 10*time.Second, cfg.getBackoffDuration(20), "capped at MaxBackoff")

	cfg.Jitter = true
	for i := 0; i < 20; i++ {
		d := cfg.getBackoffDuration(1)
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.LessOrEqual(t, d, 250*time.Millisecond)
	}
}

func TestRetryAfter(t *testing.T) {
	resp := response(429)
	resp.Header.Set("Retry-After", "2")

	d, ok := retryAfter(resp, time.Minute)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	d, ok = retryAfter(resp, time.Second)
	require.True(t, ok)
	assert.Equal(t, time.Second, d)

	_, ok = retryAfter(response(429), time.Minute)
	assert.False(t, ok)
}

func TestRetryWithBackoff_TransportError(t *testing.T) {
	cfg := fastRetry()

	attempts := 0
	var retried []int
	resp, err := retryWithBackoff(context.Background(), cfg, func() (*http.Response, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return response(200), nil
	}, func(n, status int, err error) {
		retried = append(retried, n)
		assert.Zero(t, status)
		assert.Error(t, err)
	})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryWithBackoff_Disabled(t *testing.T) {
	attempts := 0
	resp, err := retryWithBackoff(context.Background(), nil, func() (*http.Response, error) {
		attempts++
		return response(503), nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_LastErrorReturned(t *testing.T) {
	cfg := fastRetry()
	cfg.MaxRetries = 1

	attempts := 0
	_, err := retryWithBackoff(context.Background(), cfg, func() (*http.Response, error) {
		attempts++
		return nil, errors.New("dial tcp: timeout")
	}, nil)

	assert.EqualError(t, err, "dial tcp: timeout")
	assert.Equal(t, 2, attempts)
}
