// Package ratelimit throttles outgoing calls on the client side so bursts
// stay under the account's request rate instead of failing with 429.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	aiclient "github.com/deeplooplabs/ai-client"
	"github.com/deeplooplabs/ai-client/hook"
)

// Limiter hands out request slots per key
type Limiter interface {
	// Allow takes a slot for key if one is free
	Allow(key string) bool

	// Wait blocks until a slot for key is free or ctx is done
	Wait(ctx context.Context, key string) error

	// Reset forgets the state of key
	Reset(key string)
}

// Config holds rate limiter configuration
type Config struct {
	// RequestsPerSecond is the sustained request rate
	RequestsPerSecond float64

	// Burst is the maximum number of requests sent back to back
	Burst int

	// Enabled indicates whether rate limiting is enabled
	Enabled bool
}

// DefaultConfig returns a default rate limiter configuration
func DefaultConfig() *Config {
	return &Config{
		RequestsPerSecond: 50,
		Burst:             10,
		Enabled:           true,
	}
}

// tokenBucket implements the token bucket algorithm with one bucket per key
type tokenBucket struct {
	mu      sync.Mutex
	config  *Config
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket creates a token bucket limiter
func NewTokenBucket(config *Config) Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &tokenBucket{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// take removes one token from key's bucket when available. Otherwise it
// returns how long until the next token is due.
func (tb *tokenBucket) take(key string) (bool, time.Duration) {
	if !tb.config.Enabled || tb.config.RequestsPerSecond <= 0 {
		return true, 0
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(max(tb.config.Burst, 1)), lastRefill: now}
		tb.buckets[key] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = math.Min(b.tokens+elapsed*tb.config.RequestsPerSecond, float64(max(tb.config.Burst, 1)))
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	missing := 1 - b.tokens
	return false, time.Duration(missing / tb.config.RequestsPerSecond * float64(time.Second))
}

// Allow implements Limiter
func (tb *tokenBucket) Allow(key string) bool {
	ok, _ := tb.take(key)
	return ok
}

// Wait implements Limiter
func (tb *tokenBucket) Wait(ctx context.Context, key string) error {
	for {
		ok, wait := tb.take(key)
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Reset implements Limiter
func (tb *tokenBucket) Reset(key string) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	delete(tb.buckets, key)
}

// Hook is a RequestHook that waits for a limiter slot before every call.
// Calls share one bucket unless Key splits them.
type Hook struct {
	Limiter Limiter

	// Key selects the bucket for a call (optional)
	Key func(rc *aiclient.Context) string
}

// NewHook creates a hook throttling all calls through one bucket
func NewHook(config *Config) *Hook {
	return &Hook{Limiter: NewTokenBucket(config)}
}

// PerOperation buckets calls by operation name
func PerOperation(rc *aiclient.Context) string {
	return rc.Operation
}

// Name implements hook.Hook
func (h *Hook) Name() string {
	return "rate-limit"
}

// BeforeRequest implements hook.RequestHook
func (h *Hook) BeforeRequest(ctx context.Context, rc *aiclient.Context) error {
	key := ""
	if h.Key != nil {
		key = h.Key(rc)
	}
	return h.Limiter.Wait(ctx, key)
}

// AfterResponse implements hook.RequestHook
func (h *Hook) AfterResponse(context.Context, *aiclient.Context, int) {}

var _ hook.RequestHook = (*Hook)(nil)
