package hook

import (
	"context"
	"log/slog"
	"sync"

	aiclient "github.com/deeplooplabs/ai-client"
)

// Hook is the base interface for all hooks
type Hook interface {
	// Name returns the unique name of this hook
	Name() string
}

// CredentialHook supplies the API key for each call, e.g. to rotate keys
type CredentialHook interface {
	Hook
	// APIKey returns the key to send. An empty key falls back to the configured one.
	APIKey(ctx context.Context, rc *aiclient.Context) (string, error)
}

// RequestHook is called around every API call
type RequestHook interface {
	Hook
	// BeforeRequest is called before the request is sent; it may add headers
	// to rc.Header. An error aborts the call.
	BeforeRequest(ctx context.Context, rc *aiclient.Context) error
	// AfterResponse is called once the final response status is known
	AfterResponse(ctx context.Context, rc *aiclient.Context, statusCode int)
}

// StreamingHook is called for each streaming chunk
type StreamingHook interface {
	Hook
	// OnChunk is called for each SSE data chunk in streaming responses.
	// Returns the (potentially modified) chunk data.
	OnChunk(ctx context.Context, rc *aiclient.Context, chunk []byte) ([]byte, error)
}

// ErrorHook is called when a call fails
type ErrorHook interface {
	Hook
	OnError(ctx context.Context, rc *aiclient.Context, err error)
}

// Registry manages registered hooks. It is safe for concurrent use.
type Registry struct {
	mu              sync.RWMutex
	hooks           []Hook
	credentialHooks []CredentialHook
	requestHooks    []RequestHook
	streamingHooks  []StreamingHook
	errorHooks      []ErrorHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register registers a hook under every hook interface it implements
func (r *Registry) Register(hooks ...Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, hook := range hooks {
		r.hooks = append(r.hooks, hook)

		matched := false
		if h, ok := hook.(CredentialHook); ok {
			r.credentialHooks = append(r.credentialHooks, h)
			matched = true
		}
		if h, ok := hook.(RequestHook); ok {
			r.requestHooks = append(r.requestHooks, h)
			matched = true
		}
		if h, ok := hook.(StreamingHook); ok {
			r.streamingHooks = append(r.streamingHooks, h)
			matched = true
		}
		if h, ok := hook.(ErrorHook); ok {
			r.errorHooks = append(r.errorHooks, h)
			matched = true
		}
		if !matched {
			slog.Warn("hook implements no known hook interface", "hook", hook.Name())
		}
	}
}

// CredentialHooks returns all credential hooks
func (r *Registry) CredentialHooks() []CredentialHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.credentialHooks
}

// RequestHooks returns all request hooks
func (r *Registry) RequestHooks() []RequestHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.requestHooks
}

// StreamingHooks returns all streaming hooks
func (r *Registry) StreamingHooks() []StreamingHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.streamingHooks
}

// ErrorHooks returns all error hooks
func (r *Registry) ErrorHooks() []ErrorHook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errorHooks
}

// All returns all registered hooks
func (r *Registry) All() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hooks
}

// StaticHeaders is a RequestHook that adds fixed headers to every call
type StaticHeaders struct {
	Headers map[string]string
}

// Name implements Hook
func (h *StaticHeaders) Name() string {
	return "static-headers"
}

// BeforeRequest implements RequestHook
func (h *StaticHeaders) BeforeRequest(_ context.Context, rc *aiclient.Context) error {
	for k, v := range h.Headers {
		rc.Header.Set(k, v)
	}
	return nil
}

// AfterResponse implements RequestHook
func (h *StaticHeaders) AfterResponse(context.Context, *aiclient.Context, int) {}

// KeyRing is a CredentialHook that rotates through a fixed set of API keys
type KeyRing struct {
	mu   sync.Mutex
	keys []string
	next int
}

// NewKeyRing creates a KeyRing over keys
func NewKeyRing(keys ...string) *KeyRing {
	return &KeyRing{keys: keys}
}

// Name implements Hook
func (k *KeyRing) Name() string {
	return "key-ring"
}

// APIKey implements CredentialHook
func (k *KeyRing) APIKey(context.Context, *aiclient.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.keys) == 0 {
		return "", nil
	}
	key := k.keys[k.next%len(k.keys)]
	k.next++
	return key, nil
}

// Logging is an ErrorHook that logs failed calls
type Logging struct {
	Logger *slog.Logger
}

// Name implements Hook
func (l *Logging) Name() string {
	return "logging"
}

// OnError implements ErrorHook
func (l *Logging) OnError(ctx context.Context, rc *aiclient.Context, err error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, "api call failed",
		"operation", rc.Operation,
		"request_id", rc.RequestID,
		"elapsed", rc.Elapsed(),
		"error", err,
	)
}
