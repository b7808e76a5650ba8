package aiclient

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Context describes one API call as it passes through hooks and metrics
type Context struct {
	RequestID string
	StartTime time.Time
	Operation string
	Method    string
	Path      string
	Header    http.Header
	Metadata  map[string]any
	mu        sync.RWMutex
}

// NewContext creates the context for a call of the named operation
func NewContext(operation, method, path string) *Context {
	return &Context{
		RequestID: uuid.New().String(),
		StartTime: time.Now(),
		Operation: operation,
		Method:    method,
		Path:      path,
		Header:    make(http.Header),
		Metadata:  make(map[string]any),
	}
}

// Set stores a value in the context metadata
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Metadata[key] = value
}

// Get retrieves a value from the context metadata
func (c *Context) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Metadata[key]
}

// Elapsed returns the time since the call started
func (c *Context) Elapsed() time.Duration {
	return time.Since(c.StartTime)
}
