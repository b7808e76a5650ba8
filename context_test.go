package aiclient

import (
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestNewContext(t *testing.T) {
	ctx := NewContext("CreateAssistant", http.MethodPost, "/assistants")

	if _, err := uuid.Parse(ctx.RequestID); err != nil {
		t.Errorf("RequestID should be a uuid, got '%s'", ctx.RequestID)
	}
	if ctx.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}
	if ctx.Operation != "CreateAssistant" || ctx.Method != http.MethodPost || ctx.Path != "/assistants" {
		t.Errorf("unexpected call description: %s %s %s", ctx.Operation, ctx.Method, ctx.Path)
	}
	if ctx.Header == nil || ctx.Metadata == nil {
		t.Error("Header and Metadata should be initialized")
	}
	if NewContext("x", "GET", "/").RequestID == ctx.RequestID {
		t.Error("RequestID should be unique per call")
	}
}

func TestContextSetGet(t *testing.T) {
	ctx := NewContext("ListAssistants", http.MethodGet, "/assistants")
	ctx.Set("key", "value")

	if val := ctx.Get("key"); val != "value" {
		t.Errorf("expected 'value', got '%v'", val)
	}
	if val := ctx.Get("nonexistent"); val != nil {
		t.Errorf("expected nil, got '%v'", val)
	}
}

func TestContextConcurrentAccess(t *testing.T) {
	ctx := NewContext("ListAssistants", http.MethodGet, "/assistants")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx.Set("attempt", i)
			_ = ctx.Get("attempt")
		}(i)
	}
	wg.Wait()

	if ctx.Get("attempt") == nil {
		t.Error("expected a value to be stored")
	}
}
