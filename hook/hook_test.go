package hook

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aiclient "github.com/deeplooplabs/ai-client"
)

// mockHook implements Hook interface for testing
type mockHook struct {
	name string
}

func (m *mockHook) Name() string {
	return m.name
}

func TestHookRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	registry.Register(&mockHook{name: "hook1"})
	registry.Register(&mockHook{name: "hook2"})

	assert.Len(t, registry.All(), 2)
	assert.Empty(t, registry.RequestHooks())
}

// multiHook implements both RequestHook and ErrorHook
type multiHook struct {
	mockHook
	before int
	after  []int
	errs   []error
}

func (m *multiHook) BeforeRequest(_ context.Context, rc *aiclient.Context) error {
	m.before++
	rc.Header.Set("X-Test", "1")
	return nil
}

func (m *multiHook) AfterResponse(_ context.Context, _ *aiclient.Context, status int) {
	m.after = append(m.after, status)
}

func (m *multiHook) OnError(_ context.Context, _ *aiclient.Context, err error) {
	m.errs = append(m.errs, err)
}

func TestHookRegistry_RegistersEveryInterface(t *testing.T) {
	registry := NewRegistry()
	h := &multiHook{mockHook: mockHook{name: "multi"}}

	registry.Register(h)

	require.Len(t, registry.RequestHooks(), 1)
	require.Len(t, registry.ErrorHooks(), 1)
	assert.Empty(t, registry.StreamingHooks())
	assert.Empty(t, registry.CredentialHooks())

	rc := aiclient.NewContext("CreateAssistant", http.MethodPost, "/assistants")
	require.NoError(t, registry.RequestHooks()[0].BeforeRequest(context.Background(), rc))
	assert.Equal(t, "1", rc.Header.Get("X-Test"))
}

func TestStaticHeaders(t *testing.T) {
	h := &StaticHeaders{Headers: map[string]string{"X-Team": "search"}}
	rc := aiclient.NewContext("ListAssistants", http.MethodGet, "/assistants")

	require.NoError(t, h.BeforeRequest(context.Background(), rc))
	assert.Equal(t, "search", rc.Header.Get("X-Team"))
}

func TestKeyRing_Rotates(t *testing.T) {
	ring := NewKeyRing("sk-a", "sk-b")
	rc := aiclient.NewContext("ListAssistants", http.MethodGet, "/assistants")

	var keys []string
	for i := 0; i < 3; i++ {
		key, err := ring.APIKey(context.Background(), rc)
		require.NoError(t, err)
		keys = append(keys, key)
	}
	assert.Equal(t, []string{"sk-a", "sk-b", "sk-a"}, keys)

	empty, err := NewKeyRing().APIKey(context.Background(), rc)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLogging_OnError(t *testing.T) {
	var buf bytes.Buffer
	h := &Logging{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	rc := aiclient.NewContext("DeleteAssistant", http.MethodDelete, "/assistants/asst_1")

	h.OnError(context.Background(), rc, errors.New("boom"))

	assert.Contains(t, buf.String(), `"operation":"DeleteAssistant"`)
	assert.Contains(t, buf.String(), rc.RequestID)
	assert.Contains(t, buf.String(), "boom")
}
