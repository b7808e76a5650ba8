package service

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"

	"github.com/deeplooplabs/ai-client/openai"
)

// newVCRService returns a service whose HTTP calls are replayed from
// testdata/fixtures/<name>.yaml. Set VCR_MODE=record and OPENAI_API_KEY to
// refresh the cassette against the live API.
func newVCRService(t *testing.T, name string) *Service {
	t.Helper()

	mode := recorder.ModeReplaying
	apiKey := "sk-replay"
	if os.Getenv("VCR_MODE") == "record" {
		if apiKey = os.Getenv("OPENAI_API_KEY"); apiKey == "" {
			t.Skip("OPENAI_API_KEY not set")
		}
		mode = recorder.ModeRecording
	}

	r, err := recorder.NewAsMode(filepath.Join("testdata", "fixtures", name), mode, nil)
	require.NoError(t, err)
	r.SetMatcher(func(r *http.Request, i cassette.Request) bool {
		return r.Method == i.Method && r.URL.String() == i.URL
	})
	r.AddFilter(func(i *cassette.Interaction) error {
		delete(i.Request.Headers, "Authorization")
		return nil
	})
	t.Cleanup(func() {
		if err := r.Stop(); err != nil {
			t.Errorf("stop recorder: %v", err)
		}
	})

	return New(NewConfig(apiKey).
		WithHTTPClient(&http.Client{Transport: r}).
		WithRetryConfig(NoRetry()).
		WithMetrics(NewMetrics("vcr", prometheus.NewRegistry())))
}

func TestAssistantLifecycle_Replay(t *testing.T) {
	svc := newVCRService(t, "assistant_lifecycle")
	ctx := context.Background()

	weather := openai.AssistantFunction{
		Name:        "weather_reporter",
		Description: "Get the current weather of a location",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{"type": "string", "description": "The city and state, e.g. San Francisco, CA"},
				"unit":     map[string]any{"type": "string", "enum": []string{"celsius", "fahrenheit"}},
			},
			"required": []string{"location"},
		},
	}

	created, err := svc.CreateAssistant(ctx, &openai.AssistantRequest{
		Model:          "gpt-3.5-turbo",
		Name:           openai.Ptr("Math Tutor"),
		Description:    openai.Ptr("the personal Math Tutor"),
		Instructions:   openai.Ptr("You are a personal Math Tutor."),
		Tools:          []openai.AssistantTool{openai.CodeInterpreterTool(), openai.FunctionTool(weather)},
		ResponseFormat: openai.Ptr(openai.ResponseFormatAuto),
		Temperature:    openai.Ptr(0.2),
	})
	require.NoError(t, err)

	assert.Equal(t, "Math Tutor", *created.Name)
	require.Len(t, created.Tools, 2)
	assert.Equal(t, openai.ToolTypeCodeInterpreter, created.Tools[0].Type)
	assert.Equal(t, openai.ToolTypeFunction, created.Tools[1].Type)
	assert.Equal(t, 0.2, *created.Temperature)
	require.NotNil(t, created.ResponseFormat)
	assert.Equal(t, openai.ResponseFormatAuto, *created.ResponseFormat)
	assert.Equal(t, "You are a personal Math Tutor.", *created.Instructions)
	assert.Equal(t, "gpt-3.5-turbo", created.Model)
	assert.Equal(t, "the personal Math Tutor", *created.Description)

	retrieved, err := svc.RetrieveAssistant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Math Tutor", *retrieved.Name)

	modified, err := svc.ModifyAssistant(ctx, created.ID, &openai.ModifyAssistantRequest{
		Name:        openai.Ptr("Science Tutor"),
		Temperature: openai.Ptr(1.0),
		Description: openai.Ptr("the personal Science Tutor"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Science Tutor", *modified.Name)
	assert.Equal(t, 1.0, *modified.Temperature)
	assert.Equal(t, "the personal Science Tutor", *modified.Description)

	list, err := svc.ListAssistants(ctx, openai.ListSearchParameters{Limit: 20, Order: openai.OrderDesc})
	require.NoError(t, err)
	assert.NotEmpty(t, list.Data)

	deleted, err := svc.DeleteAssistant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.True(t, deleted.Deleted)
}
