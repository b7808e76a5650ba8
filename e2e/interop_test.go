package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	openailib "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeplooplabs/ai-client/openai"
)

// These tests drive the mock API with the go-openai client and read the
// results back with the service (or the reverse), checking that both agree
// on the wire format.

func TestInterop_ChatCompletion_JSONObject(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t)
	env.Mock.SetReply("hi there")

	resp, err := env.Client.CreateChatCompletion(context.Background(), openailib.ChatCompletionRequest{
		Model: openailib.GPT4o,
		Messages: []openailib.ChatCompletionMessage{
			{Role: openailib.ChatMessageRoleUser, Content: "Reply in JSON"},
		},
		ResponseFormat: &openailib.ChatCompletionResponseFormat{
			Type: openailib.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	require.NoError(t, err)

	sent := env.Mock.LastChatRequest()
	require.NotNil(t, sent.ResponseFormat, "object form decoded")
	assert.Equal(t, openai.ResponseFormatJSONObject, *sent.ResponseFormat)

	require.Len(t, resp.Choices, 1)
	assert.Equal(t, openailib.ChatMessageRoleAssistant, resp.Choices[0].Message.Role)
	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Choices[0].Message.Content), &content))
	assert.Equal(t, "hi there", content["reply"])
	assert.Equal(t, openailib.FinishReasonStop, resp.Choices[0].FinishReason)
}

func TestInterop_ChatCompletion_TextFormat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t)

	_, err := env.Client.CreateChatCompletion(context.Background(), openailib.ChatCompletionRequest{
		Model:    openailib.GPT4o,
		Messages: []openailib.ChatCompletionMessage{{Role: openailib.ChatMessageRoleUser, Content: "Hello"}},
		ResponseFormat: &openailib.ChatCompletionResponseFormat{
			Type: openailib.ChatCompletionResponseFormatTypeText,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, openai.ResponseFormatText, *env.Mock.LastChatRequest().ResponseFormat)
}

func TestInterop_ChatCompletionStream(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t)
	env.Mock.SetReply("streamed to go-openai")

	stream, err := env.Client.CreateChatCompletionStream(context.Background(), openailib.ChatCompletionRequest{
		Model:    openailib.GPT4o,
		Messages: []openailib.ChatCompletionMessage{{Role: openailib.ChatMessageRoleUser, Content: "Hello"}},
		Stream:   true,
	})
	require.NoError(t, err)
	defer stream.Close()

	var content strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		for _, choice := range chunk.Choices {
			content.WriteString(choice.Delta.Content)
		}
	}
	assert.Equal(t, "streamed to go-openai", content.String())
}

func TestInterop_AssistantCreatedByGoOpenAI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t)
	ctx := context.Background()

	name := "Math Tutor"
	instructions := "You are a personal Math Tutor."
	created, err := env.Client.CreateAssistant(ctx, openailib.AssistantRequest{
		Model:        openailib.GPT4o,
		Name:         &name,
		Instructions: &instructions,
		Tools:        []openailib.AssistantTool{{Type: openailib.AssistantToolTypeCodeInterpreter}},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Name)
	assert.Equal(t, name, *created.Name)

	retrieved, err := env.Service.RetrieveAssistant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, name, *retrieved.Name)
	assert.Equal(t, instructions, *retrieved.Instructions)
	require.Len(t, retrieved.Tools, 1)
	assert.Equal(t, openai.ToolTypeCodeInterpreter, retrieved.Tools[0].Type)
	require.NotNil(t, retrieved.ResponseFormat)
	assert.Equal(t, openai.ResponseFormatAuto, *retrieved.ResponseFormat, "server default")
}

func TestInterop_AssistantCreatedByService(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t)
	ctx := context.Background()

	created, err := env.Service.CreateAssistant(ctx, &openai.AssistantRequest{
		Model:       "gpt-3.5-turbo",
		Name:        openai.Ptr("Math Tutor"),
		Tools:       []openai.AssistantTool{openai.CodeInterpreterTool(), openai.FunctionTool(weatherFunction)},
		Temperature: openai.Ptr(0.2),
	})
	require.NoError(t, err)

	retrieved, err := env.Client.RetrieveAssistant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
	require.Len(t, retrieved.Tools, 2)
	assert.Equal(t, openailib.AssistantToolTypeCodeInterpreter, retrieved.Tools[0].Type)
	assert.Equal(t, openailib.AssistantToolTypeFunction, retrieved.Tools[1].Type)
	require.NotNil(t, retrieved.Tools[1].Function)
	assert.Equal(t, "weather_reporter", retrieved.Tools[1].Function.Name)
	require.NotNil(t, retrieved.Temperature)
	assert.InDelta(t, 0.2, *retrieved.Temperature, 1e-6)
}

func TestInterop_ThreadCreatedByGoOpenAI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t)
	ctx := context.Background()

	thread, err := env.Client.CreateThread(ctx, openailib.ThreadRequest{
		Messages: []openailib.ThreadMessage{
			{Role: openailib.ThreadMessageRoleUser, Content: "Solve 3x + 11 = 14"},
		},
	})
	require.NoError(t, err)

	messages, err := env.Service.ListMessages(ctx, thread.ID, openai.ListSearchParameters{}, "")
	require.NoError(t, err)
	require.Len(t, messages.Data, 1)
	require.Len(t, messages.Data[0].Content, 1)
	assert.Equal(t, "text", messages.Data[0].Content[0].Type)
	assert.Equal(t, "Solve 3x + 11 = 14", messages.Data[0].Content[0].Text.Value)
}

func TestInterop_RunStepReadByGoOpenAI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t)
	ctx := context.Background()

	assistant, err := env.Service.CreateAssistant(ctx, &openai.AssistantRequest{
		Model: "gpt-4o",
		Tools: []openai.AssistantTool{openai.CodeInterpreterTool()},
	})
	require.NoError(t, err)

	run, err := env.Service.CreateThreadAndRun(ctx, &openai.CreateThreadAndRunRequest{
		RunCreateRequest: openai.RunCreateRequest{AssistantID: assistant.ID},
		Thread: &openai.ThreadRequest{
			Messages: []openai.MessageRequest{{Role: openai.RoleUser, Content: openai.TextContent("hello")}},
		},
	})
	require.NoError(t, err)

	steps, err := env.Service.ListRunSteps(ctx, run.ThreadID, run.ID, openai.ListSearchParameters{})
	require.NoError(t, err)
	require.Len(t, steps.Data, 1)
	ours := steps.Data[0]

	theirs, err := env.Client.RetrieveRunStep(ctx, run.ThreadID, run.ID, ours.ID)
	require.NoError(t, err)
	assert.Equal(t, ours.ID, theirs.ID)
	assert.Equal(t, openailib.RunStepTypeMessageCreation, theirs.StepDetails.Type)
	require.NotNil(t, theirs.StepDetails.MessageCreation)
	assert.Equal(t, ours.StepDetails.MessageCreation.MessageID, theirs.StepDetails.MessageCreation.MessageID)
	assert.Empty(t, theirs.StepDetails.ToolCalls)
}

func TestInterop_ErrorEnvelope(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t)

	_, err := env.Client.RetrieveAssistant(context.Background(), "asst_missing")

	var apiErr *openailib.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatusCode)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Contains(t, apiErr.Message, "asst_missing")
}
