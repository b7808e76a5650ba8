package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aiclient "github.com/deeplooplabs/ai-client"
	"github.com/deeplooplabs/ai-client/openai"
)

const streamBody = `data: {"id":"c1","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"},"finish_reason":""}]}

data: {"id":"c1","object":"chat.completion.chunk","model":"gpt-4o","choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":"stop"}]}

data: {"id":"c1","object":"chat.completion.chunk","model":"gpt-4o","choices":[],"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}

data: [DONE]

`

func streamHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, streamBody)
	}
}

func TestChatCompletionStream(t *testing.T) {
	svc, metrics := newTestService(t, streamHandler(t))

	stream, err := svc.CreateChatCompletionStream(context.Background(), &openai.ChatCompletionRequest{
		Model:         "gpt-4o",
		Messages:      []openai.Message{{Role: openai.RoleUser, Content: "hi"}},
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	})
	require.NoError(t, err)
	defer stream.Close()
	assert.NotEmpty(t, stream.RequestID())

	var content string
	var finish string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		for _, choice := range chunk.Choices {
			content += choice.Delta.Content
			if choice.FinishReason != "" {
				finish = choice.FinishReason
			}
		}
	}

	assert.Equal(t, "Hello", content)
	assert.Equal(t, "stop", finish)
	assert.Equal(t, 6.0, testutil.ToFloat64(metrics.TokensUsed.WithLabelValues("gpt-4o", "total")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("CreateChatCompletionStream", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ActiveRequests))

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, stream.Close())
}

type upperHook struct{}

func (upperHook) Name() string { return "upper" }

func (upperHook) OnChunk(_ context.Context, _ *aiclient.Context, chunk []byte) ([]byte, error) {
	return bytes.ReplaceAll(chunk, []byte(`"lo"`), []byte(`"LO"`)), nil
}

func TestChatCompletionStream_StreamingHook(t *testing.T) {
	svc, _ := newTestService(t, streamHandler(t))
	svc.hooks.Register(upperHook{})

	stream, err := svc.CreateChatCompletionStream(context.Background(), &openai.ChatCompletionRequest{Model: "gpt-4o"})
	require.NoError(t, err)
	defer stream.Close()

	var content string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		for _, choice := range chunk.Choices {
			content += choice.Delta.Content
		}
	}
	assert.Equal(t, "HelLO", content)
}

func TestChatCompletionStream_CloseEarly(t *testing.T) {
	svc, metrics := newTestService(t, streamHandler(t))

	stream, err := svc.CreateChatCompletionStream(context.Background(), &openai.ChatCompletionRequest{Model: "gpt-4o"})
	require.NoError(t, err)

	_, err = stream.Recv()
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	_, err = stream.Recv()
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ActiveRequests))
}

func TestChatCompletionStream_BadChunk(t *testing.T) {
	svc, metrics := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: {not json}\n\n")
	})

	stream, err := svc.CreateChatCompletionStream(context.Background(), &openai.ChatCompletionRequest{Model: "gpt-4o"})
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Recv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode chunk")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("CreateChatCompletionStream", "decode")))
}

func TestChatCompletionStream_APIError(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	})

	stream, err := svc.CreateChatCompletionStream(context.Background(), &openai.ChatCompletionRequest{Model: "gpt-4o"})
	assert.Nil(t, stream)

	var apiErr *aiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid_api_key", apiErr.Code)
}

func TestChatCompletionStream_OutlivesClientTimeout(t *testing.T) {
	chunks := strings.SplitAfter(streamBody, "\n\n")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range chunks {
			_, _ = io.WriteString(w, chunk)
			flusher.Flush()
			time.Sleep(40 * time.Millisecond)
		}
	}))
	t.Cleanup(server.Close)

	svc := New(NewConfig("sk-test").
		WithBaseURL(server.URL + "/v1").
		WithTracing(false).
		WithTimeout(50 * time.Millisecond).
		WithRetryConfig(NoRetry()).
		WithMetrics(NewMetrics("test", prometheus.NewRegistry())))

	stream, err := svc.CreateChatCompletionStream(context.Background(), &openai.ChatCompletionRequest{Model: "gpt-4o"})
	require.NoError(t, err)
	defer stream.Close()

	var content string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		for _, choice := range chunk.Choices {
			content += choice.Delta.Content
		}
	}
	assert.Equal(t, "Hello", content)
	assert.Equal(t, 50*time.Millisecond, svc.Config().GetHTTPClient().Timeout, "unary calls keep the timeout")
}

func TestChatCompletion_NilRequest(t *testing.T) {
	svc, metrics := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := svc.CreateChatCompletion(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilRequest)

	stream, err := svc.CreateChatCompletionStream(context.Background(), nil)
	assert.Nil(t, stream)
	assert.ErrorIs(t, err, ErrNilRequest)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ActiveRequests))
}
