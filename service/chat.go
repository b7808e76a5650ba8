package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	aiclient "github.com/deeplooplabs/ai-client"
	"github.com/deeplooplabs/ai-client/openai"
)

// CreateChatCompletion creates a chat completion
func (s *Service) CreateChatCompletion(ctx context.Context, req *openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	body := *req
	body.Stream = false
	body.StreamOptions = nil

	var resp openai.ChatCompletionResponse
	if err := s.do(ctx, call{
		operation: "CreateChatCompletion",
		method:    http.MethodPost,
		path:      "/chat/completions",
		body:      &body,
	}, &resp); err != nil {
		return nil, err
	}

	s.metrics.recordUsage(resp.Model, &resp.Usage)
	return &resp, nil
}

// ErrStreamClosed is returned by Recv after Close
var ErrStreamClosed = errors.New("stream closed")

// ChatCompletionStream reads the chunks of a streamed chat completion.
// Close must be called when done.
type ChatCompletionStream struct {
	svc     *Service
	ctx     context.Context
	rc      *aiclient.Context
	body    io.ReadCloser
	scanner *openai.SSEScanner
	status  int

	closeOnce sync.Once
	err       error
}

// CreateChatCompletionStream starts a streamed chat completion
func (s *Service) CreateChatCompletionStream(ctx context.Context, req *openai.ChatCompletionRequest) (*ChatCompletionStream, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	body := *req
	body.Stream = true

	resp, rc, err := s.send(ctx, call{
		operation: "CreateChatCompletionStream",
		method:    http.MethodPost,
		path:      "/chat/completions",
		body:      &body,
		stream:    true,
	})
	if err != nil {
		return nil, err
	}

	return &ChatCompletionStream{
		svc:     s,
		ctx:     ctx,
		rc:      rc,
		body:    resp.Body,
		scanner: openai.NewSSEScanner(resp.Body),
		status:  resp.StatusCode,
	}, nil
}

// Recv returns the next chunk. It returns io.EOF once the stream has ended.
func (st *ChatCompletionStream) Recv() (*openai.ChatCompletionStreamResponse, error) {
	if st.err != nil {
		return nil, st.err
	}

	if !st.scanner.Scan() {
		if err := st.scanner.Err(); err != nil {
			return nil, st.abort("read", fmt.Errorf("read stream: %w", err))
		}
		return nil, st.end()
	}

	chunk := st.scanner.Chunk()
	if chunk.Done {
		return nil, st.end()
	}

	data := chunk.Data
	for _, h := range st.svc.hooks.StreamingHooks() {
		var err error
		if data, err = h.OnChunk(st.ctx, st.rc, data); err != nil {
			return nil, st.abort("hook", fmt.Errorf("hook %s: %w", h.Name(), err))
		}
	}

	var resp openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, st.abort("decode", fmt.Errorf("decode chunk: %w", err))
	}
	if resp.Usage != nil {
		st.svc.metrics.recordUsage(resp.Model, resp.Usage)
	}
	return &resp, nil
}

// Close releases the stream. It is safe to call more than once.
func (st *ChatCompletionStream) Close() error {
	var err error
	st.closeOnce.Do(func() {
		err = st.body.Close()
		if st.err == nil {
			st.err = ErrStreamClosed
			st.svc.finish(st.ctx, st.rc, st.status)
		}
	})
	return err
}

// RequestID returns the client request id sent with the stream request
func (st *ChatCompletionStream) RequestID() string {
	return st.rc.RequestID
}

func (st *ChatCompletionStream) end() error {
	st.closeOnce.Do(func() {
		st.body.Close()
		st.svc.finish(st.ctx, st.rc, st.status)
	})
	st.err = io.EOF
	return io.EOF
}

func (st *ChatCompletionStream) abort(errType string, err error) error {
	st.closeOnce.Do(func() {
		st.body.Close()
		st.svc.fail(st.ctx, st.rc, st.status, errType, err)
	})
	st.err = err
	return err
}
