package service

import (
	"context"
	"net/http"

	"github.com/deeplooplabs/ai-client/openai"
)

// CreateThread creates a thread, optionally seeded with messages
func (s *Service) CreateThread(ctx context.Context, req *openai.ThreadRequest) (*openai.Thread, error) {
	if req == nil {
		req = &openai.ThreadRequest{}
	}

	var thread openai.Thread
	if err := s.do(ctx, call{
		operation: "CreateThread",
		method:    http.MethodPost,
		path:      "/threads",
		body:      req,
		beta:      true,
	}, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// RetrieveThread retrieves a thread by id
func (s *Service) RetrieveThread(ctx context.Context, threadID string) (*openai.Thread, error) {
	path, err := pathf("/threads/%s", threadID)
	if err != nil {
		return nil, err
	}

	var thread openai.Thread
	if err := s.do(ctx, call{
		operation: "RetrieveThread",
		method:    http.MethodGet,
		path:      path,
		beta:      true,
	}, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// ModifyThread changes the metadata or tool resources of a thread
func (s *Service) ModifyThread(ctx context.Context, threadID string, req *openai.ModifyThreadRequest) (*openai.Thread, error) {
	path, err := pathf("/threads/%s", threadID)
	if err != nil {
		return nil, err
	}

	var thread openai.Thread
	if err := s.do(ctx, call{
		operation: "ModifyThread",
		method:    http.MethodPost,
		path:      path,
		body:      req,
		beta:      true,
	}, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// DeleteThread deletes a thread
func (s *Service) DeleteThread(ctx context.Context, threadID string) (*openai.DeleteResult, error) {
	path, err := pathf("/threads/%s", threadID)
	if err != nil {
		return nil, err
	}

	var result openai.DeleteResult
	if err := s.do(ctx, call{
		operation: "DeleteThread",
		method:    http.MethodDelete,
		path:      path,
		beta:      true,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateMessage adds a message to a thread
func (s *Service) CreateMessage(ctx context.Context, threadID string, req *openai.MessageRequest) (*openai.ThreadMessage, error) {
	path, err := pathf("/threads/%s/messages", threadID)
	if err != nil {
		return nil, err
	}

	var msg openai.ThreadMessage
	if err := s.do(ctx, call{
		operation: "CreateMessage",
		method:    http.MethodPost,
		path:      path,
		body:      req,
		beta:      true,
	}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RetrieveMessage retrieves a thread message
func (s *Service) RetrieveMessage(ctx context.Context, threadID, messageID string) (*openai.ThreadMessage, error) {
	path, err := pathf("/threads/%s/messages/%s", threadID, messageID)
	if err != nil {
		return nil, err
	}

	var msg openai.ThreadMessage
	if err := s.do(ctx, call{
		operation: "RetrieveMessage",
		method:    http.MethodGet,
		path:      path,
		beta:      true,
	}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ModifyMessage changes the metadata of a thread message
func (s *Service) ModifyMessage(ctx context.Context, threadID, messageID string, req *openai.ModifyMessageRequest) (*openai.ThreadMessage, error) {
	path, err := pathf("/threads/%s/messages/%s", threadID, messageID)
	if err != nil {
		return nil, err
	}

	var msg openai.ThreadMessage
	if err := s.do(ctx, call{
		operation: "ModifyMessage",
		method:    http.MethodPost,
		path:      path,
		body:      req,
		beta:      true,
	}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages lists the messages of a thread. A non-empty runID limits the
// list to messages created by that run.
func (s *Service) ListMessages(ctx context.Context, threadID string, params openai.ListSearchParameters, runID string) (*openai.ListResponse[openai.ThreadMessage], error) {
	path, err := pathf("/threads/%s/messages", threadID)
	if err != nil {
		return nil, err
	}

	query := params.Values()
	if runID != "" {
		query.Set("run_id", runID)
	}

	var list openai.ListResponse[openai.ThreadMessage]
	if err := s.do(ctx, call{
		operation: "ListMessages",
		method:    http.MethodGet,
		path:      path,
		query:     query,
		beta:      true,
	}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteMessage deletes a thread message
func (s *Service) DeleteMessage(ctx context.Context, threadID, messageID string) (*openai.DeleteResult, error) {
	path, err := pathf("/threads/%s/messages/%s", threadID, messageID)
	if err != nil {
		return nil, err
	}

	var result openai.DeleteResult
	if err := s.do(ctx, call{
		operation: "DeleteMessage",
		method:    http.MethodDelete,
		path:      path,
		beta:      true,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
