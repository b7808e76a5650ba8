package service

import (
	"context"
	"net/http"

	"github.com/deeplooplabs/ai-client/openai"
)

// CreateAssistant creates an assistant
func (s *Service) CreateAssistant(ctx context.Context, req *openai.AssistantRequest) (*openai.Assistant, error) {
	var assistant openai.Assistant
	if err := s.do(ctx, call{
		operation: "CreateAssistant",
		method:    http.MethodPost,
		path:      "/assistants",
		body:      req,
		beta:      true,
	}, &assistant); err != nil {
		return nil, err
	}
	return &assistant, nil
}

// RetrieveAssistant retrieves an assistant by id
func (s *Service) RetrieveAssistant(ctx context.Context, assistantID string) (*openai.Assistant, error) {
	path, err := pathf("/assistants/%s", assistantID)
	if err != nil {
		return nil, err
	}

	var assistant openai.Assistant
	if err := s.do(ctx, call{
		operation: "RetrieveAssistant",
		method:    http.MethodGet,
		path:      path,
		beta:      true,
	}, &assistant); err != nil {
		return nil, err
	}
	return &assistant, nil
}

// ModifyAssistant changes the set fields of an assistant
func (s *Service) ModifyAssistant(ctx context.Context, assistantID string, req *openai.ModifyAssistantRequest) (*openai.Assistant, error) {
	path, err := pathf("/assistants/%s", assistantID)
	if err != nil {
		return nil, err
	}

	var assistant openai.Assistant
	if err := s.do(ctx, call{
		operation: "ModifyAssistant",
		method:    http.MethodPost,
		path:      path,
		body:      req,
		beta:      true,
	}, &assistant); err != nil {
		return nil, err
	}
	return &assistant, nil
}

// ListAssistants lists assistants
func (s *Service) ListAssistants(ctx context.Context, params openai.ListSearchParameters) (*openai.ListResponse[openai.Assistant], error) {
	var list openai.ListResponse[openai.Assistant]
	if err := s.do(ctx, call{
		operation: "ListAssistants",
		method:    http.MethodGet,
		path:      "/assistants",
		query:     params.Values(),
		beta:      true,
	}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteAssistant deletes an assistant
func (s *Service) DeleteAssistant(ctx context.Context, assistantID string) (*openai.DeleteResult, error) {
	path, err := pathf("/assistants/%s", assistantID)
	if err != nil {
		return nil, err
	}

	var result openai.DeleteResult
	if err := s.do(ctx, call{
		operation: "DeleteAssistant",
		method:    http.MethodDelete,
		path:      path,
		beta:      true,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
