package service

import (
	"context"
	"net/http"

	"github.com/deeplooplabs/ai-client/openai"
)

// CreateRun starts a run of an assistant on a thread
func (s *Service) CreateRun(ctx context.Context, threadID string, req *openai.RunCreateRequest) (*openai.Run, error) {
	path, err := pathf("/threads/%s/runs", threadID)
	if err != nil {
		return nil, err
	}
	return s.runCall(ctx, call{
		operation: "CreateRun",
		method:    http.MethodPost,
		path:      path,
		body:      req,
	})
}

// RetrieveRun retrieves a run
func (s *Service) RetrieveRun(ctx context.Context, threadID, runID string) (*openai.Run, error) {
	path, err := pathf("/threads/%s/runs/%s", threadID, runID)
	if err != nil {
		return nil, err
	}
	return s.runCall(ctx, call{
		operation: "RetrieveRun",
		method:    http.MethodGet,
		path:      path,
	})
}

// ModifyRun changes the metadata of a run
func (s *Service) ModifyRun(ctx context.Context, threadID, runID string, req *openai.ModifyRunRequest) (*openai.Run, error) {
	path, err := pathf("/threads/%s/runs/%s", threadID, runID)
	if err != nil {
		return nil, err
	}
	return s.runCall(ctx, call{
		operation: "ModifyRun",
		method:    http.MethodPost,
		path:      path,
		body:      req,
	})
}

// ListRuns lists the runs of a thread
func (s *Service) ListRuns(ctx context.Context, threadID string, params openai.ListSearchParameters) (*openai.ListResponse[openai.Run], error) {
	path, err := pathf("/threads/%s/runs", threadID)
	if err != nil {
		return nil, err
	}

	var list openai.ListResponse[openai.Run]
	if err := s.do(ctx, call{
		operation: "ListRuns",
		method:    http.MethodGet,
		path:      path,
		query:     params.Values(),
		beta:      true,
	}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CancelRun cancels an in-progress run
func (s *Service) CancelRun(ctx context.Context, threadID, runID string) (*openai.Run, error) {
	path, err := pathf("/threads/%s/runs/%s/cancel", threadID, runID)
	if err != nil {
		return nil, err
	}
	return s.runCall(ctx, call{
		operation: "CancelRun",
		method:    http.MethodPost,
		path:      path,
	})
}

// SubmitToolOutputs submits the outputs of the tool calls a run is waiting on
func (s *Service) SubmitToolOutputs(ctx context.Context, threadID, runID string, req *openai.SubmitToolOutputsRequest) (*openai.Run, error) {
	path, err := pathf("/threads/%s/runs/%s/submit_tool_outputs", threadID, runID)
	if err != nil {
		return nil, err
	}
	return s.runCall(ctx, call{
		operation: "SubmitToolOutputs",
		method:    http.MethodPost,
		path:      path,
		body:      req,
	})
}

// CreateThreadAndRun creates a thread and starts a run on it in one call
func (s *Service) CreateThreadAndRun(ctx context.Context, req *openai.CreateThreadAndRunRequest) (*openai.Run, error) {
	return s.runCall(ctx, call{
		operation: "CreateThreadAndRun",
		method:    http.MethodPost,
		path:      "/threads/runs",
		body:      req,
	})
}

// RetrieveRunStep retrieves a step of a run
func (s *Service) RetrieveRunStep(ctx context.Context, threadID, runID, stepID string) (*openai.RunStep, error) {
	path, err := pathf("/threads/%s/runs/%s/steps/%s", threadID, runID, stepID)
	if err != nil {
		return nil, err
	}

	var step openai.RunStep
	if err := s.do(ctx, call{
		operation: "RetrieveRunStep",
		method:    http.MethodGet,
		path:      path,
		beta:      true,
	}, &step); err != nil {
		return nil, err
	}
	return &step, nil
}

// ListRunSteps lists the steps of a run
func (s *Service) ListRunSteps(ctx context.Context, threadID, runID string, params openai.ListSearchParameters) (*openai.ListResponse[openai.RunStep], error) {
	path, err := pathf("/threads/%s/runs/%s/steps", threadID, runID)
	if err != nil {
		return nil, err
	}

	var list openai.ListResponse[openai.RunStep]
	if err := s.do(ctx, call{
		operation: "ListRunSteps",
		method:    http.MethodGet,
		path:      path,
		query:     params.Values(),
		beta:      true,
	}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// runCall sends an assistants call whose response is a run
func (s *Service) runCall(ctx context.Context, c call) (*openai.Run, error) {
	c.beta = true

	var run openai.Run
	if err := s.do(ctx, c, &run); err != nil {
		return nil, err
	}
	return &run, nil
}
