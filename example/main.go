package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	aiclient "github.com/deeplooplabs/ai-client"
	"github.com/deeplooplabs/ai-client/config"
	"github.com/deeplooplabs/ai-client/hook"
	"github.com/deeplooplabs/ai-client/openai"
	"github.com/deeplooplabs/ai-client/service"
	"github.com/deeplooplabs/ai-client/telemetry"
	"github.com/deeplooplabs/ai-client/tokens"
)

func main() {
	// Reads .env, then OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL, ...
	cfg, err := config.Load(config.Options{File: os.Getenv("AICLIENT_CONFIG")})
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	slog.Info("Configuration", "base_url", cfg.BaseURL, "model", cfg.Model)

	if cfg.Tracing {
		shutdown, err := telemetry.InitTracer("ai-client-example", os.Stderr, logger)
		if err != nil {
			slog.Error("Failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	hooks := hook.NewRegistry()
	hooks.Register(&LoggingHook{}, &hook.Logging{Logger: logger})
	if limiter := cfg.RateLimitHook(); limiter != nil {
		hooks.Register(limiter)
	}

	svc := service.New(cfg.ServiceConfig().
		WithHooks(hooks).
		WithMetrics(service.NewMetrics("aiclient", prometheus.DefaultRegisterer)).
		WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, svc, cfg.Model); err != nil {
		var apiErr *aiclient.APIError
		if errors.As(err, &apiErr) {
			slog.Error("API call failed", "status", apiErr.StatusCode, "type", apiErr.Type, "request_id", apiErr.RequestID, "error", apiErr.Message)
		} else {
			slog.Error("Example failed", "error", err)
		}
		os.Exit(1)
	}
}

// run creates a math tutor assistant, asks it a question that needs the
// weather tool, answers the tool call and cleans up.
func run(ctx context.Context, svc *service.Service, model string) error {
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

	assistant, err := svc.CreateAssistant(ctx, &openai.AssistantRequest{
		Model:          model,
		Name:           openai.Ptr("Math Tutor"),
		Description:    openai.Ptr("the personal Math Tutor"),
		Instructions:   openai.Ptr("You are a personal Math Tutor."),
		Tools:          []openai.AssistantTool{openai.CodeInterpreterTool(), openai.FunctionTool(weather)},
		ResponseFormat: openai.Ptr(openai.ResponseFormatAuto),
		Temperature:    openai.Ptr(0.2),
	})
	if err != nil {
		return err
	}
	slog.Info("Created assistant", "id", assistant.ID, "response_format", jsonString(assistant.ResponseFormat))
	defer func() {
		if _, err := svc.DeleteAssistant(context.WithoutCancel(ctx), assistant.ID); err != nil {
			slog.Warn("Failed to delete assistant", "id", assistant.ID, "error", err)
		}
	}()

	if _, err := svc.ModifyAssistant(ctx, assistant.ID, &openai.ModifyAssistantRequest{
		Name:        openai.Ptr("Science Tutor"),
		Description: openai.Ptr("the personal Science Tutor"),
		Temperature: openai.Ptr(1.0),
	}); err != nil {
		return err
	}

	list, err := svc.ListAssistants(ctx, openai.ListSearchParameters{Limit: 20, Order: openai.OrderDesc})
	if err != nil {
		return err
	}
	slog.Info("Listed assistants", "count", len(list.Data), "has_more", list.HasMore)

	question := "What should I wear in San Francisco today?"
	if n, err := tokens.CountMessages(model, []openai.Message{{Role: openai.RoleUser, Content: question}}); err == nil {
		slog.Info("Prompt size", "tokens", n)
	}

	r, err := svc.CreateThreadAndRun(ctx, &openai.CreateThreadAndRunRequest{
		RunCreateRequest: openai.RunCreateRequest{AssistantID: assistant.ID},
		Thread: &openai.ThreadRequest{
			Messages: []openai.MessageRequest{{Role: openai.RoleUser, Content: openai.TextContent(question)}},
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if _, err := svc.DeleteThread(context.WithoutCancel(ctx), r.ThreadID); err != nil {
			slog.Warn("Failed to delete thread", "id", r.ThreadID, "error", err)
		}
	}()

	for !r.Terminal() {
		if r.Status == openai.RunStatusRequiresAction && r.RequiredAction != nil {
			var outputs []openai.ToolOutput
			for _, call := range r.RequiredAction.SubmitToolOutputs.ToolCalls {
				slog.Info("Tool call", "id", call.ID, "function", call.Function.Name, "arguments", call.Function.Arguments)
				outputs = append(outputs, openai.ToolOutput{ToolCallID: call.ID, Output: `{"temperature":18,"unit":"celsius","conditions":"fog"}`})
			}
			if r, err = svc.SubmitToolOutputs(ctx, r.ThreadID, r.ID, &openai.SubmitToolOutputsRequest{ToolOutputs: outputs}); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
		if r, err = svc.RetrieveRun(ctx, r.ThreadID, r.ID); err != nil {
			return err
		}
	}
	slog.Info("Run finished", "id", r.ID, "status", r.Status)

	steps, err := svc.ListRunSteps(ctx, r.ThreadID, r.ID, openai.ListSearchParameters{Order: openai.OrderAsc})
	if err != nil {
		return err
	}
	for _, step := range steps.Data {
		switch step.StepDetails.Type {
		case openai.StepDetailsTypeToolCalls:
			slog.Info("Step", "id", step.ID, "type", step.StepDetails.Type, "tool_calls", len(step.StepDetails.ToolCalls))
		case openai.StepDetailsTypeMessageCreation:
			msg, err := svc.RetrieveMessage(ctx, r.ThreadID, step.StepDetails.MessageCreation.MessageID)
			if err != nil {
				return err
			}
			for _, part := range msg.Content {
				if part.Text != nil {
					slog.Info("Assistant reply", "step", step.ID, "text", part.Text.Value)
				}
			}
		}
	}
	return nil
}

// LoggingHook logs every call and its status
type LoggingHook struct{}

func (h *LoggingHook) Name() string {
	return "logging"
}

func (h *LoggingHook) BeforeRequest(ctx context.Context, rc *aiclient.Context) error {
	slog.DebugContext(ctx, "[Hook] BeforeRequest", "operation", rc.Operation, "path", rc.Path, "request_id", rc.RequestID)
	return nil
}

func (h *LoggingHook) AfterResponse(ctx context.Context, rc *aiclient.Context, statusCode int) {
	slog.InfoContext(ctx, "[Hook] AfterResponse", "operation", rc.Operation, "status", statusCode, "elapsed", rc.Elapsed())
}

var _ hook.RequestHook = new(LoggingHook)

func jsonString(v any) string {
	s, _ := json.Marshal(v)
	return string(s)
}
