package openai

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRun_UnmarshalRequiredAction(t *testing.T) {
	body := `{
		"id": "run_abc123",
		"object": "thread.run",
		"created_at": 1699063290,
		"assistant_id": "asst_abc123",
		"thread_id": "thread_abc123",
		"status": "requires_action",
		"required_action": {
			"type": "submit_tool_outputs",
			"submit_tool_outputs": {
				"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "weather_reporter", "arguments": "{\"location\":\"Paris\"}"}}]
			}
		},
		"model": "gpt-4o",
		"tools": [{"type": "function", "function": {"name": "weather_reporter"}}],
		"tool_choice": "auto",
		"truncation_strategy": {"type": "last_messages", "last_messages": 10},
		"response_format": "auto"
	}`

	var run Run
	if err := json.Unmarshal([]byte(body), &run); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if run.Status != RunStatusRequiresAction || run.Terminal() {
		t.Errorf("expected non-terminal requires_action run, got '%s'", run.Status)
	}
	calls := run.RequiredAction.SubmitToolOutputs.ToolCalls
	if len(calls) != 1 || calls[0].Function.Name != "weather_reporter" {
		t.Errorf("unexpected tool calls: %+v", calls)
	}
	if run.ToolChoice == nil || run.ToolChoice.Mode != ToolChoiceAuto {
		t.Errorf("expected auto tool choice, got %+v", run.ToolChoice)
	}
	if run.TruncationStrategy == nil || *run.TruncationStrategy.LastMessages != 10 {
		t.Errorf("unexpected truncation strategy: %+v", run.TruncationStrategy)
	}
	if run.ResponseFormat == nil || *run.ResponseFormat != ResponseFormatAuto {
		t.Errorf("expected auto response format, got %v", run.ResponseFormat)
	}
}

func TestRun_Terminal(t *testing.T) {
	tests := []struct {
		status   string
		terminal bool
	}{
		{RunStatusQueued, false},
		{RunStatusInProgress, false},
		{RunStatusCancelling, false},
		{RunStatusCompleted, true},
		{RunStatusFailed, true},
		{RunStatusExpired, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			run := Run{Status: tt.status}
			if run.Terminal() != tt.terminal {
				t.Errorf("expected terminal=%v for %s", tt.terminal, tt.status)
			}
		})
	}
}

func TestCreateThreadAndRunRequest_MarshalJSON(t *testing.T) {
	req := CreateThreadAndRunRequest{
		RunCreateRequest: RunCreateRequest{AssistantID: "asst_1"},
		Thread: &ThreadRequest{
			Messages: []MessageRequest{{Role: RoleUser, Content: TextContent("Explain deep learning")}},
		},
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	want := `{"assistant_id":"asst_1","thread":{"messages":[{"role":"user","content":"Explain deep learning"}]}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestRunStep_UnmarshalJSON(t *testing.T) {
	body := `{
		"id": "step_abc123",
		"object": "thread.run.step",
		"created_at": 1699063291,
		"run_id": "run_abc123",
		"assistant_id": "asst_abc123",
		"thread_id": "thread_abc123",
		"type": "message_creation",
		"status": "completed",
		"step_details": {"type": "message_creation", "message_creation": {"message_id": "msg_abc123"}},
		"usage": {"prompt_tokens": 123, "completion_tokens": 456, "total_tokens": 579}
	}`

	var step RunStep
	if err := json.Unmarshal([]byte(body), &step); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if step.StepDetails.MessageCreation == nil || step.StepDetails.MessageCreation.MessageID != "msg_abc123" {
		t.Errorf("unexpected step details: %+v", step.StepDetails)
	}
	if step.Usage == nil || step.Usage.TotalTokens != 579 {
		t.Errorf("unexpected usage: %+v", step.Usage)
	}
}

func TestRunStep_InconsistentDetailsFailsDecode(t *testing.T) {
	body := `{"id":"step_1","type":"tool_calls","step_details":{"type":"tool_calls","tool_calls":[],"message_creation":{"message_id":"m"}}}`

	var step RunStep
	err := json.Unmarshal([]byte(body), &step)
	var detailsErr *StepDetailsError
	if !errors.As(err, &detailsErr) {
		t.Fatalf("expected StepDetailsError, got %v", err)
	}
}

func TestSubmitToolOutputsRequest_MarshalJSON(t *testing.T) {
	req := SubmitToolOutputsRequest{ToolOutputs: []ToolOutput{{ToolCallID: "call_1", Output: "22C"}}}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	want := `{"tool_outputs":[{"tool_call_id":"call_1","output":"22C"}]}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}
