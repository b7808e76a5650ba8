package openai

// Run status values
const (
	RunStatusQueued         = "queued"
	RunStatusInProgress     = "in_progress"
	RunStatusRequiresAction = "requires_action"
	RunStatusCancelling     = "cancelling"
	RunStatusCancelled      = "cancelled"
	RunStatusFailed         = "failed"
	RunStatusCompleted      = "completed"
	RunStatusIncomplete     = "incomplete"
	RunStatusExpired        = "expired"
)

// Run represents an execution of an assistant on a thread
type Run struct {
	ID                  string              `json:"id"`
	Object              string              `json:"object"`
	CreatedAt           int64               `json:"created_at"`
	ThreadID            string              `json:"thread_id"`
	AssistantID         string              `json:"assistant_id"`
	Status              string              `json:"status"`
	RequiredAction      *RequiredAction     `json:"required_action,omitempty"`
	LastError           *LastError          `json:"last_error,omitempty"`
	ExpiresAt           *int64              `json:"expires_at,omitempty"`
	StartedAt           *int64              `json:"started_at,omitempty"`
	CancelledAt         *int64              `json:"cancelled_at,omitempty"`
	FailedAt            *int64              `json:"failed_at,omitempty"`
	CompletedAt         *int64              `json:"completed_at,omitempty"`
	IncompleteDetails   *IncompleteDetails  `json:"incomplete_details,omitempty"`
	Model               string              `json:"model"`
	Instructions        string              `json:"instructions,omitempty"`
	Tools               []AssistantTool     `json:"tools"`
	Metadata            map[string]string   `json:"metadata,omitempty"`
	Usage               *Usage              `json:"usage,omitempty"`
	Temperature         *float64            `json:"temperature,omitempty"`
	TopP                *float64            `json:"top_p,omitempty"`
	MaxPromptTokens     *int                `json:"max_prompt_tokens,omitempty"`
	MaxCompletionTokens *int                `json:"max_completion_tokens,omitempty"`
	TruncationStrategy  *TruncationStrategy `json:"truncation_strategy,omitempty"`
	ToolChoice          *ToolChoice         `json:"tool_choice,omitempty"`
	ParallelToolCalls   *bool               `json:"parallel_tool_calls,omitempty"`
	ResponseFormat      *ResponseFormat     `json:"response_format,omitempty"`
}

// Terminal reports whether the run reached a final status
func (r *Run) Terminal() bool {
	switch r.Status {
	case RunStatusCancelled, RunStatusFailed, RunStatusCompleted, RunStatusIncomplete, RunStatusExpired:
		return true
	}
	return false
}

// RequiredAction describes what a run needs before it can continue
type RequiredAction struct {
	Type              string             `json:"type"` // "submit_tool_outputs"
	SubmitToolOutputs *SubmitToolOutputs `json:"submit_tool_outputs,omitempty"`
}

// SubmitToolOutputs lists the tool calls awaiting outputs
type SubmitToolOutputs struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

// LastError is the error a run or run step failed with
type LastError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TruncationStrategy controls how a thread is truncated before a run
type TruncationStrategy struct {
	Type         string `json:"type"` // "auto" or "last_messages"
	LastMessages *int   `json:"last_messages,omitempty"`
}

// RunCreateRequest is the body of a create run call
type RunCreateRequest struct {
	AssistantID            string              `json:"assistant_id"`
	Model                  string              `json:"model,omitempty"`
	Instructions           *string             `json:"instructions,omitempty"`
	AdditionalInstructions *string             `json:"additional_instructions,omitempty"`
	AdditionalMessages     []MessageRequest    `json:"additional_messages,omitempty"`
	Tools                  []AssistantTool     `json:"tools,omitempty"`
	Metadata               map[string]string   `json:"metadata,omitempty"`
	Temperature            *float64            `json:"temperature,omitempty"`
	TopP                   *float64            `json:"top_p,omitempty"`
	MaxPromptTokens        *int                `json:"max_prompt_tokens,omitempty"`
	MaxCompletionTokens    *int                `json:"max_completion_tokens,omitempty"`
	TruncationStrategy     *TruncationStrategy `json:"truncation_strategy,omitempty"`
	ToolChoice             *ToolChoice         `json:"tool_choice,omitempty"`
	ParallelToolCalls      *bool               `json:"parallel_tool_calls,omitempty"`
	ResponseFormat         *ResponseFormat     `json:"response_format,omitempty"`
}

// ModifyRunRequest is the body of a modify run call
type ModifyRunRequest struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreateThreadAndRunRequest creates a thread and starts a run on it
type CreateThreadAndRunRequest struct {
	RunCreateRequest
	Thread        *ThreadRequest `json:"thread,omitempty"`
	ToolResources *ToolResources `json:"tool_resources,omitempty"`
}

// SubmitToolOutputsRequest carries the outputs for a run's pending tool calls
type SubmitToolOutputsRequest struct {
	ToolOutputs []ToolOutput `json:"tool_outputs"`
}

// ToolOutput is the output of one tool call
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// Run step status values
const (
	RunStepStatusInProgress = "in_progress"
	RunStepStatusCancelled  = "cancelled"
	RunStepStatusFailed     = "failed"
	RunStepStatusCompleted  = "completed"
	RunStepStatusExpired    = "expired"
)

// RunStep is a single step of a run
type RunStep struct {
	ID          string            `json:"id"`
	Object      string            `json:"object"`
	CreatedAt   int64             `json:"created_at"`
	AssistantID string            `json:"assistant_id"`
	ThreadID    string            `json:"thread_id"`
	RunID       string            `json:"run_id"`
	Type        StepDetailsType   `json:"type"`
	Status      string            `json:"status"`
	StepDetails StepDetails       `json:"step_details"`
	LastError   *LastError        `json:"last_error,omitempty"`
	ExpiredAt   *int64            `json:"expired_at,omitempty"`
	CancelledAt *int64            `json:"cancelled_at,omitempty"`
	FailedAt    *int64            `json:"failed_at,omitempty"`
	CompletedAt *int64            `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Usage       *Usage            `json:"usage,omitempty"`
}
