package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	aiclient "github.com/deeplooplabs/ai-client"
	"github.com/deeplooplabs/ai-client/openai"
)

// MockOpenAI is an in-memory stand-in for the OpenAI chat and assistants
// endpoints. Runs on an assistant with a function tool stop at
// requires_action until tool outputs are submitted; other runs complete
// immediately with a canned reply.
type MockOpenAI struct {
	mu sync.Mutex

	apiKey string

	assistants map[string]*openai.Assistant
	threads    map[string]*openai.Thread
	messages   map[string][]*openai.ThreadMessage // by thread ID
	runs       map[string]*openai.Run
	steps      map[string][]*openai.RunStep // by run ID

	// Chat completions
	reply           string
	lastChatRequest *openai.ChatCompletionRequest
}

// NewMockOpenAI creates an empty mock accepting apiKey
func NewMockOpenAI(apiKey string) *MockOpenAI {
	return &MockOpenAI{
		apiKey:     apiKey,
		assistants: make(map[string]*openai.Assistant),
		threads:    make(map[string]*openai.Thread),
		messages:   make(map[string][]*openai.ThreadMessage),
		runs:       make(map[string]*openai.Run),
		steps:      make(map[string][]*openai.RunStep),
		reply:      "Hello from the mock API",
	}
}

// SetReply sets the chat completion and run reply text
func (m *MockOpenAI) SetReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
}

// LastChatRequest returns the last decoded chat completion request
func (m *MockOpenAI) LastChatRequest() *openai.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastChatRequest
}

// Handler returns the HTTP router serving the mock under /v1
func (m *MockOpenAI) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(m.authenticate)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, aiclient.NewNotFoundError(fmt.Sprintf("Invalid URL (%s %s)", r.Method, r.URL.Path)))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat/completions", m.createChatCompletion)

		r.Group(func(r chi.Router) {
			r.Use(requireAssistantsBeta)

			r.Route("/assistants", func(r chi.Router) {
				r.Post("/", m.createAssistant)
				r.Get("/", m.listAssistants)
				r.Get("/{assistantID}", m.retrieveAssistant)
				r.Post("/{assistantID}", m.modifyAssistant)
				r.Delete("/{assistantID}", m.deleteAssistant)
			})

			r.Post("/threads", m.createThread)
			r.Post("/threads/runs", m.createThreadAndRun)
			r.Route("/threads/{threadID}", func(r chi.Router) {
				r.Get("/", m.retrieveThread)
				r.Post("/", m.modifyThread)
				r.Delete("/", m.deleteThread)

				r.Post("/messages", m.createMessage)
				r.Get("/messages", m.listMessages)
				r.Get("/messages/{messageID}", m.retrieveMessage)
				r.Post("/messages/{messageID}", m.modifyMessage)
				r.Delete("/messages/{messageID}", m.deleteMessage)

				r.Post("/runs", m.createRun)
				r.Get("/runs", m.listRuns)
				r.Get("/runs/{runID}", m.retrieveRun)
				r.Post("/runs/{runID}", m.modifyRun)
				r.Post("/runs/{runID}/cancel", m.cancelRun)
				r.Post("/runs/{runID}/submit_tool_outputs", m.submitToolOutputs)
				r.Get("/runs/{runID}/steps", m.listRunSteps)
				r.Get("/runs/{runID}/steps/{stepID}", m.retrieveRunStep)
			})
		})
	})
	return r
}

func (m *MockOpenAI) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+m.apiKey {
			writeError(w, aiclient.NewAuthenticationError("Incorrect API key provided"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireAssistantsBeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("OpenAI-Beta") != "assistants=v2" {
			writeError(w, aiclient.NewValidationError("You must provide the 'OpenAI-Beta' header to access the Assistants API."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chat completions

func (m *MockOpenAI) createChatCompletion(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m.mu.Lock()
	m.lastChatRequest = &req
	reply := m.reply
	m.mu.Unlock()

	if req.ResponseFormat != nil && *req.ResponseFormat == openai.ResponseFormatJSONObject {
		encoded, _ := json.Marshal(map[string]string{"reply": reply})
		reply = string(encoded)
	}

	id := newID("chatcmpl-")
	usage := openai.Usage{PromptTokens: 12, CompletionTokens: len(strings.Fields(reply))}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	if !req.Stream {
		writeJSON(w, http.StatusOK, &openai.ChatCompletionResponse{
			ID:      id,
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   req.Model,
			Choices: []openai.Choice{{
				Message:      openai.Message{Role: openai.RoleAssistant, Content: reply},
				FinishReason: "stop",
			}},
			Usage: usage,
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	send := func(chunk *openai.ChatCompletionStreamResponse) {
		data, _ := json.Marshal(chunk)
		fmt.Fprintf(w, "data: %s\n\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}
	chunk := func(delta openai.Delta, finish string) *openai.ChatCompletionStreamResponse {
		return &openai.ChatCompletionStreamResponse{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: time.Now().Unix(),
			Model:   req.Model,
			Choices: []openai.Choice{{Delta: &delta, FinishReason: finish}},
		}
	}

	words := strings.SplitAfter(reply, " ")
	for i, word := range words {
		delta := openai.Delta{Content: word}
		if i == 0 {
			delta.Role = openai.RoleAssistant
		}
		send(chunk(delta, ""))
	}
	send(chunk(openai.Delta{}, "stop"))
	if req.StreamOptions != nil && req.StreamOptions.IncludeUsage {
		send(&openai.ChatCompletionStreamResponse{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: time.Now().Unix(),
			Model:   req.Model,
			Choices: []openai.Choice{},
			Usage:   &usage,
		})
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

// Assistants

func (m *MockOpenAI) createAssistant(w http.ResponseWriter, r *http.Request) {
	var req openai.AssistantRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Model == "" {
		writeError(w, aiclient.NewValidationError("Missing required parameter: 'model'."))
		return
	}

	a := &openai.Assistant{
		ID:             newID("asst_"),
		Object:         "assistant",
		CreatedAt:      time.Now().Unix(),
		Name:           req.Name,
		Description:    req.Description,
		Model:          req.Model,
		Instructions:   req.Instructions,
		Tools:          req.Tools,
		ToolResources:  req.ToolResources,
		Metadata:       req.Metadata,
		Temperature:    req.Temperature,
		TopP:           req.TopP,
		ResponseFormat: req.ResponseFormat,
	}
	if a.Tools == nil {
		a.Tools = []openai.AssistantTool{}
	}
	if a.ResponseFormat == nil {
		a.ResponseFormat = openai.Ptr(openai.ResponseFormatAuto)
	}

	m.mu.Lock()
	m.assistants[a.ID] = a
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, a)
}

func (m *MockOpenAI) retrieveAssistant(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assistants[chi.URLParam(r, "assistantID")]
	if !ok {
		writeError(w, notFound("assistant", chi.URLParam(r, "assistantID")))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (m *MockOpenAI) modifyAssistant(w http.ResponseWriter, r *http.Request) {
	var req openai.ModifyAssistantRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assistants[chi.URLParam(r, "assistantID")]
	if !ok {
		writeError(w, notFound("assistant", chi.URLParam(r, "assistantID")))
		return
	}
	if req.Model != "" {
		a.Model = req.Model
	}
	if req.Name != nil {
		a.Name = req.Name
	}
	if req.Description != nil {
		a.Description = req.Description
	}
	if req.Instructions != nil {
		a.Instructions = req.Instructions
	}
	if req.Tools != nil {
		a.Tools = req.Tools
	}
	if req.ToolResources != nil {
		a.ToolResources = req.ToolResources
	}
	if req.Metadata != nil {
		a.Metadata = req.Metadata
	}
	if req.Temperature != nil {
		a.Temperature = req.Temperature
	}
	if req.TopP != nil {
		a.TopP = req.TopP
	}
	if req.ResponseFormat != nil {
		a.ResponseFormat = req.ResponseFormat
	}
	writeJSON(w, http.StatusOK, a)
}

func (m *MockOpenAI) listAssistants(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]*openai.Assistant, 0, len(m.assistants))
	for _, a := range m.assistants {
		items = append(items, a)
	}
	slices.SortFunc(items, func(a, b *openai.Assistant) int {
		if c := a.CreatedAt - b.CreatedAt; c != 0 {
			return int(c)
		}
		return strings.Compare(a.ID, b.ID)
	})

	page, err := paginate(r, items, func(a *openai.Assistant) string { return a.ID })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (m *MockOpenAI) deleteAssistant(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := chi.URLParam(r, "assistantID")
	if _, ok := m.assistants[id]; !ok {
		writeError(w, notFound("assistant", id))
		return
	}
	delete(m.assistants, id)
	writeJSON(w, http.StatusOK, &openai.DeleteResult{ID: id, Object: "assistant.deleted", Deleted: true})
}

// Threads

func (m *MockOpenAI) createThread(w http.ResponseWriter, r *http.Request) {
	var req openai.ThreadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	writeJSON(w, http.StatusOK, m.newThread(&req))
}

func (m *MockOpenAI) newThread(req *openai.ThreadRequest) *openai.Thread {
	t := &openai.Thread{
		ID:            newID("thread_"),
		Object:        "thread",
		CreatedAt:     time.Now().Unix(),
		ToolResources: req.ToolResources,
		Metadata:      req.Metadata,
	}
	m.threads[t.ID] = t
	for i := range req.Messages {
		m.addMessage(t.ID, &req.Messages[i], "", "")
	}
	return t
}

func (m *MockOpenAI) thread(w http.ResponseWriter, r *http.Request) (*openai.Thread, bool) {
	id := chi.URLParam(r, "threadID")
	t, ok := m.threads[id]
	if !ok {
		writeError(w, notFound("thread", id))
	}
	return t, ok
}

func (m *MockOpenAI) retrieveThread(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.thread(w, r); ok {
		writeJSON(w, http.StatusOK, t)
	}
}

func (m *MockOpenAI) modifyThread(w http.ResponseWriter, r *http.Request) {
	var req openai.ModifyThreadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.thread(w, r)
	if !ok {
		return
	}
	if req.Metadata != nil {
		t.Metadata = req.Metadata
	}
	if req.ToolResources != nil {
		t.ToolResources = req.ToolResources
	}
	writeJSON(w, http.StatusOK, t)
}

func (m *MockOpenAI) deleteThread(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.thread(w, r)
	if !ok {
		return
	}
	delete(m.threads, t.ID)
	delete(m.messages, t.ID)
	writeJSON(w, http.StatusOK, &openai.DeleteResult{ID: t.ID, Object: "thread.deleted", Deleted: true})
}

// Messages

func (m *MockOpenAI) addMessage(threadID string, req *openai.MessageRequest, assistantID, runID string) *openai.ThreadMessage {
	msg := &openai.ThreadMessage{
		ID:          newID("msg_"),
		Object:      "thread.message",
		CreatedAt:   time.Now().Unix(),
		ThreadID:    threadID,
		Status:      openai.MessageStatusCompleted,
		Role:        req.Role,
		Attachments: req.Attachments,
		Metadata:    req.Metadata,
	}
	if assistantID != "" {
		msg.AssistantID = &assistantID
	}
	if runID != "" {
		msg.RunID = &runID
	}

	if req.Content.Parts == nil {
		msg.Content = []openai.MessageContent{textContent(req.Content.Text)}
	}
	for _, part := range req.Content.Parts {
		switch part.Type {
		case "text":
			msg.Content = append(msg.Content, textContent(part.Text))
		case "image_file":
			msg.Content = append(msg.Content, openai.MessageContent{Type: part.Type, ImageFile: part.ImageFile})
		case "image_url":
			msg.Content = append(msg.Content, openai.MessageContent{Type: part.Type, ImageURL: part.ImageURL})
		}
	}

	m.messages[threadID] = append(m.messages[threadID], msg)
	return msg
}

func textContent(text string) openai.MessageContent {
	return openai.MessageContent{
		Type: "text",
		Text: &openai.MessageText{Value: text, Annotations: []openai.Annotation{}},
	}
}

func (m *MockOpenAI) message(w http.ResponseWriter, r *http.Request) (*openai.ThreadMessage, int, bool) {
	t, ok := m.thread(w, r)
	if !ok {
		return nil, 0, false
	}
	id := chi.URLParam(r, "messageID")
	for i, msg := range m.messages[t.ID] {
		if msg.ID == id {
			return msg, i, true
		}
	}
	writeError(w, notFound("message", id))
	return nil, 0, false
}

func (m *MockOpenAI) createMessage(w http.ResponseWriter, r *http.Request) {
	var req openai.MessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Role != openai.RoleUser && req.Role != openai.RoleAssistant {
		writeError(w, aiclient.NewValidationError(fmt.Sprintf("Invalid value: '%s'. Supported values are: 'user' and 'assistant'.", req.Role)))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.thread(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.addMessage(t.ID, &req, "", ""))
}

func (m *MockOpenAI) retrieveMessage(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg, _, ok := m.message(w, r); ok {
		writeJSON(w, http.StatusOK, msg)
	}
}

func (m *MockOpenAI) modifyMessage(w http.ResponseWriter, r *http.Request) {
	var req openai.ModifyMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	msg, _, ok := m.message(w, r)
	if !ok {
		return
	}
	msg.Metadata = req.Metadata
	writeJSON(w, http.StatusOK, msg)
}

func (m *MockOpenAI) deleteMessage(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, i, ok := m.message(w, r)
	if !ok {
		return
	}
	m.messages[msg.ThreadID] = slices.Delete(m.messages[msg.ThreadID], i, i+1)
	writeJSON(w, http.StatusOK, &openai.DeleteResult{ID: msg.ID, Object: "thread.message.deleted", Deleted: true})
}

func (m *MockOpenAI) listMessages(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.thread(w, r)
	if !ok {
		return
	}

	runID := r.URL.Query().Get("run_id")
	var items []*openai.ThreadMessage
	for _, msg := range m.messages[t.ID] {
		if runID == "" || (msg.RunID != nil && *msg.RunID == runID) {
			items = append(items, msg)
		}
	}

	page, err := paginate(r, items, func(msg *openai.ThreadMessage) string { return msg.ID })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Runs

func (m *MockOpenAI) startRun(threadID string, req *openai.RunCreateRequest) (*openai.Run, *aiclient.APIError) {
	a, ok := m.assistants[req.AssistantID]
	if !ok {
		return nil, notFound("assistant", req.AssistantID)
	}

	for i := range req.AdditionalMessages {
		m.addMessage(threadID, &req.AdditionalMessages[i], "", "")
	}

	now := time.Now().Unix()
	run := &openai.Run{
		ID:                 newID("run_"),
		Object:             "thread.run",
		CreatedAt:          now,
		ThreadID:           threadID,
		AssistantID:        a.ID,
		Status:             openai.RunStatusInProgress,
		StartedAt:          &now,
		Model:              a.Model,
		Tools:              a.Tools,
		Metadata:           req.Metadata,
		Temperature:        a.Temperature,
		TopP:               a.TopP,
		TruncationStrategy: req.TruncationStrategy,
		ToolChoice:         req.ToolChoice,
		ResponseFormat:     a.ResponseFormat,
	}
	if a.Instructions != nil {
		run.Instructions = *a.Instructions
	}
	if req.Model != "" {
		run.Model = req.Model
	}
	if req.Instructions != nil {
		run.Instructions = *req.Instructions
	}
	if req.Tools != nil {
		run.Tools = req.Tools
	}
	if req.ResponseFormat != nil {
		run.ResponseFormat = req.ResponseFormat
	}
	m.runs[run.ID] = run

	for _, tool := range run.Tools {
		if tool.Type != openai.ToolTypeFunction || tool.Function == nil {
			continue
		}
		if req.ToolChoice != nil && req.ToolChoice.Mode == openai.ToolChoiceNone {
			break
		}
		call := openai.ToolCall{
			ID:       newID("call_"),
			Type:     openai.ToolTypeFunction,
			Function: &openai.FunctionCall{Name: tool.Function.Name, Arguments: `{"location":"San Francisco, CA"}`},
		}
		run.Status = openai.RunStatusRequiresAction
		run.RequiredAction = &openai.RequiredAction{
			Type:              "submit_tool_outputs",
			SubmitToolOutputs: &openai.SubmitToolOutputs{ToolCalls: []openai.ToolCall{call}},
		}
		m.addStep(run, openai.RunStepStatusInProgress, openai.NewToolCallsDetails(call))
		return run, nil
	}

	m.complete(run)
	return run, nil
}

func (m *MockOpenAI) addStep(run *openai.Run, status string, details openai.StepDetails) *openai.RunStep {
	step := &openai.RunStep{
		ID:          newID("step_"),
		Object:      "thread.run.step",
		CreatedAt:   time.Now().Unix(),
		AssistantID: run.AssistantID,
		ThreadID:    run.ThreadID,
		RunID:       run.ID,
		Type:        details.Type,
		Status:      status,
		StepDetails: details,
	}
	if status == openai.RunStepStatusCompleted {
		step.CompletedAt = &step.CreatedAt
	}
	m.steps[run.ID] = append(m.steps[run.ID], step)
	return step
}

// complete posts the assistant reply and finishes the run
func (m *MockOpenAI) complete(run *openai.Run) {
	reply := m.reply
	if run.RequiredAction != nil {
		reply = fmt.Sprintf("%s (%d tool outputs used)", reply, len(run.RequiredAction.SubmitToolOutputs.ToolCalls))
	}

	msg := m.addMessage(run.ThreadID, &openai.MessageRequest{
		Role:    openai.RoleAssistant,
		Content: openai.TextContent(reply),
	}, run.AssistantID, run.ID)
	m.addStep(run, openai.RunStepStatusCompleted, openai.NewMessageCreationDetails(msg.ID))

	now := time.Now().Unix()
	run.Status = openai.RunStatusCompleted
	run.RequiredAction = nil
	run.CompletedAt = &now
	run.Usage = &openai.Usage{PromptTokens: 50, CompletionTokens: 10, TotalTokens: 60}
}

func (m *MockOpenAI) run(w http.ResponseWriter, r *http.Request) (*openai.Run, bool) {
	t, ok := m.thread(w, r)
	if !ok {
		return nil, false
	}
	id := chi.URLParam(r, "runID")
	run, ok := m.runs[id]
	if !ok || run.ThreadID != t.ID {
		writeError(w, notFound("run", id))
		return nil, false
	}
	return run, true
}

func (m *MockOpenAI) createRun(w http.ResponseWriter, r *http.Request) {
	var req openai.RunCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.thread(w, r)
	if !ok {
		return
	}
	run, apiErr := m.startRun(t.ID, &req)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (m *MockOpenAI) createThreadAndRun(w http.ResponseWriter, r *http.Request) {
	var req openai.CreateThreadAndRunRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Thread == nil {
		req.Thread = &openai.ThreadRequest{}
	}
	if req.ToolResources != nil {
		req.Thread.ToolResources = req.ToolResources
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assistants[req.AssistantID]; !ok {
		writeError(w, notFound("assistant", req.AssistantID))
		return
	}
	t := m.newThread(req.Thread)
	run, apiErr := m.startRun(t.ID, &req.RunCreateRequest)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (m *MockOpenAI) retrieveRun(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if run, ok := m.run(w, r); ok {
		writeJSON(w, http.StatusOK, run)
	}
}

func (m *MockOpenAI) modifyRun(w http.ResponseWriter, r *http.Request) {
	var req openai.ModifyRunRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.run(w, r)
	if !ok {
		return
	}
	run.Metadata = req.Metadata
	writeJSON(w, http.StatusOK, run)
}

func (m *MockOpenAI) listRuns(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.thread(w, r)
	if !ok {
		return
	}

	var items []*openai.Run
	for _, run := range m.runs {
		if run.ThreadID == t.ID {
			items = append(items, run)
		}
	}
	slices.SortFunc(items, func(a, b *openai.Run) int {
		if c := a.CreatedAt - b.CreatedAt; c != 0 {
			return int(c)
		}
		return strings.Compare(a.ID, b.ID)
	})

	page, err := paginate(r, items, func(run *openai.Run) string { return run.ID })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (m *MockOpenAI) cancelRun(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.run(w, r)
	if !ok {
		return
	}
	if run.Terminal() {
		writeError(w, aiclient.NewValidationError(fmt.Sprintf("Cannot cancel run with status '%s'.", run.Status)))
		return
	}

	now := time.Now().Unix()
	run.Status = openai.RunStatusCancelled
	run.RequiredAction = nil
	run.CancelledAt = &now
	for _, step := range m.steps[run.ID] {
		if step.Status == openai.RunStepStatusInProgress {
			step.Status = openai.RunStepStatusCancelled
			step.CancelledAt = &now
		}
	}
	writeJSON(w, http.StatusOK, run)
}

func (m *MockOpenAI) submitToolOutputs(w http.ResponseWriter, r *http.Request) {
	var req openai.SubmitToolOutputsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.run(w, r)
	if !ok {
		return
	}
	if run.Status != openai.RunStatusRequiresAction {
		writeError(w, aiclient.NewValidationError(fmt.Sprintf("Runs in status \"%s\" do not accept tool outputs.", run.Status)))
		return
	}

	outputs := make(map[string]string, len(req.ToolOutputs))
	for _, out := range req.ToolOutputs {
		outputs[out.ToolCallID] = out.Output
	}
	for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
		if _, ok := outputs[call.ID]; !ok {
			writeError(w, aiclient.NewValidationError(fmt.Sprintf("Expected tool outputs for call_ids ['%s']", call.ID)))
			return
		}
	}

	for _, step := range m.steps[run.ID] {
		if step.StepDetails.Type != openai.StepDetailsTypeToolCalls {
			continue
		}
		for i := range step.StepDetails.ToolCalls {
			call := &step.StepDetails.ToolCalls[i]
			if out, ok := outputs[call.ID]; ok && call.Function != nil {
				call.Function.Output = openai.Ptr(out)
			}
		}
		now := time.Now().Unix()
		step.Status = openai.RunStepStatusCompleted
		step.CompletedAt = &now
	}

	m.complete(run)
	writeJSON(w, http.StatusOK, run)
}

func (m *MockOpenAI) listRunSteps(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.run(w, r)
	if !ok {
		return
	}
	page, err := paginate(r, m.steps[run.ID], func(step *openai.RunStep) string { return step.ID })
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (m *MockOpenAI) retrieveRunStep(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.run(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "stepID")
	for _, step := range m.steps[run.ID] {
		if step.ID == id {
			writeJSON(w, http.StatusOK, step)
			return
		}
	}
	writeError(w, notFound("run step", id))
}

// Helpers

// paginate applies the limit, order and after query parameters to items,
// which must be in creation order.
func paginate[T any](r *http.Request, items []T, id func(T) string) (*openai.ListResponse[T], *aiclient.APIError) {
	q := r.URL.Query()

	limit := 20
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return nil, aiclient.NewValidationError(fmt.Sprintf("Invalid 'limit': expected an integer between 1 and 100, got '%s'.", v))
		}
		limit = n
	}

	ordered := slices.Clone(items)
	switch q.Get("order") {
	case "", openai.OrderDesc:
		slices.Reverse(ordered)
	case openai.OrderAsc:
	default:
		return nil, aiclient.NewValidationError(fmt.Sprintf("Invalid 'order': '%s'.", q.Get("order")))
	}

	if after := q.Get("after"); after != "" {
		i := slices.IndexFunc(ordered, func(item T) bool { return id(item) == after })
		if i < 0 {
			return nil, aiclient.NewValidationError(fmt.Sprintf("Invalid 'after': '%s'.", after))
		}
		ordered = ordered[i+1:]
	}

	page := &openai.ListResponse[T]{Object: "list", Data: ordered}
	if len(ordered) > limit {
		page.Data = ordered[:limit]
		page.HasMore = true
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	if len(page.Data) > 0 {
		page.FirstID = id(page.Data[0])
		page.LastID = id(page.Data[len(page.Data)-1])
	}
	return page, nil
}

func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func notFound(object, id string) *aiclient.APIError {
	return aiclient.NewNotFoundError(fmt.Sprintf("No %s found with id '%s'.", object, id))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, aiclient.NewValidationError(fmt.Sprintf("We could not parse the JSON body of your request: %v", err)))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", newID("req_"))
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err *aiclient.APIError) {
	writeJSON(w, err.StatusCode, err.ToErrorResponse())
}
