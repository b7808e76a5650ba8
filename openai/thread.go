package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Thread represents a conversation thread
type Thread struct {
	ID            string            `json:"id"`
	Object        string            `json:"object"`
	CreatedAt     int64             `json:"created_at"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ThreadRequest is the body of a create thread call
type ThreadRequest struct {
	Messages      []MessageRequest  `json:"messages,omitempty"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ModifyThreadRequest is the body of a modify thread call
type ModifyThreadRequest struct {
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Thread message status values
const (
	MessageStatusInProgress = "in_progress"
	MessageStatusIncomplete = "incomplete"
	MessageStatusCompleted  = "completed"
)

// ThreadMessage represents a message within a thread
type ThreadMessage struct {
	ID                string             `json:"id"`
	Object            string             `json:"object"`
	CreatedAt         int64              `json:"created_at"`
	ThreadID          string             `json:"thread_id"`
	Status            string             `json:"status,omitempty"`
	IncompleteDetails *IncompleteDetails `json:"incomplete_details,omitempty"`
	CompletedAt       *int64             `json:"completed_at,omitempty"`
	IncompleteAt      *int64             `json:"incomplete_at,omitempty"`
	Role              string             `json:"role"`
	Content           []MessageContent   `json:"content"`
	AssistantID       *string            `json:"assistant_id,omitempty"`
	RunID             *string            `json:"run_id,omitempty"`
	Attachments       []Attachment       `json:"attachments,omitempty"`
	Metadata          map[string]string  `json:"metadata,omitempty"`
}

// IncompleteDetails explains why a message or run ended early
type IncompleteDetails struct {
	Reason string `json:"reason"`
}

// MessageContent is one content part of a thread message
type MessageContent struct {
	Type      string       `json:"type"` // "text", "image_file", "image_url" or "refusal"
	Text      *MessageText `json:"text,omitempty"`
	ImageFile *ImageFile   `json:"image_file,omitempty"`
	ImageURL  *ImageURL    `json:"image_url,omitempty"`
	Refusal   string       `json:"refusal,omitempty"`
}

// MessageText is the text part of a message with its annotations
type MessageText struct {
	Value       string       `json:"value"`
	Annotations []Annotation `json:"annotations"`
}

// Annotation marks a span of message text that cites or produces a file
type Annotation struct {
	Type         string   `json:"type"` // "file_citation" or "file_path"
	Text         string   `json:"text"`
	StartIndex   int      `json:"start_index"`
	EndIndex     int      `json:"end_index"`
	FileCitation *FileRef `json:"file_citation,omitempty"`
	FilePath     *FileRef `json:"file_path,omitempty"`
}

// FileRef references a file by ID
type FileRef struct {
	FileID string `json:"file_id"`
}

// ImageURL references an image by URL
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// Attachment makes a file available to tools for one message
type Attachment struct {
	FileID string          `json:"file_id"`
	Tools  []AssistantTool `json:"tools,omitempty"`
}

// MessageRequest is the body of a create message call
type MessageRequest struct {
	Role        string                `json:"role"`
	Content     MessageRequestContent `json:"content"`
	Attachments []Attachment          `json:"attachments,omitempty"`
	Metadata    map[string]string     `json:"metadata,omitempty"`
}

// ModifyMessageRequest is the body of a modify message call
type ModifyMessageRequest struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MessageRequestContent is the content of a new message. It is sent as a
// bare string when only Text is set, and as an array of parts otherwise.
type MessageRequestContent struct {
	Text  string
	Parts []MessageContentPart
}

// MessageContentPart is one part of a multi-part message request
type MessageContentPart struct {
	Type      string     `json:"type"` // "text", "image_file" or "image_url"
	Text      string     `json:"text,omitempty"`
	ImageFile *ImageFile `json:"image_file,omitempty"`
	ImageURL  *ImageURL  `json:"image_url,omitempty"`
}

// TextContent returns plain text message content
func TextContent(text string) MessageRequestContent {
	return MessageRequestContent{Text: text}
}

// PartsContent returns multi-part message content
func PartsContent(parts ...MessageContentPart) MessageRequestContent {
	return MessageRequestContent{Parts: parts}
}

// MarshalJSON implements json.Marshaler.
func (c MessageRequestContent) MarshalJSON() ([]byte, error) {
	if c.Parts == nil {
		return json.Marshal(c.Text)
	}
	if c.Text != "" {
		return nil, fmt.Errorf("message content: text and parts both set")
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *MessageRequestContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("message content: empty input")
	}

	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = MessageRequestContent{Text: text}
	case '[':
		var parts []MessageContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = MessageRequestContent{Parts: parts}
	default:
		return fmt.Errorf("message content: unexpected %s", tokenKind(data))
	}
	return nil
}
