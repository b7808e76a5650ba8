package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StepDetailsType is the discriminant of StepDetails
type StepDetailsType string

const (
	StepDetailsTypeMessageCreation StepDetailsType = "message_creation"
	StepDetailsTypeToolCalls       StepDetailsType = "tool_calls"
)

// StepDetails describes what a run step did. Exactly one payload is set,
// selected by Type: MessageCreation for message_creation, ToolCalls for
// tool_calls. Step types this package does not know carry neither payload.
type StepDetails struct {
	Type            StepDetailsType
	MessageCreation *MessageCreation
	ToolCalls       []ToolCall
}

// MessageCreation references the message created by a run step
type MessageCreation struct {
	MessageID string `json:"message_id"`
}

// StepDetailsError reports a step details value whose payload does not
// match its discriminant.
type StepDetailsError struct {
	Type   StepDetailsType
	Reason string
}

// Error implements the error interface
func (e *StepDetailsError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("invalid step details: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s step details: %s", e.Type, e.Reason)
}

// NewMessageCreationDetails creates message_creation step details
func NewMessageCreationDetails(messageID string) StepDetails {
	return StepDetails{
		Type:            StepDetailsTypeMessageCreation,
		MessageCreation: &MessageCreation{MessageID: messageID},
	}
}

// NewToolCallsDetails creates tool_calls step details
func NewToolCallsDetails(calls ...ToolCall) StepDetails {
	if calls == nil {
		calls = []ToolCall{}
	}
	return StepDetails{
		Type:      StepDetailsTypeToolCalls,
		ToolCalls: calls,
	}
}

// Validate checks that exactly the payload selected by Type is present
func (d StepDetails) Validate() error {
	switch d.Type {
	case StepDetailsTypeMessageCreation:
		if d.MessageCreation == nil {
			return &StepDetailsError{Type: d.Type, Reason: "missing message_creation"}
		}
		if d.ToolCalls != nil {
			return &StepDetailsError{Type: d.Type, Reason: "unexpected tool_calls"}
		}
	case StepDetailsTypeToolCalls:
		if d.MessageCreation != nil {
			return &StepDetailsError{Type: d.Type, Reason: "unexpected message_creation"}
		}
	case "":
		return &StepDetailsError{Reason: "missing type"}
	default:
		if d.MessageCreation != nil || d.ToolCalls != nil {
			return &StepDetailsError{Type: d.Type, Reason: "unexpected payload for unknown type"}
		}
	}
	return nil
}

// stepDetailsWire is the tagged object as it appears on the wire
type stepDetailsWire struct {
	Type            StepDetailsType  `json:"type"`
	MessageCreation *MessageCreation `json:"message_creation,omitempty"`
	ToolCalls       *[]ToolCall      `json:"tool_calls,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d StepDetails) MarshalJSON() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	wire := stepDetailsWire{Type: d.Type, MessageCreation: d.MessageCreation}
	if d.Type == StepDetailsTypeToolCalls {
		calls := d.ToolCalls
		if calls == nil {
			calls = []ToolCall{}
		}
		wire.ToolCalls = &calls
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *StepDetails) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	var wire stepDetailsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	details := StepDetails{Type: wire.Type, MessageCreation: wire.MessageCreation}
	if wire.ToolCalls != nil {
		details.ToolCalls = *wire.ToolCalls
	}
	// A tool_calls step may be reported before any call is recorded.
	if details.Type == StepDetailsTypeToolCalls && details.ToolCalls == nil {
		details.ToolCalls = []ToolCall{}
	}

	if err := details.Validate(); err != nil {
		return err
	}
	*d = details
	return nil
}
