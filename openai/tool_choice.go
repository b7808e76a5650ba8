package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tool choice modes sent as a bare string
const (
	ToolChoiceNone     = "none"
	ToolChoiceAuto     = "auto"
	ToolChoiceRequired = "required"
)

// ToolChoice controls which tool the model calls. Either Mode is set and the
// value is sent as a bare string, or Type (and Function for function tools)
// selects a specific tool and the value is sent as an object.
type ToolChoice struct {
	Mode     string
	Type     string
	Function *ToolChoiceFunction
}

// ToolChoiceFunction names the function a ToolChoice forces
type ToolChoiceFunction struct {
	Name string `json:"name"`
}

// ToolChoiceError is returned when a tool choice has an unsupported shape
type ToolChoiceError struct {
	Reason string
}

// Error implements the error interface
func (e *ToolChoiceError) Error() string {
	return "invalid tool choice: " + e.Reason
}

// ForceFunction returns a ToolChoice forcing the named function
func ForceFunction(name string) *ToolChoice {
	return &ToolChoice{Type: ToolTypeFunction, Function: &ToolChoiceFunction{Name: name}}
}

type toolChoiceObject struct {
	Type     string              `json:"type"`
	Function *ToolChoiceFunction `json:"function,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c ToolChoice) MarshalJSON() ([]byte, error) {
	if c.Mode != "" {
		if c.Type != "" || c.Function != nil {
			return nil, &ToolChoiceError{Reason: "mode and tool both set"}
		}
		return json.Marshal(c.Mode)
	}
	if c.Type == "" {
		return nil, &ToolChoiceError{Reason: "missing mode or type"}
	}
	if c.Type == ToolTypeFunction && c.Function == nil {
		return nil, &ToolChoiceError{Reason: "function tool without name"}
	}
	return json.Marshal(toolChoiceObject{Type: c.Type, Function: c.Function})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ToolChoice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &ToolChoiceError{Reason: "empty input"}
	}

	switch data[0] {
	case '"':
		var mode string
		if err := json.Unmarshal(data, &mode); err != nil {
			return err
		}
		*c = ToolChoice{Mode: mode}
	case '{':
		var obj toolChoiceObject
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*c = ToolChoice{Type: obj.Type, Function: obj.Function}
	default:
		return &ToolChoiceError{Reason: fmt.Sprintf("unexpected %s", tokenKind(data))}
	}
	return nil
}
