package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResponseFormat selects the output format of a model.
//
// On the wire the default "auto" is the bare string "auto" while every other
// kind is an object {"type": kind}. The zero value is the unset kind, which
// only results from decoding an object without a "type" member.
type ResponseFormat string

const (
	ResponseFormatAuto       ResponseFormat = "auto"
	ResponseFormatText       ResponseFormat = "text"
	ResponseFormatJSONObject ResponseFormat = "json_object"
)

// FormatError is returned when a response format is neither the "auto"
// shorthand nor an object.
type FormatError struct {
	// Token is the JSON kind or literal that was rejected
	Token string
}

// Error implements the error interface
func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid response format: unexpected %s", e.Token)
}

// String returns the kind
func (f ResponseFormat) String() string {
	return string(f)
}

// MarshalJSON implements json.Marshaler.
func (f ResponseFormat) MarshalJSON() ([]byte, error) {
	switch f {
	case ResponseFormatAuto:
		return json.Marshal(string(f))
	case "":
		return []byte("{}"), nil
	}
	return json.Marshal(struct {
		Type string `json:"type"`
	}{Type: string(f)})
}

// responseFormatVariant is the decoded wire shape before it is collapsed into
// a ResponseFormat.
type responseFormatVariant struct {
	shorthand *string
	explicit  *responseFormatObject
}

// responseFormatObject holds the exact "type" member of an object, if any
type responseFormatObject struct {
	Type *string
}

func decodeResponseFormatVariant(data []byte) (responseFormatVariant, error) {
	var v responseFormatVariant
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return v, &FormatError{Token: "end of input"}
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return v, err
		}
		v.shorthand = &s
	case '{':
		// Member names match exactly; the last "type" wins.
		var members map[string]json.RawMessage
		if err := json.Unmarshal(data, &members); err != nil {
			return v, err
		}
		obj := &responseFormatObject{}
		if raw, ok := members["type"]; ok {
			text, err := memberText(raw)
			if err != nil {
				return v, err
			}
			obj.Type = &text
		}
		v.explicit = obj
	default:
		return v, &FormatError{Token: tokenKind(data)}
	}
	return v, nil
}

// memberText returns the text of a member value: strings unquoted, any other
// value as its compact JSON literal ("1", "true", "null").
func memberText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *ResponseFormat) UnmarshalJSON(data []byte) error {
	v, err := decodeResponseFormatVariant(data)
	if err != nil {
		return err
	}

	if v.shorthand != nil {
		if *v.shorthand != string(ResponseFormatAuto) {
			return &FormatError{Token: fmt.Sprintf("string %q", *v.shorthand)}
		}
		*f = ResponseFormatAuto
		return nil
	}

	*f = ""
	if v.explicit.Type != nil {
		*f = ResponseFormat(*v.explicit.Type)
	}
	return nil
}

// tokenKind names the JSON value kind that starts data
func tokenKind(data []byte) string {
	switch data[0] {
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
