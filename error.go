package aiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for any non-2xx response from the API
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Param      string
	Code       string
	RequestID  string
	InnerError error
}

// Error implements the error interface
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error %d", e.StatusCode)
	if e.Type != "" {
		fmt.Fprintf(&b, " %s", e.Type)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.InnerError != nil {
		fmt.Fprintf(&b, " (inner: %v)", e.InnerError)
	}
	return b.String()
}

// Unwrap returns the inner error
func (e *APIError) Unwrap() error {
	return e.InnerError
}

// Retryable reports whether the request may succeed when sent again
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.StatusCode >= http.StatusInternalServerError
}

// ErrorResponse is the OpenAI error envelope
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail is the body of the OpenAI error envelope. Code is a string in
// most responses but some endpoints send a number.
type ErrorDetail struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Param   *string         `json:"param,omitempty"`
	Code    json.RawMessage `json:"code,omitempty"`
}

// ToErrorResponse converts the APIError to the OpenAI error envelope
func (e *APIError) ToErrorResponse() *ErrorResponse {
	detail := &ErrorDetail{
		Message: e.Message,
		Type:    e.Type,
	}
	if e.Param != "" {
		detail.Param = &e.Param
	}
	if e.Code != "" {
		detail.Code, _ = json.Marshal(e.Code)
	}
	return &ErrorResponse{Error: detail}
}

// ParseErrorResponse builds an APIError from a failed response. Bodies that
// are not an error envelope become the message verbatim.
func ParseErrorResponse(statusCode int, requestID string, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		RequestID:  requestID,
	}

	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error == nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(statusCode)
		}
		return apiErr
	}

	apiErr.Message = resp.Error.Message
	apiErr.Type = resp.Error.Type
	if resp.Error.Param != nil {
		apiErr.Param = *resp.Error.Param
	}
	apiErr.Code = decodeErrorCode(resp.Error.Code)
	return apiErr
}

func decodeErrorCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// NewAuthenticationError creates a new authentication error (401)
func NewAuthenticationError(message string) *APIError {
	return &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
		Type:       "authentication_error",
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string) *APIError {
	return &APIError{
		StatusCode: http.StatusNotFound,
		Message:    message,
		Type:       "invalid_request_error",
	}
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Type:       "invalid_request_error",
	}
}
