package entities

import (
	"encoding/json"
	"fmt"
)

// ErrorDetail is the structured error handed to host pages.
// Types: "verification", "entitlement", "embed", "frame", "precondition",
// "config", "network", "internal".
type ErrorDetail struct {
	// Data carries the payload reported by the test frame, if any.
	Data json.RawMessage `json:"data,omitempty"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// Code is the stable machine-readable code.
	Code ErrorCode `json:"code"`

	// IsTimeout indicates if this was a timeout error.
	IsTimeout bool `json:"is_timeout,omitempty"`
}

// Error implements the error interface.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Type != "" && e.Type != "internal" {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	return msg
}

// NewErrorDetail creates a new ErrorDetail with the given type and message.
func NewErrorDetail(errorType, message string) *ErrorDetail {
	return &ErrorDetail{
		Type:    errorType,
		Message: message,
	}
}

// WithCode sets the code and returns the same ErrorDetail.
func (e *ErrorDetail) WithCode(code ErrorCode) *ErrorDetail {
	e.Code = code
	return e
}

// WithData sets the frame payload and returns the same ErrorDetail.
func (e *ErrorDetail) WithData(data json.RawMessage) *ErrorDetail {
	e.Data = data
	return e
}
