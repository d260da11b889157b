package server

import "fmt"

// ErrorCode classifies MCP tool errors for structured error handling
type ErrorCode string

const (
	// ErrInvalidInput indicates invalid or malformed input parameters
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrUpstream indicates the Strava API request failed
	ErrUpstream ErrorCode = "UPSTREAM_ERROR"
	// ErrStorage indicates a local persistence operation failed
	ErrStorage ErrorCode = "STORAGE_ERROR"
)

// ToolError represents a structured tool error with code, message, and
// optional details. The dispatch layer renders it as a uniform user-visible
// message instead of crashing the process.
type ToolError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidInputError creates an error for invalid input parameters
func NewInvalidInputError(msg string) *ToolError {
	return &ToolError{Code: ErrInvalidInput, Message: msg}
}

// NewUpstreamError wraps a failed Strava API call. The upstream message is
// preserved verbatim in the details.
func NewUpstreamError(operation string, err error) *ToolError {
	return &ToolError{
		Code:    ErrUpstream,
		Message: fmt.Sprintf("Strava %s failed", operation),
		Details: err.Error(),
	}
}

// NewStorageError wraps a failed local persistence operation
func NewStorageError(operation string, err error) *ToolError {
	return &ToolError{
		Code:    ErrStorage,
		Message: fmt.Sprintf("Local %s failed", operation),
		Details: err.Error(),
	}
}
