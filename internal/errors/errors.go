package errors

import "fmt"

// ErrorCode represents a Glippy error code.
type ErrorCode string

const (
	ErrConfiguration  ErrorCode = "CONFIGURATION"   // required setting absent, caller-correctable
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrAuthentication ErrorCode = "AUTHENTICATION"  // 401/403, terminal
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404, terminal
	ErrTransient      ErrorCode = "TRANSIENT"       // network failure, timeout, 5xx
	ErrParse          ErrorCode = "PARSE"           // unexpected response shape, terminal
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// ClipError represents a structured error with code, status, and details.
type ClipError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ClipError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConfiguration creates an error for a missing required setting.
func NewConfiguration(field string) *ClipError {
	return &ClipError{
		Code:    ErrConfiguration,
		Message: fmt.Sprintf("configuration incomplete: %s is not set", field),
		Details: map[string]any{"field": field},
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ClipError {
	return &ClipError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewAuthentication creates an error for a 401/403 response.
func NewAuthentication(status int, msg string) *ClipError {
	return &ClipError{
		Code:    ErrAuthentication,
		Status:  status,
		Message: fmt.Sprintf("authentication failed (%d): %s", status, msg),
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(resource string) *ClipError {
	return &ClipError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", resource),
		Details: map[string]any{"resource": resource},
	}
}

// NewTransient creates a retryable error for network failures, timeouts,
// and 429/5xx responses. Status is 0 for network-level failures.
func NewTransient(status int, msg string) *ClipError {
	return &ClipError{
		Code:    ErrTransient,
		Status:  status,
		Message: msg,
	}
}

// NewParse creates an error for an unexpected response shape.
// The excerpt is a truncated copy of the raw body for diagnostics.
func NewParse(msg, excerpt string) *ClipError {
	return &ClipError{
		Code:    ErrParse,
		Message: msg,
		Details: map[string]any{"body_excerpt": excerpt},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ClipError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ClipError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a ClipError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*ClipError); ok {
		return cErr.Code == code
	}
	return false
}

// Retryable reports whether an error is worth retrying with backoff.
// Only transient errors qualify; authentication, not-found, parse, and
// malformed-request errors are terminal.
func Retryable(err error) bool {
	return Is(err, ErrTransient)
}
