package errors

import "fmt"

// ErrorCode represents a Cairn error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrLockTimeout         ErrorCode = "LOCK_TIMEOUT"         // 409
	ErrExternalUnavailable ErrorCode = "EXTERNAL_UNAVAILABLE" // 503
	ErrInternal            ErrorCode = "INTERNAL"             // 500
)

// CairnError represents a structured error with code, status, and details.
type CairnError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *CairnError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CairnError {
	return &CairnError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing plan or workspace.
func NewNotFound(identifier string) *CairnError {
	return &CairnError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewLockTimeout creates a 409 error for lock acquisition timeouts.
func NewLockTimeout(path string) *CairnError {
	return &CairnError{
		Code:    ErrLockTimeout,
		Status:  409,
		Message: fmt.Sprintf("timed out waiting for lock on %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewExternalUnavailable creates a 503 error for a missing or failing
// external process (embedder, LLM CLI).
func NewExternalUnavailable(process string, err error) *CairnError {
	msg := fmt.Sprintf("external process unavailable: %s", process)
	details := map[string]any{"process": process}
	if err != nil {
		details["cause"] = err.Error()
	}
	return &CairnError{
		Code:    ErrExternalUnavailable,
		Status:  503,
		Message: msg,
		Details: details,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CairnError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CairnError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a CairnError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*CairnError); ok {
		return cErr.Code == code
	}
	return false
}
