// Package errors provides standardized error handling for the activities HTTP API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Registry errors
const (
	ErrCodeActivityNotFound    ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeAlreadySignedUp     ErrorCode = "ALREADY_SIGNED_UP"
	ErrCodeParticipantNotFound ErrorCode = "PARTICIPANT_NOT_FOUND"
	ErrCodeActivityFull        ErrorCode = "ACTIVITY_FULL"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// Operation names the API operation an error surfaced from. The same error code
// can map to different HTTP statuses depending on the operation.
type Operation string

const (
	OpList       Operation = "list"
	OpSignup     Operation = "signup"
	OpUnregister Operation = "unregister"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is reports whether target is a StandardError with the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewActivityNotFoundError creates a non-retryable unknown activity error.
func NewActivityNotFoundError(activity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityNotFound,
		Message:   "Activity not found",
		Details:   fmt.Sprintf("activity %q is not in the registry", activity),
		Retryable: false,
		Metadata:  map[string]interface{}{"activity": activity},
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadySignedUpError creates a non-retryable duplicate signup error.
func NewAlreadySignedUpError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadySignedUp,
		Message:   "Student is already signed up for this activity",
		Details:   fmt.Sprintf("%s is already a participant of %s", email, activity),
		Retryable: false,
		Metadata:  map[string]interface{}{"activity": activity, "email": email},
		Timestamp: time.Now().UTC(),
	}
}

// NewParticipantNotFoundError creates a non-retryable unknown participant error.
func NewParticipantNotFoundError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeParticipantNotFound,
		Message:   "Student is not signed up for this activity",
		Details:   fmt.Sprintf("%s is not a participant of %s", email, activity),
		Retryable: false,
		Metadata:  map[string]interface{}{"activity": activity, "email": email},
		Timestamp: time.Now().UTC(),
	}
}

// NewActivityFullError creates a non-retryable capacity error.
func NewActivityFullError(activity string, maxParticipants int) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityFull,
		Message:   "Activity is full",
		Details:   fmt.Sprintf("%s already has %d participants", activity, maxParticipants),
		Retryable: false,
		Metadata:  map[string]interface{}{"activity": activity, "maxParticipants": maxParticipants},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable request error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable backing store error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Activity store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// httpStatusMapping holds the default HTTP status per error code.
var httpStatusMapping = map[ErrorCode]int{
	ErrCodeActivityNotFound:    http.StatusNotFound,
	ErrCodeAlreadySignedUp:     http.StatusBadRequest,
	ErrCodeParticipantNotFound: http.StatusNotFound,
	ErrCodeActivityFull:        http.StatusBadRequest,
	ErrCodeInvalidRequest:      http.StatusUnprocessableEntity,
	ErrCodeStoreUnavailable:    http.StatusServiceUnavailable,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code raised by op.
// Signup reports every rejection, including an unknown activity, as 400.
func GetHTTPStatus(op Operation, code ErrorCode) int {
	if op == OpSignup && code == ErrCodeActivityNotFound {
		return http.StatusBadRequest
	}
	if status, ok := httpStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandardError extracts a StandardError from err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return code == ErrCodeStoreUnavailable
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeActivityNotFound, ErrCodeAlreadySignedUp, ErrCodeParticipantNotFound, ErrCodeActivityFull:
		return "REGISTRY"
	case ErrCodeInvalidRequest:
		return "VALIDATION"
	case ErrCodeStoreUnavailable:
		return "INFRASTRUCTURE"
	default:
		return "UNKNOWN"
	}
}
