// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// retryAfterSeconds is sent with retryable failures.
const retryAfterSeconds = "1"

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Detail string    `json:"detail"`
	Code   ErrorCode `json:"code"`
}

// ErrorHandler writes operation errors as JSON HTTP responses
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleHTTPError normalizes err, logs it and writes the response.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, op Operation, err error) {
	stdErr := h.normalizeError(err)
	status := GetHTTPStatus(op, stdErr.Code)

	h.logError(r, op, stdErr, status)

	if IsRetryableErrorCode(stdErr.Code) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	WriteErrorResponse(w, status, stdErr)
}

// WriteErrorResponse writes stdErr as the JSON error body.
func WriteErrorResponse(w http.ResponseWriter, status int, stdErr *StandardError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Detail: stdErr.Message,
		Code:   stdErr.Code,
	})
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

func (h *ErrorHandler) logError(r *http.Request, op Operation, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"operation":     string(op),
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        status,
		"method":        r.Method,
		"path":          r.URL.Path,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
