// Package errors provides the console's structured error taxonomy.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNetwork        ErrorCode = "NETWORK_ERROR"
	ErrCodeAPI            ErrorCode = "API_ERROR"
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound       ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeTimeout        ErrorCode = "TIMEOUT_ERROR"
	ErrCodeDecode         ErrorCode = "DECODE_ERROR"
	ErrCodeValidation     ErrorCode = "VALIDATION_FAILED"
	ErrCodeAuthentication ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodePartialFailure ErrorCode = "PARTIAL_FAILURE"
	ErrCodeExportFailed   ErrorCode = "EXPORT_FAILED"
	ErrCodeImportFailed   ErrorCode = "IMPORT_FAILED"
	ErrCodeStorage        ErrorCode = "STORAGE_ERROR"
	ErrCodeSearch         ErrorCode = "SEARCH_FAILED"
	ErrCodeNotification   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeConfig         ErrorCode = "CONFIG_ERROR"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Status returns the HTTP status recorded on the error, or 0.
func (e *StandardError) Status() int {
	if e.Metadata == nil {
		return 0
	}
	if s, ok := e.Metadata["status"].(int); ok {
		return s
	}
	return 0
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNetworkError wraps a transport failure such as a refused connection.
func NewNetworkError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   fmt.Sprintf("request %s failed", operation),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// FromHTTPStatus builds the error for a non-2xx backend response. The
// backend's error payload becomes the message.
func FromHTTPStatus(operation string, status int, body []byte) *StandardError {
	code := ErrCodeAPI
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = ErrCodeUnauthorized
	case http.StatusNotFound:
		code = ErrCodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = ErrCodeValidation
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		code = ErrCodeTimeout
	}

	message := strings.TrimSpace(string(body))
	if message == "" {
		message = fmt.Sprintf("%s returned %d %s", operation, status, http.StatusText(status))
	}

	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   string(body),
		Retryable: IsTransientHTTPStatus(status),
		Metadata: map[string]interface{}{
			"operation": operation,
			"status":    status,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewDecodeError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecode,
		Message:   fmt.Sprintf("could not decode %s response", operation),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewValidationError reports input rejected before any network call.
func NewValidationError(message string, fields map[string]string) *StandardError {
	var md map[string]interface{}
	if len(fields) > 0 {
		md = map[string]interface{}{"fields": fields}
	}
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   message,
		Retryable: false,
		Metadata:  md,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthentication,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPartialFailureError reports a multi-call operation whose first step
// already took effect on the backend.
func NewPartialFailureError(completed, failed string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePartialFailure,
		Message:   fmt.Sprintf("%s succeeded but %s failed", completed, failed),
		Details:   err.Error(),
		Retryable: false,
		Metadata: map[string]interface{}{
			"completed": completed,
			"failed":    failed,
		},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewExportFailedError(format string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   fmt.Sprintf("%s export aborted", format),
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"format": format},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewImportFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeImportFailed,
		Message:   fmt.Sprintf("could not import %s", source),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewStorageError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorage,
		Message:   fmt.Sprintf("session storage %s failed", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewSearchError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearch,
		Message:   fmt.Sprintf("search %s failed", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotification,
		Message:   fmt.Sprintf("%s notification failed", channel),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewResourceNotFoundError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsTransientHTTPStatus reports whether a backend status is worth retrying.
func IsTransientHTTPStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// AsStandard extracts a *StandardError from anywhere in err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code of err, INTERNAL_ERROR for foreign errors and
// "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable reports whether err is a retryable StandardError.
func IsRetryable(err error) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Retryable
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "AUTH"):
		return "AUTH"
	case strings.Contains(codeStr, "NETWORK") || strings.Contains(codeStr, "TIMEOUT") || strings.Contains(codeStr, "API"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "EXPORT") || strings.Contains(codeStr, "IMPORT"):
		return "FILE"
	case strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "SEARCH"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "DECODE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
