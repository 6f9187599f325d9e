// internal/common/errors/handler.go
package errors

import (
	"context"
	stderrors "errors"
	"time"
)

// ErrorHandler is the single place a console surface turns an error into a
// log line and a user-facing StandardError.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err against operation and returns its normalized form. A nil
// err returns nil.
func (h *ErrorHandler) Handle(ctx context.Context, operation string, err error) *StandardError {
	if err == nil {
		return nil
	}

	stdErr := h.normalizeError(ctx, err)
	fields := map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status := stdErr.Status(); status != 0 {
		fields["status"] = status
	}

	if stdErr.Code == ErrCodeValidation {
		h.logger.Warn("Operation rejected", fields)
	} else {
		h.logger.Error("Operation failed", fields)
	}
	return stdErr
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(ctx context.Context, err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return &StandardError{
			Code:      ErrCodeTimeout,
			Message:   "Operation cancelled",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
			cause:     err,
		}
	}
	return NewInternalError(err)
}
