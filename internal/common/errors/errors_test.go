package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLogger struct {
	mock.Mock
}

func (m *mockLogger) Error(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *mockLogger) Warn(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

// ==========================
// FromHTTPStatus Tests
// ==========================

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  ErrorCode
		wantMsg   string
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, "Bad credentials", ErrCodeUnauthorized, "Bad credentials", false},
		{"forbidden", http.StatusForbidden, "", ErrCodeUnauthorized, "login returned 403 Forbidden", false},
		{"not found", http.StatusNotFound, "no store 7", ErrCodeNotFound, "no store 7", false},
		{"bad request", http.StatusBadRequest, "intent out of range", ErrCodeValidation, "intent out of range", false},
		{"gateway timeout", http.StatusGatewayTimeout, "", ErrCodeTimeout, "login returned 504 Gateway Timeout", true},
		{"server error", http.StatusInternalServerError, "boom", ErrCodeAPI, "boom", true},
		{"conflict", http.StatusConflict, "duplicate", ErrCodeAPI, "duplicate", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromHTTPStatus("login", tt.status, []byte(tt.body))
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.status, err.Status())
		})
	}
}

func TestAsStandard_ThroughWrapping(t *testing.T) {
	base := NewStorageError("save", fmt.Errorf("disk full"))
	wrapped := fmt.Errorf("login: %w", base)

	got, ok := AsStandard(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeStorage, got.Code)
	assert.True(t, HasCode(wrapped, ErrCodeStorage))
	assert.True(t, IsRetryable(wrapped))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain")))
	assert.Equal(t, ErrCodeValidation, CodeOf(NewValidationError("bad", nil)))
}

func TestNetworkError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewNetworkError("GET /store/getAll", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeAuthentication, "AUTH"},
		{ErrCodeNetwork, "TRANSPORT"},
		{ErrCodeAPI, "TRANSPORT"},
		{ErrCodeExportFailed, "FILE"},
		{ErrCodeStorage, "STORAGE"},
		{ErrCodeNotification, "NOTIFICATION"},
		{ErrCodeValidation, "VALIDATION"},
		{ErrCodePartialFailure, "OTHER"},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.code))
		})
	}
}

// ==========================
// ErrorHandler Tests
// ==========================

func TestErrorHandler_Handle(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		h := NewErrorHandler(&mockLogger{})
		assert.Nil(t, h.Handle(context.Background(), "noop", nil))
	})

	t.Run("validation errors log at warn", func(t *testing.T) {
		log := &mockLogger{}
		log.On("Warn", "Operation rejected", mock.Anything).Once()
		h := NewErrorHandler(log)

		got := h.Handle(context.Background(), "register", NewValidationError("passwords do not match", nil))
		assert.Equal(t, ErrCodeValidation, got.Code)
		log.AssertExpectations(t)
	})

	t.Run("foreign errors are normalized", func(t *testing.T) {
		log := &mockLogger{}
		log.On("Error", "Operation failed", mock.MatchedBy(func(f map[string]interface{}) bool {
			return f["errorCode"] == string(ErrCodeInternal) && f["operation"] == "export"
		})).Once()
		h := NewErrorHandler(log)

		got := h.Handle(context.Background(), "export", stderrors.New("boom"))
		assert.Equal(t, ErrCodeInternal, got.Code)
		log.AssertExpectations(t)
	})

	t.Run("cancellation maps to timeout", func(t *testing.T) {
		log := &mockLogger{}
		log.On("Error", "Operation failed", mock.Anything).Once()
		h := NewErrorHandler(log)

		got := h.Handle(context.Background(), "fetch", context.Canceled)
		assert.Equal(t, ErrCodeTimeout, got.Code)
		assert.True(t, got.Retryable)
	})

	t.Run("http status is logged", func(t *testing.T) {
		log := &mockLogger{}
		log.On("Error", "Operation failed", mock.MatchedBy(func(f map[string]interface{}) bool {
			return f["status"] == http.StatusBadGateway
		})).Once()
		h := NewErrorHandler(log)

		h.Handle(context.Background(), "fetch", FromHTTPStatus("fetch", http.StatusBadGateway, nil))
		log.AssertExpectations(t)
	})
}
