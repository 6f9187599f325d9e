package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/crm"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/session"
)

type apiError struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type apiResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if status >= 400 {
		writeRawJSON(w, status, apiResponse{
			Status: "error",
			Data:   payload,
			Error: &apiError{
				Code:   status,
				Status: http.StatusText(status),
			},
		})
		return
	}
	writeRawJSON(w, status, apiResponse{
		Status: "ok",
		Data:   payload,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: message,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
		},
	})
}

// writeErr renders err with the status its code maps to. The message is the
// error's own message, never its details.
func writeErr(w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	reason := string(apperrors.CodeOf(err))
	if stdErr, ok := apperrors.AsStandard(err); ok {
		msg = stdErr.Message
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: msg,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
			Reason: reason,
		},
	})
}

func statusOf(err error) int {
	if errors.Is(err, session.ErrNoToken) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, crm.ErrNotEditing) || errors.Is(err, crm.ErrNotLoaded) {
		return http.StatusConflict
	}
	if errors.Is(err, listing.ErrDeleteCancelled) {
		return http.StatusPreconditionRequired
	}
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthorized, apperrors.ErrCodeAuthentication:
		return http.StatusUnauthorized
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeNetwork, apperrors.ErrCodeAPI, apperrors.ErrCodeDecode, apperrors.ErrCodeSearch:
		return http.StatusBadGateway
	case apperrors.ErrCodeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
