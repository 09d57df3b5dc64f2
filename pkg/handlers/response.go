package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/apperrors"
)

// ApiResponse wraps data in the format expected by the back-office frontend.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteServiceError maps a service-layer error onto an HTTP error response.
// Unrecognised errors become 500s with the given code.
func WriteServiceError(w http.ResponseWriter, logger *zap.Logger, err error, errorCode string) {
	status := http.StatusInternalServerError
	code := errorCode
	message := err.Error()

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
		code = "conflict"
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
		code = "validation_error"
	case errors.Is(err, apperrors.ErrInvalidProvider),
		errors.Is(err, apperrors.ErrProviderArchived),
		errors.Is(err, apperrors.ErrSelfPartnership):
		status = http.StatusUnprocessableEntity
		code = "invalid_operation"
	}

	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
