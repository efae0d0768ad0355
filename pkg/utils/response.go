package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"fnh-backend/internal/apperrors"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// Error maps a service error to an HTTP status and writes it as JSON.
// Unrecognized errors become 500s with a generic message so internals
// never leak to the front desk.
func Error(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case apperrors.IsNotFound(err):
		JSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case apperrors.IsConflict(err):
		JSON(w, http.StatusConflict, errorBody{Error: "operation conflicted with another, please retry"})
	case errors.Is(err, apperrors.ErrInsufficientStock),
		errors.Is(err, apperrors.ErrDateOutOfRange),
		errors.Is(err, apperrors.ErrShiftClosed):
		JSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	default:
		log.Printf("[HTTP] Internal error: %v", err)
		JSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}
