package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"shadowmonitor/src/apperrors"

	logger "github.com/sirupsen/logrus"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`

	// set on batch validation failures
	Index  *int   `json:"index,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// writeError maps err to a status: ValidationError 400, FetchError 502, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *apperrors.ValidationError
		fetchErr      *apperrors.FetchError
	)
	switch {
	case errors.As(err, &validationErr):
		body := envelope{Success: false, Message: err.Error(), Reason: validationErr.Reason}
		if validationErr.Index >= 0 {
			idx := validationErr.Index
			body.Index = &idx
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.As(err, &fetchErr):
		writeJSON(w, http.StatusBadGateway, envelope{Success: false, Message: err.Error()})
	default:
		logger.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "internal server error"})
	}
}

const defaultLimit = 100

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, &apperrors.ValidationError{Index: -1, Reason: "invalid limit"}
	}
	return n, nil
}
