package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/logger"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, APIResponse{Success: true, Message: msg})
}

func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, APIResponse{Success: false, Error: code, Message: message})
}

// WriteError maps an error to the wire. Typed errors carry their own
// status and code; anything untyped becomes an opaque 500 so internal
// details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(ae.RetryAfter))
		}
		if ae.Status >= http.StatusInternalServerError {
			logger.Error("Request failed: %v", err)
		}
		JSON(w, ae.Status, APIResponse{Success: false, Error: ae.Code, Message: ae.Message})
		return
	}
	logger.Error("Request failed: %v", err)
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
