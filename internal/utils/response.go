package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"caterrides-core/internal/lifecycle"
)

// MessageResponse is the minimal envelope the web client reads on both
// success and failure paths.
type MessageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, MessageResponse{Message: message})
}

// WriteError maps the lifecycle error taxonomy onto HTTP statuses. EventFull
// and Conflict are expected outcomes and come back as plain 409s, never 5xx.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lifecycle.ErrConflict),
		errors.Is(err, lifecycle.ErrEventFull),
		errors.Is(err, lifecycle.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, lifecycle.ErrForbidden):
		status = http.StatusForbidden
	}
	WriteMessage(w, status, err.Error())
}
