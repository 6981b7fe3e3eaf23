package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	applog "coffeeshop/internal/log"
)

var statusMessages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusNotFound:            "resource not found",
	http.StatusMethodNotAllowed:    "method not allowed",
	http.StatusUnprocessableEntity: "unprocessable",
	http.StatusInternalServerError: "internal server error",
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

// WriteError renders the uniform failure envelope for status.
func WriteError(w http.ResponseWriter, status int) {
	message, ok := statusMessages[status]
	if !ok {
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Success: false, Error: status, Message: message})
}

// NotFound answers unmatched routes with the uniform envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "route not found", "method", r.Method, "path", r.URL.Path)
	WriteError(w, http.StatusNotFound)
}

// MethodNotAllowed answers known routes hit with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "method not allowed", "method", r.Method, "path", r.URL.Path)
	WriteError(w, http.StatusMethodNotAllowed)
}
