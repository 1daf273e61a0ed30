package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/chatrelay/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, log logger.Logger) {
	writeJSON(w, status, errorResponse{Error: msg}, log)
}

func writeText(w http.ResponseWriter, status int, msg string, log logger.Logger) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(msg)); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}
