package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/deps"
)

func Root(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "Telegram report relay is running", d.Logger)
	}
}

// NotFound answers unknown routes and wrong methods alike.
func NotFound(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found", d.Logger)
	}
}
