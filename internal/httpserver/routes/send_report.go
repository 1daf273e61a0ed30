package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/handlers"
)

func init() { Register(registerSendReport) }

func registerSendReport(r chi.Router, d deps.Deps) {
	r.Post("/send-report", handlers.SendReport(d))
}
