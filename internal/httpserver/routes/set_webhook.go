package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/handlers"
)

func init() { Register(registerSetWebhook) }

func registerSetWebhook(r chi.Router, d deps.Deps) {
	r.Get("/set-webhook", handlers.SetWebhook(d))
}
