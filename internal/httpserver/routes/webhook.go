package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/deps"
)

func init() { Register(registerWebhook) }

// registerWebhook mounts the Telegram update intake, only in webhook transport.
func registerWebhook(r chi.Router, d deps.Deps) {
	if d.WebhookHandler == nil || d.WebhookPath == "" {
		return
	}
	r.Method(http.MethodPost, d.WebhookPath, d.WebhookHandler)
}
