package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatrelay/internal/logger"
)

// SetWebhook asks Telegram to deliver updates to the relay's public URL.
func SetWebhook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Webhook.SetWebhook(r.Context()); err != nil {
			d.Logger.Error("set webhook failed", logger.Error(err))
			writeText(w, http.StatusInternalServerError, "Failed to set webhook: "+err.Error(), d.Logger)
			return
		}
		writeText(w, http.StatusOK, "Webhook set successfully", d.Logger)
	}
}
