package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/mw"
)

func init() { Register(registerHealthz, allowedCIDRS) }

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}

func allowedCIDRS(d deps.Deps) func(http.Handler) http.Handler {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}
