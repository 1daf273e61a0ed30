package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/deps"
)

type (
	Registrar func(r chi.Router, d deps.Deps)
	// Middleware builds a per-route middleware once the deps are known.
	Middleware func(d deps.Deps) func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var entries []entry

// Register a registrar with optional per-route middlewares.
// Called from init() in each route file.
func Register(reg Registrar, mws ...Middleware) {
	entries = append(entries, entry{reg: reg, mws: mws})
}

// RegisterAll mounts every registered route. Called once from httpserver.New.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range entries {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		mws := make([]func(http.Handler) http.Handler, 0, len(e.mws))
		for _, mw := range e.mws {
			mws = append(mws, mw(d))
		}
		e.reg(r.With(mws...), d)
	}
}
