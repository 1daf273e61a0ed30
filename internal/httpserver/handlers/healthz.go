package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Version       string         `json:"version,omitempty"`
	Commit        string         `json:"commit,omitempty"`
	BuildDate     string         `json:"build_date,omitempty"`
	GoVersion     string         `json:"go_version,omitempty"`
	Transport     string         `json:"transport,omitempty"`
	Store         string         `json:"store"`
	StoreOK       bool           `json:"store_ok"`
	StoreLocation string         `json:"store_location,omitempty"`
	Destinations  int            `json:"destinations"`
	Kinds         map[string]int `json:"kinds"`
	LastChange    string         `json:"last_change"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		lastChange := "never"
		if t := d.Registry.LastChange(); !t.IsZero() {
			lastChange = t.UTC().Format(time.RFC3339)
		}

		destinations := d.Registry.Destinations()
		kinds := make(map[string]int)
		for _, dest := range destinations {
			kinds[dest.KindLabel()]++
		}

		status, storeOK := "ok", true
		if d.StorePinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.StorePinger.Ping(ctx); err != nil {
				status, storeOK = "degraded", false
			}
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        status,
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: d.Now().Sub(start).Seconds(),
			Transport:     d.Transport,
			Store:         d.Registry.StoreName(),
			StoreOK:       storeOK,
			StoreLocation: d.StoreLocation,
			Destinations:  len(destinations),
			Kinds:         kinds,
			LastChange:    lastChange,
		}, d.Logger)
	}
}
