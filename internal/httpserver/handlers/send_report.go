package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/chatrelay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatrelay/internal/logger"
)

const maxReportBytes = 1 << 20

type sendReportRequest struct {
	Message string `json:"message" validate:"required"`
}

type sendReportResponse struct {
	SentTo     int `json:"sentTo"`
	TotalChats int `json:"totalChats"`
}

// SendReport broadcasts the posted message to every registered chat.
func SendReport(d deps.Deps) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				d.Logger.Error("send report failed", logger.String("panic", fmt.Sprint(rec)))
				writeError(w, http.StatusInternalServerError, "Failed to send report", d.Logger)
			}
		}()

		var req sendReportRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBytes)).Decode(&req); err != nil {
			d.Logger.Debug("invalid send-report body", logger.Error(err))
			writeError(w, http.StatusBadRequest, "Invalid JSON body", d.Logger)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "Message is required", d.Logger)
			return
		}

		// the broadcast outlives a client that hangs up
		ctx := context.WithoutCancel(r.Context())
		result := d.Dispatcher.SendAll(ctx, req.Message, d.Registry.List())

		writeJSON(w, http.StatusOK, sendReportResponse{
			SentTo:     result.SentCount,
			TotalChats: result.TotalChats,
		}, d.Logger)
	}
}
