package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/keyword-synergy/internal/apperror"
	"github.com/sakif/keyword-synergy/internal/realtime"
)

// RealtimeHandler upgrades push-channel subscriptions and reports hub health.
type RealtimeHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(hub *realtime.Hub, logger *slog.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, logger: logger}
}

// HandleSubscribe opens one websocket subscription.
//
// HTTP: GET /api/realtime?topic=keywords|history&room_id=<optional>
//
// The topic is validated before the upgrade so a bad request still gets a
// normal JSON error. After the upgrade the hub owns the connection.
func (h *RealtimeHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topic, err := realtime.ParseTopic(q.Get("topic"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("topic", err.Error()))
		return
	}

	if err := h.hub.Subscribe(w, r, topic, q.Get("room_id")); err != nil {
		h.logger.Warn("realtime subscribe failed",
			slog.String("topic", string(topic)),
			slog.String("error", err.Error()),
		)
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// HandleHealth reports liveness and the number of open push connections.
//
// HTTP: GET /healthz
func (h *RealtimeHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Connections: h.hub.Stats().Connections,
	})
}
