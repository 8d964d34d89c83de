package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/keyword-synergy/internal/service"
)

// HistoryHandler serves the draw history feed.
type HistoryHandler struct {
	history *service.HistoryService
	logger  *slog.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(history *service.HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: logger}
}

// HandleList returns the most recent draws, newest first.
//
// HTTP: GET /api/history?room_id=<optional>
// RESPONSE: 200 {"history": [...]}
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.List(r.Context(), r.URL.Query().Get("room_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}
