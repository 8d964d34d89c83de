package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/keyword-synergy/internal/service"
)

// DrawHandler serves the draw operation.
type DrawHandler struct {
	draws  *service.DrawService
	logger *slog.Logger
}

// NewDrawHandler creates a new DrawHandler.
func NewDrawHandler(draws *service.DrawService, logger *slog.Logger) *DrawHandler {
	return &DrawHandler{draws: draws, logger: logger}
}

type drawRequest struct {
	RoomID string `json:"roomId"`
}

// HandleDraw picks two keywords from the pool and records the pairing.
//
// HTTP: POST /api/draw
// REQUEST BODY (optional): {"roomId": "..."}
// RESPONSE: 200 {"result": {"keyword_a": "...", "keyword_b": "..."}}
//
//	400 insufficient_pool when fewer than two keywords are eligible
func (h *DrawHandler) HandleDraw(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.draws.Draw(r.Context(), req.RoomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}
