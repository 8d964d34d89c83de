package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/keyword-synergy/internal/service"
)

// KeywordHandler serves keyword submission and pool snapshots.
type KeywordHandler struct {
	keywords *service.KeywordService
	logger   *slog.Logger
}

// NewKeywordHandler creates a new KeywordHandler.
func NewKeywordHandler(keywords *service.KeywordService, logger *slog.Logger) *KeywordHandler {
	return &KeywordHandler{keywords: keywords, logger: logger}
}

type submitKeywordRequest struct {
	UserID string `json:"userId"`
	Word   string `json:"word"`
	RoomID string `json:"roomId"`
}

// HandleSubmit adds a keyword to the pool.
//
// HTTP: POST /api/keywords
// REQUEST BODY: {"userId": "...", "word": "sea", "roomId": "" }
// RESPONSE: 201 {"keyword": {...}}
//
// The same keyword is also pushed to every keywords subscriber, including
// the caller. Clients must de-duplicate by ID.
func (h *KeywordHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitKeywordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	keyword, err := h.keywords.Submit(r.Context(), req.UserID, req.Word, req.RoomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"keyword": keyword})
}

// HandleList returns a snapshot of the pool, newest first.
//
// HTTP: GET /api/keywords?room_id=<optional>
// RESPONSE: 200 {"keywords": [...]}
func (h *KeywordHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	keywords, err := h.keywords.List(r.Context(), r.URL.Query().Get("room_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"keywords": keywords})
}
