package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/sakif/keyword-synergy/internal/service"
)

// qrSize is the edge length of the join QR code in pixels.
const qrSize = 320

// RoomHandler serves room creation, joining and lookup.
//
// The room variant is optional: clients that never create a room use the
// global pool, and every room-scoped endpoint treats an empty room ID as
// "no room".
type RoomHandler struct {
	rooms     *service.RoomService
	publicURL string
	logger    *slog.Logger
}

// NewRoomHandler creates a new RoomHandler. publicURL is the externally
// visible base URL used in join links; when empty it is derived from the
// request.
func NewRoomHandler(rooms *service.RoomService, publicURL string, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:     rooms,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

type createRoomRequest struct {
	RoomName string `json:"roomName"`
	UserName string `json:"userName"`
}

type joinRoomRequest struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

// HandleCreate creates a room and its host.
//
// HTTP: POST /api/rooms
// REQUEST BODY: {"roomName": "Team Alpha", "userName": "Aiko"}
// RESPONSE: 201 {"user": {...}, "room": {...}}
func (h *RoomHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	membership, err := h.rooms.Create(r.Context(), req.RoomName, req.UserName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, membership)
}

// HandleJoin adds a new participant to an existing room.
//
// HTTP: POST /api/rooms/join
// REQUEST BODY: {"roomId": "...", "userName": "Ren"}
// RESPONSE: 200 {"user": {...}, "room": {...}}, 404 when the room is unknown
func (h *RoomHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	membership, err := h.rooms.Join(r.Context(), req.RoomID, req.UserName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, membership)
}

// HandleGet returns a single room.
//
// HTTP: GET /api/rooms/{id}
func (h *RoomHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"room": room})
}

// HandleQR renders a PNG QR code of the room's join link so people in the
// same physical room can scan their way in.
//
// HTTP: GET /api/rooms/{id}/qr
func (h *RoomHandler) HandleQR(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	link := fmt.Sprintf("%s/room/%s", h.baseURL(r), room.ID)
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("qr generation failed",
			slog.String("room_id", room.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// baseURL returns the configured public URL, or one derived from the request
// (respecting TLS and X-Forwarded-Proto).
func (h *RoomHandler) baseURL(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
