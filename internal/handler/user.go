package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/keyword-synergy/internal/service"
)

// UserHandler serves anonymous participant creation.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type createUserRequest struct {
	Name string `json:"name"`
}

// HandleCreate creates a user. The name is optional; a blank one gets a
// generated placeholder.
//
// HTTP: POST /api/users
// REQUEST BODY: {"name": "Aiko"}
// RESPONSE: 201 {"user": {...}}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}
