package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/keyword-synergy/internal/apperror"
	"github.com/sakif/keyword-synergy/internal/model"
	"github.com/sakif/keyword-synergy/internal/repository"
)

// RoomService handles creating and joining rooms.
//
// Creating a room also creates its host user; joining creates the joining
// user. The two inserts are independent: there is no transaction, so a failed
// room insert can leave an orphan user behind, which is harmless.
type RoomService struct {
	users  repository.UserRepository
	rooms  repository.RoomRepository
	logger *slog.Logger
}

// NewRoomService creates a new RoomService.
func NewRoomService(users repository.UserRepository, rooms repository.RoomRepository, logger *slog.Logger) *RoomService {
	return &RoomService{users: users, rooms: rooms, logger: logger}
}

// Membership is the pair returned by create-room and join-room.
type Membership struct {
	User *model.User `json:"user"`
	Room *model.Room `json:"room"`
}

// Create makes a room named roomName hosted by a new user called userName.
func (s *RoomService) Create(ctx context.Context, roomName, userName string) (*Membership, error) {
	roomName = strings.TrimSpace(roomName)
	userName = strings.TrimSpace(userName)

	if roomName == "" || userName == "" {
		return nil, apperror.ValidationFailed("roomName", "room name and user name are required")
	}
	if utf8.RuneCountInString(roomName) > MaxRoomNameLength {
		return nil, apperror.ValidationFailed("roomName",
			fmt.Sprintf("room name must be %d characters or less", MaxRoomNameLength))
	}
	if err := checkName(userName); err != nil {
		return nil, err
	}

	user := &model.User{Name: userName}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create room host", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating room host: %w", err)
	}

	room := &model.Room{Name: roomName, HostID: user.ID}
	if err := s.rooms.Create(ctx, room); err != nil {
		s.logger.Error("failed to create room",
			slog.String("name", roomName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating room: %w", err)
	}

	s.logger.Info("room created",
		slog.String("id", room.ID),
		slog.String("name", room.Name),
		slog.String("host_id", user.ID),
	)
	return &Membership{User: user, Room: room}, nil
}

// Join adds a new user called userName to an existing room.
// The room is looked up first, so an unknown room creates nothing.
func (s *RoomService) Join(ctx context.Context, roomID, userName string) (*Membership, error) {
	roomID = strings.TrimSpace(roomID)
	userName = strings.TrimSpace(userName)

	if roomID == "" || userName == "" {
		return nil, apperror.ValidationFailed("roomId", "room ID and user name are required")
	}
	if err := checkName(userName); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		// NotFound is a normal answer; only log real database failures.
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to look up room",
				slog.String("room_id", roomID),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("joining room: %w", err)
	}

	user := &model.User{Name: userName}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create joining user",
			slog.String("room_id", roomID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("joining room: %w", err)
	}

	s.logger.Info("room joined",
		slog.String("room_id", room.ID),
		slog.String("user_id", user.ID),
	)
	return &Membership{User: user, Room: room}, nil
}

// Get returns a room by ID.
func (s *RoomService) Get(ctx context.Context, id string) (*model.Room, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "room ID is required")
	}
	return s.rooms.GetByID(ctx, id)
}
