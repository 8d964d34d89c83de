package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/keyword-synergy/internal/apperror"
	"github.com/sakif/keyword-synergy/internal/model"
	"github.com/sakif/keyword-synergy/internal/repository"
)

var _ repository.RoomRepository = (*RoomDB)(nil)

// RoomDB stores rooms. Rooms are never updated or deleted.
type RoomDB struct {
	conn *sql.DB
}

// Create inserts a room. HostID must reference an existing user.
func (r *RoomDB) Create(ctx context.Context, room *model.Room) error {
	room.ID = xid.New().String()
	room.CreatedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO rooms (id, name, host_id, created_at) VALUES (?, ?, ?, ?)`,
		room.ID,
		room.Name,
		room.HostID,
		room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating room: %w", err)
	}

	return nil
}

// GetByID retrieves a room by ID.
// Returns apperror.ErrNotFound if no room exists with that ID.
func (r *RoomDB) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room

	err := r.conn.QueryRowContext(ctx,
		`SELECT id, name, host_id, created_at FROM rooms WHERE id = ?`,
		id,
	).Scan(&room.ID, &room.Name, &room.HostID, &room.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("room", id)
		}
		return nil, fmt.Errorf("sqlite: getting room %s: %w", id, err)
	}

	return &room, nil
}
