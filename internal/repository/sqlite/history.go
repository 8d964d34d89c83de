package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/keyword-synergy/internal/model"
	"github.com/sakif/keyword-synergy/internal/repository"
)

var _ repository.HistoryRepository = (*HistoryDB)(nil)

// HistoryDB stores past draws.
type HistoryDB struct {
	conn *sql.DB
}

// Create inserts a history entry.
func (h *HistoryDB) Create(ctx context.Context, entry *model.HistoryEntry) error {
	entry.ID = xid.New().String()
	entry.CreatedAt = time.Now()

	_, err := h.conn.ExecContext(ctx,
		`INSERT INTO history (id, room_id, keyword_a, keyword_b, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		nullable(entry.RoomID),
		entry.KeywordA,
		entry.KeywordB,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating history entry: %w", err)
	}

	return nil
}

// List returns history entries in one pool, newest first.
func (h *HistoryDB) List(ctx context.Context, filter repository.HistoryFilter) ([]model.HistoryEntry, error) {
	rows, err := h.conn.QueryContext(ctx,
		`SELECT id, room_id, keyword_a, keyword_b, created_at
		 FROM history
		 WHERE COALESCE(room_id, '') = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		filter.RoomID,
		limitClause(filter.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing history: %w", err)
	}
	defer rows.Close()

	entries := make([]model.HistoryEntry, 0)
	for rows.Next() {
		var (
			e      model.HistoryEntry
			roomID sql.NullString
		)
		if err := rows.Scan(&e.ID, &roomID, &e.KeywordA, &e.KeywordB, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning history row: %w", err)
		}
		e.RoomID = roomID.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating history: %w", err)
	}

	return entries, nil
}
