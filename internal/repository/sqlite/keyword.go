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

var _ repository.KeywordRepository = (*KeywordDB)(nil)

// KeywordDB stores the keyword pool. The pool is append-only.
type KeywordDB struct {
	conn *sql.DB
}

// Create inserts a keyword. UserID must reference an existing user and a
// non-empty RoomID an existing room; the foreign keys reject anything else.
func (k *KeywordDB) Create(ctx context.Context, keyword *model.Keyword) error {
	keyword.ID = xid.New().String()
	keyword.CreatedAt = time.Now()

	_, err := k.conn.ExecContext(ctx,
		`INSERT INTO keywords (id, user_id, room_id, word, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		keyword.ID,
		keyword.UserID,
		nullable(keyword.RoomID),
		keyword.Word,
		keyword.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating keyword: %w", err)
	}

	return nil
}

// List returns keywords in one pool, newest first. Comparing
// COALESCE(room_id, '') lets one query serve a room pool and the global
// pool, where an empty RoomID matches NULL.
func (k *KeywordDB) List(ctx context.Context, filter repository.KeywordFilter) ([]model.Keyword, error) {
	rows, err := k.conn.QueryContext(ctx,
		`SELECT id, user_id, room_id, word, created_at
		 FROM keywords
		 WHERE COALESCE(room_id, '') = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		filter.RoomID,
		limitClause(filter.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing keywords: %w", err)
	}
	defer rows.Close()

	keywords := make([]model.Keyword, 0)
	for rows.Next() {
		var (
			kw     model.Keyword
			roomID sql.NullString
		)
		if err := rows.Scan(&kw.ID, &kw.UserID, &roomID, &kw.Word, &kw.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning keyword row: %w", err)
		}
		kw.RoomID = roomID.String
		keywords = append(keywords, kw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating keywords: %w", err)
	}

	return keywords, nil
}
