// Package repository declares the persistence interfaces the service layer
// depends on. Implementations live in sub-packages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/keyword-synergy/internal/model"
)

// KeywordFilter narrows a keyword listing.
// An empty RoomID selects the global pool. Limit <= 0 means no limit.
type KeywordFilter struct {
	RoomID string
	Limit  int
}

// HistoryFilter narrows a history listing. Same conventions as KeywordFilter.
type HistoryFilter struct {
	RoomID string
	Limit  int
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
}

// KeywordRepository lists keywords newest first.
type KeywordRepository interface {
	Create(ctx context.Context, keyword *model.Keyword) error
	List(ctx context.Context, filter KeywordFilter) ([]model.Keyword, error)
}

// HistoryRepository lists history entries newest first.
type HistoryRepository interface {
	Create(ctx context.Context, entry *model.HistoryEntry) error
	List(ctx context.Context, filter HistoryFilter) ([]model.HistoryEntry, error)
}
