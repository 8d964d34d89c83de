package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/keyword-synergy/internal/model"
	"github.com/sakif/keyword-synergy/internal/repository"
)

// HistoryService serves the history feed.
type HistoryService struct {
	history repository.HistoryRepository
	logger  *slog.Logger
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(history repository.HistoryRepository, logger *slog.Logger) *HistoryService {
	return &HistoryService{history: history, logger: logger}
}

// List returns the HistoryLimit most recent draws in the pool, newest first.
func (s *HistoryService) List(ctx context.Context, roomID string) ([]model.HistoryEntry, error) {
	entries, err := s.history.List(ctx, repository.HistoryFilter{
		RoomID: strings.TrimSpace(roomID),
		Limit:  HistoryLimit,
	})
	if err != nil {
		s.logger.Error("failed to list history", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}
