package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/keyword-synergy/internal/draw"
	"github.com/sakif/keyword-synergy/internal/model"
	"github.com/sakif/keyword-synergy/internal/realtime"
	"github.com/sakif/keyword-synergy/internal/repository"
)

// DrawService is the draw engine: it reads the pool, picks two keywords and
// records the pairing in history.
//
// TWO OPERATIONS, NO ATOMICITY:
// The pick and the history write are separate steps. The history write is
// best effort: if it fails the error is logged at Warn and the pair is still
// returned. Draws are not serialized; two concurrent draws read the pool
// independently and each records its own entry.
type DrawService struct {
	keywords  repository.KeywordRepository
	history   repository.HistoryRepository
	picker    *draw.Picker
	publisher Publisher
	logger    *slog.Logger
}

// NewDrawService creates a new DrawService.
func NewDrawService(
	keywords repository.KeywordRepository,
	history repository.HistoryRepository,
	picker *draw.Picker,
	publisher Publisher,
	logger *slog.Logger,
) *DrawService {
	return &DrawService{
		keywords:  keywords,
		history:   history,
		picker:    picker,
		publisher: publisher,
		logger:    logger,
	}
}

// Draw picks two distinct keywords from the pool identified by roomID
// ("" for the global pool).
//
// The global pool is limited to its DrawWindow most recent keywords; a room
// pool uses every keyword in the room. Fewer than two eligible keywords
// fails with apperror.ErrInsufficientPool and writes nothing.
func (s *DrawService) Draw(ctx context.Context, roomID string) (*model.DrawResult, error) {
	roomID = strings.TrimSpace(roomID)

	filter := repository.KeywordFilter{RoomID: roomID}
	if roomID == "" {
		filter.Limit = DrawWindow
	}

	pool, err := s.keywords.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to read keyword pool",
			slog.String("room_id", roomID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("reading keyword pool: %w", err)
	}

	a, b, err := s.picker.Pick(pool)
	if err != nil {
		return nil, err
	}

	result := &model.DrawResult{KeywordA: a.Word, KeywordB: b.Word}

	entry := &model.HistoryEntry{RoomID: roomID, KeywordA: result.KeywordA, KeywordB: result.KeywordB}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("draw succeeded but history was not saved",
			slog.String("room_id", roomID),
			slog.String("error", err.Error()),
		)
		return result, nil
	}

	s.logger.Info("keywords drawn",
		slog.String("history_id", entry.ID),
		slog.String("room_id", roomID),
		slog.Int("pool_size", len(pool)),
	)

	event, err := realtime.NewInsertEvent(realtime.TopicHistory, roomID, entry)
	if err != nil {
		s.logger.Error("failed to build push event", slog.String("error", err.Error()))
		return result, nil
	}
	s.publisher.Publish(event)

	return result, nil
}
