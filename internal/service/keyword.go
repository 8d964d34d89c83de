package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/keyword-synergy/internal/apperror"
	"github.com/sakif/keyword-synergy/internal/model"
	"github.com/sakif/keyword-synergy/internal/realtime"
	"github.com/sakif/keyword-synergy/internal/repository"
)

// KeywordService handles keyword submission and pool snapshots.
type KeywordService struct {
	keywords  repository.KeywordRepository
	publisher Publisher
	logger    *slog.Logger
}

// NewKeywordService creates a new KeywordService.
func NewKeywordService(keywords repository.KeywordRepository, publisher Publisher, logger *slog.Logger) *KeywordService {
	return &KeywordService{keywords: keywords, publisher: publisher, logger: logger}
}

// Submit adds word to the pool on behalf of userID. roomID is optional.
//
// The stored keyword is returned to the caller and also pushed to every
// keywords subscriber of that pool, the submitter included. Clients
// de-duplicate the two copies by ID.
func (s *KeywordService) Submit(ctx context.Context, userID, word, roomID string) (*model.Keyword, error) {
	userID = strings.TrimSpace(userID)
	word = strings.TrimSpace(word)
	roomID = strings.TrimSpace(roomID)

	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	if word == "" {
		return nil, apperror.ValidationFailed("word", "keyword is required")
	}
	if utf8.RuneCountInString(word) > MaxWordLength {
		return nil, apperror.ValidationFailed("word",
			fmt.Sprintf("keyword must be %d characters or less", MaxWordLength))
	}

	keyword := &model.Keyword{UserID: userID, RoomID: roomID, Word: word}
	if err := s.keywords.Create(ctx, keyword); err != nil {
		s.logger.Error("failed to save keyword",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("saving keyword: %w", err)
	}

	s.logger.Info("keyword submitted",
		slog.String("id", keyword.ID),
		slog.String("room_id", roomID),
	)

	s.publish(realtime.TopicKeywords, roomID, keyword)
	return keyword, nil
}

// List returns a snapshot of the pool, newest first. The global pool is
// capped to the draw window; a room pool is returned whole.
func (s *KeywordService) List(ctx context.Context, roomID string) ([]model.Keyword, error) {
	filter := repository.KeywordFilter{RoomID: strings.TrimSpace(roomID)}
	if filter.RoomID == "" {
		filter.Limit = DrawWindow
	}

	keywords, err := s.keywords.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list keywords", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing keywords: %w", err)
	}
	return keywords, nil
}

func (s *KeywordService) publish(topic realtime.Topic, roomID string, record any) {
	event, err := realtime.NewInsertEvent(topic, roomID, record)
	if err != nil {
		s.logger.Error("failed to build push event", slog.String("error", err.Error()))
		return
	}
	s.publisher.Publish(event)
}
