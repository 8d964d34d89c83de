package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sakif/keyword-synergy/internal/model"
)

// DrawDuration is the discussion time started after every successful draw.
const DrawDuration = 300 * time.Second

// ErrNoUser is returned by actions that need Begin to have run first.
var ErrNoUser = errors.New("client: session has no user; call Begin first")

// BeginOptions picks how a session enters the game. RoomName creates a room;
// otherwise RoomID joins one; with neither the session uses the global pool.
type BeginOptions struct {
	Name     string
	RoomID   string
	RoomName string
}

// Session is one participant: API calls on one side, the Store and
// countdown on the other.
type Session struct {
	api       *API
	store     *Store
	countdown *Countdown
	logger    *slog.Logger
}

// NewSession wires an API client and a push channel into a fresh Store.
func NewSession(api *API, channel Channel, clock clockwork.Clock, logger *slog.Logger) *Session {
	store := NewStore(channel, logger)
	return &Session{
		api:       api,
		store:     store,
		countdown: NewCountdown(clock, store.SetTimeLeft),
		logger:    logger,
	}
}

// Store exposes the session state.
func (s *Session) Store() *Store {
	return s.store
}

// Begin creates the participant (and room, if asked) and records them.
func (s *Session) Begin(ctx context.Context, opts BeginOptions) error {
	switch {
	case opts.RoomName != "":
		m, err := s.api.CreateRoom(ctx, opts.RoomName, opts.Name)
		if err != nil {
			return fmt.Errorf("creating room: %w", err)
		}
		s.store.SetUser(m.User)
		s.store.SetRoom(m.Room)

	case opts.RoomID != "":
		m, err := s.api.JoinRoom(ctx, opts.RoomID, opts.Name)
		if err != nil {
			return fmt.Errorf("joining room: %w", err)
		}
		s.store.SetUser(m.User)
		s.store.SetRoom(m.Room)

	default:
		user, err := s.api.CreateUser(ctx, opts.Name)
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		s.store.SetUser(user)
	}
	return nil
}

// Load fetches keyword and history snapshots into the store. Call it after
// Connect: an insert committed before the subscriptions are confirmed is in
// the snapshot, and every later one is pushed.
func (s *Session) Load(ctx context.Context) error {
	roomID := s.roomID()

	keywords, err := s.api.ListKeywords(ctx, roomID)
	if err != nil {
		return fmt.Errorf("loading keywords: %w", err)
	}
	// The server lists newest first; the store holds submission order.
	slices.Reverse(keywords)
	s.store.SetKeywords(keywords)

	return s.refreshHistory(ctx)
}

// Connect subscribes to keyword and history inserts for the current pool and
// returns once the server has confirmed both subscriptions.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.store.SubscribeToKeywords(ctx); err != nil {
		return fmt.Errorf("subscribing to keywords: %w", err)
	}
	if err := s.store.SubscribeToHistory(ctx); err != nil {
		return fmt.Errorf("subscribing to history: %w", err)
	}
	return nil
}

// Submit adds word to the pool. The stored keyword goes into the store
// right away; its push echo is absorbed by ID.
func (s *Session) Submit(ctx context.Context, word string) (*model.Keyword, error) {
	user := s.store.Snapshot().User
	if user == nil {
		return nil, ErrNoUser
	}

	kw, err := s.api.SubmitKeyword(ctx, user.ID, word, s.roomID())
	if err != nil {
		return nil, err
	}
	s.store.AddKeyword(*kw)
	return kw, nil
}

// Draw asks the server for a pair. On success the result is stored, the
// discussion countdown restarts and history is refreshed. On failure only
// the drawing flag is reset.
func (s *Session) Draw(ctx context.Context) (*model.DrawResult, error) {
	s.store.SetDrawing(true)

	result, err := s.api.Draw(ctx, s.roomID())
	if err != nil {
		s.store.SetDrawing(false)
		return nil, err
	}

	s.store.SetDrawResult(result)
	s.store.SetDrawing(false)
	s.countdown.Start(int(DrawDuration / time.Second))

	if err := s.refreshHistory(ctx); err != nil {
		// The pushed history event or the next Load will catch up.
		s.logger.Warn("history refresh after draw failed", slog.String("error", err.Error()))
	}
	return result, nil
}

// Sync connects and then loads the snapshots.
func (s *Session) Sync(ctx context.Context) error {
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Load(ctx)
}

// Close stops the countdown and every subscription.
func (s *Session) Close() {
	s.countdown.Stop()
	s.store.UnsubscribeAll()
}

func (s *Session) refreshHistory(ctx context.Context) error {
	history, err := s.api.History(ctx, s.roomID())
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	s.store.SetHistory(history)
	return nil
}

func (s *Session) roomID() string {
	if room := s.store.Snapshot().Room; room != nil {
		return room.ID
	}
	return ""
}
