package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sakif/keyword-synergy/internal/apperror"
	"github.com/sakif/keyword-synergy/internal/model"
	"github.com/sakif/keyword-synergy/internal/realtime"
	"github.com/sakif/keyword-synergy/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory stand-ins for the repository interfaces. Each one can be told to
// fail so the service's error paths can be exercised without a database.

type fakeUserRepo struct {
	users     map[string]*model.User
	nextID    int
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

type fakeRoomRepo struct {
	rooms     map[string]*model.Room
	nextID    int
	createErr error
	getErr    error
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*model.Room)}
}

func (f *fakeRoomRepo) Create(_ context.Context, room *model.Room) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	room.ID = fmt.Sprintf("room-%d", f.nextID)
	room.CreatedAt = time.Now()
	stored := *room
	f.rooms[room.ID] = &stored
	return nil
}

func (f *fakeRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.rooms[id]
	if !ok {
		return nil, apperror.NotFound("room", id)
	}
	result := *r
	return &result, nil
}

// fakeKeywordRepo keeps keywords in insertion order and lists newest first.
type fakeKeywordRepo struct {
	keywords   []model.Keyword
	nextID     int
	createErr  error
	listErr    error
	lastFilter repository.KeywordFilter
}

func (f *fakeKeywordRepo) Create(_ context.Context, kw *model.Keyword) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	kw.ID = fmt.Sprintf("kw-%d", f.nextID)
	kw.CreatedAt = time.Now()
	f.keywords = append(f.keywords, *kw)
	return nil
}

func (f *fakeKeywordRepo) List(_ context.Context, filter repository.KeywordFilter) ([]model.Keyword, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := make([]model.Keyword, 0)
	for i := len(f.keywords) - 1; i >= 0; i-- {
		if f.keywords[i].RoomID != filter.RoomID {
			continue
		}
		result = append(result, f.keywords[i])
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

// seed inserts words directly, bypassing the service.
func (f *fakeKeywordRepo) seed(roomID string, words ...string) {
	for _, w := range words {
		_ = f.Create(context.Background(), &model.Keyword{UserID: "user-1", RoomID: roomID, Word: w})
	}
}

type fakeHistoryRepo struct {
	entries   []model.HistoryEntry
	nextID    int
	createErr error
	listErr   error
}

func (f *fakeHistoryRepo) Create(_ context.Context, e *model.HistoryEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	e.ID = fmt.Sprintf("hist-%d", f.nextID)
	e.CreatedAt = time.Now()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeHistoryRepo) List(_ context.Context, filter repository.HistoryFilter) ([]model.HistoryEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := make([]model.HistoryEntry, 0)
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].RoomID != filter.RoomID {
			continue
		}
		result = append(result, f.entries[i])
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

// recordingPublisher captures every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(event realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) published() []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Event(nil), p.events...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var errDatabaseDown = fmt.Errorf("database is down")

var _ repository.KeywordRepository = (*fakeKeywordRepo)(nil)
var _ repository.HistoryRepository = (*fakeHistoryRepo)(nil)
