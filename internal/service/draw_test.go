package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/sakif/keyword-synergy/internal/apperror"
	"github.com/sakif/keyword-synergy/internal/draw"
	"github.com/sakif/keyword-synergy/internal/model"
	"github.com/sakif/keyword-synergy/internal/realtime"
)

type drawFixture struct {
	svc      *DrawService
	keywords *fakeKeywordRepo
	history  *fakeHistoryRepo
	pub      *recordingPublisher
}

func newDrawFixture() *drawFixture {
	f := &drawFixture{
		keywords: &fakeKeywordRepo{},
		history:  &fakeHistoryRepo{},
		pub:      &recordingPublisher{},
	}
	picker := draw.NewPicker(rand.NewPCG(7, 11))
	f.svc = NewDrawService(f.keywords, f.history, picker, f.pub, testLogger())
	return f
}

func TestDraw_Success(t *testing.T) {
	f := newDrawFixture()
	f.keywords.seed("", "AI", "sea", "lamp")

	result, err := f.svc.Draw(context.Background(), "")
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	valid := map[string]bool{"AI": true, "sea": true, "lamp": true}
	if !valid[result.KeywordA] || !valid[result.KeywordB] {
		t.Errorf("result = %+v, want words from the pool", result)
	}
	if result.KeywordA == result.KeywordB {
		t.Errorf("result = %+v, want two different keywords", result)
	}

	if len(f.history.entries) != 1 {
		t.Fatalf("history has %d entries, want 1", len(f.history.entries))
	}
	entry := f.history.entries[0]
	if entry.KeywordA != result.KeywordA || entry.KeywordB != result.KeywordB {
		t.Errorf("history entry = %+v, want it to match result %+v", entry, result)
	}

	events := f.pub.published()
	if len(events) != 1 || events[0].Topic != realtime.TopicHistory {
		t.Fatalf("published %+v, want one history event", events)
	}
	var pushed model.HistoryEntry
	if err := events[0].DecodeRecord(&pushed); err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}
	if pushed.ID != entry.ID {
		t.Errorf("pushed ID = %q, want %q", pushed.ID, entry.ID)
	}
}

func TestDraw_InsufficientPoolWritesNothing(t *testing.T) {
	for _, words := range [][]string{nil, {"solo"}} {
		f := newDrawFixture()
		f.keywords.seed("", words...)

		_, err := f.svc.Draw(context.Background(), "")
		if !errors.Is(err, apperror.ErrInsufficientPool) {
			t.Fatalf("pool of %d: error = %v, want ErrInsufficientPool", len(words), err)
		}
		if len(f.history.entries) != 0 {
			t.Errorf("pool of %d: history written on failed draw", len(words))
		}
		if len(f.pub.published()) != 0 {
			t.Errorf("pool of %d: event published on failed draw", len(words))
		}
	}
}

func TestDraw_HistoryFailureStillReturnsResult(t *testing.T) {
	f := newDrawFixture()
	f.keywords.seed("", "AI", "sea")
	f.history.createErr = errDatabaseDown

	result, err := f.svc.Draw(context.Background(), "")
	if err != nil {
		t.Fatalf("Draw() error = %v, want best-effort history write", err)
	}
	if result == nil || result.KeywordA == result.KeywordB {
		t.Errorf("result = %+v, want a valid pair", result)
	}
	if len(f.pub.published()) != 0 {
		t.Error("no history event should be pushed when the write failed")
	}
}

func TestDraw_PoolReadFailure(t *testing.T) {
	f := newDrawFixture()
	f.keywords.listErr = errDatabaseDown

	_, err := f.svc.Draw(context.Background(), "")
	if !errors.Is(err, errDatabaseDown) {
		t.Fatalf("error = %v, want wrapped database error", err)
	}
	if errors.Is(err, apperror.ErrValidation) {
		t.Error("a database failure must not look like a validation error")
	}
}

func TestDraw_GlobalPoolOnlyUsesRecentWindow(t *testing.T) {
	f := newDrawFixture()
	for i := 0; i < DrawWindow+5; i++ {
		f.keywords.seed("", fmt.Sprintf("word-%d", i))
	}

	for i := 0; i < 200; i++ {
		result, err := f.svc.Draw(context.Background(), "")
		if err != nil {
			t.Fatalf("Draw() error = %v", err)
		}
		for _, w := range []string{result.KeywordA, result.KeywordB} {
			var n int
			fmt.Sscanf(w, "word-%d", &n)
			if n < 5 {
				t.Fatalf("drew %q, which is outside the %d most recent keywords", w, DrawWindow)
			}
		}
	}
	if f.keywords.lastFilter.Limit != DrawWindow {
		t.Errorf("filter Limit = %d, want %d", f.keywords.lastFilter.Limit, DrawWindow)
	}
}

func TestDraw_RoomPool(t *testing.T) {
	f := newDrawFixture()
	f.keywords.seed("", "global-1", "global-2")
	f.keywords.seed("room-1", "red", "blue")

	result, err := f.svc.Draw(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	got := map[string]bool{result.KeywordA: true, result.KeywordB: true}
	if !got["red"] || !got["blue"] {
		t.Errorf("result = %+v, want the two room keywords", result)
	}
	if f.history.entries[0].RoomID != "room-1" {
		t.Errorf("history RoomID = %q, want room-1", f.history.entries[0].RoomID)
	}
	if ev := f.pub.published()[0]; ev.RoomID != "room-1" {
		t.Errorf("event RoomID = %q, want room-1", ev.RoomID)
	}
}
