package client

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sakif/keyword-synergy/internal/model"
	"github.com/sakif/keyword-synergy/internal/realtime"
)

// State is one participant's view of the session.
//
// Keywords are held oldest first (submission order). History is held newest
// first. Neither ever contains two entries with the same ID.
type State struct {
	User       *model.User
	Room       *model.Room
	Keywords   []model.Keyword
	DrawResult *model.DrawResult
	Drawing    bool
	TimeLeft   int
	History    []model.HistoryEntry
	Connected  bool
}

func (s State) clone() State {
	c := s
	c.Keywords = slices.Clone(s.Keywords)
	c.History = slices.Clone(s.History)
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	if s.Room != nil {
		r := *s.Room
		c.Room = &r
	}
	if s.DrawResult != nil {
		d := *s.DrawResult
		c.DrawResult = &d
	}
	return c
}

// Store owns the client-side state and the push subscriptions feeding it.
//
// A keyword can reach the store twice: once from the submit response and
// once as the push echo. A history entry can arrive by push while a snapshot
// fetch is in flight. Every path goes through the same insert-if-absent
// check, so arrival order does not matter.
//
// SUBSCRIPTION OWNERSHIP:
// Each Store owns at most one subscription per topic. Subscribing again tears
// the previous one down first. Every subscribe or UnsubscribeAll bumps the
// topic's generation; callbacks carry the generation they were created with
// and are ignored once it is stale, so a torn-down subscription can never
// mutate state, even if its last frame was already in flight.
type Store struct {
	channel Channel
	logger  *slog.Logger

	mu        sync.Mutex
	state     State
	subs      map[realtime.Topic]Subscription
	gens      map[realtime.Topic]uint64
	listeners []func(State)
}

// NewStore creates an empty store that subscribes through channel.
func NewStore(channel Channel, logger *slog.Logger) *Store {
	return &Store{
		channel: channel,
		logger:  logger,
		subs:    make(map[realtime.Topic]Subscription),
		gens:    make(map[realtime.Topic]uint64),
	}
}

// OnChange registers fn to receive a copy of the state after every change.
// fn is called without the store's lock held, so it may call back into the
// store.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// update applies fn under the lock and notifies listeners if fn reports a
// change.
func (s *Store) update(fn func(st *State) bool) {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	snapshot := s.state.clone()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

// SetUser replaces the current user.
func (s *Store) SetUser(u *model.User) {
	s.update(func(st *State) bool { st.User = u; return true })
}

// SetRoom replaces the current room. Subscriptions opened afterwards are
// scoped to it; existing ones are not moved. Moving to another pool clears
// the keywords and history held for the old one.
func (s *Store) SetRoom(r *model.Room) {
	s.update(func(st *State) bool {
		if roomIDOf(st.Room) != roomIDOf(r) {
			st.Keywords = nil
			st.History = nil
		}
		st.Room = r
		return true
	})
}

func roomIDOf(r *model.Room) string {
	if r == nil {
		return ""
	}
	return r.ID
}

// SetDrawResult replaces the current draw result.
func (s *Store) SetDrawResult(r *model.DrawResult) {
	s.update(func(st *State) bool { st.DrawResult = r; return true })
}

// SetDrawing sets the in-flight draw flag.
func (s *Store) SetDrawing(drawing bool) {
	s.update(func(st *State) bool { st.Drawing = drawing; return true })
}

// SetTimeLeft replaces the countdown value.
func (s *Store) SetTimeLeft(seconds int) {
	s.update(func(st *State) bool { st.TimeLeft = seconds; return true })
}

// SetKeywords replaces the pool with a snapshot, oldest first. Duplicate IDs
// in the snapshot keep their first occurrence.
//
// A push can land between the snapshot read and this call. Held keywords
// the snapshot lacks are kept after it unless they are older than its
// newest entry, in which case the snapshot window has already dropped them.
func (s *Store) SetKeywords(keywords []model.Keyword) {
	s.update(func(st *State) bool {
		held := st.Keywords
		st.Keywords = make([]model.Keyword, 0, len(keywords)+len(held))
		var newest time.Time
		for _, kw := range keywords {
			addKeyword(st, kw)
			if kw.CreatedAt.After(newest) {
				newest = kw.CreatedAt
			}
		}
		for _, kw := range held {
			if !kw.CreatedAt.Before(newest) {
				addKeyword(st, kw)
			}
		}
		return true
	})
}

// AddKeyword appends kw unless a keyword with the same ID is already held.
func (s *Store) AddKeyword(kw model.Keyword) {
	s.update(func(st *State) bool { return addKeyword(st, kw) })
}

func addKeyword(st *State, kw model.Keyword) bool {
	if slices.ContainsFunc(st.Keywords, func(k model.Keyword) bool { return k.ID == kw.ID }) {
		return false
	}
	st.Keywords = append(st.Keywords, kw)
	return true
}

// SetHistory replaces the history feed with a snapshot, newest first.
// Held entries the snapshot lacks that are not older than its newest entry
// arrived by push while it was read; they stay in front of it.
func (s *Store) SetHistory(entries []model.HistoryEntry) {
	s.update(func(st *State) bool {
		var newest time.Time
		if len(entries) > 0 {
			newest = entries[0].CreatedAt
		}
		merged := make([]model.HistoryEntry, 0, len(entries)+len(st.History))
		for _, h := range st.History {
			if !h.CreatedAt.Before(newest) && !containsEntry(entries, h.ID) {
				merged = append(merged, h)
			}
		}
		for _, h := range entries {
			if !containsEntry(merged, h.ID) {
				merged = append(merged, h)
			}
		}
		st.History = merged
		return true
	})
}

func containsEntry(entries []model.HistoryEntry, id string) bool {
	return slices.ContainsFunc(entries, func(h model.HistoryEntry) bool { return h.ID == id })
}

// PrependHistoryIfNew puts e at the front of the feed unless an entry with
// the same ID is already held.
func (s *Store) PrependHistoryIfNew(e model.HistoryEntry) {
	s.update(func(st *State) bool { return prependHistory(st, e) })
}

func prependHistory(st *State, e model.HistoryEntry) bool {
	if containsEntry(st.History, e.ID) {
		return false
	}
	st.History = append([]model.HistoryEntry{e}, st.History...)
	return true
}

// SubscribeToKeywords (re)subscribes to keyword inserts in the current pool.
func (s *Store) SubscribeToKeywords(ctx context.Context) error {
	return s.subscribe(ctx, realtime.TopicKeywords, func(st *State, ev realtime.Event) bool {
		var kw model.Keyword
		if err := ev.DecodeRecord(&kw); err != nil {
			s.logger.Warn("dropping malformed keyword event", slog.String("error", err.Error()))
			return false
		}
		return addKeyword(st, kw)
	})
}

// SubscribeToHistory (re)subscribes to history inserts in the current pool.
func (s *Store) SubscribeToHistory(ctx context.Context) error {
	return s.subscribe(ctx, realtime.TopicHistory, func(st *State, ev realtime.Event) bool {
		var entry model.HistoryEntry
		if err := ev.DecodeRecord(&entry); err != nil {
			s.logger.Warn("dropping malformed history event", slog.String("error", err.Error()))
			return false
		}
		return prependHistory(st, entry)
	})
}

// subscribe replaces the topic's subscription and returns once the server
// has confirmed it, so a snapshot fetched afterwards cannot miss an insert.
func (s *Store) subscribe(ctx context.Context, topic realtime.Topic, apply func(*State, realtime.Event) bool) error {
	s.mu.Lock()
	prev := s.subs[topic]
	delete(s.subs, topic)
	s.gens[topic]++
	gen := s.gens[topic]
	roomID := roomIDOf(s.state.Room)
	s.mu.Unlock()

	if prev != nil {
		prev.Unsubscribe()
	}

	ready := make(chan realtime.Status, 1)
	var readyOnce sync.Once

	onEvent := func(ev realtime.Event) {
		s.update(func(st *State) bool {
			if s.gens[topic] != gen {
				return false
			}
			return apply(st, ev)
		})
	}
	onStatus := func(status realtime.Status) {
		readyOnce.Do(func() { ready <- status })
		s.update(func(st *State) bool {
			if s.gens[topic] != gen {
				return false
			}
			s.logger.Debug("subscription status",
				slog.String("topic", string(topic)),
				slog.String("status", string(status)),
			)
			st.Connected = status == realtime.StatusSubscribed
			return true
		})
	}

	sub, err := s.channel.Subscribe(ctx, topic, roomID, onEvent, onStatus)
	if err == nil {
		select {
		case status := <-ready:
			if status != realtime.StatusSubscribed {
				err = fmt.Errorf("client: subscription to %s ended with %s", topic, status)
			}
		case <-ctx.Done():
			err = ctx.Err()
		}
		if err != nil {
			sub.Unsubscribe()
		}
	}
	if err != nil {
		s.update(func(st *State) bool {
			if s.gens[topic] != gen {
				return false
			}
			st.Connected = false
			return true
		})
		return err
	}

	s.mu.Lock()
	if s.gens[topic] != gen {
		// Superseded while dialing.
		s.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	s.subs[topic] = sub
	s.mu.Unlock()
	return nil
}

// UnsubscribeAll tears down every subscription and marks the store
// disconnected. Safe to call with nothing subscribed.
func (s *Store) UnsubscribeAll() {
	var subs []Subscription
	s.update(func(st *State) bool {
		for topic, sub := range s.subs {
			subs = append(subs, sub)
			delete(s.subs, topic)
		}
		s.gens[realtime.TopicKeywords]++
		s.gens[realtime.TopicHistory]++
		st.Connected = false
		return true
	})

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
