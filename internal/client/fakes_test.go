package client

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/sakif/keyword-synergy/internal/realtime"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChannel is an in-process Channel. Subscriptions stay registered until
// they are unsubscribed, and emit delivers to every registered one, so a
// leaked subscription shows up as a duplicate delivery.
type fakeChannel struct {
	mu         sync.Mutex
	subs       map[*fakeSub]struct{}
	opened     int
	subscribe  error
	lastRoomID string

	// firstStatus replaces SUBSCRIBED as the status sent on Subscribe;
	// quiet sends none.
	firstStatus realtime.Status
	quiet       bool
}

type fakeSub struct {
	ch       *fakeChannel
	topic    realtime.Topic
	onEvent  func(realtime.Event)
	onStatus func(realtime.Status)
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{subs: make(map[*fakeSub]struct{})}
}

func (f *fakeChannel) Subscribe(
	_ context.Context,
	topic realtime.Topic,
	roomID string,
	onEvent func(realtime.Event),
	onStatus func(realtime.Status),
) (Subscription, error) {
	f.mu.Lock()
	if f.subscribe != nil {
		err := f.subscribe
		f.mu.Unlock()
		return nil, err
	}
	sub := &fakeSub{ch: f, topic: topic, onEvent: onEvent, onStatus: onStatus}
	f.subs[sub] = struct{}{}
	f.opened++
	f.lastRoomID = roomID
	first, quiet := f.firstStatus, f.quiet
	f.mu.Unlock()

	if first == "" {
		first = realtime.StatusSubscribed
	}
	if !quiet {
		onStatus(first)
	}
	return sub, nil
}

func (s *fakeSub) Unsubscribe() {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	delete(s.ch.subs, s)
}

// active counts live subscriptions for topic.
func (f *fakeChannel) active(topic realtime.Topic) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for s := range f.subs {
		if s.topic == topic {
			n++
		}
	}
	return n
}

func (f *fakeChannel) matching(topic realtime.Topic) []*fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeSub
	for s := range f.subs {
		if s.topic == topic {
			out = append(out, s)
		}
	}
	return out
}

// emit delivers event to every live subscription on its topic and returns
// how many deliveries were made.
func (f *fakeChannel) emit(event realtime.Event) int {
	subs := f.matching(event.Topic)
	for _, s := range subs {
		s.onEvent(event)
	}
	return len(subs)
}

// status delivers a lifecycle change to every live subscription on topic.
func (f *fakeChannel) status(topic realtime.Topic, status realtime.Status) {
	for _, s := range f.matching(topic) {
		s.onStatus(status)
	}
}

// captured returns the callbacks of one subscription, so tests can call
// them after it has been torn down.
func (f *fakeChannel) captured(topic realtime.Topic) *fakeSub {
	subs := f.matching(topic)
	if len(subs) == 0 {
		return nil
	}
	return subs[0]
}
