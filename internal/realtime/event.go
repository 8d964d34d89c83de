// Package realtime is the push channel: it delivers "row inserted" events for
// keywords and history to subscribed websocket clients.
//
// PROTOCOL:
// A client opens one websocket per subscription:
//
//	GET /api/realtime?topic=keywords&room_id=<optional>
//
// The first frame the server sends is a status event with SUBSCRIBED. After
// that every frame is an insert event carrying the full inserted record:
//
//	{"type":"insert","topic":"keywords","record":{"id":"...","word":"sea",...}}
//
// Closing the socket is the unsubscribe.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Topic names a record kind that can be subscribed to.
type Topic string

const (
	TopicKeywords Topic = "keywords"
	TopicHistory  Topic = "history"
)

// ParseTopic validates a topic name coming off the wire.
func ParseTopic(s string) (Topic, error) {
	switch t := Topic(s); t {
	case TopicKeywords, TopicHistory:
		return t, nil
	default:
		return "", fmt.Errorf("unknown topic %q", s)
	}
}

// EventType distinguishes data frames from subscription status frames.
type EventType string

const (
	EventInsert EventType = "insert"
	EventStatus EventType = "status"
)

// Status is the lifecycle state of one subscription.
type Status string

const (
	StatusSubscribed   Status = "SUBSCRIBED"
	StatusChannelError Status = "CHANNEL_ERROR"
	StatusTimedOut     Status = "TIMED_OUT"
	StatusClosed       Status = "CLOSED"
)

// Event is the single frame type on the wire.
type Event struct {
	Type   EventType       `json:"type"`
	Topic  Topic           `json:"topic"`
	RoomID string          `json:"room_id,omitempty"`
	Record json.RawMessage `json:"record,omitempty"`
	Status Status          `json:"status,omitempty"`
}

// NewInsertEvent builds an insert event for record.
func NewInsertEvent(topic Topic, roomID string, record any) (Event, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return Event{}, fmt.Errorf("realtime: encoding %s record: %w", topic, err)
	}
	return Event{Type: EventInsert, Topic: topic, RoomID: roomID, Record: raw}, nil
}

// NewStatusEvent builds a status frame for topic.
func NewStatusEvent(topic Topic, roomID string, status Status) Event {
	return Event{Type: EventStatus, Topic: topic, RoomID: roomID, Status: status}
}

// DecodeRecord unmarshals the event's record into v.
func (e Event) DecodeRecord(v any) error {
	if len(e.Record) == 0 {
		return fmt.Errorf("realtime: %s event has no record", e.Topic)
	}
	if err := json.Unmarshal(e.Record, v); err != nil {
		return fmt.Errorf("realtime: decoding %s record: %w", e.Topic, err)
	}
	return nil
}
