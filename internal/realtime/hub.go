package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config holds the websocket settings for the hub.
type Config struct {
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// ReadTimeout is how long a connection may stay silent (no pong) before it is dropped.
	ReadTimeout time.Duration
	// PingInterval must be shorter than ReadTimeout.
	PingInterval time.Duration
	// MaxMessageSize caps frames read from clients. Clients only send control frames.
	MaxMessageSize int64
	// SendBuffer is the per-connection queue; a connection that falls this far
	// behind is dropped.
	SendBuffer int
	// BroadcastBuffer is the hub's inbound queue of events to fan out.
	BroadcastBuffer int
	// CheckOrigin is passed to the websocket upgrader. nil allows every origin.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    54 * time.Second,
		MaxMessageSize:  1024,
		SendBuffer:      64,
		BroadcastBuffer: 256,
	}
}

// subscriptionKey is what a connection listens to: one topic in one pool.
type subscriptionKey struct {
	topic  Topic
	roomID string
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	Connections   int            `json:"connections"`
	Subscriptions map[string]int `json:"subscriptions"`
}

// Hub fans insert events out to websocket subscribers.
//
// LIFECYCLE:
// Start launches the broadcast loop once; Stop closes every connection and
// waits for the loop to exit. Publish never blocks: if the broadcast queue is
// full the event is dropped and logged.
type Hub struct {
	config   Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[subscriptionKey]map[*connection]struct{}

	broadcast chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewHub creates a hub. Call Start before publishing.
func NewHub(cfg Config, logger *slog.Logger) *Hub {
	defaults := DefaultConfig()
	if cfg.SendBuffer < 1 {
		cfg.SendBuffer = defaults.SendBuffer
	}
	if cfg.BroadcastBuffer < 1 {
		cfg.BroadcastBuffer = defaults.BroadcastBuffer
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaults.PingInterval
	}

	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Hub{
		config: cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		conns:     make(map[subscriptionKey]map[*connection]struct{}),
		broadcast: make(chan Event, cfg.BroadcastBuffer),
		done:      make(chan struct{}),
	}
}

// Start begins processing published events in the background.
func (h *Hub) Start() {
	h.startOnce.Do(func() {
		h.logger.Info("realtime hub started")
		h.wg.Add(1)
		go h.loop()
	})
}

// Stop shuts down the broadcast loop and closes every subscriber.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info("shutting down realtime hub")
		close(h.done)
		h.wg.Wait()

		h.mu.Lock()
		for key, set := range h.conns {
			for c := range set {
				close(c.send)
			}
			delete(h.conns, key)
		}
		h.mu.Unlock()
	})
}

// Publish queues an event for delivery to every matching subscriber.
func (h *Hub) Publish(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("realtime broadcast queue full, dropping event",
			slog.String("topic", string(event.Topic)),
			slog.String("room_id", event.RoomID),
		)
	}
}

// Subscribe upgrades the request to a websocket subscribed to topic in the
// pool identified by roomID ("" for the global pool). The first frame sent is
// a SUBSCRIBED status.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, topic Topic, roomID string) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		return fmt.Errorf("realtime: upgrading connection: %w", err)
	}

	c := &connection{
		id:   uuid.NewString(),
		key:  subscriptionKey{topic: topic, roomID: roomID},
		ws:   ws,
		send: make(chan []byte, h.config.SendBuffer),
		hub:  h,
	}

	// Queue the status frame before registering so it is always first.
	status, err := json.Marshal(NewStatusEvent(topic, roomID, StatusSubscribed))
	if err != nil {
		ws.Close()
		return fmt.Errorf("realtime: encoding status: %w", err)
	}
	c.send <- status

	if !h.register(c) {
		ws.Close()
		return fmt.Errorf("realtime: hub is stopped")
	}

	go c.writePump()
	go c.readPump()

	h.logger.Debug("realtime subscription opened",
		slog.String("connection_id", c.id),
		slog.String("topic", string(topic)),
		slog.String("room_id", roomID),
	)
	return nil
}

// Stats reports the current number of connections per topic.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{Subscriptions: make(map[string]int)}
	for key, set := range h.conns {
		stats.Connections += len(set)
		stats.Subscriptions[string(key.topic)] += len(set)
	}
	return stats
}

func (h *Hub) register(c *connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return false
	default:
	}

	if h.conns[c.key] == nil {
		h.conns[c.key] = make(map[*connection]struct{})
	}
	h.conns[c.key][c] = struct{}{}
	return true
}

// unregister removes c and closes its send queue. Safe to call more than once.
func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[c.key]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.conns, c.key)
	}

	h.logger.Debug("realtime subscription closed", slog.String("connection_id", c.id))
}

func (h *Hub) loop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.done:
			return
		case event := <-h.broadcast:
			h.fanOut(event)
		}
	}
}

// fanOut delivers one event. Sends happen under the read lock so unregister
// cannot close a queue mid-send; full queues are collected and dropped after.
func (h *Hub) fanOut(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode realtime event", slog.String("error", err.Error()))
		return
	}

	var slow []*connection

	h.mu.RLock()
	set := h.conns[subscriptionKey{topic: event.Topic, roomID: event.RoomID}]
	for c := range set {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	delivered := len(set) - len(slow)
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("realtime subscriber too slow, closing", slog.String("connection_id", c.id))
		h.unregister(c)
	}

	h.logger.Debug("realtime event delivered",
		slog.String("topic", string(event.Topic)),
		slog.String("room_id", event.RoomID),
		slog.Int("subscribers", delivered),
	)
}
