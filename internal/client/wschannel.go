package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sakif/keyword-synergy/internal/realtime"
)

// closeGrace bounds how long Unsubscribe waits to send the close frame.
const closeGrace = time.Second

// WSChannel subscribes over the server's websocket endpoint, one connection
// per subscription.
type WSChannel struct {
	endpoint *url.URL
	dialer   *websocket.Dialer
	logger   *slog.Logger
}

// NewWSChannel returns a Channel for the server at serverURL
// (http:// or https://; the scheme is switched to ws:// or wss://).
func NewWSChannel(serverURL string, logger *slog.Logger) (*WSChannel, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parsing server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("client: unsupported server URL scheme %q", u.Scheme)
	}
	u.Path += "/api/realtime"

	return &WSChannel{
		endpoint: u,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

// Subscribe dials a new websocket for topic and starts reading frames.
func (c *WSChannel) Subscribe(
	ctx context.Context,
	topic realtime.Topic,
	roomID string,
	onEvent func(realtime.Event),
	onStatus func(realtime.Status),
) (Subscription, error) {
	u := *c.endpoint
	q := url.Values{"topic": {string(topic)}}
	if roomID != "" {
		q.Set("room_id", roomID)
	}
	u.RawQuery = q.Encode()

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: subscribing to %s: %w", topic, err)
	}

	sub := &wsSubscription{
		conn:     conn,
		topic:    topic,
		onEvent:  onEvent,
		onStatus: onStatus,
		logger:   c.logger,
		done:     make(chan struct{}),
	}
	go sub.readLoop()
	return sub, nil
}

type wsSubscription struct {
	conn     *websocket.Conn
	topic    realtime.Topic
	onEvent  func(realtime.Event)
	onStatus func(realtime.Status)
	logger   *slog.Logger

	// closed is set before the socket is closed; inCallback is set while the
	// read loop runs a callback. Each side stores its own flag and then loads
	// the other's, so either the callback is skipped or Unsubscribe knows one
	// is running and does not wait for the loop.
	closed     atomic.Bool
	inCallback atomic.Bool
	once       sync.Once
	done       chan struct{}
}

// Unsubscribe closes the socket. It waits for the read loop to exit unless a
// callback is running, which is the case when a callback unsubscribes.
func (s *wsSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		_ = s.conn.Close()

		if !s.inCallback.Load() {
			<-s.done
		}
	})
}

func (s *wsSubscription) readLoop() {
	defer close(s.done)

	for {
		var event realtime.Event
		if err := s.conn.ReadJSON(&event); err != nil {
			s.deliverStatus(statusForReadError(err))
			return
		}

		switch event.Type {
		case realtime.EventStatus:
			s.deliverStatus(event.Status)
		case realtime.EventInsert:
			s.deliver(func() { s.onEvent(event) })
		default:
			s.logger.Debug("ignoring unknown push frame", slog.String("type", string(event.Type)))
		}
	}
}

func (s *wsSubscription) deliverStatus(status realtime.Status) {
	s.deliver(func() { s.onStatus(status) })
}

func (s *wsSubscription) deliver(fn func()) {
	s.inCallback.Store(true)
	defer s.inCallback.Store(false)
	if s.closed.Load() {
		return
	}
	fn()
}

func statusForReadError(err error) realtime.Status {
	var netErr net.Error
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		return realtime.StatusClosed
	case errors.As(err, &netErr) && netErr.Timeout():
		return realtime.StatusTimedOut
	default:
		return realtime.StatusChannelError
	}
}
