package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultNATSSubject carries every insert event between server instances.
const DefaultNATSSubject = "synergy.events"

// NATSBridge lets several server instances share one push channel.
//
// Publish sends the event to NATS instead of the local hub. Every instance,
// including the one that published, receives it from its NATS subscription
// and hands it to its own hub, so each subscriber sees the event once.
type NATSBridge struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	hub     *Hub
	logger  *slog.Logger
}

// NewNATSBridge connects to url and starts forwarding subject into hub.
func NewNATSBridge(url, subject string, hub *Hub, logger *slog.Logger) (*NATSBridge, error) {
	if subject == "" {
		subject = DefaultNATSSubject
	}

	opts := []nats.Option{
		nats.Name("keyword-synergy"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("realtime: connecting to NATS: %w", err)
	}

	b := &NATSBridge{nc: nc, subject: subject, hub: hub, logger: logger}

	sub, err := nc.Subscribe(subject, b.forward)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("realtime: subscribing to %s: %w", subject, err)
	}
	b.sub = sub

	logger.Info("NATS bridge connected",
		slog.String("url", nc.ConnectedUrl()),
		slog.String("subject", subject),
	)
	return b, nil
}

// Publish sends event to every instance. Failures are logged; a lost push
// event is recovered by the client's next snapshot fetch.
func (b *NATSBridge) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("failed to encode event for NATS", slog.String("error", err.Error()))
		return
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		b.logger.Error("failed to publish event to NATS",
			slog.String("topic", string(event.Topic)),
			slog.String("error", err.Error()),
		)
	}
}

// Close stops forwarding and closes the NATS connection.
func (b *NATSBridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.nc.Close()
}

func (b *NATSBridge) forward(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		b.logger.Warn("dropping malformed NATS event", slog.String("error", err.Error()))
		return
	}
	b.hub.Publish(event)
}
