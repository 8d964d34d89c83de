// Package client is the participant side of Keyword Synergy: a typed API
// client, a push-channel subscriber and the Store that reconciles snapshot
// fetches with pushed insert events.
package client

import (
	"context"

	"github.com/sakif/keyword-synergy/internal/realtime"
)

// Channel opens push subscriptions. One Subscribe call is one subscription
// to one topic in one pool ("" roomID for the global pool).
//
// onEvent receives insert events; onStatus receives every lifecycle change
// (SUBSCRIBED once established, then CHANNEL_ERROR, TIMED_OUT or CLOSED when
// it ends on its own). No callback starts after Unsubscribe returns; one that
// was already running may still finish. Unsubscribe may be called from
// inside a callback.
type Channel interface {
	Subscribe(
		ctx context.Context,
		topic realtime.Topic,
		roomID string,
		onEvent func(realtime.Event),
		onStatus func(realtime.Status),
	) (Subscription, error)
}

// Subscription is a live subscription handle.
type Subscription interface {
	// Unsubscribe tears the subscription down. Safe to call more than once.
	Unsubscribe()
}
