// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept primitives (never *http.Request) and return domain errors
// from the apperror package. The handler layer maps those to HTTP statuses.
//
// Every service takes repository interfaces, not *sqlite.DB, so tests pass
// in-memory fakes (see fakes_test.go).
//
// PUSH EVENTS:
// Services that insert keywords or history entries announce the new row on a
// Publisher once the insert has succeeded. The realtime hub (or the NATS
// bridge in front of it) is the production Publisher.
package service

import (
	"github.com/sakif/keyword-synergy/internal/realtime"
)

// Validation and paging constants.
const (
	MaxNameLength     = 50
	MaxRoomNameLength = 100
	MaxWordLength     = 50

	// DrawWindow caps the global pool a draw chooses from: only the most
	// recently submitted keywords are eligible.
	DrawWindow = 100

	// HistoryLimit is how many past draws a history fetch returns.
	HistoryLimit = 20
)

// Publisher delivers insert events to push subscribers. Publish must not block.
type Publisher interface {
	Publish(event realtime.Event)
}
