// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User is an anonymous participant. There are no accounts: a user is created
// once per session from a display name and is never updated afterwards.
//
// The `json:"..."` tags use snake_case so the same shape travels over the
// REST responses and the realtime insert events.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
