package model

import "time"

// Keyword is a single word submitted into the pool.
//
// RoomID is empty for the global pool. Keywords are append-only: once
// inserted they are never edited or removed.
type Keyword struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RoomID    string    `json:"room_id,omitempty"`
	Word      string    `json:"word"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry records one draw.
//
// KeywordA and KeywordB are copies of the drawn words, not references to
// Keyword rows, so the history stays as it was at draw time.
type HistoryEntry struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id,omitempty"`
	KeywordA  string    `json:"keyword_a"`
	KeywordB  string    `json:"keyword_b"`
	CreatedAt time.Time `json:"created_at"`
}

// DrawResult is what a draw hands back to the caller. It does not carry the
// outcome of the history write.
type DrawResult struct {
	KeywordA string `json:"keyword_a"`
	KeywordB string `json:"keyword_b"`
}
