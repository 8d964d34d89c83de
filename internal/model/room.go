package model

import "time"

// Room partitions keywords and history. HostID is the user who created it.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	HostID    string    `json:"host_id"`
	CreatedAt time.Time `json:"created_at"`
}
