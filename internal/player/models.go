package player

import (
	"time"
)

// Player is one game account tracked by the intelligence model. Rows are
// created and renamed by the bulk roster sync and never deleted.
type Player struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RosterEntry is one (id, name) pair from the bulk roster feed.
type RosterEntry struct {
	ID   int
	Name string
}
