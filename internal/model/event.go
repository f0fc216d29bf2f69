package model

import "time"

// Event is a trade fair edition. The core only needs existence and the
// date range; scheduling, venues and programme data are owned elsewhere.
type Event struct {
	ID        uint64    // events.id
	Name      string    // events.name
	StartsAt  time.Time // events.starts_at
	EndsAt    time.Time // events.ends_at
	CreatedAt time.Time // events.created_at
}
