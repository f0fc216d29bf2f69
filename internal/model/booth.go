package model

import "time"

// Per-event booth disposition values stored in event_booths.disposition.
const (
	DispositionAvailable = "AVAILABLE"
	DispositionReserved  = "RESERVED"
	DispositionOccupied  = "OCCUPIED"
)

// Booth is a physical or virtual exhibition stand. This service reads
// the structural flag and flips the per-event disposition; geometry,
// pricing tiers and booth type taxonomy are owned by the inventory
// module and never written here.
//
// Fields:
//  ID        – primary key identifier.
//  Code      – human readable stand code (e.g. "A-14").
//  Active    – structural usability flag; inactive booths never pass
//              the availability gate.
//  CreatedAt – creation timestamp.
type Booth struct {
	ID        uint64    // booths.id
	Code      string    // booths.code
	Active    bool      // booths.active
	CreatedAt time.Time // booths.created_at
}

// EventBooth links a booth to an event and tracks its disposition for
// that event. There is one row per (event, booth) pair once the booth
// is allocated to the event floor plan.
//
// Fields:
//  ID          – primary key identifier.
//  EventID     – the event to which this disposition applies.
//  BoothID     – the booth being tracked.
//  Disposition – AVAILABLE, RESERVED or OCCUPIED.
//  UpdatedAt   – timestamp of the last disposition flip.
type EventBooth struct {
	ID          uint64    // event_booths.id
	EventID     uint64    // event_booths.event_id
	BoothID     uint64    // event_booths.booth_id
	Disposition string    // event_booths.disposition
	UpdatedAt   time.Time // event_booths.updated_at
}
