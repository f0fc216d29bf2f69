package model

import "time"

// History entity discriminators.
const (
	HistoryEntityRequest  = "REQUEST"
	HistoryEntityConflict = "CONFLICT"
)

// HistoryEntry is one row in the append-only transition ledger. The
// core only writes entries; audit queries run outside this service.
//
// Fields:
//  ID            – primary key identifier.
//  EntityType    – REQUEST or CONFLICT.
//  EntityID      – id of the request or conflict that transitioned.
//  PreviousState – state before the transition (empty on creation).
//  NewState      – state after the transition.
//  Reason        – human supplied reason, when one was mandatory.
//  ActorUserID   – user who triggered the transition (nullable for
//                  automatic detection).
//  Payload       – arbitrary structured JSON detail (economic terms,
//                  resolution summaries).
//  CreatedAt     – append timestamp.
type HistoryEntry struct {
	ID            uint64    // history_entries.id
	EntityType    string    // history_entries.entity_type
	EntityID      uint64    // history_entries.entity_id
	PreviousState string    // history_entries.previous_state
	NewState      string    // history_entries.new_state
	Reason        string    // history_entries.reason
	ActorUserID   *uint64   // history_entries.actor_user_id (nullable)
	Payload       []byte    // history_entries.payload (JSON)
	CreatedAt     time.Time // history_entries.created_at
}
