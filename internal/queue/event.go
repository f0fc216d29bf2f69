// Package queue defines message payloads exchanged over the message
// broker and the background consumer that turns them into notification
// log lines.
package queue

// Queue names used on the default exchange. Routing keys equal queue
// names.
const (
	RequestAssignedQueue  = "assignment.request.assigned"
	ConflictResolvedQueue = "assignment.conflict.resolved"
)

// RequestAssignedEvent is published after a booth assignment commits.
// It carries enough information for downstream consumers to notify the
// exhibitor without querying the primary database.
type RequestAssignedEvent struct {
	RequestID       uint64  `json:"request_id"`
	ExhibitorID     uint64  `json:"exhibitor_id"`
	EventID         uint64  `json:"event_id"`
	BoothID         uint64  `json:"booth_id"`
	PriceCents      *uint32 `json:"price_cents,omitempty"`
	DiscountPercent *uint32 `json:"discount_percent,omitempty"`
	AssignedAt      string  `json:"assigned_at"`
}

// ConflictResolvedEvent is published after a conflict resolution
// commits. Winner and loser request ids let consumers fan out
// congratulation and compensation notifications.
type ConflictResolvedEvent struct {
	ConflictID        uint64   `json:"conflict_id"`
	EventID           uint64   `json:"event_id"`
	BoothID           uint64   `json:"booth_id"`
	WinnerExhibitorID uint64   `json:"winner_exhibitor_id"`
	WinnerRequestIDs  []uint64 `json:"winner_request_ids"`
	LoserRequestIDs   []uint64 `json:"loser_request_ids"`
	Criterion         string   `json:"criterion,omitempty"`
	ResolvedAt        string   `json:"resolved_at"`
}
