package model

import "time"

// Conflict lifecycle states as stored in conflicts.state.
const (
	ConflictDetected     = "DETECTED"
	ConflictInReview     = "IN_REVIEW"
	ConflictInResolution = "IN_RESOLUTION"
	ConflictResolved     = "RESOLVED"
	ConflictEscalated    = "ESCALATED"
	ConflictCancelled    = "CANCELLED"
)

// Conflict severity and estimated impact grades.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Conflict detection methods.
const (
	DetectionAutomatic = "AUTOMATIC"
	DetectionManual    = "MANUAL"
)

// Conflict records two or more requests competing for the same booth
// at an event. It owns the resolution outcome and an append-only
// communication log; competing request snapshots live in
// conflict_requests.
//
// Fields:
//  ID                – primary key identifier.
//  EventID           – event where the contention occurred.
//  BoothID           – contested booth.
//  DetectionMethod   – AUTOMATIC or MANUAL.
//  Severity          – LOW..CRITICAL, derived at detection time.
//  EstimatedImpact   – LOW..CRITICAL, derived from competitor count
//                      and the highest priority score.
//  State             – lifecycle state, see constants above.
//  HandlerUserID     – user assigned to drive resolution (nullable).
//  Deadline          – advisory resolution due timestamp (nullable);
//                      a conflict past deadline while non-terminal is
//                      overdue. Never enforced by a timer.
//  WinnerExhibitorID – resolution outcome (nullable until resolved).
//  Criterion         – resolution criterion text.
//  ResolutionNotes   – free text recorded at resolution/cancellation.
//  DetectedAt        – creation timestamp.
//  ResolvedAt        – resolution timestamp (nullable).
type Conflict struct {
	ID                uint64     // conflicts.id
	EventID           uint64     // conflicts.event_id
	BoothID           uint64     // conflicts.booth_id
	DetectionMethod   string     // conflicts.detection_method
	Severity          string     // conflicts.severity
	EstimatedImpact   string     // conflicts.estimated_impact
	State             string     // conflicts.state
	HandlerUserID     *uint64    // conflicts.handler_user_id (nullable)
	Deadline          *time.Time // conflicts.deadline (nullable)
	WinnerExhibitorID *uint64    // conflicts.winner_exhibitor_id (nullable)
	Criterion         *string    // conflicts.criterion (nullable)
	ResolutionNotes   *string    // conflicts.resolution_notes (nullable)
	DetectedAt        time.Time  // conflicts.detected_at
	ResolvedAt        *time.Time // conflicts.resolved_at (nullable)
}

// Overdue reports whether the conflict has passed its advisory
// deadline while still in a non-terminal state.
func (c Conflict) Overdue(now time.Time) bool {
	if c.Deadline == nil {
		return false
	}
	if c.State == ConflictResolved || c.State == ConflictCancelled {
		return false
	}
	return now.After(*c.Deadline)
}

// ConflictRequest is the denormalized snapshot of one competing
// request, frozen at detection time so that later exhibitor renames or
// score recomputations never rewrite conflict history.
//
// Fields:
//  ID            – primary key identifier.
//  ConflictID    – owning conflict.
//  RequestID     – competing assignment request.
//  ExhibitorID   – exhibitor behind the request.
//  ExhibitorName – exhibitor display name at detection time.
//  PriorityScore – priority score at detection time.
//  Compensated   – set when the exhibitor lost and a compensation
//                  offer was recorded.
//  Offer         – compensation offer text (nullable).
type ConflictRequest struct {
	ID            uint64  // conflict_requests.id
	ConflictID    uint64  // conflict_requests.conflict_id
	RequestID     uint64  // conflict_requests.request_id
	ExhibitorID   uint64  // conflict_requests.exhibitor_id
	ExhibitorName string  // conflict_requests.exhibitor_name
	PriorityScore int     // conflict_requests.priority_score
	Compensated   bool    // conflict_requests.compensated
	Offer         *string // conflict_requests.offer (nullable)
}

// ConflictCommunication is one append-only entry in a conflict's
// communication log. Entries are informational and never drive state.
//
// Fields:
//  ID          – primary key identifier.
//  ConflictID  – owning conflict.
//  Type        – entry type (e.g. NOTE, CALL, MEETING).
//  Participant – who the exchange was with.
//  Message     – content summary.
//  Channel     – medium used (e.g. EMAIL, PHONE).
//  CreatedAt   – append timestamp.
type ConflictCommunication struct {
	ID          uint64    // conflict_communications.id
	ConflictID  uint64    // conflict_communications.conflict_id
	Type        string    // conflict_communications.type
	Participant string    // conflict_communications.participant
	Message     string    // conflict_communications.message
	Channel     string    // conflict_communications.channel
	CreatedAt   time.Time // conflict_communications.created_at
}
