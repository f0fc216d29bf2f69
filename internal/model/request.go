package model

import "time"

// Assignment request lifecycle states as stored in
// assignment_requests.state. Transition legality is enforced by the
// assignment package; the database stores the raw value.
const (
	RequestRequested = "REQUESTED"
	RequestInReview  = "IN_REVIEW"
	RequestApproved  = "APPROVED"
	RequestRejected  = "REJECTED"
	RequestAssigned  = "ASSIGNED"
	RequestCancelled = "CANCELLED"
)

// Request modalities describe how the booth target was chosen.
const (
	ModalityDirectSelection = "DIRECT_SELECTION"
	ModalityManual          = "MANUAL"
	ModalityAutomatic       = "AUTOMATIC"
)

// AssignmentRequest is an exhibitor's claim on a booth for an event.
// At most one request per (exhibitor, event) pair may be active, i.e.
// in a state other than REJECTED or CANCELLED. AssignedBoothID is set
// only while the request is in state ASSIGNED.
//
// Fields:
//  ID               – primary key identifier.
//  ExhibitorID      – exhibitor making the claim.
//  EventID          – event the claim applies to.
//  RequestedBoothID – booth targeted at creation time (nullable).
//  AssignedBoothID  – booth granted on success (nullable).
//  Modality         – DIRECT_SELECTION, MANUAL or AUTOMATIC.
//  PriorityScore    – 0–100 score computed at creation, immutable.
//  State            – lifecycle state, see constants above.
//  Reason           – free text supplied by the exhibitor at creation.
//  RejectionReason  – mandatory text recorded on rejection.
//  CancelReason     – mandatory text recorded on cancellation.
//  PriceCents       – agreed price recorded at assignment (nullable).
//  DiscountPercent  – discount recorded at assignment (nullable).
//  RequestedAt      – creation timestamp.
//  ReviewedAt/By    – review decision audit trail.
//  AssignedAt/By    – assignment audit trail.
type AssignmentRequest struct {
	ID               uint64     // assignment_requests.id
	ExhibitorID      uint64     // assignment_requests.exhibitor_id
	EventID          uint64     // assignment_requests.event_id
	RequestedBoothID *uint64    // assignment_requests.requested_booth_id (nullable)
	AssignedBoothID  *uint64    // assignment_requests.assigned_booth_id (nullable)
	Modality         string     // assignment_requests.modality
	PriorityScore    int        // assignment_requests.priority_score
	State            string     // assignment_requests.state
	Reason           string     // assignment_requests.reason
	RejectionReason  *string    // assignment_requests.rejection_reason (nullable)
	CancelReason     *string    // assignment_requests.cancel_reason (nullable)
	PriceCents       *uint32    // assignment_requests.price_cents (nullable)
	DiscountPercent  *uint32    // assignment_requests.discount_percent (nullable)
	RequestedAt      time.Time  // assignment_requests.requested_at
	ReviewedAt       *time.Time // assignment_requests.reviewed_at (nullable)
	ReviewedBy       *uint64    // assignment_requests.reviewed_by (nullable)
	AssignedAt       *time.Time // assignment_requests.assigned_at (nullable)
	AssignedBy       *uint64    // assignment_requests.assigned_by (nullable)
}

// Active reports whether the request still occupies its
// (exhibitor, event) slot, i.e. has not been rejected or cancelled.
func (r AssignmentRequest) Active() bool {
	return r.State != RequestRejected && r.State != RequestCancelled
}
