package assignment

import (
	"context"
	"time"

	"github.com/fairgrid/stand-assignment/internal/model"
)

// ExhibitorDirectory resolves exhibitor attributes consumed by the
// priority scorer and by request validation.
type ExhibitorDirectory interface {
	GetExhibitor(ctx context.Context, id uint64) (*model.Exhibitor, error)
}

// EventDirectory answers event existence checks.
type EventDirectory interface {
	EventExists(ctx context.Context, id uint64) (bool, error)
}

// BoothDirectory exposes the structural flag and per-event disposition
// backing the availability gate. It is read-only from the core's point
// of view; disposition flips happen inside Store transactions so that
// the gate check and the flip stay atomic relative to each other.
type BoothDirectory interface {
	GetBooth(ctx context.Context, id uint64) (*model.Booth, error)
	Disposition(ctx context.Context, eventID, boothID uint64) (string, error)
}

// RequestTransition carries the audit fields written alongside a
// request state change.
type RequestTransition struct {
	ActorUserID     uint64
	ReviewedAt      *time.Time
	RejectionReason *string
	CancelReason    *string
}

// AssignBoothParams bundles the inputs of the atomic assign operation.
type AssignBoothParams struct {
	RequestID       uint64
	EventID         uint64
	BoothID         uint64
	AssignerUserID  uint64
	PriceCents      *uint32
	DiscountPercent *uint32
	AssignedAt      time.Time
}

// ConflictTransition carries the fields written alongside a conflict
// state change.
type ConflictTransition struct {
	HandlerUserID   *uint64
	Deadline        *time.Time
	ResolutionNotes *string
}

// ResolveConflictParams bundles the inputs of the atomic resolution
// operation. LoserRequestIDs and WinnerRequestIDs partition the
// conflict's competing requests.
type ResolveConflictParams struct {
	ConflictID        uint64
	WinnerExhibitorID uint64
	WinnerRequestIDs  []uint64
	LoserRequestIDs   []uint64
	Criterion         string
	Notes             *string
	RejectionReason   string
	CompensationOffer *string
	ResolvedAt        time.Time
}

// Store is the persistence contract of the core. Every method is a
// single atomic operation against the backing relational store; the
// multi-entity methods (CreateRequest, AssignBooth, CreateConflict,
// ResolveConflict) re-validate their preconditions inside the same
// transaction as their writes, so two racing callers cannot both
// succeed.
type Store interface {
	GetRequest(ctx context.Context, id uint64) (*model.AssignmentRequest, error)
	HasActiveRequest(ctx context.Context, exhibitorID, eventID uint64) (bool, error)
	CreateRequest(ctx context.Context, req *model.AssignmentRequest) error
	TransitionRequest(ctx context.Context, id uint64, from, to string, tr RequestTransition) error
	AssignBooth(ctx context.Context, p AssignBoothParams) (*model.AssignmentRequest, error)
	ListActiveRequests(ctx context.Context, eventID uint64, boothID *uint64) ([]model.AssignmentRequest, error)

	GetConflict(ctx context.Context, id uint64) (*model.Conflict, error)
	GetConflictRequests(ctx context.Context, conflictID uint64) ([]model.ConflictRequest, error)
	HasActiveConflict(ctx context.Context, eventID, boothID uint64) (bool, error)
	CreateConflict(ctx context.Context, c *model.Conflict, competitors []model.ConflictRequest) error
	TransitionConflict(ctx context.Context, id uint64, from, to string, tr ConflictTransition) error
	ResolveConflict(ctx context.Context, p ResolveConflictParams) error
	AddCommunication(ctx context.Context, entry *model.ConflictCommunication) error
}

// HistorySink receives one entry per state transition. Appends are
// fire-and-forget: managers log a warning on failure and never roll
// back the primary operation.
type HistorySink interface {
	Append(ctx context.Context, entry model.HistoryEntry) error
}

// Publisher emits post-commit domain events for decoupled consumers
// (notifications, analytics). Failures are logged and swallowed; the
// core's correctness never depends on delivery.
type Publisher interface {
	RequestAssigned(ctx context.Context, req *model.AssignmentRequest) error
	ConflictResolved(ctx context.Context, c *model.Conflict, winners, losers []uint64) error
}
