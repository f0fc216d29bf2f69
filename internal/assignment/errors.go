// Package assignment implements the stand assignment and conflict
// resolution core: priority scoring, the request and conflict state
// machines, automatic conflict detection and the managers that drive
// both lifecycles. Persistence and collaborator lookups are reached
// through the narrow interfaces in interfaces.go so the core stays
// independent of the MySQL repositories that back it in production.
package assignment

import "errors"

// Sentinel errors forming the failure taxonomy of the core. Managers
// wrap these with %w and the offending id or field so that callers can
// both classify with errors.Is and present an actionable message.
// Handlers translate them into HTTP status codes.
var (
	// ErrNotFound is returned when a referenced exhibitor, event,
	// booth, request or conflict does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotApproved is returned when the requesting exhibitor is not
	// in the APPROVED state.
	ErrNotApproved = errors.New("exhibitor not approved")

	// ErrDuplicateRequest is returned when an active request already
	// exists for the (exhibitor, event) pair.
	ErrDuplicateRequest = errors.New("active request already exists")

	// ErrBoothUnavailable is returned when the target booth fails the
	// availability gate: it is inactive, unallocated for the event, or
	// its per-event disposition is not AVAILABLE.
	ErrBoothUnavailable = errors.New("booth unavailable")

	// ErrInvalidState is returned when the requested transition is not
	// legal from the entity's current state.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrAlreadyResolved is returned when resolving a conflict that is
	// already in the RESOLVED state.
	ErrAlreadyResolved = errors.New("conflict already resolved")

	// ErrInvalidWinner is returned when a resolution names an
	// exhibitor that is not among the conflict's competing requests.
	ErrInvalidWinner = errors.New("winner not among competing requests")

	// ErrValidation is returned when a mandatory field (reason,
	// criterion, competitor list) is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrConflictExists is returned when a booth already has a
	// non-terminal conflict recorded for the event. Detection treats
	// it as a skip, not a failure.
	ErrConflictExists = errors.New("active conflict already exists")
)
