package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fairgrid/stand-assignment/internal/assignment"
	"github.com/fairgrid/stand-assignment/internal/model"
)

// Store combines the repos into the persistence contract consumed by
// the assignment core. Each multi-entity method opens one transaction,
// re-validates its preconditions under row locks and commits or rolls
// back as a unit, so the core never observes partial writes.
type Store struct {
	db        *sql.DB
	requests  *RequestRepo
	conflicts *ConflictRepo
	booths    *BoothRepo
}

// NewStore constructs the facade over one database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		requests:  NewRequestRepo(db),
		conflicts: NewConflictRepo(db),
		booths:    NewBoothRepo(db),
	}
}

// DB exposes the underlying handle for health checks and wiring.
func (s *Store) DB() *sql.DB { return s.db }

// withTx runs fn inside a transaction, rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// GetRequest implements assignment.Store.
func (s *Store) GetRequest(ctx context.Context, id uint64) (*model.AssignmentRequest, error) {
	return s.requests.GetByID(ctx, id)
}

// HasActiveRequest implements assignment.Store.
func (s *Store) HasActiveRequest(ctx context.Context, exhibitorID, eventID uint64) (bool, error) {
	return s.requests.HasActive(ctx, exhibitorID, eventID)
}

// CreateRequest inserts a request after repeating the duplicate check
// under lock, closing the race between two simultaneous creates for
// the same (exhibitor, event) pair.
func (s *Store) CreateRequest(ctx context.Context, req *model.AssignmentRequest) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		dup, err := s.requests.HasActiveTx(ctx, tx, req.ExhibitorID, req.EventID)
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("exhibitor %d, event %d: %w", req.ExhibitorID, req.EventID, assignment.ErrDuplicateRequest)
		}
		return s.requests.InsertTx(ctx, tx, req)
	})
}

// TransitionRequest implements assignment.Store.
func (s *Store) TransitionRequest(ctx context.Context, id uint64, from, to string, tr assignment.RequestTransition) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.requests.TransitionTx(ctx, tx, id, from, to, tr)
	})
}

// AssignBooth performs the atomic assignment: the request row and the
// event_booths row are locked, the APPROVED state and AVAILABLE
// disposition are re-verified under those locks, then the request is
// marked ASSIGNED and the disposition flips to RESERVED. Two
// concurrent assigns for the same booth serialize on the row lock and
// the loser fails with ErrBoothUnavailable.
func (s *Store) AssignBooth(ctx context.Context, p assignment.AssignBoothParams) (*model.AssignmentRequest, error) {
	var updated *model.AssignmentRequest
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		req, err := s.requests.GetByIDTx(ctx, tx, p.RequestID)
		if err != nil {
			return err
		}
		if req.State != model.RequestApproved {
			return fmt.Errorf("request %d is %s: %w", p.RequestID, req.State, assignment.ErrInvalidState)
		}
		disp, err := s.booths.LockDispositionTx(ctx, tx, p.EventID, p.BoothID)
		if err != nil {
			return err
		}
		if disp != model.DispositionAvailable {
			return fmt.Errorf("booth %d is %s for event %d: %w", p.BoothID, disp, p.EventID, assignment.ErrBoothUnavailable)
		}
		if err := s.requests.MarkAssignedTx(ctx, tx, p); err != nil {
			return err
		}
		if err := s.booths.SetDispositionTx(ctx, tx, p.EventID, p.BoothID, model.DispositionReserved); err != nil {
			return err
		}
		updated, err = s.requests.GetByIDTx(ctx, tx, p.RequestID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListActiveRequests implements assignment.Store.
func (s *Store) ListActiveRequests(ctx context.Context, eventID uint64, boothID *uint64) ([]model.AssignmentRequest, error) {
	return s.requests.ListActive(ctx, eventID, boothID)
}

// GetConflict implements assignment.Store.
func (s *Store) GetConflict(ctx context.Context, id uint64) (*model.Conflict, error) {
	return s.conflicts.GetByID(ctx, id)
}

// GetConflictRequests implements assignment.Store.
func (s *Store) GetConflictRequests(ctx context.Context, conflictID uint64) ([]model.ConflictRequest, error) {
	return s.conflicts.ListRequests(ctx, conflictID)
}

// HasActiveConflict implements assignment.Store.
func (s *Store) HasActiveConflict(ctx context.Context, eventID, boothID uint64) (bool, error) {
	return s.conflicts.HasActive(ctx, eventID, boothID)
}

// CreateConflict inserts the conflict and its competitor snapshots
// after re-checking under lock that the booth carries no other active
// conflict, closing the race between two near-simultaneous detections.
func (s *Store) CreateConflict(ctx context.Context, c *model.Conflict, competitors []model.ConflictRequest) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := s.conflicts.HasActiveTx(ctx, tx, c.EventID, c.BoothID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("event %d, booth %d: %w", c.EventID, c.BoothID, assignment.ErrConflictExists)
		}
		if err := s.conflicts.InsertTx(ctx, tx, c); err != nil {
			return err
		}
		return s.conflicts.InsertRequestsTx(ctx, tx, c.ID, competitors)
	})
}

// TransitionConflict implements assignment.Store.
func (s *Store) TransitionConflict(ctx context.Context, id uint64, from, to string, tr assignment.ConflictTransition) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.conflicts.TransitionTx(ctx, tx, id, from, to, tr)
	})
}

// ResolveConflict applies the full resolution outcome in one
// transaction: the conflict is marked RESOLVED with winner and
// criterion, the winner's requests are approved where still pending,
// every losing request is rejected with the standardized reason, and
// the losing snapshots are flagged compensated. Any failure rolls the
// whole outcome back.
func (s *Store) ResolveConflict(ctx context.Context, p assignment.ResolveConflictParams) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.conflicts.MarkResolvedTx(ctx, tx, p); err != nil {
			return err
		}
		if err := s.requests.ApproveManyTx(ctx, tx, p.WinnerRequestIDs); err != nil {
			return err
		}
		if err := s.requests.RejectManyTx(ctx, tx, p.LoserRequestIDs, p.RejectionReason); err != nil {
			return err
		}
		return s.conflicts.MarkCompensatedTx(ctx, tx, p.ConflictID, p.LoserRequestIDs, p.CompensationOffer)
	})
}

// AddCommunication implements assignment.Store.
func (s *Store) AddCommunication(ctx context.Context, entry *model.ConflictCommunication) error {
	return s.conflicts.InsertCommunication(ctx, entry)
}
