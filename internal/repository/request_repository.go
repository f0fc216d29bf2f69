package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fairgrid/stand-assignment/internal/assignment"
	"github.com/fairgrid/stand-assignment/internal/model"
)

// RequestRepo provides data access to the assignment_requests table.
// State changes are written with conditional updates (WHERE state = ?)
// so that a transition raced by another writer affects zero rows and
// surfaces as ErrInvalidState instead of silently overwriting.
type RequestRepo struct {
	db *sql.DB
}

// NewRequestRepo returns a repo bound to the given database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

const requestColumns = `id, exhibitor_id, event_id, requested_booth_id, assigned_booth_id,
	modality, priority_score, state, reason, rejection_reason, cancel_reason,
	price_cents, discount_percent, requested_at, reviewed_at, reviewed_by, assigned_at, assigned_by`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRequest reads one assignment_requests row, converting nullable
// columns into pointers.
func scanRequest(s rowScanner) (*model.AssignmentRequest, error) {
	var req model.AssignmentRequest
	var requestedBooth, assignedBooth, reviewedBy, assignedBy sql.NullInt64
	var rejectionReason, cancelReason sql.NullString
	var priceCents, discountPercent sql.NullInt64
	var reviewedAt, assignedAt sql.NullTime
	err := s.Scan(
		&req.ID, &req.ExhibitorID, &req.EventID, &requestedBooth, &assignedBooth,
		&req.Modality, &req.PriorityScore, &req.State, &req.Reason, &rejectionReason, &cancelReason,
		&priceCents, &discountPercent, &req.RequestedAt, &reviewedAt, &reviewedBy, &assignedAt, &assignedBy,
	)
	if err != nil {
		return nil, err
	}
	if requestedBooth.Valid {
		v := uint64(requestedBooth.Int64)
		req.RequestedBoothID = &v
	}
	if assignedBooth.Valid {
		v := uint64(assignedBooth.Int64)
		req.AssignedBoothID = &v
	}
	if rejectionReason.Valid {
		v := rejectionReason.String
		req.RejectionReason = &v
	}
	if cancelReason.Valid {
		v := cancelReason.String
		req.CancelReason = &v
	}
	if priceCents.Valid {
		v := uint32(priceCents.Int64)
		req.PriceCents = &v
	}
	if discountPercent.Valid {
		v := uint32(discountPercent.Int64)
		req.DiscountPercent = &v
	}
	if reviewedAt.Valid {
		v := reviewedAt.Time
		req.ReviewedAt = &v
	}
	if reviewedBy.Valid {
		v := uint64(reviewedBy.Int64)
		req.ReviewedBy = &v
	}
	if assignedAt.Valid {
		v := assignedAt.Time
		req.AssignedAt = &v
	}
	if assignedBy.Valid {
		v := uint64(assignedBy.Int64)
		req.AssignedBy = &v
	}
	return &req, nil
}

// GetByID fetches one request. It returns ErrNotFound when no row
// exists.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (*model.AssignmentRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM assignment_requests WHERE id = ?`
	req, err := scanRequest(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %d: %w", id, assignment.ErrNotFound)
	}
	return req, err
}

// GetByIDTx fetches one request with FOR UPDATE so the caller holds
// the row lock until commit.
func (r *RequestRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.AssignmentRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM assignment_requests WHERE id = ? FOR UPDATE`
	req, err := scanRequest(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %d: %w", id, assignment.ErrNotFound)
	}
	return req, err
}

// HasActive reports whether a non-rejected, non-cancelled request
// exists for the (exhibitor, event) pair.
func (r *RequestRepo) HasActive(ctx context.Context, exhibitorID, eventID uint64) (bool, error) {
	return r.hasActive(ctx, r.db.QueryRowContext, exhibitorID, eventID, false)
}

// HasActiveTx is HasActive inside a transaction, locking any matching
// row so a concurrent insert for the same pair blocks until commit.
func (r *RequestRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, exhibitorID, eventID uint64) (bool, error) {
	return r.hasActive(ctx, tx.QueryRowContext, exhibitorID, eventID, true)
}

type queryRower func(ctx context.Context, query string, args ...interface{}) *sql.Row

func (r *RequestRepo) hasActive(ctx context.Context, queryRow queryRower, exhibitorID, eventID uint64, lock bool) (bool, error) {
	q := `SELECT 1 FROM assignment_requests
	      WHERE exhibitor_id = ? AND event_id = ? AND state NOT IN (?, ?) LIMIT 1`
	if lock {
		q += ` FOR UPDATE`
	}
	var one int
	err := queryRow(ctx, q, exhibitorID, eventID, model.RequestRejected, model.RequestCancelled).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertTx inserts a new request within the provided transaction and
// populates the generated id.
func (r *RequestRepo) InsertTx(ctx context.Context, tx *sql.Tx, req *model.AssignmentRequest) error {
	const q = `INSERT INTO assignment_requests
	           (exhibitor_id, event_id, requested_booth_id, modality, priority_score, state, reason, requested_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		req.ExhibitorID, req.EventID, req.RequestedBoothID, req.Modality,
		req.PriorityScore, req.State, req.Reason, req.RequestedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	return nil
}

// TransitionTx performs a conditional state change. Review and
// rejection/cancellation audit columns are written only when the
// transition carries them. Zero affected rows means the request left
// the expected state concurrently and yields ErrInvalidState.
func (r *RequestRepo) TransitionTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string, tr assignment.RequestTransition) error {
	q := `UPDATE assignment_requests SET state = ?`
	args := []interface{}{to}
	if tr.ReviewedAt != nil {
		q += `, reviewed_at = ?, reviewed_by = ?`
		args = append(args, tr.ReviewedAt.UTC().Format("2006-01-02 15:04:05"), tr.ActorUserID)
	}
	if tr.RejectionReason != nil {
		q += `, rejection_reason = ?`
		args = append(args, *tr.RejectionReason)
	}
	if tr.CancelReason != nil {
		q += `, cancel_reason = ?`
		args = append(args, *tr.CancelReason)
	}
	q += ` WHERE id = ? AND state = ?`
	args = append(args, id, from)
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("request %d no longer in state %s: %w", id, from, assignment.ErrInvalidState)
	}
	return nil
}

// MarkAssignedTx writes the assignment outcome: assigned booth,
// economic terms, audit fields and the ASSIGNED state. The caller must
// have locked the request row and verified the APPROVED state.
func (r *RequestRepo) MarkAssignedTx(ctx context.Context, tx *sql.Tx, p assignment.AssignBoothParams) error {
	const q = `UPDATE assignment_requests
	           SET state = ?, assigned_booth_id = ?, price_cents = ?, discount_percent = ?,
	               assigned_at = ?, assigned_by = ?
	           WHERE id = ? AND state = ?`
	res, err := tx.ExecContext(ctx, q,
		model.RequestAssigned, p.BoothID, p.PriceCents, p.DiscountPercent,
		p.AssignedAt.UTC().Format("2006-01-02 15:04:05"), p.AssignerUserID,
		p.RequestID, model.RequestApproved,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("request %d is not approved: %w", p.RequestID, assignment.ErrInvalidState)
	}
	return nil
}

// RejectManyTx rejects every listed request that is still in a
// pre-terminal state, writing the standardized reason. Requests
// already rejected or cancelled are left untouched.
func (r *RequestRepo) RejectManyTx(ctx context.Context, tx *sql.Tx, ids []uint64, reason string) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE assignment_requests SET state = ?, rejection_reason = ? WHERE state IN (?, ?, ?) AND id IN (`
	args := []interface{}{model.RequestRejected, reason, model.RequestRequested, model.RequestInReview, model.RequestApproved}
	for i, id := range ids {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += ")"
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// ApproveManyTx approves every listed request still awaiting review.
// Requests already approved or assigned keep their state.
func (r *RequestRepo) ApproveManyTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE assignment_requests SET state = ? WHERE state IN (?, ?) AND id IN (`
	args := []interface{}{model.RequestApproved, model.RequestRequested, model.RequestInReview}
	for i, id := range ids {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += ")"
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// ListActive returns the non-terminal requests for an event, oldest
// first, optionally scoped to one target booth. This feeds the
// conflict detector.
func (r *RequestRepo) ListActive(ctx context.Context, eventID uint64, boothID *uint64) ([]model.AssignmentRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM assignment_requests
	      WHERE event_id = ? AND state IN (?, ?, ?)`
	args := []interface{}{eventID, model.RequestRequested, model.RequestInReview, model.RequestApproved}
	if boothID != nil {
		q += ` AND requested_booth_id = ?`
		args = append(args, *boothID)
	}
	q += ` ORDER BY requested_at, id`
	return r.list(ctx, q, args...)
}

// ListByEvent returns every request for an event regardless of state,
// newest first.
func (r *RequestRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.AssignmentRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM assignment_requests
	      WHERE event_id = ? ORDER BY requested_at DESC, id DESC`
	return r.list(ctx, q, eventID)
}

func (r *RequestRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.AssignmentRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	requests := make([]model.AssignmentRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// CountByState returns the number of requests per state for an event.
func (r *RequestRepo) CountByState(ctx context.Context, eventID uint64) (map[string]int, error) {
	const q = `SELECT state, COUNT(*) FROM assignment_requests WHERE event_id = ? GROUP BY state`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
