package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fairgrid/stand-assignment/internal/assignment"
	"github.com/fairgrid/stand-assignment/internal/model"
)

// ConflictRepo provides data access to the conflicts table and its
// child tables conflict_requests (competitor snapshots) and
// conflict_communications (append-only log). As with requests, state
// changes are conditional updates so concurrent writers cannot clobber
// each other.
type ConflictRepo struct {
	db *sql.DB
}

// NewConflictRepo returns a repo bound to the given database.
func NewConflictRepo(db *sql.DB) *ConflictRepo { return &ConflictRepo{db: db} }

const conflictColumns = `id, event_id, booth_id, detection_method, severity, estimated_impact, state,
	handler_user_id, deadline, winner_exhibitor_id, criterion, resolution_notes, detected_at, resolved_at`

// scanConflict reads one conflicts row, converting nullable columns
// into pointers.
func scanConflict(s rowScanner) (*model.Conflict, error) {
	var c model.Conflict
	var handler, winner sql.NullInt64
	var criterion, notes sql.NullString
	var deadline, resolvedAt sql.NullTime
	err := s.Scan(
		&c.ID, &c.EventID, &c.BoothID, &c.DetectionMethod, &c.Severity, &c.EstimatedImpact, &c.State,
		&handler, &deadline, &winner, &criterion, &notes, &c.DetectedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if handler.Valid {
		v := uint64(handler.Int64)
		c.HandlerUserID = &v
	}
	if deadline.Valid {
		v := deadline.Time
		c.Deadline = &v
	}
	if winner.Valid {
		v := uint64(winner.Int64)
		c.WinnerExhibitorID = &v
	}
	if criterion.Valid {
		v := criterion.String
		c.Criterion = &v
	}
	if notes.Valid {
		v := notes.String
		c.ResolutionNotes = &v
	}
	if resolvedAt.Valid {
		v := resolvedAt.Time
		c.ResolvedAt = &v
	}
	return &c, nil
}

// GetByID fetches one conflict. It returns ErrNotFound when no row
// exists.
func (r *ConflictRepo) GetByID(ctx context.Context, id uint64) (*model.Conflict, error) {
	q := `SELECT ` + conflictColumns + ` FROM conflicts WHERE id = ?`
	c, err := scanConflict(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conflict %d: %w", id, assignment.ErrNotFound)
	}
	return c, err
}

// HasActive reports whether a non-terminal conflict exists for the
// (event, booth) pair.
func (r *ConflictRepo) HasActive(ctx context.Context, eventID, boothID uint64) (bool, error) {
	return r.hasActive(ctx, r.db.QueryRowContext, eventID, boothID, false)
}

// HasActiveTx is HasActive inside a transaction with FOR UPDATE, used
// as the authoritative re-check before inserting a detected conflict.
func (r *ConflictRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, eventID, boothID uint64) (bool, error) {
	return r.hasActive(ctx, tx.QueryRowContext, eventID, boothID, true)
}

func (r *ConflictRepo) hasActive(ctx context.Context, queryRow queryRower, eventID, boothID uint64, lock bool) (bool, error) {
	q := `SELECT 1 FROM conflicts
	      WHERE event_id = ? AND booth_id = ? AND state NOT IN (?, ?) LIMIT 1`
	if lock {
		q += ` FOR UPDATE`
	}
	var one int
	err := queryRow(ctx, q, eventID, boothID, model.ConflictResolved, model.ConflictCancelled).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertTx inserts a conflict within the provided transaction and
// populates the generated id.
func (r *ConflictRepo) InsertTx(ctx context.Context, tx *sql.Tx, c *model.Conflict) error {
	const q = `INSERT INTO conflicts
	           (event_id, booth_id, detection_method, severity, estimated_impact, state, deadline, detected_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var deadline interface{}
	if c.Deadline != nil {
		deadline = c.Deadline.UTC().Format("2006-01-02 15:04:05")
	}
	res, err := tx.ExecContext(ctx, q,
		c.EventID, c.BoothID, c.DetectionMethod, c.Severity, c.EstimatedImpact, c.State,
		deadline, c.DetectedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// InsertRequestsTx inserts the competitor snapshots for a conflict in
// one statement. Passing an empty slice has no effect.
func (r *ConflictRepo) InsertRequestsTx(ctx context.Context, tx *sql.Tx, conflictID uint64, snapshots []model.ConflictRequest) error {
	if len(snapshots) == 0 {
		return nil
	}
	q := `INSERT INTO conflict_requests (conflict_id, request_id, exhibitor_id, exhibitor_name, priority_score) VALUES `
	args := make([]interface{}, 0, len(snapshots)*5)
	for i, s := range snapshots {
		if i > 0 {
			q += ","
		}
		q += "(?, ?, ?, ?, ?)"
		args = append(args, conflictID, s.RequestID, s.ExhibitorID, s.ExhibitorName, s.PriorityScore)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// TransitionTx performs a conditional conflict state change, writing
// handler, deadline and notes columns only when the transition carries
// them. Zero affected rows yields ErrInvalidState.
func (r *ConflictRepo) TransitionTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string, tr assignment.ConflictTransition) error {
	q := `UPDATE conflicts SET state = ?`
	args := []interface{}{to}
	if tr.HandlerUserID != nil {
		q += `, handler_user_id = ?`
		args = append(args, *tr.HandlerUserID)
	}
	if tr.Deadline != nil {
		q += `, deadline = ?`
		args = append(args, tr.Deadline.UTC().Format("2006-01-02 15:04:05"))
	}
	if tr.ResolutionNotes != nil {
		q += `, resolution_notes = ?`
		args = append(args, *tr.ResolutionNotes)
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
		return fmt.Errorf("conflict %d no longer in state %s: %w", id, from, assignment.ErrInvalidState)
	}
	return nil
}

// MarkResolvedTx writes the resolution outcome onto the conflict. The
// conditional guard rejects conflicts that reached a terminal state
// concurrently.
func (r *ConflictRepo) MarkResolvedTx(ctx context.Context, tx *sql.Tx, p assignment.ResolveConflictParams) error {
	const q = `UPDATE conflicts
	           SET state = ?, winner_exhibitor_id = ?, criterion = ?, resolution_notes = ?, resolved_at = ?
	           WHERE id = ? AND state NOT IN (?, ?)`
	res, err := tx.ExecContext(ctx, q,
		model.ConflictResolved, p.WinnerExhibitorID, p.Criterion, p.Notes,
		p.ResolvedAt.UTC().Format("2006-01-02 15:04:05"),
		p.ConflictID, model.ConflictResolved, model.ConflictCancelled,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("conflict %d already terminal: %w", p.ConflictID, assignment.ErrInvalidState)
	}
	return nil
}

// MarkCompensatedTx flags the losing snapshots as compensated and
// records the optional offer text.
func (r *ConflictRepo) MarkCompensatedTx(ctx context.Context, tx *sql.Tx, conflictID uint64, requestIDs []uint64, offer *string) error {
	if len(requestIDs) == 0 {
		return nil
	}
	q := `UPDATE conflict_requests SET compensated = 1, offer = ? WHERE conflict_id = ? AND request_id IN (`
	args := []interface{}{offer, conflictID}
	for i, id := range requestIDs {
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

// ListRequests returns the competitor snapshots of a conflict in
// insertion order.
func (r *ConflictRepo) ListRequests(ctx context.Context, conflictID uint64) ([]model.ConflictRequest, error) {
	const q = `SELECT id, conflict_id, request_id, exhibitor_id, exhibitor_name, priority_score, compensated, offer
	           FROM conflict_requests WHERE conflict_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, conflictID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	snapshots := make([]model.ConflictRequest, 0)
	for rows.Next() {
		var s model.ConflictRequest
		var offer sql.NullString
		if err := rows.Scan(&s.ID, &s.ConflictID, &s.RequestID, &s.ExhibitorID, &s.ExhibitorName, &s.PriorityScore, &s.Compensated, &offer); err != nil {
			return nil, err
		}
		if offer.Valid {
			v := offer.String
			s.Offer = &v
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// ListByEvent returns every conflict for an event, newest first.
func (r *ConflictRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Conflict, error) {
	q := `SELECT ` + conflictColumns + ` FROM conflicts WHERE event_id = ? ORDER BY detected_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	conflicts := make([]model.Conflict, 0)
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conflicts, nil
}

// InsertCommunication appends one communication log entry and
// populates the generated id.
func (r *ConflictRepo) InsertCommunication(ctx context.Context, entry *model.ConflictCommunication) error {
	const q = `INSERT INTO conflict_communications (conflict_id, type, participant, message, channel, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		entry.ConflictID, entry.Type, entry.Participant, entry.Message, entry.Channel,
		entry.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = uint64(id)
	return nil
}

// ListCommunications returns a conflict's communication log in append
// order.
func (r *ConflictRepo) ListCommunications(ctx context.Context, conflictID uint64) ([]model.ConflictCommunication, error) {
	const q = `SELECT id, conflict_id, type, participant, message, channel, created_at
	           FROM conflict_communications WHERE conflict_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, conflictID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.ConflictCommunication, 0)
	for rows.Next() {
		var e model.ConflictCommunication
		if err := rows.Scan(&e.ID, &e.ConflictID, &e.Type, &e.Participant, &e.Message, &e.Channel, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByState returns the number of conflicts per state for an event.
func (r *ConflictRepo) CountByState(ctx context.Context, eventID uint64) (map[string]int, error) {
	const q = `SELECT state, COUNT(*) FROM conflicts WHERE event_id = ? GROUP BY state`
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

// OverdueCount returns the number of non-terminal conflicts whose
// advisory deadline lies before the given instant.
func (r *ConflictRepo) OverdueCount(ctx context.Context, eventID uint64, now time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM conflicts
	           WHERE event_id = ? AND deadline IS NOT NULL AND deadline < ?
	             AND state NOT IN (?, ?)`
	var n int
	err := r.db.QueryRowContext(ctx, q, eventID, now.UTC().Format("2006-01-02 15:04:05"),
		model.ConflictResolved, model.ConflictCancelled).Scan(&n)
	return n, err
}

// AvgResolutionSeconds returns the mean detection-to-resolution time
// of resolved conflicts for an event, or zero when none are resolved.
func (r *ConflictRepo) AvgResolutionSeconds(ctx context.Context, eventID uint64) (float64, error) {
	const q = `SELECT COALESCE(AVG(TIMESTAMPDIFF(SECOND, detected_at, resolved_at)), 0)
	           FROM conflicts WHERE event_id = ? AND state = ? AND resolved_at IS NOT NULL`
	var avg float64
	err := r.db.QueryRowContext(ctx, q, eventID, model.ConflictResolved).Scan(&avg)
	return avg, err
}
