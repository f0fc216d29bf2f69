package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fairgrid/stand-assignment/internal/assignment"
	"github.com/fairgrid/stand-assignment/internal/model"
)

// BoothRepo provides access to the booths and event_booths tables and
// backs the stand availability gate. Reads run on the pool connection;
// the disposition flip only ever happens through the Tx methods so it
// shares a transaction with the request or conflict write that depends
// on it.
type BoothRepo struct {
	db *sql.DB
}

// NewBoothRepo returns a repo bound to the given database.
func NewBoothRepo(db *sql.DB) *BoothRepo { return &BoothRepo{db: db} }

// GetBooth fetches one booth by id. It returns ErrNotFound when no row
// exists.
func (r *BoothRepo) GetBooth(ctx context.Context, id uint64) (*model.Booth, error) {
	const q = `SELECT id, code, active, created_at FROM booths WHERE id = ?`
	var b model.Booth
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Code, &b.Active, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booth %d: %w", id, assignment.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Disposition returns the per-event disposition of a booth. A booth
// with no event_booths row is not allocated to the event and fails the
// gate with ErrBoothUnavailable.
func (r *BoothRepo) Disposition(ctx context.Context, eventID, boothID uint64) (string, error) {
	const q = `SELECT disposition FROM event_booths WHERE event_id = ? AND booth_id = ?`
	var disp string
	err := r.db.QueryRowContext(ctx, q, eventID, boothID).Scan(&disp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("booth %d is not allocated to event %d: %w", boothID, eventID, assignment.ErrBoothUnavailable)
	}
	if err != nil {
		return "", err
	}
	return disp, nil
}

// LockDispositionTx reads the disposition with FOR UPDATE so that the
// caller holds the row lock until commit. This is the authoritative
// gate check inside assign transactions.
func (r *BoothRepo) LockDispositionTx(ctx context.Context, tx *sql.Tx, eventID, boothID uint64) (string, error) {
	const q = `SELECT eb.disposition
	           FROM event_booths eb
	           JOIN booths b ON b.id = eb.booth_id
	           WHERE eb.event_id = ? AND eb.booth_id = ? AND b.active = 1
	           FOR UPDATE`
	var disp string
	err := tx.QueryRowContext(ctx, q, eventID, boothID).Scan(&disp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("booth %d is unusable for event %d: %w", boothID, eventID, assignment.ErrBoothUnavailable)
	}
	if err != nil {
		return "", err
	}
	return disp, nil
}

// SetDispositionTx flips the per-event disposition inside the provided
// transaction.
func (r *BoothRepo) SetDispositionTx(ctx context.Context, tx *sql.Tx, eventID, boothID uint64, disposition string) error {
	const q = `UPDATE event_booths SET disposition = ?, updated_at = UTC_TIMESTAMP() WHERE event_id = ? AND booth_id = ?`
	res, err := tx.ExecContext(ctx, q, disposition, eventID, boothID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("booth %d is not allocated to event %d: %w", boothID, eventID, assignment.ErrBoothUnavailable)
	}
	return nil
}

// EventBoothView is one row of the per-event booth listing exposed to
// organizers.
type EventBoothView struct {
	BoothID     uint64 `json:"booth_id"`
	Code        string `json:"code"`
	Active      bool   `json:"active"`
	Disposition string `json:"disposition"`
}

// ListByEvent returns every booth allocated to the event with its
// current disposition, ordered by stand code.
func (r *BoothRepo) ListByEvent(ctx context.Context, eventID uint64) ([]EventBoothView, error) {
	const q = `SELECT b.id, b.code, b.active, eb.disposition
	           FROM event_booths eb
	           JOIN booths b ON b.id = eb.booth_id
	           WHERE eb.event_id = ?
	           ORDER BY b.code`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	views := make([]EventBoothView, 0)
	for rows.Next() {
		var v EventBoothView
		if err := rows.Scan(&v.BoothID, &v.Code, &v.Active, &v.Disposition); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}
