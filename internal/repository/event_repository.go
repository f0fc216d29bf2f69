package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fairgrid/stand-assignment/internal/assignment"
	"github.com/fairgrid/stand-assignment/internal/model"
)

// EventRepo provides read access to the events table. The core only
// needs existence checks; GetByID exists for handler responses.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a repo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// EventExists reports whether an event row exists.
func (r *EventRepo) EventExists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID fetches one event. It returns ErrNotFound when no row
// exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT id, name, starts_at, ends_at, created_at FROM events WHERE id = ?`
	var ev model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(&ev.ID, &ev.Name, &ev.StartsAt, &ev.EndsAt, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", id, assignment.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
