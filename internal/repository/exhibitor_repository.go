// Package repository implements the MySQL data access layer. Each repo
// wraps *sql.DB; methods suffixed Tx operate inside a caller-provided
// transaction so that multi-entity mutations stay atomic. Sentinel
// errors from the assignment package are returned for taxonomy cases
// so that handlers can classify failures with errors.Is.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fairgrid/stand-assignment/internal/assignment"
	"github.com/fairgrid/stand-assignment/internal/model"
)

// ExhibitorRepo provides read access to the exhibitors table. The
// exhibitor directory is a collaborator of the core: this service
// reads approval state and scoring attributes but never writes
// exhibitor profiles.
type ExhibitorRepo struct {
	db *sql.DB
}

// NewExhibitorRepo returns a repo bound to the given database.
func NewExhibitorRepo(db *sql.DB) *ExhibitorRepo { return &ExhibitorRepo{db: db} }

// GetExhibitor fetches one exhibitor by id. It returns ErrNotFound
// when no row exists.
func (r *ExhibitorRepo) GetExhibitor(ctx context.Context, id uint64) (*model.Exhibitor, error) {
	const q = `SELECT id, name, status, participation_count, avg_rating, created_at
	           FROM exhibitors WHERE id = ?`
	var ex model.Exhibitor
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&ex.ID, &ex.Name, &ex.Status, &ex.ParticipationCount, &ex.AvgRating, &ex.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exhibitor %d: %w", id, assignment.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}
