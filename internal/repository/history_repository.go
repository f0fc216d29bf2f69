package repository

import (
	"context"
	"database/sql"

	"github.com/fairgrid/stand-assignment/internal/model"
)

// HistoryRepo writes the append-only transition ledger. It is a
// write-only sink from the core's perspective: appends run on the pool
// connection after the primary transaction commits, so a failing
// append can never roll back the operation it records. Audit queries
// against the ledger live outside this service.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo returns a repo bound to the given database.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// Append inserts one ledger row.
func (r *HistoryRepo) Append(ctx context.Context, entry model.HistoryEntry) error {
	const q = `INSERT INTO history_entries
	           (entity_type, entity_id, previous_state, new_state, reason, actor_user_id, payload, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var payload interface{}
	if len(entry.Payload) > 0 {
		payload = entry.Payload
	}
	_, err := r.db.ExecContext(ctx, q,
		entry.EntityType, entry.EntityID, entry.PreviousState, entry.NewState,
		entry.Reason, entry.ActorUserID, payload, entry.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	return err
}
