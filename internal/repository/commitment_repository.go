package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/session-scheduler/internal/models"
)

// CommitmentRepository reads booked sessions from the appointments table.
// A party owns every appointment it organizes or attends.
type CommitmentRepository struct {
	db *sqlx.DB
}

// NewCommitmentRepository constructs the repository.
func NewCommitmentRepository(db *sqlx.DB) *CommitmentRepository {
	return &CommitmentRepository{db: db}
}

// GetActiveCommitments returns the owner's appointments overlapping [rangeStart, rangeEnd),
// excluding cancelled and no-show ones, ordered by start.
func (r *CommitmentRepository) GetActiveCommitments(ctx context.Context, ownerID string, rangeStart, rangeEnd time.Time) ([]models.ExistingCommitment, error) {
	const query = `SELECT id,
       organizer_id AS owner_id,
       participant_id AS counterparty_id,
       COALESCE(title, '') AS title,
       scheduled_at,
       duration_minutes,
       status
FROM appointments
WHERE organizer_id = $1
  AND status <> ALL($2)
  AND scheduled_at < $4
  AND scheduled_at + make_interval(mins => duration_minutes) > $3
UNION ALL
SELECT id,
       participant_id AS owner_id,
       organizer_id AS counterparty_id,
       COALESCE(title, '') AS title,
       scheduled_at,
       duration_minutes,
       status
FROM appointments
WHERE participant_id = $1
  AND status <> ALL($2)
  AND scheduled_at < $4
  AND scheduled_at + make_interval(mins => duration_minutes) > $3
ORDER BY scheduled_at ASC`

	inactive := make([]string, len(models.InactiveCommitmentStatuses))
	for i, status := range models.InactiveCommitmentStatuses {
		inactive[i] = string(status)
	}

	items := make([]models.ExistingCommitment, 0)
	if err := r.db.SelectContext(ctx, &items, query, ownerID, pq.Array(inactive), rangeStart.UTC(), rangeEnd.UTC()); err != nil {
		return nil, fmt.Errorf("list active commitments for %s: %w", ownerID, err)
	}
	return items, nil
}
