package repository

import (
	"context"
	"fmt"
	"time"

	"piggyvault/database"
	"piggyvault/domain/entities"
	"piggyvault/domain/interfaces"
)

// MilestoneRepository implements the MilestoneRepository interface
type MilestoneRepository struct {
	q Queryable
}

// NewMilestoneRepository creates a new milestone repository
func NewMilestoneRepository(db *database.DB) interfaces.MilestoneRepository {
	return &MilestoneRepository{q: db.Pool}
}

// newMilestoneRepositoryWithTx creates a new milestone repository bound to a transaction
func newMilestoneRepositoryWithTx(tx Queryable) interfaces.MilestoneRepository {
	return &MilestoneRepository{q: tx}
}

// TryAward records a milestone unless the owner already holds it. The unique
// (owner, category) constraint makes the insert race-free, so a concurrent
// duplicate award resolves to exactly one winner.
func (r *MilestoneRepository) TryAward(ctx context.Context, owner string, category entities.MilestoneCategory, at time.Time) (bool, error) {
	query := `
		INSERT INTO milestones (owner, category, awarded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner, category) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, owner, category, at)
	if err != nil {
		return false, fmt.Errorf("failed to award milestone %s to owner %s: %w", category, owner, err)
	}

	return result.RowsAffected() > 0, nil
}

// ListByOwner returns all milestones an owner has reached
func (r *MilestoneRepository) ListByOwner(ctx context.Context, owner string) ([]*entities.Milestone, error) {
	query := `
		SELECT id, owner, category, awarded_at
		FROM milestones
		WHERE owner = $1
		ORDER BY awarded_at, id
	`

	rows, err := r.q.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones for owner %s: %w", owner, err)
	}
	defer rows.Close()

	var milestones []*entities.Milestone
	for rows.Next() {
		var milestone entities.Milestone
		err := rows.Scan(
			&milestone.ID,
			&milestone.Owner,
			&milestone.Category,
			&milestone.AwardedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, &milestone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate milestones: %w", err)
	}

	return milestones, nil
}
