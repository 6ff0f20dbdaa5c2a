package repository

import (
	"context"
	"fmt"

	"piggyvault/database"
	"piggyvault/domain/entities"
	"piggyvault/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// AccrualRunRepository implements the AccrualRunRepository interface
type AccrualRunRepository struct {
	q Queryable
}

// NewAccrualRunRepository creates a new accrual run repository
func NewAccrualRunRepository(db *database.DB) interfaces.AccrualRunRepository {
	return &AccrualRunRepository{q: db.Pool}
}

// newAccrualRunRepositoryWithTx creates a new accrual run repository bound to a transaction
func newAccrualRunRepositoryWithTx(tx Queryable) interfaces.AccrualRunRepository {
	return &AccrualRunRepository{q: tx}
}

// Record persists a completed sweep and assigns its ID
func (r *AccrualRunRepository) Record(ctx context.Context, run *entities.AccrualRun) error {
	query := `
		INSERT INTO accrual_runs
		(run_at, positions_scanned, positions_updated, interest_accrued, duration_millis)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		run.RunAt,
		run.PositionsScanned,
		run.PositionsUpdated,
		run.InterestAccrued,
		run.DurationMillis,
	).Scan(&run.ID, &run.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record accrual run: %w", err)
	}

	return nil
}

// GetLatest returns the most recent sweep
func (r *AccrualRunRepository) GetLatest(ctx context.Context) (*entities.AccrualRun, error) {
	query := `
		SELECT id, run_at, positions_scanned, positions_updated, interest_accrued,
		       duration_millis, created_at
		FROM accrual_runs
		ORDER BY run_at DESC, id DESC
		LIMIT 1
	`

	var run entities.AccrualRun
	err := r.q.QueryRow(ctx, query).Scan(
		&run.ID,
		&run.RunAt,
		&run.PositionsScanned,
		&run.PositionsUpdated,
		&run.InterestAccrued,
		&run.DurationMillis,
		&run.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest accrual run: %w", err)
	}

	return &run, nil
}
