package repository

import (
	"context"
	"fmt"
	"time"

	"piggyvault/database"
	"piggyvault/domain/entities"
	"piggyvault/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// YieldPositionRepository implements the YieldPositionRepository interface
type YieldPositionRepository struct {
	q Queryable
}

// NewYieldPositionRepository creates a new yield position repository
func NewYieldPositionRepository(db *database.DB) interfaces.YieldPositionRepository {
	return &YieldPositionRepository{q: db.Pool}
}

// newYieldPositionRepositoryWithTx creates a new yield position repository bound to a transaction
func newYieldPositionRepositoryWithTx(tx Queryable) interfaces.YieldPositionRepository {
	return &YieldPositionRepository{q: tx}
}

// Create persists a new position and assigns its ID
func (r *YieldPositionRepository) Create(ctx context.Context, position *entities.YieldPosition) error {
	query := `
		INSERT INTO yield_positions
		(principal, accrued_interest, bonus_awarded, start_time, end_time,
		 effective_apy_basis_points, last_update_time, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		position.Principal,
		position.AccruedInterest,
		position.BonusAwarded,
		position.StartTime,
		position.EndTime,
		position.EffectiveAPYBasisPoints,
		position.LastUpdateTime,
		position.IsActive,
	).Scan(&position.ID)

	if err != nil {
		return fmt.Errorf("failed to create yield position: %w", err)
	}

	return nil
}

// GetByID retrieves a position by its ID
func (r *YieldPositionRepository) GetByID(ctx context.Context, id int64) (*entities.YieldPosition, error) {
	query := `
		SELECT id, principal, accrued_interest, bonus_awarded, start_time, end_time,
		       effective_apy_basis_points, last_update_time, is_active, finalized_at
		FROM yield_positions
		WHERE id = $1
	`

	position, err := r.scanPosition(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get yield position by ID %d: %w", id, err)
	}

	return position, nil
}

// GetByIDForUpdate retrieves a position by ID with a row lock for update
func (r *YieldPositionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.YieldPosition, error) {
	query := `
		SELECT id, principal, accrued_interest, bonus_awarded, start_time, end_time,
		       effective_apy_basis_points, last_update_time, is_active, finalized_at
		FROM yield_positions
		WHERE id = $1
		FOR UPDATE
	`

	position, err := r.scanPosition(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get yield position %d for update: %w", id, err)
	}

	return position, nil
}

// UpdateAccrual writes the position's new accrued interest and watermark
func (r *YieldPositionRepository) UpdateAccrual(ctx context.Context, id int64, accruedInterest int64, lastUpdateTime time.Time) error {
	query := `
		UPDATE yield_positions
		SET accrued_interest = $1, last_update_time = $2
		WHERE id = $3 AND is_active
	`

	result, err := r.q.Exec(ctx, query, accruedInterest, lastUpdateTime, id)
	if err != nil {
		return fmt.Errorf("failed to update accrual for position %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("yield position %d is not active", id)
	}

	return nil
}

// Finalize freezes the position with its final accrual values
func (r *YieldPositionRepository) Finalize(ctx context.Context, id int64, accruedInterest int64, lastUpdateTime, finalizedAt time.Time) error {
	query := `
		UPDATE yield_positions
		SET accrued_interest = $1, last_update_time = $2, is_active = FALSE, finalized_at = $3
		WHERE id = $4 AND is_active
	`

	result, err := r.q.Exec(ctx, query, accruedInterest, lastUpdateTime, finalizedAt, id)
	if err != nil {
		return fmt.Errorf("failed to finalize position %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("yield position %d is not active", id)
	}

	return nil
}

// ApplyBonus records a pool-funded bonus on a position
func (r *YieldPositionRepository) ApplyBonus(ctx context.Context, id int64, bonusAmount int64) error {
	query := `
		UPDATE yield_positions
		SET bonus_awarded = bonus_awarded + $1
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, bonusAmount, id)
	if err != nil {
		return fmt.Errorf("failed to apply bonus to position %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("yield position %d not found", id)
	}

	return nil
}

// ListActiveIDs returns the IDs of all active positions in ID order
func (r *YieldPositionRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT id
		FROM yield_positions
		WHERE is_active
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active positions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan position ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate position IDs: %w", err)
	}

	return ids, nil
}

// CountActive returns the number of active positions
func (r *YieldPositionRepository) CountActive(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM yield_positions
		WHERE is_active
	`

	var count int64
	if err := r.q.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active positions: %w", err)
	}

	return count, nil
}

// scanPosition reads a full position row from a single-row query
func (r *YieldPositionRepository) scanPosition(row pgx.Row) (*entities.YieldPosition, error) {
	var position entities.YieldPosition
	err := row.Scan(
		&position.ID,
		&position.Principal,
		&position.AccruedInterest,
		&position.BonusAwarded,
		&position.StartTime,
		&position.EndTime,
		&position.EffectiveAPYBasisPoints,
		&position.LastUpdateTime,
		&position.IsActive,
		&position.FinalizedAt,
	)
	if err != nil {
		return nil, err
	}
	return &position, nil
}
