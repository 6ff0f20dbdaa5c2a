package repository

import (
	"context"
	"fmt"

	"piggyvault/database"
	"piggyvault/domain/entities"
	"piggyvault/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// SavingsPlanRepository implements the SavingsPlanRepository interface
type SavingsPlanRepository struct {
	q Queryable
}

// NewSavingsPlanRepository creates a new savings plan repository
func NewSavingsPlanRepository(db *database.DB) interfaces.SavingsPlanRepository {
	return &SavingsPlanRepository{q: db.Pool}
}

// newSavingsPlanRepositoryWithTx creates a new savings plan repository bound to a transaction
func newSavingsPlanRepositoryWithTx(tx Queryable) interfaces.SavingsPlanRepository {
	return &SavingsPlanRepository{q: tx}
}

// GetByID retrieves a plan by its ID
func (r *SavingsPlanRepository) GetByID(ctx context.Context, id int64) (*entities.SavingsPlan, error) {
	query := `
		SELECT id, duration_seconds, base_apy_basis_points, min_amount, max_amount,
		       penalty_rate_basis_points, minimum_hold_seconds, plan_multiplier_basis_points,
		       active, created_at, updated_at
		FROM savings_plans
		WHERE id = $1
	`

	var plan entities.SavingsPlan
	err := r.q.QueryRow(ctx, query, id).Scan(
		&plan.ID,
		&plan.DurationSeconds,
		&plan.BaseAPYBasisPoints,
		&plan.MinAmount,
		&plan.MaxAmount,
		&plan.PenaltyRateBasisPoints,
		&plan.MinimumHoldSeconds,
		&plan.PlanMultiplierBasisPoints,
		&plan.Active,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan by ID %d: %w", id, err)
	}

	return &plan, nil
}

// Upsert creates or replaces a plan definition
func (r *SavingsPlanRepository) Upsert(ctx context.Context, plan *entities.SavingsPlan) error {
	query := `
		INSERT INTO savings_plans
		(id, duration_seconds, base_apy_basis_points, min_amount, max_amount,
		 penalty_rate_basis_points, minimum_hold_seconds, plan_multiplier_basis_points, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			duration_seconds = EXCLUDED.duration_seconds,
			base_apy_basis_points = EXCLUDED.base_apy_basis_points,
			min_amount = EXCLUDED.min_amount,
			max_amount = EXCLUDED.max_amount,
			penalty_rate_basis_points = EXCLUDED.penalty_rate_basis_points,
			minimum_hold_seconds = EXCLUDED.minimum_hold_seconds,
			plan_multiplier_basis_points = EXCLUDED.plan_multiplier_basis_points,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		plan.ID,
		plan.DurationSeconds,
		plan.BaseAPYBasisPoints,
		plan.MinAmount,
		plan.MaxAmount,
		plan.PenaltyRateBasisPoints,
		plan.MinimumHoldSeconds,
		plan.PlanMultiplierBasisPoints,
		plan.Active,
	).Scan(&plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert plan %d: %w", plan.ID, err)
	}

	return nil
}

// UpdateMultiplier sets a plan's APY multiplier
func (r *SavingsPlanRepository) UpdateMultiplier(ctx context.Context, planID, multiplierBasisPoints int64) error {
	query := `
		UPDATE savings_plans
		SET plan_multiplier_basis_points = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, multiplierBasisPoints, planID)
	if err != nil {
		return fmt.Errorf("failed to update multiplier for plan %d: %w", planID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("plan %d not found", planID)
	}

	return nil
}

// List returns all plans ordered by ID, optionally only active ones
func (r *SavingsPlanRepository) List(ctx context.Context, activeOnly bool) ([]*entities.SavingsPlan, error) {
	query := `
		SELECT id, duration_seconds, base_apy_basis_points, min_amount, max_amount,
		       penalty_rate_basis_points, minimum_hold_seconds, plan_multiplier_basis_points,
		       active, created_at, updated_at
		FROM savings_plans
	`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*entities.SavingsPlan
	for rows.Next() {
		var plan entities.SavingsPlan
		err := rows.Scan(
			&plan.ID,
			&plan.DurationSeconds,
			&plan.BaseAPYBasisPoints,
			&plan.MinAmount,
			&plan.MaxAmount,
			&plan.PenaltyRateBasisPoints,
			&plan.MinimumHoldSeconds,
			&plan.PlanMultiplierBasisPoints,
			&plan.Active,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, &plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}

	return plans, nil
}
