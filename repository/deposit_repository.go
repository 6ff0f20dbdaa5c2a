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

// DepositRepository implements the DepositRepository interface
type DepositRepository struct {
	q Queryable
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *database.DB) interfaces.DepositRepository {
	return &DepositRepository{q: db.Pool}
}

// newDepositRepositoryWithTx creates a new deposit repository bound to a transaction
func newDepositRepositoryWithTx(tx Queryable) interfaces.DepositRepository {
	return &DepositRepository{q: tx}
}

// Create persists a new deposit and assigns its ID
func (r *DepositRepository) Create(ctx context.Context, deposit *entities.Deposit) error {
	query := `
		INSERT INTO deposits (owner, amount, plan_id, position_id, created_at, maturity_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		deposit.Owner,
		deposit.Amount,
		deposit.PlanID,
		deposit.PositionID,
		deposit.CreatedAt,
		deposit.MaturityAt,
		deposit.Status,
	).Scan(&deposit.ID)

	if err != nil {
		return fmt.Errorf("failed to create deposit for owner %s: %w", deposit.Owner, err)
	}

	return nil
}

// GetByID retrieves a deposit by its ID
func (r *DepositRepository) GetByID(ctx context.Context, id int64) (*entities.Deposit, error) {
	query := `
		SELECT id, owner, amount, plan_id, position_id, created_at, maturity_at,
		       status, accrued_interest_at_withdrawal, bonus_paid, penalty_paid, withdrawn_at
		FROM deposits
		WHERE id = $1
	`

	deposit, err := r.scanDeposit(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit by ID %d: %w", id, err)
	}

	return deposit, nil
}

// GetByIDForUpdate retrieves a deposit by ID with a row lock for update
func (r *DepositRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Deposit, error) {
	query := `
		SELECT id, owner, amount, plan_id, position_id, created_at, maturity_at,
		       status, accrued_interest_at_withdrawal, bonus_paid, penalty_paid, withdrawn_at
		FROM deposits
		WHERE id = $1
		FOR UPDATE
	`

	deposit, err := r.scanDeposit(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit %d for update: %w", id, err)
	}

	return deposit, nil
}

// ListIDsByOwner returns the owner's deposit IDs in creation order
func (r *DepositRepository) ListIDsByOwner(ctx context.Context, owner string) ([]int64, error) {
	query := `
		SELECT id
		FROM deposits
		WHERE owner = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposit IDs for owner %s: %w", owner, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deposit ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposit IDs: %w", err)
	}

	return ids, nil
}

// ListByOwner returns the owner's deposits in creation order
func (r *DepositRepository) ListByOwner(ctx context.Context, owner string) ([]*entities.Deposit, error) {
	query := `
		SELECT id, owner, amount, plan_id, position_id, created_at, maturity_at,
		       status, accrued_interest_at_withdrawal, bonus_paid, penalty_paid, withdrawn_at
		FROM deposits
		WHERE owner = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits for owner %s: %w", owner, err)
	}
	defer rows.Close()

	var deposits []*entities.Deposit
	for rows.Next() {
		var deposit entities.Deposit
		err := rows.Scan(
			&deposit.ID,
			&deposit.Owner,
			&deposit.Amount,
			&deposit.PlanID,
			&deposit.PositionID,
			&deposit.CreatedAt,
			&deposit.MaturityAt,
			&deposit.Status,
			&deposit.AccruedInterestAtWithdrawal,
			&deposit.BonusPaid,
			&deposit.PenaltyPaid,
			&deposit.WithdrawnAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, &deposit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposits: %w", err)
	}

	return deposits, nil
}

// MarkWithdrawn moves an open deposit to a terminal status with its settlement
// amounts. The status guard makes a second settlement of the same deposit fail
// even if callers race past the row lock.
func (r *DepositRepository) MarkWithdrawn(ctx context.Context, id int64, status entities.DepositStatus, accruedInterest, bonusPaid, penaltyPaid int64, withdrawnAt time.Time) error {
	query := `
		UPDATE deposits
		SET status = $1, accrued_interest_at_withdrawal = $2, bonus_paid = $3,
		    penalty_paid = $4, withdrawn_at = $5
		WHERE id = $6 AND status = 'open'
	`

	result, err := r.q.Exec(ctx, query, status, accruedInterest, bonusPaid, penaltyPaid, withdrawnAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark deposit %d withdrawn: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("deposit %d is not open", id)
	}

	return nil
}

// CountOpenByOwner returns the number of open deposits for an owner
func (r *DepositRepository) CountOpenByOwner(ctx context.Context, owner string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM deposits
		WHERE owner = $1 AND status = 'open'
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, owner).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open deposits for owner %s: %w", owner, err)
	}

	return count, nil
}

// SumOpenPrincipalByOwner returns the locked principal across an owner's open deposits
func (r *DepositRepository) SumOpenPrincipalByOwner(ctx context.Context, owner string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM deposits
		WHERE owner = $1 AND status = 'open'
	`

	var total int64
	if err := r.q.QueryRow(ctx, query, owner).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum open principal for owner %s: %w", owner, err)
	}

	return total, nil
}

// CumulativePlanDays returns the sum of plan durations in days across all of
// the owner's deposits, withdrawn ones included
func (r *DepositRepository) CumulativePlanDays(ctx context.Context, owner string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(sp.duration_seconds / 86400), 0)
		FROM deposits d
		JOIN savings_plans sp ON sp.id = d.plan_id
		WHERE d.owner = $1
	`

	var days int64
	if err := r.q.QueryRow(ctx, query, owner).Scan(&days); err != nil {
		return 0, fmt.Errorf("failed to sum plan days for owner %s: %w", owner, err)
	}

	return days, nil
}

// MostUsedPlanID returns the plan the owner deposits into most often
func (r *DepositRepository) MostUsedPlanID(ctx context.Context, owner string) (*int64, error) {
	query := `
		SELECT plan_id
		FROM deposits
		WHERE owner = $1
		GROUP BY plan_id
		ORDER BY COUNT(*) DESC, plan_id
		LIMIT 1
	`

	var planID int64
	err := r.q.QueryRow(ctx, query, owner).Scan(&planID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get most used plan for owner %s: %w", owner, err)
	}

	return &planID, nil
}

// scanDeposit reads a full deposit row from a single-row query
func (r *DepositRepository) scanDeposit(row pgx.Row) (*entities.Deposit, error) {
	var deposit entities.Deposit
	err := row.Scan(
		&deposit.ID,
		&deposit.Owner,
		&deposit.Amount,
		&deposit.PlanID,
		&deposit.PositionID,
		&deposit.CreatedAt,
		&deposit.MaturityAt,
		&deposit.Status,
		&deposit.AccruedInterestAtWithdrawal,
		&deposit.BonusPaid,
		&deposit.PenaltyPaid,
		&deposit.WithdrawnAt,
	)
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}
