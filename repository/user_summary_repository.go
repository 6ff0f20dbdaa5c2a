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

// UserSummaryRepository implements the UserSummaryRepository interface
type UserSummaryRepository struct {
	q Queryable
}

// NewUserSummaryRepository creates a new user summary repository
func NewUserSummaryRepository(db *database.DB) interfaces.UserSummaryRepository {
	return &UserSummaryRepository{q: db.Pool}
}

// newUserSummaryRepositoryWithTx creates a new user summary repository bound to a transaction
func newUserSummaryRepositoryWithTx(tx Queryable) interfaces.UserSummaryRepository {
	return &UserSummaryRepository{q: tx}
}

// GetByOwner retrieves a summary with live deposit figures computed alongside
// the stored counters
func (r *UserSummaryRepository) GetByOwner(ctx context.Context, owner string) (*entities.UserSummary, error) {
	query := `
		SELECT us.owner, us.total_deposited, us.total_withdrawn, us.total_earned,
		       us.transaction_count, us.last_activity, us.preferred_plan_id,
		       COALESCE(
		           (SELECT COUNT(*)
		            FROM deposits d
		            WHERE d.owner = us.owner AND d.status = 'open'),
		           0
		       ) AS active_deposits,
		       COALESCE(
		           (SELECT SUM(d.amount)
		            FROM deposits d
		            WHERE d.owner = us.owner AND d.status = 'open'),
		           0
		       ) AS locked_principal
		FROM user_summaries us
		WHERE us.owner = $1
	`

	var summary entities.UserSummary
	err := r.q.QueryRow(ctx, query, owner).Scan(
		&summary.Owner,
		&summary.TotalDeposited,
		&summary.TotalWithdrawn,
		&summary.TotalEarned,
		&summary.TransactionCount,
		&summary.LastActivity,
		&summary.PreferredPlanID,
		&summary.ActiveDeposits,
		&summary.LockedPrincipal,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary for owner %s: %w", owner, err)
	}

	return &summary, nil
}

// ApplyDeposit folds a new deposit into the owner's counters. The preferred
// plan is recomputed from the deposits table, which already holds the new row
// inside the enclosing transaction.
func (r *UserSummaryRepository) ApplyDeposit(ctx context.Context, owner string, amount, planID int64, at time.Time) error {
	query := `
		INSERT INTO user_summaries (owner, total_deposited, transaction_count, last_activity, preferred_plan_id)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (owner) DO UPDATE SET
			total_deposited = user_summaries.total_deposited + EXCLUDED.total_deposited,
			transaction_count = user_summaries.transaction_count + 1,
			last_activity = EXCLUDED.last_activity,
			preferred_plan_id = (
				SELECT d.plan_id
				FROM deposits d
				WHERE d.owner = user_summaries.owner
				GROUP BY d.plan_id
				ORDER BY COUNT(*) DESC, d.plan_id
				LIMIT 1
			)
	`

	_, err := r.q.Exec(ctx, query, owner, amount, at, planID)
	if err != nil {
		return fmt.Errorf("failed to apply deposit to summary for owner %s: %w", owner, err)
	}

	return nil
}

// ApplyWithdrawal folds a settlement into the owner's counters
func (r *UserSummaryRepository) ApplyWithdrawal(ctx context.Context, owner string, withdrawn, earned int64, at time.Time) error {
	query := `
		UPDATE user_summaries
		SET total_withdrawn = total_withdrawn + $2,
		    total_earned = total_earned + $3,
		    transaction_count = transaction_count + 1,
		    last_activity = $4
		WHERE owner = $1
	`

	result, err := r.q.Exec(ctx, query, owner, withdrawn, earned, at)
	if err != nil {
		return fmt.Errorf("failed to apply withdrawal to summary for owner %s: %w", owner, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("summary for owner %s not found", owner)
	}

	return nil
}
