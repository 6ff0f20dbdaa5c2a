package repository

import (
	"context"
	"fmt"

	"piggyvault/database"
	"piggyvault/domain/entities"
	"piggyvault/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// rewardPoolID is the fixed key of the single reward pool row
const rewardPoolID = 1

// RewardPoolRepository implements the RewardPoolRepository interface
type RewardPoolRepository struct {
	q Queryable
}

// NewRewardPoolRepository creates a new reward pool repository
func NewRewardPoolRepository(db *database.DB) interfaces.RewardPoolRepository {
	return &RewardPoolRepository{q: db.Pool}
}

// newRewardPoolRepositoryWithTx creates a new reward pool repository bound to a transaction
func newRewardPoolRepositoryWithTx(tx Queryable) interfaces.RewardPoolRepository {
	return &RewardPoolRepository{q: tx}
}

// Get retrieves the pool, creating the zero row if absent
func (r *RewardPoolRepository) Get(ctx context.Context) (*entities.RewardPool, error) {
	query := `
		SELECT id, total_pool, distributed, updated_at
		FROM reward_pool
		WHERE id = $1
	`

	var pool entities.RewardPool
	err := r.q.QueryRow(ctx, query, rewardPoolID).Scan(
		&pool.ID,
		&pool.TotalPool,
		&pool.Distributed,
		&pool.UpdatedAt,
	)

	if err == nil {
		return &pool, nil
	}

	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to get reward pool: %w", err)
	}

	// Migrations seed the row, but recreate it if a rollback removed it
	insertQuery := `
		INSERT INTO reward_pool (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, total_pool, distributed, updated_at
	`

	err = r.q.QueryRow(ctx, insertQuery, rewardPoolID).Scan(
		&pool.ID,
		&pool.TotalPool,
		&pool.Distributed,
		&pool.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		// A concurrent caller created it between the two statements
		return r.Get(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create reward pool: %w", err)
	}

	return &pool, nil
}

// GetForUpdate retrieves the pool with a row lock for the enclosing transaction
func (r *RewardPoolRepository) GetForUpdate(ctx context.Context) (*entities.RewardPool, error) {
	// Ensure the row exists before locking it
	if _, err := r.Get(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, total_pool, distributed, updated_at
		FROM reward_pool
		WHERE id = $1
		FOR UPDATE
	`

	var pool entities.RewardPool
	err := r.q.QueryRow(ctx, query, rewardPoolID).Scan(
		&pool.ID,
		&pool.TotalPool,
		&pool.Distributed,
		&pool.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get reward pool for update: %w", err)
	}

	return &pool, nil
}

// AddFunds increases the total pool
func (r *RewardPoolRepository) AddFunds(ctx context.Context, amount int64) (*entities.RewardPool, error) {
	query := `
		UPDATE reward_pool
		SET total_pool = total_pool + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, total_pool, distributed, updated_at
	`

	var pool entities.RewardPool
	err := r.q.QueryRow(ctx, query, amount, rewardPoolID).Scan(
		&pool.ID,
		&pool.TotalPool,
		&pool.Distributed,
		&pool.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to add %d to reward pool: %w", amount, err)
	}

	return &pool, nil
}

// AddDistributed increases the distributed counter after a bonus payout
func (r *RewardPoolRepository) AddDistributed(ctx context.Context, amount int64) error {
	query := `
		UPDATE reward_pool
		SET distributed = distributed + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, rewardPoolID)
	if err != nil {
		return fmt.Errorf("failed to add %d to distributed total: %w", amount, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reward pool row not found")
	}

	return nil
}
