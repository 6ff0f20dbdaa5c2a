package repository

import (
	"context"
	"fmt"

	"piggyvault/database"
	"piggyvault/domain/entities"
	"piggyvault/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// TokenAccountRepository implements the TokenAccountRepository interface
type TokenAccountRepository struct {
	q Queryable
}

// NewTokenAccountRepository creates a new token account repository
func NewTokenAccountRepository(db *database.DB) interfaces.TokenAccountRepository {
	return &TokenAccountRepository{q: db.Pool}
}

// NewTokenAccountRepositoryWithTx creates a new token account repository bound
// to a transaction. Exported for admin tooling that runs outside a unit of work.
func NewTokenAccountRepositoryWithTx(tx Queryable) interfaces.TokenAccountRepository {
	return &TokenAccountRepository{q: tx}
}

// GetByOwner retrieves an account by owner
func (r *TokenAccountRepository) GetByOwner(ctx context.Context, owner string) (*entities.TokenAccount, error) {
	query := `
		SELECT owner, balance, created_at, updated_at
		FROM token_accounts
		WHERE owner = $1
	`

	var account entities.TokenAccount
	err := r.q.QueryRow(ctx, query, owner).Scan(
		&account.Owner,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token account for owner %s: %w", owner, err)
	}

	return &account, nil
}

// GetByOwnerForUpdate retrieves an account with a row lock, creating a zero
// balance row first if the owner has none yet
func (r *TokenAccountRepository) GetByOwnerForUpdate(ctx context.Context, owner string) (*entities.TokenAccount, error) {
	insertQuery := `
		INSERT INTO token_accounts (owner) VALUES ($1)
		ON CONFLICT (owner) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, insertQuery, owner); err != nil {
		return nil, fmt.Errorf("failed to ensure token account for owner %s: %w", owner, err)
	}

	query := `
		SELECT owner, balance, created_at, updated_at
		FROM token_accounts
		WHERE owner = $1
		FOR UPDATE
	`

	var account entities.TokenAccount
	err := r.q.QueryRow(ctx, query, owner).Scan(
		&account.Owner,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to lock token account for owner %s: %w", owner, err)
	}

	return &account, nil
}

// UpdateBalance writes an account's new balance
func (r *TokenAccountRepository) UpdateBalance(ctx context.Context, owner string, newBalance int64) error {
	query := `
		UPDATE token_accounts
		SET balance = $1, updated_at = NOW()
		WHERE owner = $2
	`

	result, err := r.q.Exec(ctx, query, newBalance, owner)
	if err != nil {
		return fmt.Errorf("failed to update balance for owner %s: %w", owner, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("token account for owner %s not found", owner)
	}

	return nil
}
