package repository

import (
	"context"
	"fmt"

	"piggyvault/database"
	"piggyvault/domain/entities"
	"piggyvault/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// vaultConfigID is the fixed key of the single vault config row
const vaultConfigID = 1

// VaultConfigRepository implements the VaultConfigRepository interface
type VaultConfigRepository struct {
	q Queryable
}

// NewVaultConfigRepository creates a new vault config repository
func NewVaultConfigRepository(db *database.DB) interfaces.VaultConfigRepository {
	return &VaultConfigRepository{q: db.Pool}
}

// newVaultConfigRepositoryWithTx creates a new vault config repository bound to a transaction
func newVaultConfigRepositoryWithTx(tx Queryable) interfaces.VaultConfigRepository {
	return &VaultConfigRepository{q: tx}
}

// Get retrieves the config, creating the default row if absent
func (r *VaultConfigRepository) Get(ctx context.Context) (*entities.VaultConfig, error) {
	query := `
		SELECT id, global_multiplier_basis_points, updated_at
		FROM vault_config
		WHERE id = $1
	`

	var cfg entities.VaultConfig
	err := r.q.QueryRow(ctx, query, vaultConfigID).Scan(
		&cfg.ID,
		&cfg.GlobalMultiplierBasisPoints,
		&cfg.UpdatedAt,
	)

	if err == nil {
		return &cfg, nil
	}

	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to get vault config: %w", err)
	}

	insertQuery := `
		INSERT INTO vault_config (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, global_multiplier_basis_points, updated_at
	`

	err = r.q.QueryRow(ctx, insertQuery, vaultConfigID).Scan(
		&cfg.ID,
		&cfg.GlobalMultiplierBasisPoints,
		&cfg.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return r.Get(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create vault config: %w", err)
	}

	return &cfg, nil
}

// SetGlobalMultiplier updates the global APY multiplier
func (r *VaultConfigRepository) SetGlobalMultiplier(ctx context.Context, multiplierBasisPoints int64) error {
	// Ensure the row exists before updating it
	if _, err := r.Get(ctx); err != nil {
		return err
	}

	query := `
		UPDATE vault_config
		SET global_multiplier_basis_points = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, multiplierBasisPoints, vaultConfigID)
	if err != nil {
		return fmt.Errorf("failed to set global multiplier: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("vault config row not found")
	}

	return nil
}
