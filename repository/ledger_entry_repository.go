package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"piggyvault/database"
	"piggyvault/domain/entities"
	"piggyvault/domain/interfaces"
)

// LedgerEntryRepository implements the LedgerEntryRepository interface
type LedgerEntryRepository struct {
	q Queryable
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *database.DB) interfaces.LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

// NewLedgerEntryRepositoryWithTx creates a new ledger entry repository bound
// to a transaction. Exported for admin tooling that runs outside a unit of work.
func NewLedgerEntryRepositoryWithTx(tx Queryable) interfaces.LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Record creates a new ledger entry
func (r *LedgerEntryRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger metadata: %w", err)
	}

	query := `
		INSERT INTO ledger_entries
		(owner, entry_type, amount, balance_before, balance_after, deposit_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.Owner,
		entry.EntryType,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.DepositID,
		metadataJSON,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record ledger entry for owner %s: %w", entry.Owner, err)
	}

	return nil
}

// GetByOwner returns the most recent entries for an owner
func (r *LedgerEntryRepository) GetByOwner(ctx context.Context, owner string, limit int) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, owner, entry_type, amount, balance_before, balance_after,
		       deposit_id, metadata, created_at
		FROM ledger_entries
		WHERE owner = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for owner %s: %w", owner, err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		var entry entities.LedgerEntry
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.Owner,
			&entry.EntryType,
			&entry.Amount,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.DepositID,
			&metadataJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal ledger metadata: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
