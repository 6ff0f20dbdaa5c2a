package interfaces

import (
	"context"
	"time"

	"piggyvault/domain/entities"
	"piggyvault/domain/events"
)

// DepositRepository defines the interface for deposit data access.
// Deposit rows are append-only: status moves to a terminal value exactly once
// and rows are never deleted.
type DepositRepository interface {
	// Create persists a new deposit and assigns its ID
	Create(ctx context.Context, deposit *entities.Deposit) error

	// GetByID retrieves a deposit by its ID, nil if not found
	GetByID(ctx context.Context, id int64) (*entities.Deposit, error)

	// GetByIDForUpdate retrieves a deposit with a row lock for the enclosing transaction
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Deposit, error)

	// ListIDsByOwner returns the owner's deposit IDs in creation order
	ListIDsByOwner(ctx context.Context, owner string) ([]int64, error)

	// ListByOwner returns the owner's deposits in creation order
	ListByOwner(ctx context.Context, owner string) ([]*entities.Deposit, error)

	// MarkWithdrawn moves an open deposit to a terminal status with its settlement amounts
	MarkWithdrawn(ctx context.Context, id int64, status entities.DepositStatus, accruedInterest, bonusPaid, penaltyPaid int64, withdrawnAt time.Time) error

	// CountOpenByOwner returns the number of open deposits for an owner
	CountOpenByOwner(ctx context.Context, owner string) (int64, error)

	// SumOpenPrincipalByOwner returns the locked principal across an owner's open deposits
	SumOpenPrincipalByOwner(ctx context.Context, owner string) (int64, error)

	// CumulativePlanDays returns the sum of plan durations in days across all
	// of the owner's deposits, including withdrawn ones
	CumulativePlanDays(ctx context.Context, owner string) (int64, error)

	// MostUsedPlanID returns the plan the owner deposits into most often, nil if none
	MostUsedPlanID(ctx context.Context, owner string) (*int64, error)
}

// YieldPositionRepository defines the interface for accrual position data access
type YieldPositionRepository interface {
	// Create persists a new position and assigns its ID
	Create(ctx context.Context, position *entities.YieldPosition) error

	// GetByID retrieves a position by its ID, nil if not found
	GetByID(ctx context.Context, id int64) (*entities.YieldPosition, error)

	// GetByIDForUpdate retrieves a position with a row lock for the enclosing transaction
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.YieldPosition, error)

	// UpdateAccrual writes the position's new accrued interest and watermark
	UpdateAccrual(ctx context.Context, id int64, accruedInterest int64, lastUpdateTime time.Time) error

	// Finalize freezes the position: writes final accrual values and clears is_active
	Finalize(ctx context.Context, id int64, accruedInterest int64, lastUpdateTime, finalizedAt time.Time) error

	// ApplyBonus records a pool-funded bonus on a finalized position
	ApplyBonus(ctx context.Context, id int64, bonusAmount int64) error

	// ListActiveIDs returns the IDs of all active positions in ID order
	ListActiveIDs(ctx context.Context) ([]int64, error)

	// CountActive returns the number of active positions
	CountActive(ctx context.Context) (int64, error)
}

// SavingsPlanRepository defines the interface for plan catalog data access
type SavingsPlanRepository interface {
	// GetByID retrieves a plan by its ID, nil if not found
	GetByID(ctx context.Context, id int64) (*entities.SavingsPlan, error)

	// Upsert creates or replaces a plan definition
	Upsert(ctx context.Context, plan *entities.SavingsPlan) error

	// UpdateMultiplier sets a plan's APY multiplier
	UpdateMultiplier(ctx context.Context, planID, multiplierBasisPoints int64) error

	// List returns all plans ordered by ID, optionally only active ones
	List(ctx context.Context, activeOnly bool) ([]*entities.SavingsPlan, error)
}

// RewardPoolRepository defines the interface for the bonus pool singleton row
type RewardPoolRepository interface {
	// Get retrieves the pool, creating the zero row if absent
	Get(ctx context.Context) (*entities.RewardPool, error)

	// GetForUpdate retrieves the pool with a row lock for the enclosing transaction
	GetForUpdate(ctx context.Context) (*entities.RewardPool, error)

	// AddFunds increases the total pool
	AddFunds(ctx context.Context, amount int64) (*entities.RewardPool, error)

	// AddDistributed increases the distributed counter after a bonus payout
	AddDistributed(ctx context.Context, amount int64) error
}

// VaultConfigRepository defines the interface for the engine's mutable configuration row
type VaultConfigRepository interface {
	// Get retrieves the config, creating the default row if absent
	Get(ctx context.Context) (*entities.VaultConfig, error)

	// SetGlobalMultiplier updates the global APY multiplier
	SetGlobalMultiplier(ctx context.Context, multiplierBasisPoints int64) error
}

// TokenAccountRepository defines the interface for token balance data access
type TokenAccountRepository interface {
	// GetByOwner retrieves an account, nil if not found
	GetByOwner(ctx context.Context, owner string) (*entities.TokenAccount, error)

	// GetByOwnerForUpdate retrieves an account with a row lock, creating a zero
	// balance row first if absent
	GetByOwnerForUpdate(ctx context.Context, owner string) (*entities.TokenAccount, error)

	// UpdateBalance writes an account's new balance
	UpdateBalance(ctx context.Context, owner string, newBalance int64) error
}

// LedgerEntryRepository defines the interface for the append-only transfer audit trail
type LedgerEntryRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, entry *entities.LedgerEntry) error

	// GetByOwner returns the most recent entries for an owner
	GetByOwner(ctx context.Context, owner string, limit int) ([]*entities.LedgerEntry, error)
}

// UserSummaryRepository defines the interface for the per-owner counter cache
type UserSummaryRepository interface {
	// GetByOwner retrieves a summary, nil if the owner has no activity
	GetByOwner(ctx context.Context, owner string) (*entities.UserSummary, error)

	// ApplyDeposit folds a new deposit into the owner's counters
	ApplyDeposit(ctx context.Context, owner string, amount, planID int64, at time.Time) error

	// ApplyWithdrawal folds a settlement into the owner's counters. earned is
	// interest plus bonus for a matured withdrawal, zero for an emergency exit.
	ApplyWithdrawal(ctx context.Context, owner string, withdrawn, earned int64, at time.Time) error
}

// MilestoneRepository defines the interface for milestone idempotence records
type MilestoneRepository interface {
	// TryAward records a milestone if the owner has not reached it before.
	// Returns true when this call awarded it, false when it already existed.
	TryAward(ctx context.Context, owner string, category entities.MilestoneCategory, at time.Time) (bool, error)

	// ListByOwner returns all milestones an owner has reached
	ListByOwner(ctx context.Context, owner string) ([]*entities.Milestone, error)
}

// AccrualRunRepository defines the interface for accrual sweep audit records
type AccrualRunRepository interface {
	// Record persists a completed sweep and assigns its ID
	Record(ctx context.Context, run *entities.AccrualRun) error

	// GetLatest returns the most recent sweep, nil if none have run
	GetLatest(ctx context.Context) (*entities.AccrualRun, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events during a transaction and flushes
// them only after a successful commit
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all buffered events, best-effort
	Flush(ctx context.Context)

	// Discard drops all buffered events
	Discard()
}
