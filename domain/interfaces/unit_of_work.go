package interfaces

import "context"

// UnitOfWork defines the interface for transactional repository operations.
// Every mutating vault operation runs inside exactly one unit of work, so a
// failure at any point rolls back all of its state changes together.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	DepositRepository() DepositRepository
	YieldPositionRepository() YieldPositionRepository
	SavingsPlanRepository() SavingsPlanRepository
	RewardPoolRepository() RewardPoolRepository
	VaultConfigRepository() VaultConfigRepository
	TokenAccountRepository() TokenAccountRepository
	LedgerEntryRepository() LedgerEntryRepository
	UserSummaryRepository() UserSummaryRepository
	MilestoneRepository() MilestoneRepository
	AccrualRunRepository() AccrualRunRepository

	// EventBus returns the publisher that buffers events until commit
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
