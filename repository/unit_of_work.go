package repository

import (
	"context"
	"fmt"

	"piggyvault/database"
	"piggyvault/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	depositRepo            interfaces.DepositRepository
	positionRepo           interfaces.YieldPositionRepository
	planRepo               interfaces.SavingsPlanRepository
	rewardPoolRepo         interfaces.RewardPoolRepository
	vaultConfigRepo        interfaces.VaultConfigRepository
	tokenAccountRepo       interfaces.TokenAccountRepository
	ledgerRepo             interfaces.LedgerEntryRepository
	userSummaryRepo        interfaces.UserSummaryRepository
	milestoneRepo          interfaces.MilestoneRepository
	accrualRunRepo         interfaces.AccrualRunRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

type unitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) interfaces.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.depositRepo = newDepositRepositoryWithTx(tx)
	u.positionRepo = newYieldPositionRepositoryWithTx(tx)
	u.planRepo = newSavingsPlanRepositoryWithTx(tx)
	u.rewardPoolRepo = newRewardPoolRepositoryWithTx(tx)
	u.vaultConfigRepo = newVaultConfigRepositoryWithTx(tx)
	u.tokenAccountRepo = NewTokenAccountRepositoryWithTx(tx)
	u.ledgerRepo = NewLedgerEntryRepositoryWithTx(tx)
	u.userSummaryRepo = newUserSummaryRepositoryWithTx(tx)
	u.milestoneRepo = newMilestoneRepositoryWithTx(tx)
	u.accrualRunRepo = newAccrualRunRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// DepositRepository returns the deposit repository for this unit of work
func (u *unitOfWork) DepositRepository() interfaces.DepositRepository {
	if u.depositRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.depositRepo
}

// YieldPositionRepository returns the yield position repository for this unit of work
func (u *unitOfWork) YieldPositionRepository() interfaces.YieldPositionRepository {
	if u.positionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.positionRepo
}

// SavingsPlanRepository returns the savings plan repository for this unit of work
func (u *unitOfWork) SavingsPlanRepository() interfaces.SavingsPlanRepository {
	if u.planRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.planRepo
}

// RewardPoolRepository returns the reward pool repository for this unit of work
func (u *unitOfWork) RewardPoolRepository() interfaces.RewardPoolRepository {
	if u.rewardPoolRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.rewardPoolRepo
}

// VaultConfigRepository returns the vault config repository for this unit of work
func (u *unitOfWork) VaultConfigRepository() interfaces.VaultConfigRepository {
	if u.vaultConfigRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.vaultConfigRepo
}

// TokenAccountRepository returns the token account repository for this unit of work
func (u *unitOfWork) TokenAccountRepository() interfaces.TokenAccountRepository {
	if u.tokenAccountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.tokenAccountRepo
}

// LedgerEntryRepository returns the ledger entry repository for this unit of work
func (u *unitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// UserSummaryRepository returns the user summary repository for this unit of work
func (u *unitOfWork) UserSummaryRepository() interfaces.UserSummaryRepository {
	if u.userSummaryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userSummaryRepo
}

// MilestoneRepository returns the milestone repository for this unit of work
func (u *unitOfWork) MilestoneRepository() interfaces.MilestoneRepository {
	if u.milestoneRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.milestoneRepo
}

// AccrualRunRepository returns the accrual run repository for this unit of work
func (u *unitOfWork) AccrualRunRepository() interfaces.AccrualRunRepository {
	if u.accrualRunRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accrualRunRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
