package application

import (
	"context"

	"piggyvault/domain/interfaces"
	"piggyvault/domain/services"
)

// TestUnitOfWork implements interfaces.UnitOfWork over the shared service
// test mocks so application code can be exercised without a database. It
// counts transaction state transitions and can be primed to fail Begin or
// Commit.
type TestUnitOfWork struct {
	Mocks *services.TestMocks

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int

	BeginErr  error
	CommitErr error
}

func (u *TestUnitOfWork) Begin(ctx context.Context) error {
	u.BeginCalls++
	return u.BeginErr
}

func (u *TestUnitOfWork) Commit() error {
	if u.CommitErr != nil {
		return u.CommitErr
	}
	u.CommitCalls++
	return nil
}

func (u *TestUnitOfWork) Rollback() error {
	u.RollbackCalls++
	return nil
}

func (u *TestUnitOfWork) DepositRepository() interfaces.DepositRepository {
	return u.Mocks.DepositRepo
}

func (u *TestUnitOfWork) YieldPositionRepository() interfaces.YieldPositionRepository {
	return u.Mocks.PositionRepo
}

func (u *TestUnitOfWork) SavingsPlanRepository() interfaces.SavingsPlanRepository {
	return u.Mocks.PlanRepo
}

func (u *TestUnitOfWork) RewardPoolRepository() interfaces.RewardPoolRepository {
	return u.Mocks.PoolRepo
}

func (u *TestUnitOfWork) VaultConfigRepository() interfaces.VaultConfigRepository {
	return u.Mocks.ConfigRepo
}

func (u *TestUnitOfWork) TokenAccountRepository() interfaces.TokenAccountRepository {
	return u.Mocks.AccountRepo
}

func (u *TestUnitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository {
	return u.Mocks.LedgerRepo
}

func (u *TestUnitOfWork) UserSummaryRepository() interfaces.UserSummaryRepository {
	return u.Mocks.SummaryRepo
}

func (u *TestUnitOfWork) MilestoneRepository() interfaces.MilestoneRepository {
	return u.Mocks.MilestoneRepo
}

func (u *TestUnitOfWork) AccrualRunRepository() interfaces.AccrualRunRepository {
	return u.Mocks.AccrualRunRepo
}

func (u *TestUnitOfWork) EventBus() interfaces.EventPublisher {
	return u.Mocks.Publisher
}

// TestUnitOfWorkFactory hands out the same TestUnitOfWork from every Create
// call so tests assert against a single set of expectations even when the
// code under test opens several transactions.
type TestUnitOfWorkFactory struct {
	UoW *TestUnitOfWork
}

func (f *TestUnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return f.UoW
}
