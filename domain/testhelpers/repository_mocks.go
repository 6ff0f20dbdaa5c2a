package testhelpers

import (
	"context"
	"time"

	"piggyvault/domain/entities"
	"piggyvault/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockDepositRepository is a mock implementation of DepositRepository
type MockDepositRepository struct {
	mock.Mock
}

func (m *MockDepositRepository) Create(ctx context.Context, deposit *entities.Deposit) error {
	args := m.Called(ctx, deposit)
	return args.Error(0)
}

func (m *MockDepositRepository) GetByID(ctx context.Context, id int64) (*entities.Deposit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Deposit), args.Error(1)
}

func (m *MockDepositRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Deposit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Deposit), args.Error(1)
}

func (m *MockDepositRepository) ListIDsByOwner(ctx context.Context, owner string) ([]int64, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockDepositRepository) ListByOwner(ctx context.Context, owner string) ([]*entities.Deposit, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Deposit), args.Error(1)
}

func (m *MockDepositRepository) MarkWithdrawn(ctx context.Context, id int64, status entities.DepositStatus, accruedInterest, bonusPaid, penaltyPaid int64, withdrawnAt time.Time) error {
	args := m.Called(ctx, id, status, accruedInterest, bonusPaid, penaltyPaid, withdrawnAt)
	return args.Error(0)
}

func (m *MockDepositRepository) CountOpenByOwner(ctx context.Context, owner string) (int64, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDepositRepository) SumOpenPrincipalByOwner(ctx context.Context, owner string) (int64, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDepositRepository) CumulativePlanDays(ctx context.Context, owner string) (int64, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDepositRepository) MostUsedPlanID(ctx context.Context, owner string) (*int64, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

// MockYieldPositionRepository is a mock implementation of YieldPositionRepository
type MockYieldPositionRepository struct {
	mock.Mock
}

func (m *MockYieldPositionRepository) Create(ctx context.Context, position *entities.YieldPosition) error {
	args := m.Called(ctx, position)
	return args.Error(0)
}

func (m *MockYieldPositionRepository) GetByID(ctx context.Context, id int64) (*entities.YieldPosition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.YieldPosition), args.Error(1)
}

func (m *MockYieldPositionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.YieldPosition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.YieldPosition), args.Error(1)
}

func (m *MockYieldPositionRepository) UpdateAccrual(ctx context.Context, id int64, accruedInterest int64, lastUpdateTime time.Time) error {
	args := m.Called(ctx, id, accruedInterest, lastUpdateTime)
	return args.Error(0)
}

func (m *MockYieldPositionRepository) Finalize(ctx context.Context, id int64, accruedInterest int64, lastUpdateTime, finalizedAt time.Time) error {
	args := m.Called(ctx, id, accruedInterest, lastUpdateTime, finalizedAt)
	return args.Error(0)
}

func (m *MockYieldPositionRepository) ApplyBonus(ctx context.Context, id int64, bonusAmount int64) error {
	args := m.Called(ctx, id, bonusAmount)
	return args.Error(0)
}

func (m *MockYieldPositionRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockYieldPositionRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSavingsPlanRepository is a mock implementation of SavingsPlanRepository
type MockSavingsPlanRepository struct {
	mock.Mock
}

func (m *MockSavingsPlanRepository) GetByID(ctx context.Context, id int64) (*entities.SavingsPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SavingsPlan), args.Error(1)
}

func (m *MockSavingsPlanRepository) Upsert(ctx context.Context, plan *entities.SavingsPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockSavingsPlanRepository) UpdateMultiplier(ctx context.Context, planID, multiplierBasisPoints int64) error {
	args := m.Called(ctx, planID, multiplierBasisPoints)
	return args.Error(0)
}

func (m *MockSavingsPlanRepository) List(ctx context.Context, activeOnly bool) ([]*entities.SavingsPlan, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SavingsPlan), args.Error(1)
}

// MockRewardPoolRepository is a mock implementation of RewardPoolRepository
type MockRewardPoolRepository struct {
	mock.Mock
}

func (m *MockRewardPoolRepository) Get(ctx context.Context) (*entities.RewardPool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RewardPool), args.Error(1)
}

func (m *MockRewardPoolRepository) GetForUpdate(ctx context.Context) (*entities.RewardPool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RewardPool), args.Error(1)
}

func (m *MockRewardPoolRepository) AddFunds(ctx context.Context, amount int64) (*entities.RewardPool, error) {
	args := m.Called(ctx, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RewardPool), args.Error(1)
}

func (m *MockRewardPoolRepository) AddDistributed(ctx context.Context, amount int64) error {
	args := m.Called(ctx, amount)
	return args.Error(0)
}

// MockVaultConfigRepository is a mock implementation of VaultConfigRepository
type MockVaultConfigRepository struct {
	mock.Mock
}

func (m *MockVaultConfigRepository) Get(ctx context.Context) (*entities.VaultConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VaultConfig), args.Error(1)
}

func (m *MockVaultConfigRepository) SetGlobalMultiplier(ctx context.Context, multiplierBasisPoints int64) error {
	args := m.Called(ctx, multiplierBasisPoints)
	return args.Error(0)
}

// MockTokenAccountRepository is a mock implementation of TokenAccountRepository
type MockTokenAccountRepository struct {
	mock.Mock
}

func (m *MockTokenAccountRepository) GetByOwner(ctx context.Context, owner string) (*entities.TokenAccount, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TokenAccount), args.Error(1)
}

func (m *MockTokenAccountRepository) GetByOwnerForUpdate(ctx context.Context, owner string) (*entities.TokenAccount, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TokenAccount), args.Error(1)
}

func (m *MockTokenAccountRepository) UpdateBalance(ctx context.Context, owner string, newBalance int64) error {
	args := m.Called(ctx, owner, newBalance)
	return args.Error(0)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetByOwner(ctx context.Context, owner string, limit int) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, owner, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

// MockUserSummaryRepository is a mock implementation of UserSummaryRepository
type MockUserSummaryRepository struct {
	mock.Mock
}

func (m *MockUserSummaryRepository) GetByOwner(ctx context.Context, owner string) (*entities.UserSummary, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UserSummary), args.Error(1)
}

func (m *MockUserSummaryRepository) ApplyDeposit(ctx context.Context, owner string, amount, planID int64, at time.Time) error {
	args := m.Called(ctx, owner, amount, planID, at)
	return args.Error(0)
}

func (m *MockUserSummaryRepository) ApplyWithdrawal(ctx context.Context, owner string, withdrawn, earned int64, at time.Time) error {
	args := m.Called(ctx, owner, withdrawn, earned, at)
	return args.Error(0)
}

// MockMilestoneRepository is a mock implementation of MilestoneRepository
type MockMilestoneRepository struct {
	mock.Mock
}

func (m *MockMilestoneRepository) TryAward(ctx context.Context, owner string, category entities.MilestoneCategory, at time.Time) (bool, error) {
	args := m.Called(ctx, owner, category, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockMilestoneRepository) ListByOwner(ctx context.Context, owner string) ([]*entities.Milestone, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Milestone), args.Error(1)
}

// MockAccrualRunRepository is a mock implementation of AccrualRunRepository
type MockAccrualRunRepository struct {
	mock.Mock
}

func (m *MockAccrualRunRepository) Record(ctx context.Context, run *entities.AccrualRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockAccrualRunRepository) GetLatest(ctx context.Context) (*entities.AccrualRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AccrualRun), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockTokenLedger is a mock implementation of the TokenLedger collaborator
type MockTokenLedger struct {
	mock.Mock
}

func (m *MockTokenLedger) TransferIn(ctx context.Context, from string, amount int64, ref entities.TransferRef) error {
	args := m.Called(ctx, from, amount, ref)
	return args.Error(0)
}

func (m *MockTokenLedger) TransferOut(ctx context.Context, to string, amount int64, ref entities.TransferRef) error {
	args := m.Called(ctx, to, amount, ref)
	return args.Error(0)
}

// MockRewardNotifier is a mock implementation of the RewardNotifier collaborator
type MockRewardNotifier struct {
	mock.Mock
}

func (m *MockRewardNotifier) Notify(ctx context.Context, owner string, category entities.MilestoneCategory) error {
	args := m.Called(ctx, owner, category)
	return args.Error(0)
}
