package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"piggyvault/domain/entities"
	"piggyvault/domain/events"
	"piggyvault/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newVaultServiceUnderTest wires the vault service over real collaborator
// services, the same assembly the application layer performs per unit of work
func newVaultServiceUnderTest(mocks *TestMocks) interfaces.VaultService {
	tokenLedger := NewTokenLedgerService(mocks.AccountRepo, mocks.LedgerRepo, mocks.Publisher)
	positionLedger := NewPositionLedger(mocks.PositionRepo)
	planCatalog := NewPlanCatalog(mocks.PlanRepo, mocks.ConfigRepo, mocks.PoolRepo, tokenLedger, mocks.Publisher)
	milestones := NewMilestoneService(mocks.MilestoneRepo, mocks.Publisher, mocks.Clock)
	return NewVaultService(
		mocks.DepositRepo,
		mocks.PositionRepo,
		mocks.SummaryRepo,
		mocks.PoolRepo,
		planCatalog,
		positionLedger,
		tokenLedger,
		milestones,
		mocks.Publisher,
		mocks.Clock,
	)
}

func TestVaultService_CreateDeposit(t *testing.T) {
	t.Run("opens a deposit, pulls funds, and awards milestones", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		helper.ExpectPlanLookup(NewTestPlan())
		helper.ExpectNeutralGlobalMultiplier()
		helper.ExpectTransfer(TestOwner, 5_000_000_000, 0, -TestPrincipal)

		var createdPosition *entities.YieldPosition
		mocks.PositionRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.YieldPosition")).
			Run(func(args mock.Arguments) {
				createdPosition = args.Get(1).(*entities.YieldPosition)
				createdPosition.ID = TestPosition
			}).Return(nil).Once()

		var createdDeposit *entities.Deposit
		mocks.DepositRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Deposit")).
			Run(func(args mock.Arguments) {
				createdDeposit = args.Get(1).(*entities.Deposit)
				createdDeposit.ID = TestDepositID
			}).Return(nil).Once()

		mocks.SummaryRepo.On("ApplyDeposit", mock.Anything, TestOwner, TestPrincipal, TestPlanID, TestStart).
			Return(nil).Once()
		mocks.DepositRepo.On("CumulativePlanDays", mock.Anything, TestOwner).Return(int64(30), nil).Once()
		helper.ExpectMilestoneAward(TestOwner, entities.MilestoneFirstDeposit)
		helper.ExpectMilestoneAward(TestOwner, entities.MilestoneAmount100)
		helper.ExpectMilestoneAward(TestOwner, entities.MilestoneAmount1000)
		helper.ExpectMilestoneAward(TestOwner, entities.MilestoneTierStarter)

		helper.ExpectEventPublish(events.EventTypeDepositCreated)
		helper.ExpectAnyEvents()

		result, err := service.CreateDeposit(context.Background(), TestOwner, TestPrincipal, TestPlanID)

		require.NoError(t, err)
		assert.Equal(t, TestDepositID, result.Deposit.ID)
		assert.Equal(t, entities.DepositStatusOpen, result.Deposit.Status)
		assert.Equal(t, TestPosition, result.Deposit.PositionID)
		assert.Equal(t, TestStart.Add(30*24*time.Hour), result.Deposit.MaturityAt)
		assert.Equal(t, int64(1200), result.EffectiveAPYBasisPoints)
		assert.Len(t, result.Milestones, 4)

		require.NotNil(t, createdPosition)
		assert.Equal(t, TestPrincipal, createdPosition.Principal)
		assert.Equal(t, int64(1200), createdPosition.EffectiveAPYBasisPoints)
		assert.Equal(t, TestStart.Add(30*24*time.Hour), createdPosition.EndTime)
		mocks.AssertAllExpectations(t)
	})

	t.Run("snapshots the boosted effective APY on the position", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		plan := NewTestPlan()
		plan.PlanMultiplierBasisPoints = 12000
		helper.ExpectPlanLookup(plan)
		mocks.ConfigRepo.On("Get", mock.Anything).Return(&entities.VaultConfig{
			GlobalMultiplierBasisPoints: 15000,
		}, nil).Once()
		helper.ExpectTransfer(TestOwner, 5_000_000_000, 0, -TestPrincipal)

		var createdPosition *entities.YieldPosition
		mocks.PositionRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.YieldPosition")).
			Run(func(args mock.Arguments) {
				createdPosition = args.Get(1).(*entities.YieldPosition)
				createdPosition.ID = TestPosition
			}).Return(nil).Once()
		mocks.DepositRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		mocks.SummaryRepo.On("ApplyDeposit", mock.Anything, TestOwner, TestPrincipal, TestPlanID, TestStart).
			Return(nil).Once()
		mocks.DepositRepo.On("CumulativePlanDays", mock.Anything, TestOwner).Return(int64(60), nil).Once()
		mocks.MilestoneRepo.On("TryAward", mock.Anything, TestOwner, mock.Anything, mock.Anything).
			Return(false, nil)
		helper.ExpectAnyEvents()

		result, err := service.CreateDeposit(context.Background(), TestOwner, TestPrincipal, TestPlanID)

		require.NoError(t, err)
		assert.Equal(t, int64(2160), result.EffectiveAPYBasisPoints)
		assert.Equal(t, int64(2160), createdPosition.EffectiveAPYBasisPoints)
		assert.Empty(t, result.Milestones)
	})

	t.Run("rejects invalid owners", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		for _, owner := range []string{"", entities.TreasuryAccount} {
			_, err := service.CreateDeposit(context.Background(), owner, TestPrincipal, TestPlanID)
			require.Error(t, err)
			var vaultErr *entities.VaultError
			require.True(t, errors.As(err, &vaultErr))
			assert.Equal(t, entities.ErrCodeInvalidOwner, vaultErr.Code)
		}
		mocks.PlanRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		_, err := service.CreateDeposit(context.Background(), TestOwner, 0, TestPlanID)

		assert.True(t, errors.Is(err, entities.ErrInvalidAmount))
	})

	t.Run("fails for an unknown plan", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		mocks.PlanRepo.On("GetByID", mock.Anything, int64(999)).Return(nil, nil).Once()

		_, err := service.CreateDeposit(context.Background(), TestOwner, TestPrincipal, 999)

		assert.True(t, errors.Is(err, entities.ErrPlanNotFound))
	})

	t.Run("fails for a retired plan", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		plan := NewTestPlan()
		plan.Active = false
		helper.ExpectPlanLookup(plan)

		_, err := service.CreateDeposit(context.Background(), TestOwner, TestPrincipal, TestPlanID)

		assert.True(t, errors.Is(err, entities.ErrPlanInactive))
	})

	t.Run("enforces the plan's amount limits", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		helper.ExpectPlanLookup(NewTestPlan())

		_, err := service.CreateDeposit(context.Background(), TestOwner, 500_000, TestPlanID)

		assert.True(t, errors.Is(err, entities.ErrAmountOutOfRange))
		mocks.AccountRepo.AssertNotCalled(t, "GetByOwnerForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("writes nothing when the owner cannot fund the deposit", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		helper.ExpectPlanLookup(NewTestPlan())
		helper.ExpectNeutralGlobalMultiplier()
		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, TestOwner).
			Return(&entities.TokenAccount{Owner: TestOwner, Balance: 500_000_000}, nil).Once()
		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, entities.TreasuryAccount).
			Return(&entities.TokenAccount{Owner: entities.TreasuryAccount, Balance: 0}, nil).Once()

		_, err := service.CreateDeposit(context.Background(), TestOwner, TestPrincipal, TestPlanID)

		assert.True(t, errors.Is(err, entities.ErrInsufficientFunds))
		mocks.PositionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.DepositRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mocks.SummaryRepo.AssertNotCalled(t, "ApplyDeposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("classifies storage failures during the fund pull", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		helper.ExpectPlanLookup(NewTestPlan())
		helper.ExpectNeutralGlobalMultiplier()
		dbErr := errors.New("connection reset")
		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, TestOwner).Return(nil, dbErr).Once()

		_, err := service.CreateDeposit(context.Background(), TestOwner, TestPrincipal, TestPlanID)

		var vaultErr *entities.VaultError
		require.True(t, errors.As(err, &vaultErr))
		assert.Equal(t, entities.ErrCodeTransferFailed, vaultErr.Code)
		assert.Equal(t, entities.ErrorKindCollaboratorFailure, vaultErr.Kind)
		assert.True(t, errors.Is(err, dbErr))
		mocks.DepositRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestVaultService_Withdraw(t *testing.T) {
	t.Run("settles a matured deposit with interest and bonus", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		maturity := TestStart.Add(30 * 24 * time.Hour)
		mocks.Clock.SetTime(maturity)

		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()
		mocks.PositionRepo.On("GetByIDForUpdate", mock.Anything, TestPosition).
			Return(NewTestPosition(), nil).Once()
		mocks.PositionRepo.On("Finalize", mock.Anything, TestPosition, int64(9_910_164), maturity, maturity).
			Return(nil).Once()

		mocks.PoolRepo.On("GetForUpdate", mock.Anything).
			Return(&entities.RewardPool{ID: 1, TotalPool: 100_000_000, Distributed: 0}, nil).Once()
		mocks.PoolRepo.On("AddDistributed", mock.Anything, int64(50_495_508)).Return(nil).Once()
		mocks.PositionRepo.On("ApplyBonus", mock.Anything, TestPosition, int64(50_495_508)).Return(nil).Once()

		mocks.DepositRepo.On("MarkWithdrawn", mock.Anything, TestDepositID, entities.DepositStatusWithdrawn,
			int64(9_910_164), int64(50_495_508), int64(0), maturity).Return(nil).Once()

		helper.ExpectTransfer(TestOwner, 0, 2_000_000_000, 1_060_405_672)
		mocks.SummaryRepo.On("ApplyWithdrawal", mock.Anything, TestOwner, int64(1_060_405_672), int64(60_405_672), maturity).
			Return(nil).Once()

		mocks.Publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			event, ok := e.(events.DepositWithdrawnEvent)
			return ok && event.Payout == 1_060_405_672 && event.Bonus == 50_495_508
		})).Return(nil).Once()
		helper.ExpectAnyEvents()

		result, err := service.Withdraw(context.Background(), TestOwner, TestDepositID)

		require.NoError(t, err)
		assert.Equal(t, entities.DepositStatusWithdrawn, result.Status)
		assert.Equal(t, TestPrincipal, result.Principal)
		assert.Equal(t, int64(9_910_164), result.Interest)
		assert.Equal(t, int64(50_495_508), result.Bonus)
		assert.Equal(t, int64(1_060_405_672), result.Payout)
		assert.Equal(t, maturity, result.CompletedAt)
		mocks.AssertAllExpectations(t)
	})

	t.Run("clamps the bonus to zero when the pool cannot cover it", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		maturity := TestStart.Add(30 * 24 * time.Hour)
		mocks.Clock.SetTime(maturity)

		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()
		mocks.PositionRepo.On("GetByIDForUpdate", mock.Anything, TestPosition).
			Return(NewTestPosition(), nil).Once()
		mocks.PositionRepo.On("Finalize", mock.Anything, TestPosition, int64(9_910_164), maturity, maturity).
			Return(nil).Once()

		// 10M available against a 50.5M bonus: nothing is paid rather than part
		mocks.PoolRepo.On("GetForUpdate", mock.Anything).
			Return(&entities.RewardPool{ID: 1, TotalPool: 10_000_000, Distributed: 0}, nil).Once()

		mocks.DepositRepo.On("MarkWithdrawn", mock.Anything, TestDepositID, entities.DepositStatusWithdrawn,
			int64(9_910_164), int64(0), int64(0), maturity).Return(nil).Once()

		helper.ExpectTransfer(TestOwner, 0, 2_000_000_000, 1_009_910_164)
		mocks.SummaryRepo.On("ApplyWithdrawal", mock.Anything, TestOwner, int64(1_009_910_164), int64(9_910_164), maturity).
			Return(nil).Once()
		helper.ExpectAnyEvents()

		result, err := service.Withdraw(context.Background(), TestOwner, TestDepositID)

		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Bonus)
		assert.Equal(t, int64(1_009_910_164), result.Payout)
		mocks.PoolRepo.AssertNotCalled(t, "AddDistributed", mock.Anything, mock.Anything)
		mocks.PositionRepo.AssertNotCalled(t, "ApplyBonus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a caller who does not own the deposit", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()

		_, err := service.Withdraw(context.Background(), "owner:mallory", TestDepositID)

		assert.True(t, errors.Is(err, entities.ErrNotOwner))
		mocks.PositionRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("rejects a second withdrawal", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		deposit := NewTestDeposit()
		deposit.Status = entities.DepositStatusWithdrawn
		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(deposit, nil).Once()

		_, err := service.Withdraw(context.Background(), TestOwner, TestDepositID)

		require.True(t, errors.Is(err, entities.ErrAlreadyWithdrawn))
		var vaultErr *entities.VaultError
		require.True(t, errors.As(err, &vaultErr))
		assert.True(t, vaultErr.IsStateConflict())
	})

	t.Run("rejects withdrawal before maturity", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		mocks.Clock.SetTime(TestStart.Add(10 * 24 * time.Hour))
		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()

		_, err := service.Withdraw(context.Background(), TestOwner, TestDepositID)

		assert.True(t, errors.Is(err, entities.ErrNotMatured))
		mocks.PositionRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("allows withdrawal at the exact maturity instant", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		maturity := TestStart.Add(30 * 24 * time.Hour)
		mocks.Clock.SetTime(maturity)

		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()
		mocks.PositionRepo.On("GetByIDForUpdate", mock.Anything, TestPosition).
			Return(NewTestPosition(), nil).Once()
		mocks.PositionRepo.On("Finalize", mock.Anything, TestPosition, mock.Anything, maturity, maturity).
			Return(nil).Once()
		mocks.PoolRepo.On("GetForUpdate", mock.Anything).
			Return(&entities.RewardPool{ID: 1, TotalPool: 0, Distributed: 0}, nil).Once()
		mocks.DepositRepo.On("MarkWithdrawn", mock.Anything, TestDepositID, entities.DepositStatusWithdrawn,
			mock.Anything, int64(0), int64(0), maturity).Return(nil).Once()
		helper.ExpectTransfer(TestOwner, 0, 2_000_000_000, 1_009_910_164)
		mocks.SummaryRepo.On("ApplyWithdrawal", mock.Anything, TestOwner, mock.Anything, mock.Anything, maturity).
			Return(nil).Once()
		helper.ExpectAnyEvents()

		_, err := service.Withdraw(context.Background(), TestOwner, TestDepositID)

		assert.NoError(t, err)
	})

	t.Run("issues no payout when the terminal status write fails", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		maturity := TestStart.Add(30 * 24 * time.Hour)
		mocks.Clock.SetTime(maturity)

		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()
		mocks.PositionRepo.On("GetByIDForUpdate", mock.Anything, TestPosition).
			Return(NewTestPosition(), nil).Once()
		mocks.PositionRepo.On("Finalize", mock.Anything, TestPosition, mock.Anything, maturity, maturity).
			Return(nil).Once()
		mocks.PoolRepo.On("GetForUpdate", mock.Anything).
			Return(&entities.RewardPool{ID: 1, TotalPool: 0, Distributed: 0}, nil).Once()
		mocks.DepositRepo.On("MarkWithdrawn", mock.Anything, TestDepositID, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("connection reset")).Once()

		_, err := service.Withdraw(context.Background(), TestOwner, TestDepositID)

		require.Error(t, err)
		mocks.AccountRepo.AssertNotCalled(t, "GetByOwnerForUpdate", mock.Anything, mock.Anything)
		mocks.AccountRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fails for an unknown deposit", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, int64(999)).Return(nil, nil).Once()

		_, err := service.Withdraw(context.Background(), TestOwner, 999)

		assert.True(t, errors.Is(err, entities.ErrDepositNotFound))
	})
}

func TestVaultService_EmergencyWithdraw(t *testing.T) {
	t.Run("charges the full penalty before the minimum hold", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		now := TestStart.Add(10 * 24 * time.Hour)
		mocks.Clock.SetTime(now)

		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()
		helper.ExpectPlanLookup(NewTestPlan())
		mocks.PositionRepo.On("GetByIDForUpdate", mock.Anything, TestPosition).
			Return(NewTestPosition(), nil).Once()
		mocks.PositionRepo.On("Finalize", mock.Anything, TestPosition, int64(3_292_535), now, now).
			Return(nil).Once()

		mocks.DepositRepo.On("MarkWithdrawn", mock.Anything, TestDepositID, entities.DepositStatusEmergencyWithdrawn,
			int64(3_292_535), int64(0), int64(20_000_000), now).Return(nil).Once()

		helper.ExpectTransfer(TestOwner, 0, 2_000_000_000, 980_000_000)
		mocks.SummaryRepo.On("ApplyWithdrawal", mock.Anything, TestOwner, int64(980_000_000), int64(0), now).
			Return(nil).Once()

		mocks.Publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			event, ok := e.(events.DepositEmergencyWithdrawnEvent)
			return ok && event.Penalty == 20_000_000 && event.InterestForfeited == 3_292_535
		})).Return(nil).Once()
		helper.ExpectAnyEvents()

		result, err := service.EmergencyWithdraw(context.Background(), TestOwner, TestDepositID)

		require.NoError(t, err)
		assert.Equal(t, entities.DepositStatusEmergencyWithdrawn, result.Status)
		assert.Equal(t, int64(20_000_000), result.Penalty)
		assert.Equal(t, int64(980_000_000), result.Payout)
		assert.Equal(t, int64(3_292_535), result.Interest)
		assert.Equal(t, int64(0), result.Bonus)
		mocks.AssertAllExpectations(t)
	})

	t.Run("decays the penalty linearly after the minimum hold", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		// 22.5 days into a 15-day hold: a quarter of the 30-day decay window
		// remains, so a quarter of the full 20M penalty applies
		now := TestStart.Add(22*24*time.Hour + 12*time.Hour)
		mocks.Clock.SetTime(now)

		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()
		helper.ExpectPlanLookup(NewTestPlan())
		mocks.PositionRepo.On("GetByIDForUpdate", mock.Anything, TestPosition).
			Return(NewTestPosition(), nil).Once()
		mocks.PositionRepo.On("Finalize", mock.Anything, TestPosition, int64(7_257_890), now, now).
			Return(nil).Once()

		mocks.DepositRepo.On("MarkWithdrawn", mock.Anything, TestDepositID, entities.DepositStatusEmergencyWithdrawn,
			int64(7_257_890), int64(0), int64(5_000_000), now).Return(nil).Once()

		helper.ExpectTransfer(TestOwner, 0, 2_000_000_000, 995_000_000)
		mocks.SummaryRepo.On("ApplyWithdrawal", mock.Anything, TestOwner, int64(995_000_000), int64(0), now).
			Return(nil).Once()
		helper.ExpectAnyEvents()

		result, err := service.EmergencyWithdraw(context.Background(), TestOwner, TestDepositID)

		require.NoError(t, err)
		assert.Equal(t, int64(5_000_000), result.Penalty)
		assert.Equal(t, int64(995_000_000), result.Payout)
		mocks.AssertAllExpectations(t)
	})

	t.Run("charges no penalty once twice the minimum hold has passed", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		// Twice the 15-day hold coincides with maturity; the emergency path
		// stays available and pays principal in full, interest still forfeited
		now := TestStart.Add(30 * 24 * time.Hour)
		mocks.Clock.SetTime(now)

		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()
		helper.ExpectPlanLookup(NewTestPlan())
		mocks.PositionRepo.On("GetByIDForUpdate", mock.Anything, TestPosition).
			Return(NewTestPosition(), nil).Once()
		mocks.PositionRepo.On("Finalize", mock.Anything, TestPosition, int64(9_910_164), now, now).
			Return(nil).Once()

		mocks.DepositRepo.On("MarkWithdrawn", mock.Anything, TestDepositID, entities.DepositStatusEmergencyWithdrawn,
			int64(9_910_164), int64(0), int64(0), now).Return(nil).Once()

		helper.ExpectTransfer(TestOwner, 0, 2_000_000_000, 1_000_000_000)
		mocks.SummaryRepo.On("ApplyWithdrawal", mock.Anything, TestOwner, TestPrincipal, int64(0), now).
			Return(nil).Once()
		helper.ExpectAnyEvents()

		result, err := service.EmergencyWithdraw(context.Background(), TestOwner, TestDepositID)

		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Penalty)
		assert.Equal(t, TestPrincipal, result.Payout)
		assert.Equal(t, int64(9_910_164), result.Interest)
		mocks.AssertAllExpectations(t)
	})

	t.Run("pays nothing when the penalty consumes the whole principal", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		helper := NewMockHelper(mocks)
		service := newVaultServiceUnderTest(mocks)

		now := TestStart.Add(24 * time.Hour)
		mocks.Clock.SetTime(now)

		plan := NewTestPlan()
		plan.PenaltyRateBasisPoints = 10000
		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()
		helper.ExpectPlanLookup(plan)
		mocks.PositionRepo.On("GetByIDForUpdate", mock.Anything, TestPosition).
			Return(NewTestPosition(), nil).Once()
		mocks.PositionRepo.On("Finalize", mock.Anything, TestPosition, int64(328_767), now, now).
			Return(nil).Once()
		mocks.DepositRepo.On("MarkWithdrawn", mock.Anything, TestDepositID, entities.DepositStatusEmergencyWithdrawn,
			int64(328_767), int64(0), TestPrincipal, now).Return(nil).Once()
		mocks.SummaryRepo.On("ApplyWithdrawal", mock.Anything, TestOwner, int64(0), int64(0), now).
			Return(nil).Once()
		helper.ExpectAnyEvents()

		result, err := service.EmergencyWithdraw(context.Background(), TestOwner, TestDepositID)

		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Payout)
		mocks.AccountRepo.AssertNotCalled(t, "GetByOwnerForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("rejects a caller who does not own the deposit", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()

		_, err := service.EmergencyWithdraw(context.Background(), "owner:mallory", TestDepositID)

		assert.True(t, errors.Is(err, entities.ErrNotOwner))
	})

	t.Run("rejects an already settled deposit", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		deposit := NewTestDeposit()
		deposit.Status = entities.DepositStatusEmergencyWithdrawn
		mocks.DepositRepo.On("GetByIDForUpdate", mock.Anything, TestDepositID).
			Return(deposit, nil).Once()

		_, err := service.EmergencyWithdraw(context.Background(), TestOwner, TestDepositID)

		assert.True(t, errors.Is(err, entities.ErrAlreadyWithdrawn))
	})
}

func TestVaultService_CalculateCurrentInterest(t *testing.T) {
	t.Run("projects interest at the current clock reading", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		mocks.Clock.SetTime(TestStart.Add(7 * 24 * time.Hour))
		mocks.DepositRepo.On("GetByID", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()
		mocks.PositionRepo.On("GetByID", mock.Anything, TestPosition).
			Return(NewTestPosition(), nil).Once()

		interest, err := service.CalculateCurrentInterest(context.Background(), TestDepositID)

		require.NoError(t, err)
		assert.Equal(t, int64(2_303_638), interest)
	})

	t.Run("matches what an accrual at the same instant stored", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		now := TestStart.Add(7 * 24 * time.Hour)
		mocks.Clock.SetTime(now)
		position := NewTestPosition()
		position.AccruedInterest = 2_303_638
		position.LastUpdateTime = now
		mocks.DepositRepo.On("GetByID", mock.Anything, TestDepositID).
			Return(NewTestDeposit(), nil).Once()
		mocks.PositionRepo.On("GetByID", mock.Anything, TestPosition).
			Return(position, nil).Once()

		interest, err := service.CalculateCurrentInterest(context.Background(), TestDepositID)

		require.NoError(t, err)
		assert.Equal(t, int64(2_303_638), interest)
	})

	t.Run("reports the frozen value for a settled deposit", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		mocks.Clock.SetTime(TestStart.Add(90 * 24 * time.Hour))
		deposit := NewTestDeposit()
		deposit.Status = entities.DepositStatusWithdrawn
		position := NewTestPosition()
		position.AccruedInterest = 9_910_164
		position.IsActive = false
		mocks.DepositRepo.On("GetByID", mock.Anything, TestDepositID).
			Return(deposit, nil).Once()
		mocks.PositionRepo.On("GetByID", mock.Anything, TestPosition).
			Return(position, nil).Once()

		interest, err := service.CalculateCurrentInterest(context.Background(), TestDepositID)

		require.NoError(t, err)
		assert.Equal(t, int64(9_910_164), interest)
	})

	t.Run("fails for an unknown deposit", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		mocks.DepositRepo.On("GetByID", mock.Anything, int64(999)).Return(nil, nil).Once()

		_, err := service.CalculateCurrentInterest(context.Background(), 999)

		assert.True(t, errors.Is(err, entities.ErrDepositNotFound))
	})
}

func TestVaultService_GetUserSummary(t *testing.T) {
	t.Run("returns zeros for an owner with no history", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		mocks.SummaryRepo.On("GetByOwner", mock.Anything, "owner:nobody").Return(nil, nil).Once()

		summary, err := service.GetUserSummary(context.Background(), "owner:nobody")

		require.NoError(t, err)
		assert.Equal(t, "owner:nobody", summary.Owner)
		assert.Equal(t, int64(0), summary.TotalDeposited)
		assert.Equal(t, int64(0), summary.TransactionCount)
		assert.False(t, summary.HasActivity())
	})

	t.Run("passes through an existing summary", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := newVaultServiceUnderTest(mocks)

		stored := &entities.UserSummary{
			Owner:            TestOwner,
			TotalDeposited:   TestPrincipal,
			TransactionCount: 1,
			ActiveDeposits:   1,
			LockedPrincipal:  TestPrincipal,
		}
		mocks.SummaryRepo.On("GetByOwner", mock.Anything, TestOwner).Return(stored, nil).Once()

		summary, err := service.GetUserSummary(context.Background(), TestOwner)

		require.NoError(t, err)
		assert.Equal(t, stored, summary)
	})
}

func TestVaultService_Queries(t *testing.T) {
	SetupTestConfig(t)
	mocks := NewTestMocks()
	service := newVaultServiceUnderTest(mocks)

	deposit := NewTestDeposit()
	mocks.DepositRepo.On("GetByID", mock.Anything, TestDepositID).Return(deposit, nil).Once()
	mocks.DepositRepo.On("ListIDsByOwner", mock.Anything, TestOwner).Return([]int64{TestDepositID}, nil).Once()
	mocks.DepositRepo.On("ListByOwner", mock.Anything, TestOwner).Return([]*entities.Deposit{deposit}, nil).Once()

	found, err := service.GetDeposit(context.Background(), TestDepositID)
	require.NoError(t, err)
	assert.Equal(t, deposit, found)

	ids, err := service.ListDepositIDs(context.Background(), TestOwner)
	require.NoError(t, err)
	assert.Equal(t, []int64{TestDepositID}, ids)

	deposits, err := service.ListDeposits(context.Background(), TestOwner)
	require.NoError(t, err)
	assert.Equal(t, []*entities.Deposit{deposit}, deposits)
	mocks.AssertAllExpectations(t)
}
