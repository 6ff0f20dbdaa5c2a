package services

import (
	"context"
	"errors"
	"testing"

	"piggyvault/domain/entities"
	"piggyvault/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTokenLedgerService_TransferIn(t *testing.T) {
	t.Run("moves funds from the owner to the treasury", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := NewTokenLedgerService(mocks.AccountRepo, mocks.LedgerRepo, mocks.Publisher)

		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, TestOwner).
			Return(&entities.TokenAccount{Owner: TestOwner, Balance: 5_000_000_000}, nil).Once()
		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, entities.TreasuryAccount).
			Return(&entities.TokenAccount{Owner: entities.TreasuryAccount, Balance: 1_000_000_000}, nil).Once()
		mocks.AccountRepo.On("UpdateBalance", mock.Anything, TestOwner, int64(4_000_000_000)).Return(nil).Once()
		mocks.AccountRepo.On("UpdateBalance", mock.Anything, entities.TreasuryAccount, int64(2_000_000_000)).Return(nil).Once()

		var entries []*entities.LedgerEntry
		mocks.LedgerRepo.On("Record", mock.Anything, mock.AnythingOfType("*entities.LedgerEntry")).
			Run(func(args mock.Arguments) {
				entries = append(entries, args.Get(1).(*entities.LedgerEntry))
			}).Return(nil).Twice()

		mocks.Publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			event, ok := e.(events.BalanceChangedEvent)
			return ok && event.Owner == TestOwner &&
				event.OldBalance == 5_000_000_000 &&
				event.NewBalance == 4_000_000_000 &&
				event.ChangeAmount == -1_000_000_000
		})).Return(nil).Once()

		err := service.TransferIn(context.Background(), TestOwner, TestPrincipal, entities.TransferRef{
			EntryType: entities.LedgerEntryDepositIn,
			Metadata:  map[string]any{"plan_id": TestPlanID},
		})

		require.NoError(t, err)
		require.Len(t, entries, 2)

		ownerEntry := entries[0]
		assert.Equal(t, TestOwner, ownerEntry.Owner)
		assert.Equal(t, entities.LedgerEntryDepositIn, ownerEntry.EntryType)
		assert.Equal(t, int64(-1_000_000_000), ownerEntry.Amount)
		assert.Equal(t, int64(5_000_000_000), ownerEntry.BalanceBefore)
		assert.Equal(t, int64(4_000_000_000), ownerEntry.BalanceAfter)

		treasuryEntry := entries[1]
		assert.Equal(t, entities.TreasuryAccount, treasuryEntry.Owner)
		assert.Equal(t, int64(1_000_000_000), treasuryEntry.Amount)
		assert.Equal(t, int64(1_000_000_000), treasuryEntry.BalanceBefore)
		assert.Equal(t, int64(2_000_000_000), treasuryEntry.BalanceAfter)
		assert.Equal(t, TestOwner, treasuryEntry.Metadata["counterparty"])
		mocks.AssertAllExpectations(t)
	})

	t.Run("rejects an owner who cannot cover the amount", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := NewTokenLedgerService(mocks.AccountRepo, mocks.LedgerRepo, mocks.Publisher)

		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, TestOwner).
			Return(&entities.TokenAccount{Owner: TestOwner, Balance: 500_000_000}, nil).Once()
		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, entities.TreasuryAccount).
			Return(&entities.TokenAccount{Owner: entities.TreasuryAccount, Balance: 0}, nil).Once()

		err := service.TransferIn(context.Background(), TestOwner, TestPrincipal, entities.TransferRef{
			EntryType: entities.LedgerEntryDepositIn,
		})

		assert.True(t, errors.Is(err, entities.ErrInsufficientFunds))
		mocks.AccountRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
		mocks.LedgerRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := NewTokenLedgerService(mocks.AccountRepo, mocks.LedgerRepo, mocks.Publisher)

		for _, amount := range []int64{0, -100} {
			err := service.TransferIn(context.Background(), TestOwner, amount, entities.TransferRef{
				EntryType: entities.LedgerEntryDepositIn,
			})
			require.Error(t, err)
			var vaultErr *entities.VaultError
			require.True(t, errors.As(err, &vaultErr))
			assert.Equal(t, entities.ErrCodeInvalidAmount, vaultErr.Code)
		}
		mocks.AccountRepo.AssertNotCalled(t, "GetByOwnerForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("rejects the treasury as a source", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := NewTokenLedgerService(mocks.AccountRepo, mocks.LedgerRepo, mocks.Publisher)

		for _, from := range []string{"", entities.TreasuryAccount} {
			err := service.TransferIn(context.Background(), from, TestPrincipal, entities.TransferRef{
				EntryType: entities.LedgerEntryDepositIn,
			})
			require.Error(t, err)
			var vaultErr *entities.VaultError
			require.True(t, errors.As(err, &vaultErr))
			assert.Equal(t, entities.ErrCodeInvalidOwner, vaultErr.Code)
		}
	})

	t.Run("succeeds even when the event publish fails", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := NewTokenLedgerService(mocks.AccountRepo, mocks.LedgerRepo, mocks.Publisher)

		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, TestOwner).
			Return(&entities.TokenAccount{Owner: TestOwner, Balance: 2_000_000_000}, nil).Once()
		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, entities.TreasuryAccount).
			Return(&entities.TokenAccount{Owner: entities.TreasuryAccount, Balance: 0}, nil).Once()
		mocks.AccountRepo.On("UpdateBalance", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()
		mocks.LedgerRepo.On("Record", mock.Anything, mock.Anything).Return(nil).Twice()
		mocks.Publisher.On("Publish", mock.Anything).Return(errors.New("broker down")).Once()

		err := service.TransferIn(context.Background(), TestOwner, TestPrincipal, entities.TransferRef{
			EntryType: entities.LedgerEntryDepositIn,
		})

		assert.NoError(t, err)
		mocks.AssertAllExpectations(t)
	})
}

func TestTokenLedgerService_TransferOut(t *testing.T) {
	t.Run("pays the owner from the treasury", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := NewTokenLedgerService(mocks.AccountRepo, mocks.LedgerRepo, mocks.Publisher)

		depositID := TestDepositID
		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, TestOwner).
			Return(&entities.TokenAccount{Owner: TestOwner, Balance: 0}, nil).Once()
		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, entities.TreasuryAccount).
			Return(&entities.TokenAccount{Owner: entities.TreasuryAccount, Balance: 5_000_000_000}, nil).Once()
		mocks.AccountRepo.On("UpdateBalance", mock.Anything, entities.TreasuryAccount, int64(3_939_594_328)).Return(nil).Once()
		mocks.AccountRepo.On("UpdateBalance", mock.Anything, TestOwner, int64(1_060_405_672)).Return(nil).Once()

		var entries []*entities.LedgerEntry
		mocks.LedgerRepo.On("Record", mock.Anything, mock.AnythingOfType("*entities.LedgerEntry")).
			Run(func(args mock.Arguments) {
				entries = append(entries, args.Get(1).(*entities.LedgerEntry))
			}).Return(nil).Twice()

		mocks.Publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			event, ok := e.(events.BalanceChangedEvent)
			return ok && event.Owner == TestOwner && event.ChangeAmount == 1_060_405_672
		})).Return(nil).Once()

		err := service.TransferOut(context.Background(), TestOwner, 1_060_405_672, entities.TransferRef{
			EntryType: entities.LedgerEntryWithdrawalOut,
			DepositID: &depositID,
		})

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(1_060_405_672), entries[0].Amount)
		require.NotNil(t, entries[0].DepositID)
		assert.Equal(t, TestDepositID, *entries[0].DepositID)
		assert.Equal(t, int64(-1_060_405_672), entries[1].Amount)
		mocks.AssertAllExpectations(t)
	})

	t.Run("fails when the treasury cannot cover the payout", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := NewTokenLedgerService(mocks.AccountRepo, mocks.LedgerRepo, mocks.Publisher)

		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, TestOwner).
			Return(&entities.TokenAccount{Owner: TestOwner, Balance: 0}, nil).Once()
		mocks.AccountRepo.On("GetByOwnerForUpdate", mock.Anything, entities.TreasuryAccount).
			Return(&entities.TokenAccount{Owner: entities.TreasuryAccount, Balance: 1_000_000_000}, nil).Once()

		err := service.TransferOut(context.Background(), TestOwner, 2_000_000_000, entities.TransferRef{
			EntryType: entities.LedgerEntryWithdrawalOut,
		})

		assert.True(t, errors.Is(err, entities.ErrInsufficientFunds))
		mocks.AccountRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects the treasury as a destination", func(t *testing.T) {
		SetupTestConfig(t)
		mocks := NewTestMocks()
		service := NewTokenLedgerService(mocks.AccountRepo, mocks.LedgerRepo, mocks.Publisher)

		err := service.TransferOut(context.Background(), entities.TreasuryAccount, TestPrincipal, entities.TransferRef{
			EntryType: entities.LedgerEntryWithdrawalOut,
		})

		require.Error(t, err)
		var vaultErr *entities.VaultError
		require.True(t, errors.As(err, &vaultErr))
		assert.Equal(t, entities.ErrCodeInvalidOwner, vaultErr.Code)
	})
}
