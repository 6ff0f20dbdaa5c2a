package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"piggyvault/domain/entities"
)

var testBaseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestDeposit(id int64) *entities.Deposit {
	return &entities.Deposit{
		ID:         id,
		Owner:      "owner:alice",
		Amount:     1_000_000_000,
		PlanID:     30,
		PositionID: 77,
		CreatedAt:  testBaseTime,
		MaturityAt: testBaseTime.AddDate(0, 0, 30),
		Status:     entities.DepositStatusOpen,
	}
}

func TestDepositHandler_Create(t *testing.T) {
	t.Run("creates a deposit and reports milestones", func(t *testing.T) {
		f := newRouterFixture(t)

		result := &entities.DepositResult{
			Deposit:                 openTestDeposit(41),
			EffectiveAPYBasisPoints: 1200,
			Milestones: []entities.MilestoneCategory{
				entities.MilestoneFirstDeposit,
				entities.MilestoneTierStarter,
			},
		}
		f.ops.On("CreateDeposit", mock.Anything, "owner:alice", int64(1_000_000_000), int64(30)).
			Return(result, nil).Once()

		rec := f.do(http.MethodPost, "/api/deposits", `{"owner":"owner:alice","amount":"1000","plan_id":30}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp createDepositResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, int64(41), resp.Deposit.ID)
		assert.Equal(t, "1000", resp.Deposit.Amount)
		assert.Equal(t, "open", resp.Deposit.Status)
		assert.Empty(t, resp.Deposit.AccruedInterest)
		assert.Equal(t, int64(1200), resp.EffectiveAPYBasisPoints)
		assert.Equal(t, []string{"first_deposit", "starter"}, resp.Milestones)
		f.ops.AssertExpectations(t)
	})

	t.Run("rejects a body that is not JSON", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/api/deposits", `{"owner":`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_REQUEST", decodeErrorBody(t, rec).Code)
		f.ops.AssertNotCalled(t, "CreateDeposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a missing owner", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/api/deposits", `{"amount":"1000","plan_id":30}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, entities.ErrCodeInvalidOwner, decodeErrorBody(t, rec).Code)
	})

	t.Run("rejects an amount with too many decimal places", func(t *testing.T) {
		f := newRouterFixture(t)

		// The test asset carries six decimals
		rec := f.do(http.MethodPost, "/api/deposits", `{"owner":"owner:alice","amount":"1.0000001","plan_id":30}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, entities.ErrCodeInvalidAmount, decodeErrorBody(t, rec).Code)
		f.ops.AssertNotCalled(t, "CreateDeposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("maps an unknown plan to 404", func(t *testing.T) {
		f := newRouterFixture(t)

		f.ops.On("CreateDeposit", mock.Anything, "owner:alice", int64(1_000_000_000), int64(999)).
			Return(nil, entities.ErrPlanNotFound).Once()

		rec := f.do(http.MethodPost, "/api/deposits", `{"owner":"owner:alice","amount":"1000","plan_id":999}`)

		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, entities.ErrCodePlanNotFound, body.Code)
		assert.Equal(t, "validation", body.Kind)
	})

	t.Run("maps an out-of-range amount to 400", func(t *testing.T) {
		f := newRouterFixture(t)

		f.ops.On("CreateDeposit", mock.Anything, "owner:alice", int64(5_000_000_000_000), int64(30)).
			Return(nil, entities.ErrAmountOutOfRange).Once()

		rec := f.do(http.MethodPost, "/api/deposits", `{"owner":"owner:alice","amount":"5000000","plan_id":30}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, entities.ErrCodeAmountOutOfRange, decodeErrorBody(t, rec).Code)
	})
}

func TestDepositHandler_Withdraw(t *testing.T) {
	t.Run("pays out a matured deposit", func(t *testing.T) {
		f := newRouterFixture(t)

		result := &entities.WithdrawalResult{
			DepositID:   41,
			Owner:       "owner:alice",
			Status:      entities.DepositStatusWithdrawn,
			Principal:   1_000_000_000,
			Interest:    9_910_164,
			Bonus:       50_495_508,
			Payout:      1_060_405_672,
			CompletedAt: testBaseTime.AddDate(0, 0, 30),
		}
		f.ops.On("Withdraw", mock.Anything, "owner:alice", int64(41)).Return(result, nil).Once()

		rec := f.do(http.MethodPost, "/api/deposits/41/withdraw", `{"owner":"owner:alice"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp withdrawalResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "withdrawn", resp.Status)
		assert.Equal(t, "1000", resp.Principal)
		assert.Equal(t, "9.910164", resp.Interest)
		assert.Equal(t, "50.495508", resp.Bonus)
		assert.Equal(t, "0", resp.Penalty)
		assert.Equal(t, "1060.405672", resp.Payout)
		f.ops.AssertExpectations(t)
	})

	t.Run("maps an immature deposit to 409", func(t *testing.T) {
		f := newRouterFixture(t)

		f.ops.On("Withdraw", mock.Anything, "owner:alice", int64(41)).
			Return(nil, entities.ErrNotMatured).Once()

		rec := f.do(http.MethodPost, "/api/deposits/41/withdraw", `{"owner":"owner:alice"}`)

		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.Equal(t, entities.ErrCodeNotMatured, body.Code)
		assert.Equal(t, "state_conflict", body.Kind)
	})

	t.Run("maps a foreign deposit to 403", func(t *testing.T) {
		f := newRouterFixture(t)

		f.ops.On("Withdraw", mock.Anything, "owner:mallory", int64(41)).
			Return(nil, entities.ErrNotOwner).Once()

		rec := f.do(http.MethodPost, "/api/deposits/41/withdraw", `{"owner":"owner:mallory"}`)

		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, entities.ErrCodeNotOwner, decodeErrorBody(t, rec).Code)
	})

	t.Run("rejects a non-numeric deposit id", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/api/deposits/abc/withdraw", `{"owner":"owner:alice"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		f.ops.AssertNotCalled(t, "Withdraw", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDepositHandler_EmergencyWithdraw(t *testing.T) {
	t.Run("returns principal less the penalty", func(t *testing.T) {
		f := newRouterFixture(t)

		result := &entities.WithdrawalResult{
			DepositID:   41,
			Owner:       "owner:alice",
			Status:      entities.DepositStatusEmergencyWithdrawn,
			Principal:   1_000_000_000,
			Interest:    3_292_535,
			Penalty:     20_000_000,
			Payout:      980_000_000,
			CompletedAt: testBaseTime.AddDate(0, 0, 10),
		}
		f.ops.On("EmergencyWithdraw", mock.Anything, "owner:alice", int64(41)).Return(result, nil).Once()

		rec := f.do(http.MethodPost, "/api/deposits/41/emergency-withdraw", `{"owner":"owner:alice"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp withdrawalResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "emergency_withdrawn", resp.Status)
		assert.Equal(t, "20", resp.Penalty)
		assert.Equal(t, "980", resp.Payout)
		// Forfeited accrual is reported, not paid
		assert.Equal(t, "3.292535", resp.Interest)
		assert.Equal(t, "0", resp.Bonus)
		f.ops.AssertExpectations(t)
	})

	t.Run("maps an already settled deposit to 409", func(t *testing.T) {
		f := newRouterFixture(t)

		f.ops.On("EmergencyWithdraw", mock.Anything, "owner:alice", int64(41)).
			Return(nil, entities.ErrAlreadyWithdrawn).Once()

		rec := f.do(http.MethodPost, "/api/deposits/41/emergency-withdraw", `{"owner":"owner:alice"}`)

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, entities.ErrCodeAlreadyWithdrawn, decodeErrorBody(t, rec).Code)
	})
}

func TestDepositHandler_Reads(t *testing.T) {
	t.Run("returns an open deposit without settlement fields", func(t *testing.T) {
		f := newRouterFixture(t)

		f.ops.On("GetDeposit", mock.Anything, int64(41)).Return(openTestDeposit(41), nil).Once()

		rec := f.do(http.MethodGet, "/api/deposits/41", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp depositResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, int64(41), resp.ID)
		assert.Equal(t, "1000", resp.Amount)
		assert.Empty(t, resp.AccruedInterest)
		assert.Nil(t, resp.WithdrawnAt)
	})

	t.Run("returns settlement fields for a withdrawn deposit", func(t *testing.T) {
		f := newRouterFixture(t)

		withdrawnAt := testBaseTime.AddDate(0, 0, 30)
		deposit := openTestDeposit(41)
		deposit.Status = entities.DepositStatusWithdrawn
		deposit.AccruedInterestAtWithdrawal = 9_910_164
		deposit.BonusPaid = 50_495_508
		deposit.WithdrawnAt = &withdrawnAt
		f.ops.On("GetDeposit", mock.Anything, int64(41)).Return(deposit, nil).Once()

		rec := f.do(http.MethodGet, "/api/deposits/41", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp depositResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "9.910164", resp.AccruedInterest)
		assert.Equal(t, "50.495508", resp.BonusPaid)
		assert.Equal(t, "0", resp.PenaltyPaid)
		require.NotNil(t, resp.WithdrawnAt)
		assert.True(t, withdrawnAt.Equal(*resp.WithdrawnAt))
	})

	t.Run("returns 404 for an unknown deposit", func(t *testing.T) {
		f := newRouterFixture(t)

		f.ops.On("GetDeposit", mock.Anything, int64(999)).Return(nil, nil).Once()

		rec := f.do(http.MethodGet, "/api/deposits/999", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, entities.ErrCodeDepositNotFound, decodeErrorBody(t, rec).Code)
	})

	t.Run("projects accrued interest", func(t *testing.T) {
		f := newRouterFixture(t)

		f.ops.On("CalculateCurrentInterest", mock.Anything, int64(41)).Return(int64(2_303_638), nil).Once()

		rec := f.do(http.MethodGet, "/api/deposits/41/interest", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp interestResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, int64(41), resp.DepositID)
		assert.Equal(t, "2.303638", resp.AccruedInterest)
	})

	t.Run("lists an owner's deposits", func(t *testing.T) {
		f := newRouterFixture(t)

		deposits := []*entities.Deposit{openTestDeposit(41), openTestDeposit(42)}
		f.ops.On("ListDeposits", mock.Anything, "owner:alice").Return(deposits, nil).Once()

		rec := f.do(http.MethodGet, "/api/users/owner:alice/deposits", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp []depositResponse
		decodeBody(t, rec, &resp)
		require.Len(t, resp, 2)
		assert.Equal(t, int64(41), resp[0].ID)
		assert.Equal(t, int64(42), resp[1].ID)
	})

	t.Run("returns an empty list rather than null", func(t *testing.T) {
		f := newRouterFixture(t)

		f.ops.On("ListDeposits", mock.Anything, "owner:nobody").Return([]*entities.Deposit{}, nil).Once()

		rec := f.do(http.MethodGet, "/api/users/owner:nobody/deposits", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("returns the owner's summary", func(t *testing.T) {
		f := newRouterFixture(t)

		preferred := int64(30)
		summary := &entities.UserSummary{
			Owner:            "owner:alice",
			TotalDeposited:   2_000_000_000,
			TotalWithdrawn:   1_060_405_672,
			TotalEarned:      60_405_672,
			TransactionCount: 3,
			LastActivity:     testBaseTime,
			PreferredPlanID:  &preferred,
			ActiveDeposits:   1,
			LockedPrincipal:  1_000_000_000,
		}
		f.ops.On("GetUserSummary", mock.Anything, "owner:alice").Return(summary, nil).Once()

		rec := f.do(http.MethodGet, "/api/users/owner:alice/summary", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp userSummaryResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "2000", resp.TotalDeposited)
		assert.Equal(t, "1060.405672", resp.TotalWithdrawn)
		assert.Equal(t, "60.405672", resp.TotalEarned)
		assert.Equal(t, "1000", resp.LockedPrincipal)
		assert.Equal(t, int64(1), resp.ActiveDeposits)
		require.NotNil(t, resp.PreferredPlanID)
		assert.Equal(t, int64(30), *resp.PreferredPlanID)
	})
}
