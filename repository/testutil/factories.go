package testutil

import (
	"time"

	"piggyvault/domain/entities"
)

// CreateTestPlan creates a plan definition with sensible defaults. The ID is
// the duration in days, matching the seeded plan convention.
func CreateTestPlan(id int64) *entities.SavingsPlan {
	return &entities.SavingsPlan{
		ID:                        id,
		DurationSeconds:           id * 86400,
		BaseAPYBasisPoints:        1200,
		MinAmount:                 1_000_000,
		MaxAmount:                 1_000_000_000_000,
		PenaltyRateBasisPoints:    200,
		MinimumHoldSeconds:        id * 86400 / 2,
		PlanMultiplierBasisPoints: entities.DefaultPlanMultiplierBasisPoints,
		Active:                    true,
	}
}

// CreateTestPosition creates an active position starting at the given time
func CreateTestPosition(principal int64, start time.Time, durationDays int64) *entities.YieldPosition {
	return &entities.YieldPosition{
		Principal:               principal,
		AccruedInterest:         0,
		BonusAwarded:            0,
		StartTime:               start,
		EndTime:                 start.Add(time.Duration(durationDays) * 24 * time.Hour),
		EffectiveAPYBasisPoints: 1200,
		LastUpdateTime:          start,
		IsActive:                true,
	}
}

// CreateTestDeposit creates an open deposit. Maturity is derived from the
// plan ID, which is a duration in days for seeded plans.
func CreateTestDeposit(owner string, amount, planID, positionID int64, createdAt time.Time) *entities.Deposit {
	return &entities.Deposit{
		Owner:      owner,
		Amount:     amount,
		PlanID:     planID,
		PositionID: positionID,
		CreatedAt:  createdAt,
		MaturityAt: createdAt.Add(time.Duration(planID) * 24 * time.Hour),
		Status:     entities.DepositStatusOpen,
	}
}

// CreateTestLedgerEntry creates a ledger entry with a consistent balance pair
func CreateTestLedgerEntry(owner string, entryType entities.LedgerEntryType, amount, balanceBefore int64) *entities.LedgerEntry {
	return &entities.LedgerEntry{
		Owner:         owner,
		EntryType:     entryType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore + amount,
		Metadata: map[string]any{
			"test": true,
		},
	}
}

// CreateTestAccrualRun creates an accrual run audit record
func CreateTestAccrualRun(runAt time.Time) *entities.AccrualRun {
	return &entities.AccrualRun{
		RunAt:            runAt,
		PositionsScanned: 10,
		PositionsUpdated: 8,
		InterestAccrued:  5000,
		DurationMillis:   125,
	}
}
