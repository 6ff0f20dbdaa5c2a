package interfaces

import (
	"context"
	"time"

	"piggyvault/domain/entities"
)

// VaultService defines the interface for the deposit lifecycle.
// All mutating operations are all-or-nothing within the enclosing unit of
// work, and callers must serialize mutations per owner.
type VaultService interface {
	// CreateDeposit validates the plan and amount, pulls funds from the owner
	// through the token ledger before any state is written, opens the yield
	// position, and records the deposit. Milestone records are awarded
	// idempotently in the same transaction; the result lists the newly reached
	// categories so the caller can notify the reward collaborator after commit.
	CreateDeposit(ctx context.Context, owner string, amount, planID int64) (*entities.DepositResult, error)

	// Withdraw settles a matured deposit: finalizes accrual, draws the
	// maturity bonus from the reward pool when it can cover it in full, marks
	// the deposit withdrawn, and only then pays out principal, interest, and
	// bonus.
	Withdraw(ctx context.Context, owner string, depositID int64) (*entities.WithdrawalResult, error)

	// EmergencyWithdraw exits a deposit at any time. Accrued interest is
	// forfeited and an early-exit penalty keyed to the plan's minimum hold is
	// retained by the treasury; the owner receives principal minus penalty.
	EmergencyWithdraw(ctx context.Context, owner string, depositID int64) (*entities.WithdrawalResult, error)

	// CalculateCurrentInterest projects the deposit's accrued interest at the
	// current clock reading without mutating state. The projection matches
	// exactly what an accrual at the same instant would store.
	CalculateCurrentInterest(ctx context.Context, depositID int64) (int64, error)

	// GetDeposit retrieves a deposit by ID, nil if not found
	GetDeposit(ctx context.Context, depositID int64) (*entities.Deposit, error)

	// ListDepositIDs returns the owner's deposit IDs in creation order
	ListDepositIDs(ctx context.Context, owner string) ([]int64, error)

	// ListDeposits returns the owner's deposits in creation order
	ListDeposits(ctx context.Context, owner string) ([]*entities.Deposit, error)

	// GetUserSummary returns the owner's cached counters plus live open
	// deposit count and locked principal. Owners with no history get zeros.
	GetUserSummary(ctx context.Context, owner string) (*entities.UserSummary, error)
}

// PositionLedger defines the interface for yield position accrual.
// Accrual is strictly idempotent for a fixed time and monotonic across
// non-decreasing times.
type PositionLedger interface {
	// Open creates an active position accruing from now
	Open(ctx context.Context, principal int64, duration time.Duration, effectiveAPYBasisPoints int64, now time.Time) (*entities.YieldPosition, error)

	// Accrue advances the position's interest to min(now, endTime). Calling it
	// again at the same instant, or on an inactive position, changes nothing.
	Accrue(ctx context.Context, positionID int64, now time.Time) (*entities.YieldPosition, error)

	// Finalize accrues once more, then freezes the position. A second call
	// fails with the position-already-finalized conflict.
	Finalize(ctx context.Context, positionID int64, now time.Time) (*entities.YieldPosition, error)

	// ApplyBonus records a pool-funded bonus on a finalized position, kept
	// separate from earned interest
	ApplyBonus(ctx context.Context, positionID int64, bonusAmount int64) error

	// Project computes the accrued interest a real accrual at now would store,
	// without touching state
	Project(position *entities.YieldPosition, now time.Time) int64
}

// PlanCatalog defines the interface for plan administration and lookup
type PlanCatalog interface {
	// GetPlan retrieves a plan by ID, nil if not found
	GetPlan(ctx context.Context, planID int64) (*entities.SavingsPlan, error)

	// ListPlans returns all plans, optionally only active ones
	ListPlans(ctx context.Context, activeOnly bool) ([]*entities.SavingsPlan, error)

	// EffectiveAPY composes the plan's base APY with its multiplier and the
	// global multiplier
	EffectiveAPY(ctx context.Context, plan *entities.SavingsPlan) (int64, error)

	// SetPlan creates or replaces a plan definition. Open positions keep the
	// rates they started with.
	SetPlan(ctx context.Context, plan *entities.SavingsPlan) (*entities.SavingsPlan, error)

	// SetPlanMultiplier updates a plan's APY multiplier, range-checked
	SetPlanMultiplier(ctx context.Context, planID, multiplierBasisPoints int64) error

	// SetGlobalMultiplier updates the global APY multiplier, range-checked
	SetGlobalMultiplier(ctx context.Context, multiplierBasisPoints int64) error

	// FundRewardPool pulls funds from the funder's account into the treasury
	// and grows the bonus pool by the same amount
	FundRewardPool(ctx context.Context, funder string, amount int64) (*entities.RewardPool, error)

	// GetRewardPool returns the current pool state
	GetRewardPool(ctx context.Context) (*entities.RewardPool, error)
}

// MilestoneService defines the interface for milestone evaluation
type MilestoneService interface {
	// EvaluateDeposit awards every category this deposit newly reaches
	// (first deposit, amount thresholds, cumulative plan-day tier), each at
	// most once per owner ever. Returns the newly awarded categories; badge
	// notifications for them are the caller's post-commit responsibility.
	EvaluateDeposit(ctx context.Context, owner string, amount, cumulativePlanDays int64) ([]entities.MilestoneCategory, error)

	// ListMilestones returns all milestones an owner has reached
	ListMilestones(ctx context.Context, owner string) ([]*entities.Milestone, error)
}
