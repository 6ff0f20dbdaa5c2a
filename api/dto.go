package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"piggyvault/config"
	"piggyvault/domain/entities"
)

// Amounts cross the wire as decimal strings ("100.5") and are converted to
// base ledger units at the configured asset precision on the way in.

// parseAmount converts a decimal string into base ledger units. Values with
// more fractional digits than the asset carries are rejected rather than
// rounded.
func parseAmount(value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a decimal number", value)
	}

	decimals := config.Get().AssetDecimals
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", value, decimals)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q is out of range", value)
	}
	return scaled.IntPart(), nil
}

// formatUnits renders base ledger units as a decimal string
func formatUnits(units int64) string {
	return decimal.New(units, -int32(config.Get().AssetDecimals)).String()
}

type createDepositRequest struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
	PlanID int64  `json:"plan_id"`
}

type withdrawRequest struct {
	Owner string `json:"owner"`
}

type depositResponse struct {
	ID         int64     `json:"id"`
	Owner      string    `json:"owner"`
	Amount     string    `json:"amount"`
	PlanID     int64     `json:"plan_id"`
	PositionID int64     `json:"position_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	MaturityAt time.Time `json:"maturity_at"`

	// Settlement fields, populated once the deposit reaches a terminal state
	AccruedInterest string     `json:"accrued_interest,omitempty"`
	BonusPaid       string     `json:"bonus_paid,omitempty"`
	PenaltyPaid     string     `json:"penalty_paid,omitempty"`
	WithdrawnAt     *time.Time `json:"withdrawn_at,omitempty"`
}

type createDepositResponse struct {
	Deposit                 depositResponse `json:"deposit"`
	EffectiveAPYBasisPoints int64           `json:"effective_apy_basis_points"`
	Milestones              []string        `json:"milestones"`
}

type withdrawalResponse struct {
	DepositID   int64     `json:"deposit_id"`
	Owner       string    `json:"owner"`
	Status      string    `json:"status"`
	Principal   string    `json:"principal"`
	Interest    string    `json:"interest"`
	Bonus       string    `json:"bonus"`
	Penalty     string    `json:"penalty"`
	Payout      string    `json:"payout"`
	CompletedAt time.Time `json:"completed_at"`
}

type interestResponse struct {
	DepositID       int64  `json:"deposit_id"`
	AccruedInterest string `json:"accrued_interest"`
}

type userSummaryResponse struct {
	Owner            string    `json:"owner"`
	TotalDeposited   string    `json:"total_deposited"`
	TotalWithdrawn   string    `json:"total_withdrawn"`
	TotalEarned      string    `json:"total_earned"`
	LockedPrincipal  string    `json:"locked_principal"`
	ActiveDeposits   int64     `json:"active_deposits"`
	TransactionCount int64     `json:"transaction_count"`
	LastActivity     time.Time `json:"last_activity"`
	PreferredPlanID  *int64    `json:"preferred_plan_id,omitempty"`
}

type planResponse struct {
	ID                        int64  `json:"id"`
	DurationDays              int64  `json:"duration_days"`
	BaseAPYBasisPoints        int64  `json:"base_apy_basis_points"`
	MinAmount                 string `json:"min_amount"`
	MaxAmount                 string `json:"max_amount"`
	PenaltyRateBasisPoints    int64  `json:"penalty_rate_basis_points"`
	MinimumHoldDays           int64  `json:"minimum_hold_days"`
	PlanMultiplierBasisPoints int64  `json:"plan_multiplier_basis_points"`
	Active                    bool   `json:"active"`
}

type upsertPlanRequest struct {
	DurationDays              int64  `json:"duration_days"`
	BaseAPYBasisPoints        int64  `json:"base_apy_basis_points"`
	MinAmount                 string `json:"min_amount"`
	MaxAmount                 string `json:"max_amount"`
	PenaltyRateBasisPoints    int64  `json:"penalty_rate_basis_points"`
	MinimumHoldDays           int64  `json:"minimum_hold_days"`
	PlanMultiplierBasisPoints int64  `json:"plan_multiplier_basis_points"`
	Active                    bool   `json:"active"`
}

// toPlan builds the plan entity stored under the given ID. Durations arrive
// in whole days and are held in seconds internally.
func (r *upsertPlanRequest) toPlan(planID int64) (*entities.SavingsPlan, error) {
	minAmount, err := parseAmount(r.MinAmount)
	if err != nil {
		return nil, err
	}
	maxAmount, err := parseAmount(r.MaxAmount)
	if err != nil {
		return nil, err
	}

	return &entities.SavingsPlan{
		ID:                        planID,
		DurationSeconds:           r.DurationDays * 86400,
		BaseAPYBasisPoints:        r.BaseAPYBasisPoints,
		MinAmount:                 minAmount,
		MaxAmount:                 maxAmount,
		PenaltyRateBasisPoints:    r.PenaltyRateBasisPoints,
		MinimumHoldSeconds:        r.MinimumHoldDays * 86400,
		PlanMultiplierBasisPoints: r.PlanMultiplierBasisPoints,
		Active:                    r.Active,
	}, nil
}

type multiplierRequest struct {
	MultiplierBasisPoints int64 `json:"multiplier_basis_points"`
}

type fundPoolRequest struct {
	// Funder defaults to the configured admin account when empty
	Funder string `json:"funder,omitempty"`
	Amount string `json:"amount"`
}

type rewardPoolResponse struct {
	TotalPool   string `json:"total_pool"`
	Distributed string `json:"distributed"`
	Available   string `json:"available"`
}

func toDepositResponse(d *entities.Deposit) depositResponse {
	resp := depositResponse{
		ID:         d.ID,
		Owner:      d.Owner,
		Amount:     formatUnits(d.Amount),
		PlanID:     d.PlanID,
		PositionID: d.PositionID,
		Status:     d.Status.String(),
		CreatedAt:  d.CreatedAt,
		MaturityAt: d.MaturityAt,
	}
	if d.Status.IsTerminal() {
		resp.AccruedInterest = formatUnits(d.AccruedInterestAtWithdrawal)
		resp.BonusPaid = formatUnits(d.BonusPaid)
		resp.PenaltyPaid = formatUnits(d.PenaltyPaid)
		resp.WithdrawnAt = d.WithdrawnAt
	}
	return resp
}

func toCreateDepositResponse(result *entities.DepositResult) createDepositResponse {
	milestones := make([]string, 0, len(result.Milestones))
	for _, category := range result.Milestones {
		milestones = append(milestones, string(category))
	}
	return createDepositResponse{
		Deposit:                 toDepositResponse(result.Deposit),
		EffectiveAPYBasisPoints: result.EffectiveAPYBasisPoints,
		Milestones:              milestones,
	}
}

func toWithdrawalResponse(result *entities.WithdrawalResult) withdrawalResponse {
	return withdrawalResponse{
		DepositID:   result.DepositID,
		Owner:       result.Owner,
		Status:      result.Status.String(),
		Principal:   formatUnits(result.Principal),
		Interest:    formatUnits(result.Interest),
		Bonus:       formatUnits(result.Bonus),
		Penalty:     formatUnits(result.Penalty),
		Payout:      formatUnits(result.Payout),
		CompletedAt: result.CompletedAt,
	}
}

func toUserSummaryResponse(s *entities.UserSummary) userSummaryResponse {
	return userSummaryResponse{
		Owner:            s.Owner,
		TotalDeposited:   formatUnits(s.TotalDeposited),
		TotalWithdrawn:   formatUnits(s.TotalWithdrawn),
		TotalEarned:      formatUnits(s.TotalEarned),
		LockedPrincipal:  formatUnits(s.LockedPrincipal),
		ActiveDeposits:   s.ActiveDeposits,
		TransactionCount: s.TransactionCount,
		LastActivity:     s.LastActivity,
		PreferredPlanID:  s.PreferredPlanID,
	}
}

func toPlanResponse(p *entities.SavingsPlan) planResponse {
	return planResponse{
		ID:                        p.ID,
		DurationDays:              p.DurationDays(),
		BaseAPYBasisPoints:        p.BaseAPYBasisPoints,
		MinAmount:                 formatUnits(p.MinAmount),
		MaxAmount:                 formatUnits(p.MaxAmount),
		PenaltyRateBasisPoints:    p.PenaltyRateBasisPoints,
		MinimumHoldDays:           p.MinimumHoldSeconds / 86400,
		PlanMultiplierBasisPoints: p.PlanMultiplierBasisPoints,
		Active:                    p.Active,
	}
}

func toRewardPoolResponse(pool *entities.RewardPool) rewardPoolResponse {
	return rewardPoolResponse{
		TotalPool:   formatUnits(pool.TotalPool),
		Distributed: formatUnits(pool.Distributed),
		Available:   formatUnits(pool.Available()),
	}
}
