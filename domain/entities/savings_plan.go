package entities

import (
	"errors"
	"time"
)

// DefaultPlanMultiplierBasisPoints is the neutral per-plan APY multiplier (1.0x)
const DefaultPlanMultiplierBasisPoints int64 = 10000

// SavingsPlan defines a deposit product: lock duration, rate, and amount limits.
// Plans are identified by their duration in days. A plan is never deleted, only
// deactivated; open positions keep the effective APY they were created with.
type SavingsPlan struct {
	ID                        int64     `db:"id"`
	DurationSeconds           int64     `db:"duration_seconds"`
	BaseAPYBasisPoints        int64     `db:"base_apy_basis_points"`
	MinAmount                 int64     `db:"min_amount"`
	MaxAmount                 int64     `db:"max_amount"`
	PenaltyRateBasisPoints    int64     `db:"penalty_rate_basis_points"`
	MinimumHoldSeconds        int64     `db:"minimum_hold_seconds"`
	PlanMultiplierBasisPoints int64     `db:"plan_multiplier_basis_points"`
	Active                    bool      `db:"active"`
	CreatedAt                 time.Time `db:"created_at"`
	UpdatedAt                 time.Time `db:"updated_at"`
}

// Duration returns the plan's lock period
func (p *SavingsPlan) Duration() time.Duration {
	return time.Duration(p.DurationSeconds) * time.Second
}

// MinimumHold returns the hold period below which the full early-exit penalty applies
func (p *SavingsPlan) MinimumHold() time.Duration {
	return time.Duration(p.MinimumHoldSeconds) * time.Second
}

// DurationDays returns the lock period in whole days
func (p *SavingsPlan) DurationDays() int64 {
	return p.DurationSeconds / (24 * 3600)
}

// MaturityFor returns the maturity timestamp for a deposit created at the given time
func (p *SavingsPlan) MaturityFor(createdAt time.Time) time.Time {
	return createdAt.Add(p.Duration())
}

// AmountWithinLimits checks a deposit amount against the plan's bounds
func (p *SavingsPlan) AmountWithinLimits(amount int64) bool {
	return amount >= p.MinAmount && amount <= p.MaxAmount
}

// Validate checks the plan definition itself (admin input, not deposit input)
func (p *SavingsPlan) Validate() error {
	if p.ID <= 0 {
		return errors.New("plan id must be positive")
	}
	if p.DurationSeconds <= 0 {
		return errors.New("plan duration must be positive")
	}
	if p.BaseAPYBasisPoints < 0 {
		return errors.New("base APY cannot be negative")
	}
	if p.MinAmount <= 0 {
		return errors.New("minimum amount must be positive")
	}
	if p.MaxAmount < p.MinAmount {
		return errors.New("maximum amount cannot be below minimum amount")
	}
	if p.PenaltyRateBasisPoints < 0 || p.PenaltyRateBasisPoints > 10000 {
		return errors.New("penalty rate must be within [0, 10000] basis points")
	}
	if p.MinimumHoldSeconds < 0 || p.MinimumHoldSeconds > p.DurationSeconds {
		return errors.New("minimum hold must be within the plan duration")
	}
	return nil
}
