package entities

import (
	"errors"
	"time"
)

// YieldPosition is the accrual bookkeeping record paired 1:1 with a Deposit.
// AccruedInterest only ever grows while the position is active; finalization
// freezes it for audit instead of resetting it. Bonuses are tracked in
// BonusAwarded so pool-funded payouts never masquerade as earned interest.
type YieldPosition struct {
	ID                      int64      `db:"id"`
	Principal               int64      `db:"principal"`
	AccruedInterest         int64      `db:"accrued_interest"`
	BonusAwarded            int64      `db:"bonus_awarded"`
	StartTime               time.Time  `db:"start_time"`
	EndTime                 time.Time  `db:"end_time"`
	EffectiveAPYBasisPoints int64      `db:"effective_apy_basis_points"`
	LastUpdateTime          time.Time  `db:"last_update_time"`
	IsActive                bool       `db:"is_active"`
	FinalizedAt             *time.Time `db:"finalized_at"`
}

// CappedTime clamps a timestamp to the position's accrual window end
func (p *YieldPosition) CappedTime(now time.Time) time.Time {
	if now.After(p.EndTime) {
		return p.EndTime
	}
	return now
}

// TotalDuration returns the full accrual window length
func (p *YieldPosition) TotalDuration() time.Duration {
	return p.EndTime.Sub(p.StartTime)
}

// PendingElapsed returns the not-yet-accrued span up to the given time,
// zero when the position is already up to date
func (p *YieldPosition) PendingElapsed(now time.Time) time.Duration {
	capped := p.CappedTime(now)
	if !capped.After(p.LastUpdateTime) {
		return 0
	}
	return capped.Sub(p.LastUpdateTime)
}

// CompoundedBase returns the amount interest compounds on: principal plus
// everything accrued so far. The bonus never compounds.
func (p *YieldPosition) CompoundedBase() int64 {
	return p.Principal + p.AccruedInterest
}

// Validate checks the position's internal invariants
func (p *YieldPosition) Validate() error {
	if p.Principal <= 0 {
		return errors.New("principal must be positive")
	}
	if !p.EndTime.After(p.StartTime) {
		return errors.New("end time must be after start time")
	}
	if p.LastUpdateTime.Before(p.StartTime) || p.LastUpdateTime.After(p.EndTime) {
		return errors.New("last update time must be within the accrual window")
	}
	if p.AccruedInterest < 0 || p.BonusAwarded < 0 {
		return errors.New("accrued interest and bonus cannot be negative")
	}
	return nil
}
