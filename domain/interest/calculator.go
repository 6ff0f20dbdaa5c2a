// Package interest implements the vault's fixed-point rate math. Every
// function is pure and total: integer arithmetic only, multiplication before
// division, saturating subtraction, and zero returned for degenerate inputs.
package interest

import (
	"math"
	"math/big"
	"time"
)

const (
	// BasisPoints is the rate scale: 10000 = 100%
	BasisPoints int64 = 10000
	// DaysPerYear is the compounding calendar used for all annual rates
	DaysPerYear int64 = 365

	// MinMultiplierBasisPoints and MaxMultiplierBasisPoints bound the plan and
	// global APY multipliers to 0.5x-2.0x so rates can neither run away nor
	// collapse to zero.
	MinMultiplierBasisPoints int64 = 5000
	MaxMultiplierBasisPoints int64 = 20000

	// DefaultMaxCompoundingDays bounds the compounding iteration count
	DefaultMaxCompoundingDays = 365

	secondsPerDay  int64 = 86400
	secondsPerYear int64 = DaysPerYear * secondsPerDay
)

// CompoundingMode selects how multi-day interest is compounded
type CompoundingMode string

const (
	// CompoundingIterative multiplies the daily factor once per day,
	// truncating at every step. This matches ledger implementations that
	// bound per-call work and is the default.
	CompoundingIterative CompoundingMode = "iterative"
	// CompoundingClosedForm raises the daily factor to the day count and
	// divides once, so precision is lost only at the final truncation.
	CompoundingClosedForm CompoundingMode = "closed_form"
)

// Calculator computes interest, penalties, and bonuses. It carries no state
// beyond its compounding configuration and is safe for concurrent use.
type Calculator struct {
	mode    CompoundingMode
	maxDays int64
}

// NewCalculator creates a calculator with the given compounding mode and day
// cap. Unknown modes fall back to iterative; a non-positive cap falls back to
// the default.
func NewCalculator(mode CompoundingMode, maxCompoundingDays int) *Calculator {
	if mode != CompoundingClosedForm {
		mode = CompoundingIterative
	}
	days := int64(maxCompoundingDays)
	if days <= 0 {
		days = DefaultMaxCompoundingDays
	}
	return &Calculator{mode: mode, maxDays: days}
}

// NewDefaultCalculator creates an iterative calculator with the standard
// 365-day compounding cap.
func NewDefaultCalculator() *Calculator {
	return NewCalculator(CompoundingIterative, DefaultMaxCompoundingDays)
}

// CompoundInterest returns the interest earned on principal at the given APY
// over elapsed time. Elapsed time is capped to totalDuration. Spans under one
// day earn simple pro-rata interest; longer spans compound once per whole day
// up to the configured day cap, with no separate accrual for the remainder
// beyond the cap. Returns 0 if any input is zero or negative.
func (c *Calculator) CompoundInterest(principal, apyBasisPoints int64, elapsed, totalDuration time.Duration) int64 {
	if principal <= 0 || apyBasisPoints <= 0 || elapsed <= 0 || totalDuration <= 0 {
		return 0
	}
	if elapsed > totalDuration {
		elapsed = totalDuration
	}
	elapsedSeconds := int64(elapsed / time.Second)
	if elapsedSeconds <= 0 {
		return 0
	}
	days := elapsedSeconds / secondsPerDay
	if days == 0 {
		return simpleInterest(principal, apyBasisPoints, elapsedSeconds)
	}
	if days > c.maxDays {
		days = c.maxDays
	}
	if c.mode == CompoundingClosedForm {
		return compoundClosedForm(principal, apyBasisPoints, days)
	}
	return compoundIterative(principal, apyBasisPoints, days)
}

// EarlyWithdrawalPenalty returns the fee for exiting before maturity. The full
// rate applies while elapsed is under minimumHold; after that the penalty
// decreases linearly, reaching zero once elapsed covers twice the minimum
// hold. Never negative, never more than the full rate.
func (c *Calculator) EarlyWithdrawalPenalty(principal, penaltyRateBasisPoints int64, elapsed, minimumHold time.Duration) int64 {
	if principal <= 0 || penaltyRateBasisPoints <= 0 || minimumHold <= 0 {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	full := mulDiv(principal, penaltyRateBasisPoints, BasisPoints)
	if elapsed < minimumHold {
		return full
	}
	window := 2 * minimumHold
	if elapsed >= window {
		return 0
	}
	remainingSeconds := int64((window - elapsed) / time.Second)
	windowSeconds := int64(window / time.Second)
	if windowSeconds <= 0 {
		return 0
	}
	return mulDiv(full, remainingSeconds, windowSeconds)
}

// EffectiveAPY composes a plan's base APY with the plan and global
// multipliers. Both multipliers are clamped into
// [MinMultiplierBasisPoints, MaxMultiplierBasisPoints] before applying.
func (c *Calculator) EffectiveAPY(baseAPYBasisPoints, planMultiplierBasisPoints, globalMultiplierBasisPoints int64) int64 {
	if baseAPYBasisPoints <= 0 {
		return 0
	}
	apy := mulDiv(baseAPYBasisPoints, ClampMultiplier(planMultiplierBasisPoints), BasisPoints)
	return mulDiv(apy, ClampMultiplier(globalMultiplierBasisPoints), BasisPoints)
}

// MaturityBonus returns the bonus paid on a matured withdrawal: bonusRate
// applied to principal plus earned interest.
func (c *Calculator) MaturityBonus(principal, interestEarned, bonusRateBasisPoints int64) int64 {
	if bonusRateBasisPoints <= 0 {
		return 0
	}
	if principal < 0 {
		principal = 0
	}
	if interestEarned < 0 {
		interestEarned = 0
	}
	total := new(big.Int).SetInt64(principal)
	total.Add(total, big.NewInt(interestEarned))
	total.Mul(total, big.NewInt(bonusRateBasisPoints))
	total.Div(total, big.NewInt(BasisPoints))
	return clampToInt64(total)
}

// ClampMultiplier forces a multiplier into the allowed
// [MinMultiplierBasisPoints, MaxMultiplierBasisPoints] range.
func ClampMultiplier(multiplierBasisPoints int64) int64 {
	if multiplierBasisPoints < MinMultiplierBasisPoints {
		return MinMultiplierBasisPoints
	}
	if multiplierBasisPoints > MaxMultiplierBasisPoints {
		return MaxMultiplierBasisPoints
	}
	return multiplierBasisPoints
}

// ValidMultiplier reports whether a multiplier is inside the allowed range
// without clamping. Administrative input checks use this.
func ValidMultiplier(multiplierBasisPoints int64) bool {
	return multiplierBasisPoints >= MinMultiplierBasisPoints && multiplierBasisPoints <= MaxMultiplierBasisPoints
}

// SaturatingSub returns a-b floored at zero
func SaturatingSub(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return 0
}

// simpleInterest is the pro-rata formula for spans under one day:
// principal * apy * elapsedSeconds / (BasisPoints * secondsPerYear).
func simpleInterest(principal, apyBasisPoints, elapsedSeconds int64) int64 {
	out := new(big.Int).SetInt64(principal)
	out.Mul(out, big.NewInt(apyBasisPoints))
	out.Mul(out, big.NewInt(elapsedSeconds))
	out.Div(out, big.NewInt(BasisPoints*secondsPerYear))
	return clampToInt64(out)
}

// compoundIterative applies the daily factor (denom + apy) / denom once per
// day, truncating after each multiplication.
func compoundIterative(principal, apyBasisPoints, days int64) int64 {
	num := big.NewInt(BasisPoints*DaysPerYear + apyBasisPoints)
	den := big.NewInt(BasisPoints * DaysPerYear)
	value := new(big.Int).SetInt64(principal)
	for i := int64(0); i < days; i++ {
		value.Mul(value, num)
		value.Div(value, den)
	}
	value.Sub(value, big.NewInt(principal))
	if value.Sign() < 0 {
		return 0
	}
	return clampToInt64(value)
}

// compoundClosedForm computes principal * ((denom + apy)^days / denom^days)
// with a single truncating division at the end.
func compoundClosedForm(principal, apyBasisPoints, days int64) int64 {
	exp := big.NewInt(days)
	num := new(big.Int).Exp(big.NewInt(BasisPoints*DaysPerYear+apyBasisPoints), exp, nil)
	den := new(big.Int).Exp(big.NewInt(BasisPoints*DaysPerYear), exp, nil)
	value := new(big.Int).SetInt64(principal)
	value.Mul(value, num)
	value.Div(value, den)
	value.Sub(value, big.NewInt(principal))
	if value.Sign() < 0 {
		return 0
	}
	return clampToInt64(value)
}

// mulDiv computes a*b/den without intermediate overflow
func mulDiv(a, b, den int64) int64 {
	if den == 0 {
		return 0
	}
	out := new(big.Int).SetInt64(a)
	out.Mul(out, big.NewInt(b))
	out.Div(out, big.NewInt(den))
	return clampToInt64(out)
}

// clampToInt64 saturates a big.Int into the int64 range
func clampToInt64(v *big.Int) int64 {
	if v.IsInt64() {
		return v.Int64()
	}
	if v.Sign() < 0 {
		return 0
	}
	return math.MaxInt64
}
