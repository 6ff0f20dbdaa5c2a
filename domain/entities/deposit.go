package entities

import (
	"time"
)

// DepositStatus represents where a deposit is in its lifecycle
type DepositStatus string

const (
	DepositStatusOpen               DepositStatus = "open"
	DepositStatusWithdrawn          DepositStatus = "withdrawn"
	DepositStatusEmergencyWithdrawn DepositStatus = "emergency_withdrawn"
)

// IsTerminal returns true once a deposit can no longer change state
func (s DepositStatus) IsTerminal() bool {
	return s == DepositStatusWithdrawn || s == DepositStatusEmergencyWithdrawn
}

// String returns the string representation of the status
func (s DepositStatus) String() string {
	return string(s)
}

// Deposit is the audit record of a time-locked principal. Rows are append-only:
// a deposit is never deleted, and its status moves open -> withdrawn or
// open -> emergency_withdrawn exactly once.
type Deposit struct {
	ID                          int64         `db:"id"`
	Owner                       string        `db:"owner"`
	Amount                      int64         `db:"amount"`
	PlanID                      int64         `db:"plan_id"`
	PositionID                  int64         `db:"position_id"`
	CreatedAt                   time.Time     `db:"created_at"`
	MaturityAt                  time.Time     `db:"maturity_at"`
	Status                      DepositStatus `db:"status"`
	AccruedInterestAtWithdrawal int64         `db:"accrued_interest_at_withdrawal"`
	BonusPaid                   int64         `db:"bonus_paid"`
	PenaltyPaid                 int64         `db:"penalty_paid"`
	WithdrawnAt                 *time.Time    `db:"withdrawn_at"`
}

// IsOpen returns true while the deposit can still be withdrawn
func (d *Deposit) IsOpen() bool {
	return d.Status == DepositStatusOpen
}

// IsMatured returns true once the lock period has ended
func (d *Deposit) IsMatured(now time.Time) bool {
	return !now.Before(d.MaturityAt)
}

// IsOwnedBy checks deposit ownership
func (d *Deposit) IsOwnedBy(owner string) bool {
	return d.Owner == owner
}

// Elapsed returns how long the deposit has been held at the given time
func (d *Deposit) Elapsed(now time.Time) time.Duration {
	if now.Before(d.CreatedAt) {
		return 0
	}
	return now.Sub(d.CreatedAt)
}

// DepositResult is the outcome of a successful deposit creation. Milestones
// lists the categories this deposit newly reached; the caller delivers the
// badge notifications for them after the transaction commits.
type DepositResult struct {
	Deposit                 *Deposit
	EffectiveAPYBasisPoints int64
	Milestones              []MilestoneCategory
}

// WithdrawalResult is the settlement breakdown of a completed withdrawal.
// For a matured withdrawal Payout = Principal + Interest + Bonus; for an
// emergency withdrawal Payout = Principal - Penalty and Interest reports the
// forfeited accrual.
type WithdrawalResult struct {
	DepositID   int64
	Owner       string
	Status      DepositStatus
	Principal   int64
	Interest    int64
	Bonus       int64
	Penalty     int64
	Payout      int64
	CompletedAt time.Time
}
