package entities

import "time"

// UserSummary caches per-owner counters, updated in the same transaction as
// every deposit mutation. It is bookkeeping only: all fields are
// reconstructible from the deposit log and ledger entries.
type UserSummary struct {
	Owner            string    `db:"owner"`
	TotalDeposited   int64     `db:"total_deposited"`
	TotalWithdrawn   int64     `db:"total_withdrawn"`
	TotalEarned      int64     `db:"total_earned"`
	TransactionCount int64     `db:"transaction_count"`
	LastActivity     time.Time `db:"last_activity"`
	PreferredPlanID  *int64    `db:"preferred_plan_id"`

	// Populated from live deposit queries, not stored
	ActiveDeposits  int64 `db:"-"`
	LockedPrincipal int64 `db:"-"`
}

// HasActivity returns true once the owner has made at least one transaction
func (s *UserSummary) HasActivity() bool {
	return s.TransactionCount > 0
}
