package entities

import "time"

// RewardPool is the single admin-funded pool maturity bonuses are drawn from.
// Distributed never exceeds TotalPool; a bonus the pool cannot cover in full
// is clamped to zero by the withdrawal path, never partially paid.
type RewardPool struct {
	ID          int       `db:"id"`
	TotalPool   int64     `db:"total_pool"`
	Distributed int64     `db:"distributed"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Available returns the undistributed remainder of the pool
func (rp *RewardPool) Available() int64 {
	if rp.Distributed >= rp.TotalPool {
		return 0
	}
	return rp.TotalPool - rp.Distributed
}

// CanCover reports whether the pool can pay the full bonus
func (rp *RewardPool) CanCover(bonus int64) bool {
	return bonus >= 0 && bonus <= rp.Available()
}
