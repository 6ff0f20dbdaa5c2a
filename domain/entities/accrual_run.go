package entities

import "time"

// AccrualRun is the audit record of one background accrual sweep over all
// active positions.
type AccrualRun struct {
	ID               int64     `db:"id"`
	RunAt            time.Time `db:"run_at"`
	PositionsScanned int64     `db:"positions_scanned"`
	PositionsUpdated int64     `db:"positions_updated"`
	InterestAccrued  int64     `db:"interest_accrued"`
	DurationMillis   int64     `db:"duration_millis"`
	CreatedAt        time.Time `db:"created_at"`
}
