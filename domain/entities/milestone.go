package entities

import "time"

// MilestoneCategory is the idempotence key for reward notifications. Each
// (owner, category) pair is notified at most once, ever.
type MilestoneCategory string

const (
	MilestoneFirstDeposit MilestoneCategory = "first_deposit"

	// Single-deposit amount thresholds, in whole asset units
	MilestoneAmount100   MilestoneCategory = "amount_100"
	MilestoneAmount1000  MilestoneCategory = "amount_1000"
	MilestoneAmount10000 MilestoneCategory = "amount_10000"

	// Cumulative locked plan-days tiers
	MilestoneTierStarter  MilestoneCategory = "starter"
	MilestoneTierSaver    MilestoneCategory = "saver"
	MilestoneTierInvestor MilestoneCategory = "investor"
	MilestoneTierChampion MilestoneCategory = "champion"
)

// String returns the string representation of the category
func (c MilestoneCategory) String() string {
	return string(c)
}

// Milestone records that an owner reached a category, so repeat deposits
// never re-trigger the same badge.
type Milestone struct {
	ID        int64             `db:"id"`
	Owner     string            `db:"owner"`
	Category  MilestoneCategory `db:"category"`
	AwardedAt time.Time         `db:"awarded_at"`
}

// AmountMilestones resolves the amount-threshold categories a single deposit
// reaches. unitScale is the base units per whole asset unit (10^decimals).
func AmountMilestones(amount, unitScale int64) []MilestoneCategory {
	if unitScale <= 0 {
		return nil
	}
	var reached []MilestoneCategory
	if amount >= 100*unitScale {
		reached = append(reached, MilestoneAmount100)
	}
	if amount >= 1000*unitScale {
		reached = append(reached, MilestoneAmount1000)
	}
	if amount >= 10000*unitScale {
		reached = append(reached, MilestoneAmount10000)
	}
	return reached
}

// TierForPlanDays resolves the loyalty tier for an owner's cumulative locked
// plan-days across all their deposits.
func TierForPlanDays(cumulativeDays int64) MilestoneCategory {
	switch {
	case cumulativeDays <= 30:
		return MilestoneTierStarter
	case cumulativeDays <= 90:
		return MilestoneTierSaver
	case cumulativeDays <= 180:
		return MilestoneTierInvestor
	default:
		return MilestoneTierChampion
	}
}
