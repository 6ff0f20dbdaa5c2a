package events

import (
	"time"

	"piggyvault/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeDepositCreated            EventType = "deposit_created"
	EventTypeDepositWithdrawn          EventType = "deposit_withdrawn"
	EventTypeDepositEmergencyWithdrawn EventType = "deposit_emergency_withdrawn"
	EventTypeMilestoneReached          EventType = "milestone_reached"
	EventTypeBalanceChanged            EventType = "balance_changed"
	EventTypeRewardPoolFunded          EventType = "reward_pool_funded"
	EventTypePlanUpdated               EventType = "plan_updated"
	EventTypeAccrualSweepCompleted     EventType = "accrual_sweep_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// DepositCreatedEvent represents a newly opened deposit
type DepositCreatedEvent struct {
	DepositID               int64
	Owner                   string
	Amount                  int64
	PlanID                  int64
	PositionID              int64
	EffectiveAPYBasisPoints int64
	MaturityAt              time.Time
}

func (e DepositCreatedEvent) Type() EventType {
	return EventTypeDepositCreated
}

// DepositWithdrawnEvent represents a matured deposit paid out in full
type DepositWithdrawnEvent struct {
	DepositID int64
	Owner     string
	Principal int64
	Interest  int64
	Bonus     int64
	Payout    int64
}

func (e DepositWithdrawnEvent) Type() EventType {
	return EventTypeDepositWithdrawn
}

// DepositEmergencyWithdrawnEvent represents an early exit with penalty
type DepositEmergencyWithdrawnEvent struct {
	DepositID         int64
	Owner             string
	Principal         int64
	Penalty           int64
	Payout            int64
	InterestForfeited int64
}

func (e DepositEmergencyWithdrawnEvent) Type() EventType {
	return EventTypeDepositEmergencyWithdrawn
}

// MilestoneReachedEvent asks the badge service to mint a reward.
// Published at most once per (owner, category).
type MilestoneReachedEvent struct {
	Owner    string
	Category entities.MilestoneCategory
}

func (e MilestoneReachedEvent) Type() EventType {
	return EventTypeMilestoneReached
}

// BalanceChangedEvent represents a token account balance change
type BalanceChangedEvent struct {
	Owner        string
	OldBalance   int64
	NewBalance   int64
	ChangeAmount int64
	EntryType    entities.LedgerEntryType
}

func (e BalanceChangedEvent) Type() EventType {
	return EventTypeBalanceChanged
}

// RewardPoolFundedEvent represents an administrative pool top-up
type RewardPoolFundedEvent struct {
	Funder    string
	Amount    int64
	TotalPool int64
}

func (e RewardPoolFundedEvent) Type() EventType {
	return EventTypeRewardPoolFunded
}

// PlanUpdatedEvent represents an administrative plan change
type PlanUpdatedEvent struct {
	PlanID             int64
	BaseAPYBasisPoints int64
	Active             bool
}

func (e PlanUpdatedEvent) Type() EventType {
	return EventTypePlanUpdated
}

// AccrualSweepCompletedEvent summarizes one background accrual pass
type AccrualSweepCompletedEvent struct {
	RunID            int64
	PositionsUpdated int64
	InterestAccrued  int64
}

func (e AccrualSweepCompletedEvent) Type() EventType {
	return EventTypeAccrualSweepCompleted
}
