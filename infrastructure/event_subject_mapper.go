package infrastructure

import (
	"fmt"

	"piggyvault/domain/events"
)

// BadgeRequestSubject is the subject the reward notifier publishes badge
// minting requests to. The badge service consumes it; no consumer lives in
// this process.
const BadgeRequestSubject = "rewards.badge_requests"

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeDepositCreated:
		return "deposits.created"
	case events.EventTypeDepositWithdrawn:
		return "deposits.withdrawn"
	case events.EventTypeDepositEmergencyWithdrawn:
		return "deposits.emergency_withdrawn"
	case events.EventTypeMilestoneReached:
		return "rewards.milestone_reached"
	case events.EventTypeRewardPoolFunded:
		return "rewards.pool_funded"
	case events.EventTypeBalanceChanged:
		return "accounts.balance_changed"
	case events.EventTypePlanUpdated:
		return "plans.updated"
	case events.EventTypeAccrualSweepCompleted:
		return "accrual.sweep_completed"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "deposits.created":
		return events.EventTypeDepositCreated
	case "deposits.withdrawn":
		return events.EventTypeDepositWithdrawn
	case "deposits.emergency_withdrawn":
		return events.EventTypeDepositEmergencyWithdrawn
	case "rewards.milestone_reached":
		return events.EventTypeMilestoneReached
	case "rewards.pool_funded":
		return events.EventTypeRewardPoolFunded
	case "accounts.balance_changed":
		return events.EventTypeBalanceChanged
	case "plans.updated":
		return events.EventTypePlanUpdated
	case "accrual.sweep_completed":
		return events.EventTypeAccrualSweepCompleted
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"deposits.created",
		"deposits.withdrawn",
		"deposits.emergency_withdrawn",
		"rewards.milestone_reached",
		"rewards.pool_funded",
		"accounts.balance_changed",
		"plans.updated",
		"accrual.sweep_completed",
		BadgeRequestSubject,
	}
}
