package observability

// Metric name prefixes
const (
	MetricPrefix = "piggyvault"
)

// Metric names
const (
	// Deposit lifecycle metrics
	DepositsCreatedTotal    = MetricPrefix + ".deposits.created_total"
	WithdrawalsTotal        = MetricPrefix + ".deposits.withdrawals_total"
	PenaltiesCollectedUnits = MetricPrefix + ".deposits.penalties_collected_units_total"
	ActivePositions         = MetricPrefix + ".positions.active"

	// Yield metrics
	InterestAccruedUnits = MetricPrefix + ".interest.accrued_units_total"
	AccrualSweepDuration = MetricPrefix + ".accrual.sweep_duration"

	// Reward metrics
	BonusesPaidUnits         = MetricPrefix + ".rewards.bonuses_paid_units_total"
	MilestonesAwardedTotal   = MetricPrefix + ".rewards.milestones_awarded_total"
	RewardPoolAvailableUnits = MetricPrefix + ".rewards.pool_available_units"

	// NATS metrics
	NATSEventsPublishedTotal = MetricPrefix + ".nats.events_published_total"
)

// Label keys
const (
	LabelKind      = "kind"
	LabelEventType = "event_type"
)

// Withdrawal kinds
const (
	WithdrawalKindMatured   = "matured"
	WithdrawalKindEmergency = "emergency"
)
