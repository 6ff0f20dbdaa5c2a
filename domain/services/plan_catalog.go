package services

import (
	"context"
	"fmt"

	"piggyvault/domain/entities"
	"piggyvault/domain/events"
	"piggyvault/domain/interest"
	"piggyvault/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// planCatalog implements plan administration and rate composition. Plan
// changes only affect deposits created afterwards; open positions keep the
// effective APY they snapshotted at creation.
type planCatalog struct {
	planRepo   interfaces.SavingsPlanRepository
	configRepo interfaces.VaultConfigRepository
	poolRepo   interfaces.RewardPoolRepository
	ledger     interfaces.TokenLedger
	publisher  interfaces.EventPublisher
	calculator *interest.Calculator
}

// NewPlanCatalog creates a new plan catalog bound to the caller's unit of work
func NewPlanCatalog(
	planRepo interfaces.SavingsPlanRepository,
	configRepo interfaces.VaultConfigRepository,
	poolRepo interfaces.RewardPoolRepository,
	ledger interfaces.TokenLedger,
	publisher interfaces.EventPublisher,
) interfaces.PlanCatalog {
	return &planCatalog{
		planRepo:   planRepo,
		configRepo: configRepo,
		poolRepo:   poolRepo,
		ledger:     ledger,
		publisher:  publisher,
		calculator: interest.NewDefaultCalculator(),
	}
}

// GetPlan retrieves a plan by ID, nil if not found
func (c *planCatalog) GetPlan(ctx context.Context, planID int64) (*entities.SavingsPlan, error) {
	plan, err := c.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// ListPlans returns all plans, optionally only active ones
func (c *planCatalog) ListPlans(ctx context.Context, activeOnly bool) ([]*entities.SavingsPlan, error) {
	plans, err := c.planRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// EffectiveAPY composes the plan's base APY with its own multiplier and the
// global multiplier, both clamped to the allowed range
func (c *planCatalog) EffectiveAPY(ctx context.Context, plan *entities.SavingsPlan) (int64, error) {
	vaultConfig, err := c.configRepo.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get vault config: %w", err)
	}
	return c.calculator.EffectiveAPY(plan.BaseAPYBasisPoints, plan.PlanMultiplierBasisPoints, vaultConfig.GlobalMultiplierBasisPoints), nil
}

// SetPlan creates or replaces a plan definition
func (c *planCatalog) SetPlan(ctx context.Context, plan *entities.SavingsPlan) (*entities.SavingsPlan, error) {
	if plan.PlanMultiplierBasisPoints == 0 {
		plan.PlanMultiplierBasisPoints = entities.DefaultPlanMultiplierBasisPoints
	}
	if err := plan.Validate(); err != nil {
		return nil, entities.NewValidationError(entities.ErrCodeInvalidPlan, "invalid plan definition: %v", err)
	}
	if !interest.ValidMultiplier(plan.PlanMultiplierBasisPoints) {
		return nil, entities.NewValidationError(entities.ErrCodeMultiplierRange,
			"plan multiplier %d outside [%d, %d]", plan.PlanMultiplierBasisPoints,
			interest.MinMultiplierBasisPoints, interest.MaxMultiplierBasisPoints)
	}

	if err := c.planRepo.Upsert(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to upsert plan: %w", err)
	}

	log.WithFields(log.Fields{
		"planID":  plan.ID,
		"baseAPY": plan.BaseAPYBasisPoints,
		"active":  plan.Active,
	}).Info("Savings plan updated")

	c.publishPlanUpdated(plan)
	return plan, nil
}

// SetPlanMultiplier updates a plan's APY multiplier
func (c *planCatalog) SetPlanMultiplier(ctx context.Context, planID, multiplierBasisPoints int64) error {
	if !interest.ValidMultiplier(multiplierBasisPoints) {
		return entities.NewValidationError(entities.ErrCodeMultiplierRange,
			"multiplier %d outside [%d, %d]", multiplierBasisPoints,
			interest.MinMultiplierBasisPoints, interest.MaxMultiplierBasisPoints)
	}

	plan, err := c.planRepo.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return entities.NewValidationError(entities.ErrCodePlanNotFound, "savings plan %d not found", planID)
	}

	if err := c.planRepo.UpdateMultiplier(ctx, planID, multiplierBasisPoints); err != nil {
		return fmt.Errorf("failed to update plan multiplier: %w", err)
	}

	plan.PlanMultiplierBasisPoints = multiplierBasisPoints
	c.publishPlanUpdated(plan)
	return nil
}

// SetGlobalMultiplier updates the global APY multiplier
func (c *planCatalog) SetGlobalMultiplier(ctx context.Context, multiplierBasisPoints int64) error {
	if !interest.ValidMultiplier(multiplierBasisPoints) {
		return entities.NewValidationError(entities.ErrCodeMultiplierRange,
			"multiplier %d outside [%d, %d]", multiplierBasisPoints,
			interest.MinMultiplierBasisPoints, interest.MaxMultiplierBasisPoints)
	}

	if err := c.configRepo.SetGlobalMultiplier(ctx, multiplierBasisPoints); err != nil {
		return fmt.Errorf("failed to set global multiplier: %w", err)
	}

	log.WithField("multiplier", multiplierBasisPoints).Info("Global APY multiplier updated")
	return nil
}

// FundRewardPool pulls funds from the funder's account into the treasury and
// grows the bonus pool by the same amount
func (c *planCatalog) FundRewardPool(ctx context.Context, funder string, amount int64) (*entities.RewardPool, error) {
	if amount <= 0 {
		return nil, entities.NewValidationError(entities.ErrCodeInvalidAmount, "funding amount must be positive, got %d", amount)
	}

	ref := entities.TransferRef{
		EntryType: entities.LedgerEntryPoolFunding,
		Metadata:  map[string]any{"purpose": "reward_pool"},
	}
	if err := c.ledger.TransferIn(ctx, funder, amount, ref); err != nil {
		return nil, err
	}

	pool, err := c.poolRepo.AddFunds(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to add funds to reward pool: %w", err)
	}

	log.WithFields(log.Fields{
		"funder":    funder,
		"amount":    amount,
		"totalPool": pool.TotalPool,
	}).Info("Reward pool funded")

	event := events.RewardPoolFundedEvent{
		Funder:    funder,
		Amount:    amount,
		TotalPool: pool.TotalPool,
	}
	if err := c.publisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish reward pool funded event")
	}

	return pool, nil
}

// GetRewardPool returns the current pool state
func (c *planCatalog) GetRewardPool(ctx context.Context) (*entities.RewardPool, error) {
	pool, err := c.poolRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get reward pool: %w", err)
	}
	return pool, nil
}

func (c *planCatalog) publishPlanUpdated(plan *entities.SavingsPlan) {
	event := events.PlanUpdatedEvent{
		PlanID:             plan.ID,
		BaseAPYBasisPoints: plan.BaseAPYBasisPoints,
		Active:             plan.Active,
	}
	if err := c.publisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish plan updated event")
	}
}
