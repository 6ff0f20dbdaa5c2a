package application

import (
	"context"
	"fmt"

	"piggyvault/config"
	"piggyvault/domain/entities"
	"piggyvault/domain/interfaces"
	"piggyvault/domain/services"
	"piggyvault/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// VaultOperations is the application facade over the savings vault. Every
// call runs in its own unit of work; mutating calls additionally hold the
// owner's lock stripe for their whole transaction, and milestone
// notifications go out only after a successful commit.
type VaultOperations struct {
	uowFactory interfaces.UnitOfWorkFactory
	notifier   interfaces.RewardNotifier
	clock      interfaces.Clock
	locks      *OwnerLocks
}

// NewVaultOperations creates the vault application facade
func NewVaultOperations(
	uowFactory interfaces.UnitOfWorkFactory,
	notifier interfaces.RewardNotifier,
	clock interfaces.Clock,
) *VaultOperations {
	return &VaultOperations{
		uowFactory: uowFactory,
		notifier:   notifier,
		clock:      clock,
		locks:      NewOwnerLocks(),
	}
}

// vaultService assembles the deposit lifecycle service over one unit of work
func (o *VaultOperations) vaultService(uow interfaces.UnitOfWork) interfaces.VaultService {
	tokenLedger := services.NewTokenLedgerService(
		uow.TokenAccountRepository(),
		uow.LedgerEntryRepository(),
		uow.EventBus(),
	)
	positionLedger := services.NewPositionLedger(uow.YieldPositionRepository())
	planCatalog := services.NewPlanCatalog(
		uow.SavingsPlanRepository(),
		uow.VaultConfigRepository(),
		uow.RewardPoolRepository(),
		tokenLedger,
		uow.EventBus(),
	)
	milestones := services.NewMilestoneService(uow.MilestoneRepository(), uow.EventBus(), o.clock)

	return services.NewVaultService(
		uow.DepositRepository(),
		uow.YieldPositionRepository(),
		uow.UserSummaryRepository(),
		uow.RewardPoolRepository(),
		planCatalog,
		positionLedger,
		tokenLedger,
		milestones,
		uow.EventBus(),
		o.clock,
	)
}

// planCatalog assembles the plan administration service over one unit of work
func (o *VaultOperations) planCatalog(uow interfaces.UnitOfWork) interfaces.PlanCatalog {
	tokenLedger := services.NewTokenLedgerService(
		uow.TokenAccountRepository(),
		uow.LedgerEntryRepository(),
		uow.EventBus(),
	)
	return services.NewPlanCatalog(
		uow.SavingsPlanRepository(),
		uow.VaultConfigRepository(),
		uow.RewardPoolRepository(),
		tokenLedger,
		uow.EventBus(),
	)
}

// CreateDeposit locks funds from the owner's account into a new deposit on
// the given plan
func (o *VaultOperations) CreateDeposit(ctx context.Context, owner string, amount, planID int64) (*entities.DepositResult, error) {
	unlock := o.locks.Lock(owner)
	defer unlock()

	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := o.vaultService(uow).CreateDeposit(ctx, owner, amount, planID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics := observability.GetMetrics()
	metrics.RecordDepositCreated()
	metrics.UpdateActivePositions(1)
	if len(result.Milestones) > 0 {
		metrics.RecordMilestonesAwarded(int64(len(result.Milestones)))
	}

	log.WithFields(log.Fields{
		"owner":      owner,
		"deposit_id": result.Deposit.ID,
		"plan_id":    planID,
		"amount":     amount,
		"apy_bps":    result.EffectiveAPYBasisPoints,
	}).Info("Deposit created")

	o.notifyMilestones(ctx, owner, result.Milestones)

	return result, nil
}

// Withdraw settles a matured deposit and pays out principal, interest, and
// any maturity bonus
func (o *VaultOperations) Withdraw(ctx context.Context, owner string, depositID int64) (*entities.WithdrawalResult, error) {
	unlock := o.locks.Lock(owner)
	defer unlock()

	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := o.vaultService(uow).Withdraw(ctx, owner, depositID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics := observability.GetMetrics()
	metrics.RecordWithdrawal(observability.WithdrawalKindMatured)
	metrics.UpdateActivePositions(-1)
	if result.Bonus > 0 {
		metrics.RecordBonusPaid(result.Bonus)
		metrics.UpdateRewardPoolAvailable(-result.Bonus)
	}

	log.WithFields(log.Fields{
		"owner":      owner,
		"deposit_id": depositID,
		"payout":     result.Payout,
		"interest":   result.Interest,
		"bonus":      result.Bonus,
	}).Info("Deposit withdrawn at maturity")

	return result, nil
}

// EmergencyWithdraw exits a deposit before maturity, forfeiting interest and
// paying the early-exit penalty
func (o *VaultOperations) EmergencyWithdraw(ctx context.Context, owner string, depositID int64) (*entities.WithdrawalResult, error) {
	unlock := o.locks.Lock(owner)
	defer unlock()

	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := o.vaultService(uow).EmergencyWithdraw(ctx, owner, depositID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics := observability.GetMetrics()
	metrics.RecordWithdrawal(observability.WithdrawalKindEmergency)
	metrics.UpdateActivePositions(-1)
	if result.Penalty > 0 {
		metrics.RecordPenaltyCollected(result.Penalty)
	}

	log.WithFields(log.Fields{
		"owner":      owner,
		"deposit_id": depositID,
		"payout":     result.Payout,
		"penalty":    result.Penalty,
		"forfeited":  result.Interest,
	}).Info("Deposit withdrawn early")

	return result, nil
}

// CalculateCurrentInterest projects a deposit's accrued interest at the
// current clock reading
func (o *VaultOperations) CalculateCurrentInterest(ctx context.Context, depositID int64) (int64, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return o.vaultService(uow).CalculateCurrentInterest(ctx, depositID)
}

// GetDeposit retrieves a deposit by ID, nil if not found
func (o *VaultOperations) GetDeposit(ctx context.Context, depositID int64) (*entities.Deposit, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return o.vaultService(uow).GetDeposit(ctx, depositID)
}

// ListDeposits returns the owner's deposits in creation order
func (o *VaultOperations) ListDeposits(ctx context.Context, owner string) ([]*entities.Deposit, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return o.vaultService(uow).ListDeposits(ctx, owner)
}

// GetUserSummary returns the owner's aggregate savings counters
func (o *VaultOperations) GetUserSummary(ctx context.Context, owner string) (*entities.UserSummary, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return o.vaultService(uow).GetUserSummary(ctx, owner)
}

// GetPlan retrieves a plan by ID, nil if not found
func (o *VaultOperations) GetPlan(ctx context.Context, planID int64) (*entities.SavingsPlan, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return o.planCatalog(uow).GetPlan(ctx, planID)
}

// ListPlans returns all plans, optionally only active ones
func (o *VaultOperations) ListPlans(ctx context.Context, activeOnly bool) ([]*entities.SavingsPlan, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return o.planCatalog(uow).ListPlans(ctx, activeOnly)
}

// SetPlan creates or replaces a plan definition
func (o *VaultOperations) SetPlan(ctx context.Context, plan *entities.SavingsPlan) (*entities.SavingsPlan, error) {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stored, err := o.planCatalog(uow).SetPlan(ctx, plan)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"plan_id":       stored.ID,
		"duration_days": stored.DurationDays(),
		"apy_bps":       stored.BaseAPYBasisPoints,
		"active":        stored.Active,
	}).Info("Savings plan updated")

	return stored, nil
}

// SetPlanMultiplier updates a plan's APY multiplier
func (o *VaultOperations) SetPlanMultiplier(ctx context.Context, planID, multiplierBasisPoints int64) error {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := o.planCatalog(uow).SetPlanMultiplier(ctx, planID, multiplierBasisPoints); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"plan_id":        planID,
		"multiplier_bps": multiplierBasisPoints,
	}).Info("Plan multiplier updated")

	return nil
}

// SetGlobalMultiplier updates the global APY multiplier
func (o *VaultOperations) SetGlobalMultiplier(ctx context.Context, multiplierBasisPoints int64) error {
	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := o.planCatalog(uow).SetGlobalMultiplier(ctx, multiplierBasisPoints); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"multiplier_bps": multiplierBasisPoints,
	}).Info("Global multiplier updated")

	return nil
}

// FundRewardPool moves funds from the funder's account into the reward pool.
// An empty funder defaults to the configured admin account.
func (o *VaultOperations) FundRewardPool(ctx context.Context, funder string, amount int64) (*entities.RewardPool, error) {
	if funder == "" {
		funder = config.Get().AdminAccount
	}

	unlock := o.locks.Lock(funder)
	defer unlock()

	uow := o.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pool, err := o.planCatalog(uow).FundRewardPool(ctx, funder, amount)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	observability.GetMetrics().UpdateRewardPoolAvailable(amount)

	log.WithFields(log.Fields{
		"funder":    funder,
		"amount":    amount,
		"available": pool.Available(),
	}).Info("Reward pool funded")

	return pool, nil
}

// notifyMilestones hands newly reached categories to the badge collaborator.
// Runs after commit; failures are logged and never surfaced to the caller.
func (o *VaultOperations) notifyMilestones(ctx context.Context, owner string, categories []entities.MilestoneCategory) {
	for _, category := range categories {
		if err := o.notifier.Notify(ctx, owner, category); err != nil {
			log.WithFields(log.Fields{
				"owner":    owner,
				"category": category,
			}).WithError(err).Error("Failed to deliver milestone notification")
		}
	}
}
