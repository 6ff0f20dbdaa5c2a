package services

import (
	"context"
	"errors"
	"fmt"

	"piggyvault/config"
	"piggyvault/domain/entities"
	"piggyvault/domain/events"
	"piggyvault/domain/interest"
	"piggyvault/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// vaultService drives the deposit lifecycle. Two ordering rules hold
// everywhere: deposit creation pulls funds before any vault state is written,
// and withdrawal paths mark the deposit terminal before paying out. Combined
// with the enclosing unit of work this makes double-spends impossible: a
// failure anywhere rolls back funds movement and state together.
type vaultService struct {
	depositRepo          interfaces.DepositRepository
	positionRepo         interfaces.YieldPositionRepository
	summaryRepo          interfaces.UserSummaryRepository
	poolRepo             interfaces.RewardPoolRepository
	planCatalog          interfaces.PlanCatalog
	positionLedger       interfaces.PositionLedger
	tokenLedger          interfaces.TokenLedger
	milestones           interfaces.MilestoneService
	publisher            interfaces.EventPublisher
	clock                interfaces.Clock
	calculator           *interest.Calculator
	bonusRateBasisPoints int64
}

// NewVaultService creates a new vault service bound to the caller's unit of
// work. All collaborators must share that unit of work.
func NewVaultService(
	depositRepo interfaces.DepositRepository,
	positionRepo interfaces.YieldPositionRepository,
	summaryRepo interfaces.UserSummaryRepository,
	poolRepo interfaces.RewardPoolRepository,
	planCatalog interfaces.PlanCatalog,
	positionLedger interfaces.PositionLedger,
	tokenLedger interfaces.TokenLedger,
	milestones interfaces.MilestoneService,
	publisher interfaces.EventPublisher,
	clock interfaces.Clock,
) interfaces.VaultService {
	cfg := config.Get()
	return &vaultService{
		depositRepo:          depositRepo,
		positionRepo:         positionRepo,
		summaryRepo:          summaryRepo,
		poolRepo:             poolRepo,
		planCatalog:          planCatalog,
		positionLedger:       positionLedger,
		tokenLedger:          tokenLedger,
		milestones:           milestones,
		publisher:            publisher,
		clock:                clock,
		calculator:           interest.NewCalculator(interest.CompoundingMode(cfg.CompoundingMode), cfg.MaxCompoundingDays),
		bonusRateBasisPoints: cfg.MaturityBonusBasisPoints,
	}
}

// CreateDeposit opens a new time-locked deposit for the owner
func (s *vaultService) CreateDeposit(ctx context.Context, owner string, amount, planID int64) (*entities.DepositResult, error) {
	if owner == "" || owner == entities.TreasuryAccount {
		return nil, entities.NewValidationError(entities.ErrCodeInvalidOwner, "invalid deposit owner %q", owner)
	}
	if amount <= 0 {
		return nil, entities.NewValidationError(entities.ErrCodeInvalidAmount, "deposit amount must be positive, got %d", amount)
	}

	plan, err := s.planCatalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, entities.NewValidationError(entities.ErrCodePlanNotFound, "savings plan %d not found", planID)
	}
	if !plan.Active {
		return nil, entities.NewValidationError(entities.ErrCodePlanInactive, "savings plan %d is not active", planID)
	}
	if !plan.AmountWithinLimits(amount) {
		return nil, entities.NewValidationError(entities.ErrCodeAmountOutOfRange,
			"amount %d outside plan limits [%d, %d]", amount, plan.MinAmount, plan.MaxAmount)
	}

	effectiveAPY, err := s.planCatalog.EffectiveAPY(ctx, plan)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	// Funds move first. If the owner cannot cover the deposit nothing else
	// has been written yet.
	ref := entities.TransferRef{
		EntryType: entities.LedgerEntryDepositIn,
		Metadata:  map[string]any{"plan_id": planID},
	}
	if err := s.tokenLedger.TransferIn(ctx, owner, amount, ref); err != nil {
		return nil, classifyTransferError(err)
	}

	position, err := s.positionLedger.Open(ctx, amount, plan.Duration(), effectiveAPY, now)
	if err != nil {
		return nil, err
	}

	deposit := &entities.Deposit{
		Owner:      owner,
		Amount:     amount,
		PlanID:     planID,
		PositionID: position.ID,
		CreatedAt:  now,
		MaturityAt: plan.MaturityFor(now),
		Status:     entities.DepositStatusOpen,
	}
	if err := s.depositRepo.Create(ctx, deposit); err != nil {
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}

	if err := s.summaryRepo.ApplyDeposit(ctx, owner, amount, planID, now); err != nil {
		return nil, fmt.Errorf("failed to update user summary: %w", err)
	}

	// Cumulative plan days include this deposit, created in the same
	// transaction
	cumulativeDays, err := s.depositRepo.CumulativePlanDays(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cumulative plan days: %w", err)
	}
	awarded, err := s.milestones.EvaluateDeposit(ctx, owner, amount, cumulativeDays)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"owner":        owner,
		"depositID":    deposit.ID,
		"amount":       amount,
		"planID":       planID,
		"effectiveAPY": effectiveAPY,
		"maturityAt":   deposit.MaturityAt,
	}).Info("Deposit created")

	event := events.DepositCreatedEvent{
		DepositID:               deposit.ID,
		Owner:                   owner,
		Amount:                  amount,
		PlanID:                  planID,
		PositionID:              position.ID,
		EffectiveAPYBasisPoints: effectiveAPY,
		MaturityAt:              deposit.MaturityAt,
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish deposit created event")
	}

	return &entities.DepositResult{
		Deposit:                 deposit,
		EffectiveAPYBasisPoints: effectiveAPY,
		Milestones:              awarded,
	}, nil
}

// Withdraw settles a matured deposit in full
func (s *vaultService) Withdraw(ctx context.Context, owner string, depositID int64) (*entities.WithdrawalResult, error) {
	deposit, err := s.depositRepo.GetByIDForUpdate(ctx, depositID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	if deposit == nil {
		return nil, entities.NewValidationError(entities.ErrCodeDepositNotFound, "deposit %d not found", depositID)
	}
	if !deposit.IsOwnedBy(owner) {
		return nil, entities.NewValidationError(entities.ErrCodeNotOwner, "deposit %d does not belong to %s", depositID, owner)
	}
	if !deposit.IsOpen() {
		return nil, entities.NewStateConflictError(entities.ErrCodeAlreadyWithdrawn, "deposit %d already withdrawn", depositID)
	}

	now := s.clock.Now()
	if !deposit.IsMatured(now) {
		return nil, entities.NewStateConflictError(entities.ErrCodeNotMatured,
			"deposit %d matures at %s", depositID, deposit.MaturityAt.Format("2006-01-02T15:04:05Z"))
	}

	position, err := s.positionLedger.Finalize(ctx, deposit.PositionID, now)
	if err != nil {
		return nil, err
	}

	bonus := s.calculator.MaturityBonus(deposit.Amount, position.AccruedInterest, s.bonusRateBasisPoints)
	if bonus > 0 {
		bonus, err = s.drawBonusFromPool(ctx, deposit, bonus)
		if err != nil {
			return nil, err
		}
	}

	// The deposit reaches its terminal status before any payout is issued
	if err := s.depositRepo.MarkWithdrawn(ctx, depositID, entities.DepositStatusWithdrawn,
		position.AccruedInterest, bonus, 0, now); err != nil {
		return nil, fmt.Errorf("failed to mark deposit withdrawn: %w", err)
	}

	payout := deposit.Amount + position.AccruedInterest + bonus
	ref := entities.TransferRef{
		EntryType: entities.LedgerEntryWithdrawalOut,
		DepositID: &depositID,
		Metadata:  map[string]any{"interest": position.AccruedInterest, "bonus": bonus},
	}
	if err := s.tokenLedger.TransferOut(ctx, owner, payout, ref); err != nil {
		return nil, classifyTransferError(err)
	}

	if err := s.summaryRepo.ApplyWithdrawal(ctx, owner, payout, position.AccruedInterest+bonus, now); err != nil {
		return nil, fmt.Errorf("failed to update user summary: %w", err)
	}

	log.WithFields(log.Fields{
		"owner":     owner,
		"depositID": depositID,
		"principal": deposit.Amount,
		"interest":  position.AccruedInterest,
		"bonus":     bonus,
		"payout":    payout,
	}).Info("Deposit withdrawn")

	event := events.DepositWithdrawnEvent{
		DepositID: depositID,
		Owner:     owner,
		Principal: deposit.Amount,
		Interest:  position.AccruedInterest,
		Bonus:     bonus,
		Payout:    payout,
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish deposit withdrawn event")
	}

	return &entities.WithdrawalResult{
		DepositID:   depositID,
		Owner:       owner,
		Status:      entities.DepositStatusWithdrawn,
		Principal:   deposit.Amount,
		Interest:    position.AccruedInterest,
		Bonus:       bonus,
		Payout:      payout,
		CompletedAt: now,
	}, nil
}

// drawBonusFromPool reserves the bonus against the reward pool under a row
// lock. A pool that cannot cover the full bonus clamps it to zero; the bonus
// is never partially paid and never fails the withdrawal.
func (s *vaultService) drawBonusFromPool(ctx context.Context, deposit *entities.Deposit, bonus int64) (int64, error) {
	pool, err := s.poolRepo.GetForUpdate(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to lock reward pool: %w", err)
	}
	if !pool.CanCover(bonus) {
		log.WithFields(log.Fields{
			"depositID": deposit.ID,
			"bonus":     bonus,
			"available": pool.Available(),
		}).Warn("Reward pool cannot cover maturity bonus, clamping to zero")
		return 0, nil
	}
	if err := s.poolRepo.AddDistributed(ctx, bonus); err != nil {
		return 0, fmt.Errorf("failed to distribute from reward pool: %w", err)
	}
	if err := s.positionLedger.ApplyBonus(ctx, deposit.PositionID, bonus); err != nil {
		return 0, err
	}
	return bonus, nil
}

// EmergencyWithdraw exits a deposit before maturity, forfeiting interest and
// paying an early-exit penalty to the treasury
func (s *vaultService) EmergencyWithdraw(ctx context.Context, owner string, depositID int64) (*entities.WithdrawalResult, error) {
	deposit, err := s.depositRepo.GetByIDForUpdate(ctx, depositID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	if deposit == nil {
		return nil, entities.NewValidationError(entities.ErrCodeDepositNotFound, "deposit %d not found", depositID)
	}
	if !deposit.IsOwnedBy(owner) {
		return nil, entities.NewValidationError(entities.ErrCodeNotOwner, "deposit %d does not belong to %s", depositID, owner)
	}
	if !deposit.IsOpen() {
		return nil, entities.NewStateConflictError(entities.ErrCodeAlreadyWithdrawn, "deposit %d already withdrawn", depositID)
	}

	plan, err := s.planCatalog.GetPlan(ctx, deposit.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("deposit %d references missing plan %d", depositID, deposit.PlanID)
	}

	now := s.clock.Now()

	// Freeze the position for audit; the accrued interest is forfeited, not
	// paid
	position, err := s.positionLedger.Finalize(ctx, deposit.PositionID, now)
	if err != nil {
		return nil, err
	}

	penalty := s.calculator.EarlyWithdrawalPenalty(deposit.Amount, plan.PenaltyRateBasisPoints, deposit.Elapsed(now), plan.MinimumHold())
	payout := interest.SaturatingSub(deposit.Amount, penalty)

	if err := s.depositRepo.MarkWithdrawn(ctx, depositID, entities.DepositStatusEmergencyWithdrawn,
		position.AccruedInterest, 0, penalty, now); err != nil {
		return nil, fmt.Errorf("failed to mark deposit withdrawn: %w", err)
	}

	// The penalty stays in the treasury; only the remainder moves
	if payout > 0 {
		ref := entities.TransferRef{
			EntryType: entities.LedgerEntryEmergencyOut,
			DepositID: &depositID,
			Metadata:  map[string]any{"penalty": penalty},
		}
		if err := s.tokenLedger.TransferOut(ctx, owner, payout, ref); err != nil {
			return nil, classifyTransferError(err)
		}
	}

	if err := s.summaryRepo.ApplyWithdrawal(ctx, owner, payout, 0, now); err != nil {
		return nil, fmt.Errorf("failed to update user summary: %w", err)
	}

	log.WithFields(log.Fields{
		"owner":             owner,
		"depositID":         depositID,
		"principal":         deposit.Amount,
		"penalty":           penalty,
		"payout":            payout,
		"interestForfeited": position.AccruedInterest,
	}).Info("Deposit emergency withdrawn")

	event := events.DepositEmergencyWithdrawnEvent{
		DepositID:         depositID,
		Owner:             owner,
		Principal:         deposit.Amount,
		Penalty:           penalty,
		Payout:            payout,
		InterestForfeited: position.AccruedInterest,
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish emergency withdrawal event")
	}

	return &entities.WithdrawalResult{
		DepositID:   depositID,
		Owner:       owner,
		Status:      entities.DepositStatusEmergencyWithdrawn,
		Principal:   deposit.Amount,
		Interest:    position.AccruedInterest,
		Penalty:     penalty,
		Payout:      payout,
		CompletedAt: now,
	}, nil
}

// CalculateCurrentInterest projects the deposit's accrued interest at the
// current clock reading without mutating state
func (s *vaultService) CalculateCurrentInterest(ctx context.Context, depositID int64) (int64, error) {
	deposit, err := s.depositRepo.GetByID(ctx, depositID)
	if err != nil {
		return 0, fmt.Errorf("failed to get deposit: %w", err)
	}
	if deposit == nil {
		return 0, entities.NewValidationError(entities.ErrCodeDepositNotFound, "deposit %d not found", depositID)
	}

	position, err := s.positionRepo.GetByID(ctx, deposit.PositionID)
	if err != nil {
		return 0, fmt.Errorf("failed to get yield position: %w", err)
	}
	if position == nil {
		return 0, entities.NewValidationError(entities.ErrCodePositionNotFound, "yield position %d not found", deposit.PositionID)
	}

	// Finalized positions project their frozen value
	return s.positionLedger.Project(position, s.clock.Now()), nil
}

// GetDeposit retrieves a deposit by ID, nil if not found
func (s *vaultService) GetDeposit(ctx context.Context, depositID int64) (*entities.Deposit, error) {
	deposit, err := s.depositRepo.GetByID(ctx, depositID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return deposit, nil
}

// ListDepositIDs returns the owner's deposit IDs in creation order
func (s *vaultService) ListDepositIDs(ctx context.Context, owner string) ([]int64, error) {
	ids, err := s.depositRepo.ListIDsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposit ids: %w", err)
	}
	return ids, nil
}

// ListDeposits returns the owner's deposits in creation order
func (s *vaultService) ListDeposits(ctx context.Context, owner string) ([]*entities.Deposit, error) {
	deposits, err := s.depositRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return deposits, nil
}

// GetUserSummary returns the owner's counters. Owners with no history get a
// zero-valued summary rather than an error.
func (s *vaultService) GetUserSummary(ctx context.Context, owner string) (*entities.UserSummary, error) {
	summary, err := s.summaryRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get user summary: %w", err)
	}
	if summary == nil {
		return &entities.UserSummary{Owner: owner}, nil
	}
	return summary, nil
}

// classifyTransferError keeps ledger-raised vault errors intact and wraps
// anything else as a transfer failure so callers never see raw storage errors.
func classifyTransferError(err error) error {
	var vaultErr *entities.VaultError
	if errors.As(err, &vaultErr) {
		return err
	}
	return entities.NewCollaboratorError(entities.ErrCodeTransferFailed, err)
}
