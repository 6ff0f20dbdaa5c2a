package services

import (
	"context"
	"fmt"
	"time"

	"piggyvault/config"
	"piggyvault/domain/entities"
	"piggyvault/domain/interest"
	"piggyvault/domain/interfaces"
)

// positionLedger implements accrual over yield positions. All mutation runs
// through the caller's unit of work; Project is the single projection formula
// shared by accrual and the read-only interest query, so the two can never
// disagree.
type positionLedger struct {
	positionRepo interfaces.YieldPositionRepository
	calculator   *interest.Calculator
}

// NewPositionLedger creates a new position ledger bound to the caller's unit
// of work. Compounding behavior comes from the active configuration.
func NewPositionLedger(positionRepo interfaces.YieldPositionRepository) interfaces.PositionLedger {
	cfg := config.Get()
	return &positionLedger{
		positionRepo: positionRepo,
		calculator:   interest.NewCalculator(interest.CompoundingMode(cfg.CompoundingMode), cfg.MaxCompoundingDays),
	}
}

// Open creates an active position accruing from now
func (l *positionLedger) Open(ctx context.Context, principal int64, duration time.Duration, effectiveAPYBasisPoints int64, now time.Time) (*entities.YieldPosition, error) {
	if principal <= 0 {
		return nil, entities.NewValidationError(entities.ErrCodeInvalidAmount, "principal must be positive, got %d", principal)
	}
	if duration <= 0 {
		return nil, entities.NewValidationError(entities.ErrCodeInvalidPlan, "position duration must be positive")
	}

	position := &entities.YieldPosition{
		Principal:               principal,
		AccruedInterest:         0,
		BonusAwarded:            0,
		StartTime:               now,
		EndTime:                 now.Add(duration),
		EffectiveAPYBasisPoints: effectiveAPYBasisPoints,
		LastUpdateTime:          now,
		IsActive:                true,
	}
	if err := position.Validate(); err != nil {
		return nil, fmt.Errorf("invalid yield position: %w", err)
	}

	if err := l.positionRepo.Create(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to create yield position: %w", err)
	}

	return position, nil
}

// Accrue advances the position's interest to min(now, endTime). Repeating the
// call at the same instant changes nothing: the watermark makes the update
// idempotent, and interest only ever grows.
func (l *positionLedger) Accrue(ctx context.Context, positionID int64, now time.Time) (*entities.YieldPosition, error) {
	position, err := l.positionRepo.GetByIDForUpdate(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get yield position: %w", err)
	}
	if position == nil {
		return nil, entities.NewValidationError(entities.ErrCodePositionNotFound, "yield position %d not found", positionID)
	}
	if !position.IsActive {
		return nil, entities.NewStateConflictError(entities.ErrCodePositionFinalized, "yield position %d is already finalized", positionID)
	}

	capped := position.CappedTime(now)
	if !capped.After(position.LastUpdateTime) {
		// Already up to date, nothing to write
		return position, nil
	}

	accrued := l.Project(position, now)
	if err := l.positionRepo.UpdateAccrual(ctx, positionID, accrued, capped); err != nil {
		return nil, fmt.Errorf("failed to update accrual: %w", err)
	}

	position.AccruedInterest = accrued
	position.LastUpdateTime = capped
	return position, nil
}

// Finalize accrues once more, then freezes the position
func (l *positionLedger) Finalize(ctx context.Context, positionID int64, now time.Time) (*entities.YieldPosition, error) {
	position, err := l.positionRepo.GetByIDForUpdate(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get yield position: %w", err)
	}
	if position == nil {
		return nil, entities.NewValidationError(entities.ErrCodePositionNotFound, "yield position %d not found", positionID)
	}
	if !position.IsActive {
		return nil, entities.NewStateConflictError(entities.ErrCodePositionFinalized, "yield position %d is already finalized", positionID)
	}

	capped := position.CappedTime(now)
	accrued := l.Project(position, now)
	if err := l.positionRepo.Finalize(ctx, positionID, accrued, capped, now); err != nil {
		return nil, fmt.Errorf("failed to finalize yield position: %w", err)
	}

	position.AccruedInterest = accrued
	position.LastUpdateTime = capped
	position.IsActive = false
	position.FinalizedAt = &now
	return position, nil
}

// ApplyBonus records a pool-funded bonus on a finalized position. The bonus
// lives in its own column and never compounds or mixes with earned interest.
func (l *positionLedger) ApplyBonus(ctx context.Context, positionID int64, bonusAmount int64) error {
	if bonusAmount <= 0 {
		return entities.NewValidationError(entities.ErrCodeInvalidAmount, "bonus must be positive, got %d", bonusAmount)
	}
	if err := l.positionRepo.ApplyBonus(ctx, positionID, bonusAmount); err != nil {
		return fmt.Errorf("failed to apply bonus: %w", err)
	}
	return nil
}

// Project computes the accrued interest an accrual at now would store, without
// touching state. Inactive positions project their frozen value.
func (l *positionLedger) Project(position *entities.YieldPosition, now time.Time) int64 {
	if !position.IsActive {
		return position.AccruedInterest
	}
	pending := position.PendingElapsed(now)
	if pending <= 0 {
		return position.AccruedInterest
	}
	// Interest compounds on principal plus prior accruals over the span since
	// the watermark; the window remaining after the watermark caps it.
	remaining := position.EndTime.Sub(position.LastUpdateTime)
	delta := l.calculator.CompoundInterest(position.CompoundedBase(), position.EffectiveAPYBasisPoints, pending, remaining)
	return position.AccruedInterest + delta
}
