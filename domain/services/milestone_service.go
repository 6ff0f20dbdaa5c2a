package services

import (
	"context"
	"fmt"

	"piggyvault/config"
	"piggyvault/domain/entities"
	"piggyvault/domain/events"
	"piggyvault/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// milestoneService awards deposit milestones. The unique (owner, category)
// record is the idempotence guarantee: every qualifying category is attempted
// on every deposit, and the insert only succeeds the first time.
type milestoneService struct {
	milestoneRepo interfaces.MilestoneRepository
	publisher     interfaces.EventPublisher
	clock         interfaces.Clock
}

// NewMilestoneService creates a new milestone service bound to the caller's
// unit of work
func NewMilestoneService(
	milestoneRepo interfaces.MilestoneRepository,
	publisher interfaces.EventPublisher,
	clock interfaces.Clock,
) interfaces.MilestoneService {
	return &milestoneService{
		milestoneRepo: milestoneRepo,
		publisher:     publisher,
		clock:         clock,
	}
}

// EvaluateDeposit awards every category this deposit newly reaches and
// returns them. Notification delivery happens after commit, outside this
// service.
func (s *milestoneService) EvaluateDeposit(ctx context.Context, owner string, amount, cumulativePlanDays int64) ([]entities.MilestoneCategory, error) {
	candidates := []entities.MilestoneCategory{entities.MilestoneFirstDeposit}
	candidates = append(candidates, entities.AmountMilestones(amount, config.Get().UnitScale())...)
	candidates = append(candidates, entities.TierForPlanDays(cumulativePlanDays))

	now := s.clock.Now()
	var awarded []entities.MilestoneCategory
	for _, category := range candidates {
		isNew, err := s.milestoneRepo.TryAward(ctx, owner, category, now)
		if err != nil {
			return nil, fmt.Errorf("failed to award milestone %s: %w", category, err)
		}
		if !isNew {
			continue
		}

		awarded = append(awarded, category)
		log.WithFields(log.Fields{
			"owner":    owner,
			"category": category,
		}).Info("Milestone reached")

		event := events.MilestoneReachedEvent{Owner: owner, Category: category}
		if err := s.publisher.Publish(event); err != nil {
			log.WithError(err).Error("Failed to publish milestone reached event")
		}
	}

	return awarded, nil
}

// ListMilestones returns all milestones an owner has reached
func (s *milestoneService) ListMilestones(ctx context.Context, owner string) ([]*entities.Milestone, error) {
	milestones, err := s.milestoneRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}
