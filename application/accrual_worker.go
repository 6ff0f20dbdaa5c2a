package application

import (
	"context"
	"fmt"
	"time"

	"piggyvault/domain/entities"
	"piggyvault/domain/events"
	"piggyvault/domain/interfaces"
	"piggyvault/domain/services"
	"piggyvault/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// AccrualWorker advances interest on every active position on a fixed
// interval. Each sweep writes an audit row and announces itself on the event
// bus; a position that fails to accrue never blocks the rest of the sweep.
type AccrualWorker struct {
	uowFactory interfaces.UnitOfWorkFactory
	clock      interfaces.Clock
	interval   time.Duration
}

// NewAccrualWorker creates a new accrual sweep worker
func NewAccrualWorker(uowFactory interfaces.UnitOfWorkFactory, clock interfaces.Clock, interval time.Duration) *AccrualWorker {
	return &AccrualWorker{
		uowFactory: uowFactory,
		clock:      clock,
		interval:   interval,
	}
}

// Start begins the sweep loop. The returned function stops the worker.
func (w *AccrualWorker) Start(ctx context.Context) func() {
	if w.interval <= 0 {
		log.Info("Accrual worker disabled (no sweep interval configured)")
		return func() {}
	}

	stopChan := make(chan struct{})

	go func() {
		log.Infof("Accrual worker started, sweeping every %v", w.interval)

		for {
			select {
			case <-ctx.Done():
				log.Info("Accrual worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Accrual worker shutting down (stop requested)...")
				return
			case <-time.After(w.interval):
				if _, err := w.RunSweep(ctx); err != nil {
					log.Errorf("Error running accrual sweep: %v", err)
				}
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// RunSweep accrues every active position up to the current clock reading,
// persists the audit row, and publishes the sweep summary event
func (w *AccrualWorker) RunSweep(ctx context.Context) (*entities.AccrualRun, error) {
	started := time.Now()
	now := w.clock.Now()

	ids, err := w.listActivePositions(ctx)
	if err != nil {
		return nil, err
	}

	var updated, accrued int64
	var failureCount int
	for _, id := range ids {
		delta, err := w.accruePosition(ctx, id, now)
		if err != nil {
			log.Errorf("Error accruing position %d: %v", id, err)
			failureCount++
			continue
		}
		if delta > 0 {
			updated++
			accrued += delta
		}
	}

	run := &entities.AccrualRun{
		RunAt:            now,
		PositionsScanned: int64(len(ids)),
		PositionsUpdated: updated,
		InterestAccrued:  accrued,
		DurationMillis:   time.Since(started).Milliseconds(),
	}
	if err := w.recordRun(ctx, run); err != nil {
		return nil, err
	}

	metrics := observability.GetMetrics()
	metrics.RecordAccrualSweep(time.Since(started))
	if accrued > 0 {
		metrics.RecordInterestAccrued(accrued)
	}

	log.WithFields(log.Fields{
		"run_id":           run.ID,
		"positions":        len(ids),
		"updated":          updated,
		"failed":           failureCount,
		"interest_accrued": accrued,
	}).Info("Completed accrual sweep")

	return run, nil
}

// listActivePositions reads the active position IDs in a read-only transaction
func (w *AccrualWorker) listActivePositions(ctx context.Context) ([]int64, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ids, err := uow.YieldPositionRepository().ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active positions: %w", err)
	}
	return ids, nil
}

// accruePosition advances one position in its own transaction and returns the
// interest credited by this pass
func (w *AccrualWorker) accruePosition(ctx context.Context, positionID int64, now time.Time) (int64, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	positionRepo := uow.YieldPositionRepository()
	before, err := positionRepo.GetByID(ctx, positionID)
	if err != nil {
		return 0, fmt.Errorf("failed to get position %d: %w", positionID, err)
	}
	if before == nil || !before.IsActive {
		// finalized between listing and this pass
		return 0, nil
	}

	after, err := services.NewPositionLedger(positionRepo).Accrue(ctx, positionID, now)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return after.AccruedInterest - before.AccruedInterest, nil
}

// recordRun persists the sweep audit row and publishes the summary event
func (w *AccrualWorker) recordRun(ctx context.Context, run *entities.AccrualRun) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AccrualRunRepository().Record(ctx, run); err != nil {
		return fmt.Errorf("failed to record accrual run: %w", err)
	}

	if err := uow.EventBus().Publish(events.AccrualSweepCompletedEvent{
		RunID:            run.ID,
		PositionsUpdated: run.PositionsUpdated,
		InterestAccrued:  run.InterestAccrued,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish accrual sweep event")
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
