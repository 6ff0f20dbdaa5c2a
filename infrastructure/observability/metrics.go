package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"piggyvault/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the vault service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	depositsCreatedCounter     metric.Int64Counter
	withdrawalsCounter         metric.Int64Counter
	interestAccruedCounter     metric.Int64Counter
	bonusesPaidCounter         metric.Int64Counter
	penaltiesCollectedCounter  metric.Int64Counter
	milestonesAwardedCounter   metric.Int64Counter
	natsEventsPublishedCounter metric.Int64Counter
	activePositionsGauge       metric.Int64UpDownCounter
	rewardPoolAvailableGauge   metric.Int64UpDownCounter
	accrualSweepDurationHist   metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Info("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	// Create resource with service information
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	// Create appropriate exporter based on config
	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.Infof("Using OTLP metric exporter: %s", mp.config.OTelOTLPEndpoint)

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	// Create meter provider with periodic reader
	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	// Set as global meter provider
	otel.SetMeterProvider(mp.meterProvider)

	// Get meter for creating instruments
	mp.meter = mp.meterProvider.Meter("piggyvault")

	// Create metric instruments
	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	// Deposit lifecycle metrics
	mp.depositsCreatedCounter, err = mp.meter.Int64Counter(
		DepositsCreatedTotal,
		metric.WithDescription("Total number of deposits created"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create deposits created counter: %w", err)
	}

	mp.withdrawalsCounter, err = mp.meter.Int64Counter(
		WithdrawalsTotal,
		metric.WithDescription("Total number of withdrawals by kind"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create withdrawals counter: %w", err)
	}

	mp.penaltiesCollectedCounter, err = mp.meter.Int64Counter(
		PenaltiesCollectedUnits,
		metric.WithDescription("Total early-exit penalty units retained by the treasury"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create penalties collected counter: %w", err)
	}

	// Using UpDownCounter for gauge-like behavior
	mp.activePositionsGauge, err = mp.meter.Int64UpDownCounter(
		ActivePositions,
		metric.WithDescription("Current number of active yield positions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active positions gauge: %w", err)
	}

	// Yield metrics
	mp.interestAccruedCounter, err = mp.meter.Int64Counter(
		InterestAccruedUnits,
		metric.WithDescription("Total interest units credited by accrual sweeps"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create interest accrued counter: %w", err)
	}

	mp.accrualSweepDurationHist, err = mp.meter.Float64Histogram(
		AccrualSweepDuration,
		metric.WithDescription("Duration of accrual sweeps in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0, 300.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create accrual sweep duration histogram: %w", err)
	}

	// Reward metrics
	mp.bonusesPaidCounter, err = mp.meter.Int64Counter(
		BonusesPaidUnits,
		metric.WithDescription("Total maturity bonus units paid from the reward pool"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create bonuses paid counter: %w", err)
	}

	mp.milestonesAwardedCounter, err = mp.meter.Int64Counter(
		MilestonesAwardedTotal,
		metric.WithDescription("Total number of milestones awarded"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create milestones awarded counter: %w", err)
	}

	mp.rewardPoolAvailableGauge, err = mp.meter.Int64UpDownCounter(
		RewardPoolAvailableUnits,
		metric.WithDescription("Current undistributed reward pool units"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create reward pool gauge: %w", err)
	}

	// NATS metrics
	mp.natsEventsPublishedCounter, err = mp.meter.Int64Counter(
		NATSEventsPublishedTotal,
		metric.WithDescription("Total number of events published to NATS"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS events published counter: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordDepositCreated records a new deposit
func (mp *MetricsProvider) RecordDepositCreated() {
	if !mp.isEnabled() {
		return
	}

	mp.depositsCreatedCounter.Add(context.Background(), 1)
}

// RecordWithdrawal records a settled withdrawal of the given kind
func (mp *MetricsProvider) RecordWithdrawal(kind string) {
	if !mp.isEnabled() {
		return
	}

	mp.withdrawalsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelKind, kind),
		),
	)
}

// RecordInterestAccrued records interest units credited by a sweep
func (mp *MetricsProvider) RecordInterestAccrued(units int64) {
	if !mp.isEnabled() {
		return
	}

	mp.interestAccruedCounter.Add(context.Background(), units)
}

// RecordBonusPaid records maturity bonus units paid out
func (mp *MetricsProvider) RecordBonusPaid(units int64) {
	if !mp.isEnabled() {
		return
	}

	mp.bonusesPaidCounter.Add(context.Background(), units)
}

// RecordPenaltyCollected records penalty units retained by the treasury
func (mp *MetricsProvider) RecordPenaltyCollected(units int64) {
	if !mp.isEnabled() {
		return
	}

	mp.penaltiesCollectedCounter.Add(context.Background(), units)
}

// RecordMilestonesAwarded records newly awarded milestones
func (mp *MetricsProvider) RecordMilestonesAwarded(count int64) {
	if !mp.isEnabled() {
		return
	}

	mp.milestonesAwardedCounter.Add(context.Background(), count)
}

// RecordNATSEventPublished records an event published to NATS
func (mp *MetricsProvider) RecordNATSEventPublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsEventsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

// UpdateActivePositions adjusts the active position count (increment/decrement)
func (mp *MetricsProvider) UpdateActivePositions(delta int64) {
	if !mp.isEnabled() {
		return
	}

	mp.activePositionsGauge.Add(context.Background(), delta)
}

// UpdateRewardPoolAvailable adjusts the undistributed reward pool level
func (mp *MetricsProvider) UpdateRewardPoolAvailable(delta int64) {
	if !mp.isEnabled() {
		return
	}

	mp.rewardPoolAvailableGauge.Add(context.Background(), delta)
}

// RecordAccrualSweep records the duration of one accrual sweep
func (mp *MetricsProvider) RecordAccrualSweep(duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	mp.accrualSweepDurationHist.Record(context.Background(), duration.Seconds())
}

// isEnabled checks if metrics are enabled and initialized. Safe on a nil
// provider so call sites never have to guard against an uninitialized global.
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.config.OTelEnabled
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider, which may be nil before
// initialization; all record methods tolerate that
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
