package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"piggyvault/api"
	"piggyvault/application"
	"piggyvault/config"
	"piggyvault/database"
	"piggyvault/domain/interfaces"
	"piggyvault/infrastructure"
	"piggyvault/infrastructure/observability"
)

// Run wires the full service and blocks until the context is cancelled
func Run(ctx context.Context) error {
	log.Info("Starting savings vault service...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	log.Info("Metrics provider initialized successfully")

	// Initialize NATS and the domain event stream
	log.Info("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if err := eventPublisher.EnsureVaultEventStream(); err != nil {
		return fmt.Errorf("failed to ensure vault event stream: %w", err)
	}
	log.Info("NATS connection established successfully")

	// Initialize the application facade
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)
	notifier := infrastructure.NewNATSRewardNotifier(natsClient)
	clock := interfaces.SystemClock{}
	vaultOps := application.NewVaultOperations(uowFactory, notifier, clock)

	// Start the background accrual sweep
	worker := application.NewAccrualWorker(uowFactory, clock, time.Duration(cfg.AccrualSweepMinutes)*time.Minute)
	stopWorker := worker.Start(ctx)

	// Initialize the HTTP API
	rateLimiter := api.NewRateLimiter(cfg.RateLimitPerMinute)
	router := api.NewRouter(&api.RouterDeps{
		Deposits:    vaultOps,
		Plans:       vaultOps,
		Admin:       vaultOps,
		Health:      db,
		AdminToken:  cfg.AdminToken,
		RateLimiter: rateLimiter,
	})

	server := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.WithField("addr", server.Addr).Info("HTTP API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server terminated")
		}
	}()

	// Wait for context cancellation
	log.Infof("Savings vault is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down savings vault...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	stopWorker()
	rateLimiter.Stop()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics provider")
	}
	if err := natsClient.Close(); err != nil {
		log.WithError(err).Error("Error closing NATS connection")
	}

	// Close database connection
	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}
