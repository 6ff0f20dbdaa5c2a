package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	log "github.com/sirupsen/logrus"

	"piggyvault/cmd"
	"piggyvault/config"
	"piggyvault/database"
	"piggyvault/domain/entities"
	"piggyvault/infrastructure"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	// Check for the account credit subcommand
	if len(os.Args) > 1 && os.Args[1] == "credit-account" {
		if err := handleCreditAccount(); err != nil {
			log.Fatal("Account credit error: ", err)
		}
		return
	}

	// Normal service operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: piggyvault migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleCreditAccount applies an external-rails credit to an owner's token
// account. The amount is given in base ledger units and may be negative for
// corrections, as long as the balance stays non-negative.
func handleCreditAccount() error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: piggyvault credit-account <owner> <amount-in-base-units>")
	}
	owner := os.Args[2]
	amount, err := strconv.ParseInt(os.Args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("amount must be an integer: %w", err)
	}

	ctx := context.Background()
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Admin credits run without NATS; nothing consumes events offline
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher())
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Creates a zero balance row first if the owner is new
	account, err := uow.TokenAccountRepository().GetByOwnerForUpdate(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to lock account %s: %w", owner, err)
	}

	entry := &entities.LedgerEntry{
		Owner:         owner,
		EntryType:     entities.LedgerEntryAccountCredit,
		Amount:        amount,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance + amount,
		Metadata:      map[string]any{"admin": "true"},
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid credit: %w", err)
	}

	if err := uow.TokenAccountRepository().UpdateBalance(ctx, owner, entry.BalanceAfter); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit credit: %w", err)
	}

	log.WithFields(log.Fields{
		"owner":          owner,
		"amount":         amount,
		"balance_before": entry.BalanceBefore,
		"balance_after":  entry.BalanceAfter,
	}).Info("Account credited")
	return nil
}
