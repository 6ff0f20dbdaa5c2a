package services

import (
	"context"
	"fmt"

	"piggyvault/domain/entities"
	"piggyvault/domain/events"
	"piggyvault/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// tokenLedgerService is the database-backed TokenLedger collaborator. Every
// transfer moves funds between one owner account and the treasury, updates
// both balances under row locks, and appends a double-entry audit pair.
type tokenLedgerService struct {
	accountRepo interfaces.TokenAccountRepository
	ledgerRepo  interfaces.LedgerEntryRepository
	publisher   interfaces.EventPublisher
}

// NewTokenLedgerService creates a new token ledger service bound to the
// caller's unit of work
func NewTokenLedgerService(
	accountRepo interfaces.TokenAccountRepository,
	ledgerRepo interfaces.LedgerEntryRepository,
	publisher interfaces.EventPublisher,
) interfaces.TokenLedger {
	return &tokenLedgerService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		publisher:   publisher,
	}
}

// TransferIn pulls amount from the owner's account into the treasury
func (s *tokenLedgerService) TransferIn(ctx context.Context, from string, amount int64, ref entities.TransferRef) error {
	if amount <= 0 {
		return entities.NewValidationError(entities.ErrCodeInvalidAmount, "transfer amount must be positive, got %d", amount)
	}
	if from == "" || from == entities.TreasuryAccount {
		return entities.NewValidationError(entities.ErrCodeInvalidOwner, "cannot transfer in from %q", from)
	}

	// The owner row is always locked before the treasury row so concurrent
	// transfers cannot deadlock on each other.
	account, err := s.accountRepo.GetByOwnerForUpdate(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to lock account %s: %w", from, err)
	}
	treasury, err := s.accountRepo.GetByOwnerForUpdate(ctx, entities.TreasuryAccount)
	if err != nil {
		return fmt.Errorf("failed to lock treasury account: %w", err)
	}

	if !account.HasSufficientBalance(amount) {
		log.WithFields(log.Fields{
			"owner":   from,
			"balance": account.Balance,
			"amount":  amount,
		}).Warn("Transfer in rejected: insufficient balance")
		return entities.ErrInsufficientFunds
	}

	if err := s.accountRepo.UpdateBalance(ctx, from, account.Balance-amount); err != nil {
		return fmt.Errorf("failed to debit account %s: %w", from, err)
	}
	if err := s.accountRepo.UpdateBalance(ctx, entities.TreasuryAccount, treasury.Balance+amount); err != nil {
		return fmt.Errorf("failed to credit treasury: %w", err)
	}

	return s.recordTransfer(ctx, account, treasury, -amount, ref)
}

// TransferOut pays amount from the treasury to the owner's account
func (s *tokenLedgerService) TransferOut(ctx context.Context, to string, amount int64, ref entities.TransferRef) error {
	if amount <= 0 {
		return entities.NewValidationError(entities.ErrCodeInvalidAmount, "transfer amount must be positive, got %d", amount)
	}
	if to == "" || to == entities.TreasuryAccount {
		return entities.NewValidationError(entities.ErrCodeInvalidOwner, "cannot transfer out to %q", to)
	}

	account, err := s.accountRepo.GetByOwnerForUpdate(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to lock account %s: %w", to, err)
	}
	treasury, err := s.accountRepo.GetByOwnerForUpdate(ctx, entities.TreasuryAccount)
	if err != nil {
		return fmt.Errorf("failed to lock treasury account: %w", err)
	}

	// The treasury holds all locked principal and retained penalties, so a
	// shortfall here means vault accounting is broken, not caller error.
	if !treasury.HasSufficientBalance(amount) {
		log.WithFields(log.Fields{
			"owner":            to,
			"treasury_balance": treasury.Balance,
			"amount":           amount,
		}).Error("Transfer out rejected: treasury cannot cover payout")
		return entities.ErrInsufficientFunds
	}

	if err := s.accountRepo.UpdateBalance(ctx, entities.TreasuryAccount, treasury.Balance-amount); err != nil {
		return fmt.Errorf("failed to debit treasury: %w", err)
	}
	if err := s.accountRepo.UpdateBalance(ctx, to, account.Balance+amount); err != nil {
		return fmt.Errorf("failed to credit account %s: %w", to, err)
	}

	return s.recordTransfer(ctx, account, treasury, amount, ref)
}

// recordTransfer appends the owner-side and treasury-side ledger entries and
// publishes the owner's balance change. ownerDelta is signed from the owner's
// perspective; the treasury entry mirrors it.
func (s *tokenLedgerService) recordTransfer(ctx context.Context, account, treasury *entities.TokenAccount, ownerDelta int64, ref entities.TransferRef) error {
	ownerEntry := &entities.LedgerEntry{
		Owner:         account.Owner,
		EntryType:     ref.EntryType,
		Amount:        ownerDelta,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance + ownerDelta,
		DepositID:     ref.DepositID,
		Metadata:      ref.Metadata,
	}
	if err := ownerEntry.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry for %s: %w", account.Owner, err)
	}
	if err := s.ledgerRepo.Record(ctx, ownerEntry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	treasuryEntry := &entities.LedgerEntry{
		Owner:         entities.TreasuryAccount,
		EntryType:     ref.EntryType,
		Amount:        -ownerDelta,
		BalanceBefore: treasury.Balance,
		BalanceAfter:  treasury.Balance - ownerDelta,
		DepositID:     ref.DepositID,
		Metadata:      map[string]any{"counterparty": account.Owner},
	}
	if err := s.ledgerRepo.Record(ctx, treasuryEntry); err != nil {
		return fmt.Errorf("failed to record treasury ledger entry: %w", err)
	}

	// Treasury movements are audited but not broadcast
	event := events.BalanceChangedEvent{
		Owner:        account.Owner,
		OldBalance:   account.Balance,
		NewBalance:   account.Balance + ownerDelta,
		ChangeAmount: ownerDelta,
		EntryType:    ref.EntryType,
	}
	if err := s.publisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance changed event")
	}

	return nil
}
