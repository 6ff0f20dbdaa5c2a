package interfaces

import (
	"context"
	"time"

	"piggyvault/domain/entities"
)

// TokenLedger is the collaborator that moves the fungible asset. The engine
// never mutates balances directly; it only requests transfers and aborts the
// whole enclosing operation when one fails.
//
// Ordering contract: deposit creation calls TransferIn before any vault state
// is written, and withdrawal paths mark the deposit terminal before calling
// TransferOut, so a failed or repeated payout can never double-spend.
type TokenLedger interface {
	// TransferIn pulls amount from the owner's account into the treasury.
	// Fails with the insufficient-funds error when the account cannot cover it.
	TransferIn(ctx context.Context, from string, amount int64, ref entities.TransferRef) error

	// TransferOut pays amount from the treasury to the owner's account
	TransferOut(ctx context.Context, to string, amount int64, ref entities.TransferRef) error
}

// RewardNotifier is the fire-and-forget badge-minting collaborator. Callers
// log and continue when it errors; a milestone award never fails a deposit.
type RewardNotifier interface {
	Notify(ctx context.Context, owner string, category entities.MilestoneCategory) error
}

// Clock supplies the current time so operations stay deterministic under test
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock reading wall-clock time in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
