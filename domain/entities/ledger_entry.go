package entities

import (
	"errors"
	"time"
)

// LedgerEntryType represents why a balance changed
type LedgerEntryType string

const (
	// Deposit lifecycle movements
	LedgerEntryDepositIn     LedgerEntryType = "deposit_in"
	LedgerEntryWithdrawalOut LedgerEntryType = "withdrawal_out"
	LedgerEntryEmergencyOut  LedgerEntryType = "emergency_out"

	// Administrative movements
	LedgerEntryPoolFunding   LedgerEntryType = "pool_funding"
	LedgerEntryAccountCredit LedgerEntryType = "account_credit"
)

// IsAdministrative returns true for entries created by operator actions
func (t LedgerEntryType) IsAdministrative() bool {
	return t == LedgerEntryPoolFunding || t == LedgerEntryAccountCredit
}

// String returns the string representation of the entry type
func (t LedgerEntryType) String() string {
	return string(t)
}

// TransferRef tags a token transfer with its audit classification so the
// ledger can record why the balance moved.
type TransferRef struct {
	EntryType LedgerEntryType
	DepositID *int64
	Metadata  map[string]any
}

// LedgerEntry is one append-only audit row per balance change. Amount is the
// signed change applied to the owner's account.
type LedgerEntry struct {
	ID            int64           `db:"id"`
	Owner         string          `db:"owner"`
	EntryType     LedgerEntryType `db:"entry_type"`
	Amount        int64           `db:"amount"`
	BalanceBefore int64           `db:"balance_before"`
	BalanceAfter  int64           `db:"balance_after"`
	DepositID     *int64          `db:"deposit_id"`
	Metadata      map[string]any  `db:"metadata"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Validate checks the entry's arithmetic consistency
func (e *LedgerEntry) Validate() error {
	if e.Amount == 0 {
		return errors.New("change amount cannot be zero")
	}
	if e.BalanceAfter != e.BalanceBefore+e.Amount {
		return errors.New("balance calculation is inconsistent")
	}
	if e.BalanceAfter < 0 {
		return errors.New("balance cannot go negative")
	}
	return nil
}
