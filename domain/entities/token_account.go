package entities

import "time"

// TreasuryAccount is the reserved owner key holding vault-managed funds:
// locked principal, retained penalties, and the reward pool backing balance.
const TreasuryAccount = "vault:treasury"

// TokenAccount is a fungible-asset balance keyed by owner. The engine core
// never touches these rows directly; all movement goes through the token
// ledger collaborator so balances and ledger entries stay consistent.
type TokenAccount struct {
	Owner     string    `db:"owner"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// HasSufficientBalance checks whether the account can fund a debit
func (a *TokenAccount) HasSufficientBalance(amount int64) bool {
	return a.Balance >= amount
}
