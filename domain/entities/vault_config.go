package entities

import "time"

// VaultConfig is the engine's single mutable configuration record. It exists
// as an explicit row rather than package globals so administrative changes
// flow through one validated entry point and tests can swap it freely.
type VaultConfig struct {
	ID                          int       `db:"id"`
	GlobalMultiplierBasisPoints int64     `db:"global_multiplier_basis_points"`
	UpdatedAt                   time.Time `db:"updated_at"`
}
