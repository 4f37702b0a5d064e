package extension

import "time"

// Config holds the Vault extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vault" or "vault" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Owner is the principal granted the owner role on first start.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// EscrowAccount is the custody account holding locked tokens
	// (default: "vault:escrow").
	EscrowAccount string `json:"escrow_account" mapstructure:"escrow_account" yaml:"escrow_account"`

	// TreasuryAccount is the custody account holding treasury tokens
	// (default: "vault:treasury").
	TreasuryAccount string `json:"treasury_account" mapstructure:"treasury_account" yaml:"treasury_account"`

	// MinimumLock is the smallest lock a user may escrow, in base units
	// (default: 0, no minimum).
	MinimumLock int64 `json:"minimum_lock" mapstructure:"minimum_lock" yaml:"minimum_lock"`

	// PeriodDuration is the length of a treasury quota period
	// (default: 720h, thirty days).
	PeriodDuration time.Duration `json:"period_duration" mapstructure:"period_duration" yaml:"period_duration"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EscrowAccount:   "vault:escrow",
		TreasuryAccount: "vault:treasury",
		PeriodDuration:  30 * 24 * time.Hour,
	}
}
