package extension

import (
	"time"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/token"
)

// Option configures the Vault Forge extension.
type Option func(*Extension)

// WithStore sets the store for the vault engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithAsset sets the token asset used for custody transfers.
func WithAsset(a token.Asset) Option {
	return func(e *Extension) {
		e.asset = a
	}
}

// WithVaultOption passes a vault.Option through to the underlying engine.
func WithVaultOption(opt vault.Option) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, opt)
	}
}

// WithPlugin registers a vault plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, vault.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithOwner sets the principal granted the owner role on first start.
func WithOwner(principal string) Option {
	return func(e *Extension) { e.config.Owner = principal }
}

// WithMinimumLock sets the smallest lock a user may escrow, in base units.
func WithMinimumLock(amount int64) Option {
	return func(e *Extension) { e.config.MinimumLock = amount }
}

// WithPeriodDuration sets the length of a treasury quota period.
func WithPeriodDuration(d time.Duration) Option {
	return func(e *Extension) { e.config.PeriodDuration = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
