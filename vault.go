package vault

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/escrow"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/token"
	"github.com/xraph/vault/treasury"
	"github.com/xraph/vault/types"
)

// Default custody account names in the asset backend.
const (
	DefaultEscrowAccount   = "vault:escrow"
	DefaultTreasuryAccount = "vault:treasury"
)

// Vault is the utility-token economy engine: the per-user escrow ledger,
// the service catalog, and the categorized treasury allocator, all backed
// by a single store and a pluggable asset backend.
//
// Every mutating method takes the caller principal explicitly; Vault does
// not authenticate callers, it only authorizes them against the capability
// registry.
type Vault struct {
	store   store.Store
	asset   token.Asset
	plugins *plugin.Registry
	logger  *slog.Logger

	// Serializes escrow mutations and treasury mutations respectively.
	// The two ledgers only meet on the Consume path, which takes escrowMu
	// first and treasuryMu second.
	escrowMu   sync.Mutex
	treasuryMu sync.Mutex

	// Configuration
	owner           string
	escrowAccount   string
	treasuryAccount string
	minimumLock     types.Amount
	periodDuration  time.Duration
	nowFn           func() time.Time
}

// New creates a new Vault instance.
func New(s store.Store, asset token.Asset, opts ...Option) *Vault {
	v := &Vault{
		store:           s,
		asset:           asset,
		plugins:         plugin.NewRegistry(),
		logger:          slog.Default(),
		escrowAccount:   DefaultEscrowAccount,
		treasuryAccount: DefaultTreasuryAccount,
		periodDuration:  30 * 24 * time.Hour,
		nowFn:           time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Option configures a Vault instance.
type Option func(*Vault)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
		v.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(v *Vault) {
		_ = v.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithOwner sets the administrative owner principal. The owner is granted
// the owner role on Start.
func WithOwner(principal string) Option {
	return func(v *Vault) {
		v.owner = principal
	}
}

// WithEscrowAccount sets the custody account holding locked tokens.
func WithEscrowAccount(account string) Option {
	return func(v *Vault) {
		v.escrowAccount = account
	}
}

// WithTreasuryAccount sets the custody account holding treasury tokens.
func WithTreasuryAccount(account string) Option {
	return func(v *Vault) {
		v.treasuryAccount = account
	}
}

// WithMinimumLock sets the initial minimum lock amount. Applied only when
// the store has no persisted escrow settings yet.
func WithMinimumLock(amount types.Amount) Option {
	return func(v *Vault) {
		v.minimumLock = amount
	}
}

// WithPeriodDuration sets the initial treasury period duration. Applied
// only when the store has no persisted treasury state yet.
func WithPeriodDuration(d time.Duration) Option {
	return func(v *Vault) {
		v.periodDuration = d
	}
}

// WithClock overrides the time source. Used by tests to drive period
// rollover deterministically.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		v.nowFn = now
	}
}

// Start migrates the store, seeds initial state, and initializes plugins.
func (v *Vault) Start(ctx context.Context) error {
	if err := v.store.Migrate(ctx); err != nil {
		return err
	}

	if err := v.seedState(ctx); err != nil {
		return err
	}

	v.plugins.EmitInit(ctx, v)

	v.logger.Info("vault started",
		"owner", v.owner,
		"escrow_account", v.escrowAccount,
		"treasury_account", v.treasuryAccount,
	)

	return nil
}

// Stop shuts down the Vault.
func (v *Vault) Stop() error {
	v.plugins.EmitShutdown(context.Background())
	return v.store.Close()
}

// seedState writes the initial escrow settings, treasury state, and owner
// grant on first start. Subsequent starts leave persisted state alone.
func (v *Vault) seedState(ctx context.Context) error {
	now := v.now()

	if _, err := v.store.GetEscrowSettings(ctx); errors.Is(err, ErrNotFound) {
		settings := &escrow.Settings{
			Entity:      types.NewEntityAt(now),
			MinimumLock: v.minimumLock,
		}
		if err := v.store.SaveEscrowSettings(ctx, settings); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if _, err := v.store.GetTreasuryState(ctx); errors.Is(err, ErrNotFound) {
		state := &treasury.State{
			Entity:         types.NewEntityAt(now),
			PeriodStart:    now,
			PeriodDuration: v.periodDuration,
			EscrowSource:   v.escrowAccount,
		}
		if err := v.store.SaveTreasuryState(ctx, state); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if v.owner != "" {
		has, err := v.store.HasAuthority(ctx, authority.RoleOwner, v.owner)
		if err != nil {
			return err
		}
		if !has {
			grant := &authority.Grant{
				Entity:    types.NewEntityAt(now),
				ID:        id.NewAuthorityID(),
				Role:      authority.RoleOwner,
				Principal: v.owner,
			}
			if err := v.store.GrantAuthority(ctx, grant); err != nil {
				return err
			}
		}
	}

	return nil
}

// Plugins returns the plugin registry.
func (v *Vault) Plugins() *plugin.Registry {
	return v.plugins
}

// Store returns the underlying store.
func (v *Vault) Store() store.Store {
	return v.store
}

// Asset returns the asset backend.
func (v *Vault) Asset() token.Asset {
	return v.asset
}

// now returns the current time from the injected clock, in UTC.
func (v *Vault) now() time.Time {
	return v.nowFn().UTC()
}

// requireOwner rejects callers without the owner role.
func (v *Vault) requireOwner(ctx context.Context, caller string) error {
	return v.requireRole(ctx, authority.RoleOwner, caller, ErrNotOwner)
}

// requireRole rejects callers not holding the given role, returning the
// supplied sentinel.
func (v *Vault) requireRole(ctx context.Context, role authority.Role, caller string, sentinel error) error {
	if caller == "" {
		return sentinel
	}
	has, err := v.store.HasAuthority(ctx, role, caller)
	if err != nil {
		return err
	}
	if !has {
		return sentinel
	}
	return nil
}
