package audithook

// Action constants for audit events.
const (
	// Escrow actions
	ActionLockCreated  = "lock.created"
	ActionLockConsumed = "lock.consumed"
	ActionLockUnlocked = "lock.unlocked"

	// Treasury actions
	ActionTreasuryReceived    = "treasury.received"
	ActionTreasuryReallocated = "treasury.reallocated"
	ActionTreasuryWithdrawn   = "treasury.withdrawn"
	ActionQuotaExceeded       = "quota.exceeded"
	ActionPeriodRolled        = "period.rolled"

	// Catalog actions
	ActionServiceAdded   = "service.added"
	ActionServiceUpdated = "service.updated"

	// Category actions
	ActionCategoryAdded   = "category.added"
	ActionCategoryUpdated = "category.updated"

	// Authority actions
	ActionAuthorityGranted = "authority.granted"
	ActionAuthorityRevoked = "authority.revoked"
)

// Resource constants for audit events.
const (
	ResourceLock      = "lock"
	ResourceUsage     = "usage"
	ResourceTreasury  = "treasury"
	ResourceService   = "service"
	ResourceCategory  = "category"
	ResourceAuthority = "authority"
)

// Category constants for audit events.
const (
	CategoryEscrow   = "escrow"
	CategoryTreasury = "treasury"
	CategoryCatalog  = "catalog"
	CategoryAccess   = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
