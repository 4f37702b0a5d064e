package vault

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios. Each error belongs to one
// of four caller-visible categories — validation, authorization, state,
// transfer — so UIs can react appropriately (fix the input, obtain the
// capability, retry smaller or wait for rollover, or check the asset
// backend). Every error is scoped to its single requested operation.
var (
	// General errors
	ErrNotFound      = errors.New("vault: not found")
	ErrAlreadyExists = errors.New("vault: already exists")
	ErrInvalidInput  = errors.New("vault: invalid input")

	// Validation errors — rejected before any state change.
	ErrInvalidAmount     = errors.New("vault: amount must be positive")
	ErrBelowMinimumLock  = errors.New("vault: amount below minimum lock")
	ErrEmptyIdentifier   = errors.New("vault: empty identifier")
	ErrZeroCost          = errors.New("vault: computed cost is zero")
	ErrInvalidUnitCost   = errors.New("vault: unit cost must be positive")
	ErrDuplicateService  = errors.New("vault: service key already registered")
	ErrDuplicateCategory = errors.New("vault: category key already registered")
	ErrInvalidPeriod     = errors.New("vault: period duration must be positive")

	// Authorization errors — caller lacks the required capability.
	ErrUnauthorizedCaller = errors.New("vault: caller lacks required authority")
	ErrNotOwner           = errors.New("vault: caller is not an owner")
	ErrAuthorityMismatch  = errors.New("vault: caller is not the registered escrow source")

	// State errors — caller must adjust parameters or wait.
	ErrLockNotFound         = errors.New("vault: lock not found")
	ErrLockInactive         = errors.New("vault: lock is inactive")
	ErrInsufficientLocked   = errors.New("vault: insufficient locked balance")
	ErrNothingToUnlock      = errors.New("vault: nothing to unlock")
	ErrServiceNotFound      = errors.New("vault: service not found")
	ErrServiceInactive      = errors.New("vault: service is inactive")
	ErrCategoryNotFound     = errors.New("vault: category not found")
	ErrCategoryInactive     = errors.New("vault: category is inactive")
	ErrQuotaExceeded        = errors.New("vault: category quota exceeded for this period")
	ErrInsufficientTreasury = errors.New("vault: insufficient treasury balance")
	ErrPaused               = errors.New("vault: treasury is paused")
	ErrEmergencyStopped     = errors.New("vault: treasury is emergency-stopped")

	// Transfer errors — the external asset transfer failed; the enclosing
	// operation was rolled back and no bookkeeping survives.
	ErrTransferFailed = errors.New("vault: asset transfer failed")

	// Store errors
	ErrStoreClosed = errors.New("vault: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("vault: validation failed for %s: %s", e.Field, e.Message)
}

// IsValidationError returns true if the error is an input validation failure.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrBelowMinimumLock) ||
		errors.Is(err, ErrEmptyIdentifier) ||
		errors.Is(err, ErrZeroCost) ||
		errors.Is(err, ErrInvalidUnitCost) ||
		errors.Is(err, ErrDuplicateService) ||
		errors.Is(err, ErrDuplicateCategory) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.As(err, &ve)
}

// IsAuthorizationError returns true if the caller lacked a required capability.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorizedCaller) ||
		errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrAuthorityMismatch)
}

// IsStateError returns true if the operation was rejected by current ledger
// state; the caller must adjust parameters or wait for the next period.
func IsStateError(err error) bool {
	return errors.Is(err, ErrLockNotFound) ||
		errors.Is(err, ErrLockInactive) ||
		errors.Is(err, ErrInsufficientLocked) ||
		errors.Is(err, ErrNothingToUnlock) ||
		errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrServiceInactive) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrCategoryInactive) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrInsufficientTreasury) ||
		errors.Is(err, ErrPaused) ||
		errors.Is(err, ErrEmergencyStopped)
}

// IsTransferError returns true if the external asset transfer failed and
// the enclosing operation was aborted.
func IsTransferError(err error) bool {
	return errors.Is(err, ErrTransferFailed)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrLockNotFound) ||
		errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}
