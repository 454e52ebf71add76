package services

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the registry, KPI engine and aggregator. Handlers
// translate these into transport statuses with errors.Is; anything not in
// this set is an internal failure.
var (
	// ErrNotFound: a referenced mission or player does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: the operation is not valid for the mission's
	// current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation: malformed input (bad component code, non-finite
	// delta, out-of-range identifier, missing fields).
	ErrValidation = errors.New("validation failed")
	// ErrConflictRetry: a transaction conflict survived the bounded
	// internal retries; the caller may safely retry the whole call.
	ErrConflictRetry = errors.New("transaction conflict")
	// ErrStorageUnavailable: the ledger store could not serve the
	// operation. Fatal to the call, not to the process.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// storageError wraps a raw ledger-store failure so callers can match it
// with errors.Is(err, ErrStorageUnavailable) while keeping the cause.
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
