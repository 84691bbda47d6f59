package domain

import "errors"

var (
	// ErrNotFound is returned for missing rows regardless of backend.
	ErrNotFound = errors.New("not found")

	// Validation failures: rejected before any write, never retried.
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrAmountPrecision   = errors.New("amount must have at most 2 decimal places")
	ErrUnknownScope      = errors.New("unknown scope")
	ErrInvalidKind       = errors.New("invalid transaction kind")
	ErrMissingDate       = errors.New("occurred_on date is required")

	// ErrInsufficientFunds rejects an expense/fund_out that would drive a
	// balance negative. An explicit business decision, not an accident.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict marks a serialization failure on a balance row or a
	// sequence counter. Retried a bounded number of times by the posting
	// service before being surfaced as a transient failure.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrDuplicateReference signals that a business reference already has a
	// posting in the scope. Dedup itself is the caller's responsibility.
	ErrDuplicateReference = errors.New("duplicate business reference")
)
