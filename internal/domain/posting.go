package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PostingRequest represents a request to record one financial event
type PostingRequest struct {
	Scope       Scope
	Kind        TransactionKind
	Amount      decimal.Decimal
	Category    string // purpose for fund kinds
	Description string
	OccurredOn  time.Time
	BusinessRef *BusinessReference
	CreatedBy   string
}

// Validate checks the posting request before any write happens. A failed
// validation must leave no side effects anywhere.
func (r *PostingRequest) Validate() error {
	if !r.Scope.IsDepartment() {
		return ErrUnknownScope
	}
	if !r.Kind.IsValid() {
		return ErrInvalidKind
	}
	if r.Amount.Cmp(decimal.Zero) <= 0 {
		return ErrAmountNotPositive
	}
	// Amounts are fixed-point with 2 fractional digits.
	if !r.Amount.Equal(r.Amount.Round(2)) {
		return ErrAmountPrecision
	}
	if r.OccurredOn.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// SignedAmount returns the amount with the kind's sign applied.
func (r *PostingRequest) SignedAmount() decimal.Decimal {
	if r.Kind.Increases() {
		return r.Amount
	}
	return r.Amount.Neg()
}

// Narration builds the voucher narration fragment from category and
// description.
func (r *PostingRequest) Narration() string {
	parts := make([]string, 0, 2)
	if r.Category != "" {
		parts = append(parts, r.Category)
	}
	if r.Description != "" {
		parts = append(parts, r.Description)
	}
	return strings.Join(parts, " - ")
}
