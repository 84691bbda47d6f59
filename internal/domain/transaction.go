package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind represents the kind of a department posting
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
	KindFundIn  TransactionKind = "fund_in"
	KindFundOut TransactionKind = "fund_out"
)

// IsValid reports whether k is a postable kind.
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindIncome, KindExpense, KindFundIn, KindFundOut:
		return true
	}
	return false
}

// IsFund reports whether k is a capital movement (fund_in/fund_out).
// Fund transactions carry a purpose instead of a category.
func (k TransactionKind) IsFund() bool {
	return k == KindFundIn || k == KindFundOut
}

// Increases reports whether k increases the department balance.
func (k TransactionKind) Increases() bool {
	return k == KindIncome || k == KindFundIn
}

// Sign returns +1 for balance-increasing kinds and -1 otherwise.
func (k TransactionKind) Sign() int {
	if k.Increases() {
		return 1
	}
	return -1
}

// Prefix returns the short code used in transaction numbers.
func (k TransactionKind) Prefix() string {
	switch k {
	case KindIncome:
		return "INC"
	case KindExpense:
		return "EXP"
	case KindFundIn:
		return "FIN"
	case KindFundOut:
		return "FOU"
	}
	return "UNK"
}

// BusinessReference points at the originating domain event of a posting
// (e.g. a payment or a purchase). Collaborators use it to detect and
// suppress duplicate postings after a retried call.
type BusinessReference struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Transaction is one append-only posting record in a department scope.
// Immutable after creation; corrections are new offsetting postings.
type Transaction struct {
	ID            int64              `json:"id"`
	Scope         Scope              `json:"scope"`
	TransactionNo string             `json:"transaction_no"`
	Kind          TransactionKind    `json:"kind"`
	Amount        decimal.Decimal    `json:"amount"`
	Category      string             `json:"category,omitempty"` // income/expense kinds
	Purpose       string             `json:"purpose,omitempty"`  // fund kinds
	Description   string             `json:"description,omitempty"`
	BusinessRef   *BusinessReference `json:"business_ref,omitempty"`
	OccurredOn    time.Time          `json:"occurred_on"`
	CreatedBy     string             `json:"created_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// SignedAmount returns the amount with the sign of the kind applied.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Kind.Increases() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Label returns the business tag of the transaction: category for
// income/expense, purpose for fund movements.
func (t *Transaction) Label() string {
	if t.Kind.IsFund() {
		return t.Purpose
	}
	return t.Category
}

// TransactionFilter represents filter criteria for transaction queries
type TransactionFilter struct {
	Scope  *Scope
	Kind   *TransactionKind
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
