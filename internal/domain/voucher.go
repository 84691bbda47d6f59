package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherType represents the direction of a central-ledger voucher
type VoucherType string

const (
	// VoucherDebit records money coming into the main ledger.
	VoucherDebit VoucherType = "Debit"
	// VoucherCredit records money going out of the main ledger.
	VoucherCredit VoucherType = "Credit"
)

// VoucherTypeFor maps a department posting kind to the voucher direction:
// income/fund_in mirror as Debit, expense/fund_out as Credit.
func VoucherTypeFor(kind TransactionKind) VoucherType {
	if kind.Increases() {
		return VoucherDebit
	}
	return VoucherCredit
}

// Voucher is a central-ledger entry mirroring a department posting. It
// carries a back-reference to the originating transaction. A voucher is
// created once per mirrored posting, or amount-incremented in place when
// the same-day aggregation policy applies.
type Voucher struct {
	ID                  int64           `json:"id"`
	VoucherNo           string          `json:"voucher_no"`
	Type                VoucherType     `json:"voucher_type"`
	Date                time.Time       `json:"date"`
	Narration           string          `json:"narration,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	SourceScope         Scope           `json:"source_scope"`
	SourceKind          TransactionKind `json:"source_kind"`
	SourceTransactionNo string          `json:"source_transaction_no,omitempty"`
	SourceTransactionID int64           `json:"source_transaction_id,omitempty"`
	CreatedBy           string          `json:"created_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// SignedAmount returns the amount signed by direction: Debit positive,
// Credit negative. main.balance is the sum of these.
func (v *Voucher) SignedAmount() decimal.Decimal {
	if v.Type == VoucherDebit {
		return v.Amount
	}
	return v.Amount.Neg()
}

// VoucherFilter represents filter criteria for voucher queries
type VoucherFilter struct {
	Type        *VoucherType
	SourceScope *Scope
	Date        *time.Time
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
