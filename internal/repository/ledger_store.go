package repository

import (
	"context"
	"time"

	"ledger-service/internal/domain"

	"github.com/shopspring/decimal"
)

// PostingEntry is the fully resolved write set for one atomic posting. The
// posting service derives it from a validated request plus the mirror
// policy; the store only executes it.
type PostingEntry struct {
	Scope       domain.Scope
	Kind        domain.TransactionKind
	Amount      decimal.Decimal
	Category    string
	Purpose     string
	Description string
	BusinessRef *domain.BusinessReference
	OccurredOn  time.Time
	CreatedBy   string

	// EnforceSufficiency rejects the posting with ErrInsufficientFunds when
	// the department balance would go negative. Checked under the row lock.
	EnforceSufficiency bool

	// Mirror replicates the posting into the main ledger as a voucher.
	Mirror bool

	// AggregateDaily merges into an existing same-day voucher for the same
	// (scope, kind) instead of creating a new one.
	AggregateDaily bool

	// Narration is the voucher narration fragment for this posting.
	Narration string
}

// SignedAmount returns the amount with the kind's sign applied.
func (e *PostingEntry) SignedAmount() decimal.Decimal {
	if e.Kind.Increases() {
		return e.Amount
	}
	return e.Amount.Neg()
}

// PostingResult reports what one atomic posting did.
type PostingResult struct {
	Transaction   *domain.Transaction `json:"transaction"`
	Voucher       *domain.Voucher     `json:"voucher,omitempty"`
	VoucherMerged bool                `json:"voucher_merged,omitempty"`
	Balance       decimal.Decimal     `json:"balance"`
	MainBalance   *decimal.Decimal    `json:"main_balance,omitempty"`
}

// Store is the ledger storage contract. ApplyPosting executes the whole
// write set of one posting as a single atomic, serializable unit of work;
// partial application is a correctness violation. All read methods are pure
// over the logs and snapshot-consistent.
type Store interface {
	ApplyPosting(ctx context.Context, entry *PostingEntry) (*PostingResult, error)

	GetBalance(ctx context.Context, scope domain.Scope) (decimal.Decimal, error)
	BalanceAsOf(ctx context.Context, scope domain.Scope, at time.Time) (decimal.Decimal, error)

	ListTransactions(ctx context.Context, filter *domain.TransactionFilter) ([]*domain.Transaction, error)
	ListVouchers(ctx context.Context, filter *domain.VoucherFilter) ([]*domain.Voucher, error)
	FindByBusinessReference(ctx context.Context, scope domain.Scope, refType, refID string) (*domain.Transaction, error)

	MonthlyReport(ctx context.Context, scope domain.Scope, year int, month time.Month) (*domain.MonthlyReport, error)
	AccountSummary(ctx context.Context, scope domain.Scope) (*domain.AccountSummary, error)
	CategoryTotals(ctx context.Context, scope domain.Scope, from, to time.Time) ([]*domain.CategoryTotal, error)
	VoucherTotals(ctx context.Context) ([]*domain.VoucherSummary, error)
}
