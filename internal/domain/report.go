package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyReport represents aggregated profit-and-loss data for one scope
// and month. Income and Expense cover the income/expense kinds only; fund
// movements are capital and excluded from profit.
type MonthlyReport struct {
	Scope   Scope           `json:"scope"`
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Profit  decimal.Decimal `json:"profit"`
	Balance decimal.Decimal `json:"balance"` // current scope balance
}

// AccountSummary represents lifetime totals for one scope. Totals include
// fund movements so that NetBalance always equals CurrentBalance.
type AccountSummary struct {
	Scope          Scope           `json:"scope"`
	TotalIncome    decimal.Decimal `json:"total_income"`  // income + fund_in
	TotalExpense   decimal.Decimal `json:"total_expense"` // expense + fund_out
	NetBalance     decimal.Decimal `json:"net_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
}

// CategoryTotal represents the posted total per category (or purpose, for
// fund kinds) within a period.
type CategoryTotal struct {
	Scope    Scope           `json:"scope"`
	Kind     TransactionKind `json:"kind"`
	Category string          `json:"category"`
	Count    int64           `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// VoucherSummary represents voucher totals grouped by source scope and kind.
type VoucherSummary struct {
	SourceScope Scope           `json:"source_scope"`
	SourceKind  TransactionKind `json:"source_kind"`
	Type        VoucherType     `json:"voucher_type"`
	Count       int64           `json:"count"`
	Total       decimal.Decimal `json:"total"`
}
