package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerAccount holds the running balance for one scope. The balance is a
// derived value maintained incrementally inside the same atomic unit as the
// log write that caused it; it must always equal the signed sum of the
// scope's transaction (or voucher, for main) amounts. Rows are created
// lazily on first write.
type LedgerAccount struct {
	Scope     Scope           `json:"scope"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}
