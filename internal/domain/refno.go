package domain

import (
	"fmt"
	"time"
)

// Reference numbers are deterministic and human readable. Transaction
// numbers are scoped per (scope, kind, day); voucher numbers are a plain
// zero-padded monotonic integer. The sequence values behind them come from
// atomic counters, never from "count rows + 1" reads.

const refNoDay = "20060102"

// FormatTransactionNo renders a transaction number such as
// HOS-INC-20240110-0001.
func FormatTransactionNo(scope Scope, kind TransactionKind, day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%s-%04d", scope.Prefix(), kind.Prefix(), day.Format(refNoDay), seq)
}

// FormatVoucherNo renders a voucher number such as 000042.
func FormatVoucherNo(seq int64) string {
	return fmt.Sprintf("%06d", seq)
}

// DateOnly truncates t to its calendar date in UTC. Aggregation keys and
// occurred-on values compare on this.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
