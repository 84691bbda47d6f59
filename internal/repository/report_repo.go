package repository

import (
	"context"
	"fmt"
	"time"

	"ledger-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReportRepository serves the reconciliation queries. Every method
// aggregates over the append-only logs; none touches the balances table
// except through the caller, so results stay re-derivable for audit.
type ReportRepository interface {
	MonthlyTotals(ctx context.Context, scope domain.Scope, year int, month time.Month) (income, expense decimal.Decimal, err error)
	SummaryTotals(ctx context.Context, scope domain.Scope) (totalIn, totalOut decimal.Decimal, err error)
	CategoryTotals(ctx context.Context, scope domain.Scope, from, to time.Time) ([]*domain.CategoryTotal, error)
	VoucherTotals(ctx context.Context) ([]*domain.VoucherSummary, error)
	TransactionBalanceAsOf(ctx context.Context, scope domain.Scope, at time.Time) (decimal.Decimal, error)
	VoucherBalanceAsOf(ctx context.Context, at time.Time) (decimal.Decimal, error)
}

type reportRepo struct {
	db *pgxpool.Pool
}

func NewReportRepo(db *pgxpool.Pool) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) MonthlyTotals(ctx context.Context, scope domain.Scope, year int, month time.Month) (decimal.Decimal, decimal.Decimal, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var income, expense decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'expense'), 0)
		FROM transactions
		WHERE scope = $1 AND occurred_on >= $2 AND occurred_on < $3
	`, scope, start, end).Scan(&income, &expense)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to get monthly totals: %w", err)
	}
	return income, expense, nil
}

func (r *reportRepo) SummaryTotals(ctx context.Context, scope domain.Scope) (decimal.Decimal, decimal.Decimal, error) {
	var totalIn, totalOut decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind IN ('income', 'fund_in')), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind IN ('expense', 'fund_out')), 0)
		FROM transactions
		WHERE scope = $1
	`, scope).Scan(&totalIn, &totalOut)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to get summary totals: %w", err)
	}
	return totalIn, totalOut, nil
}

func (r *reportRepo) CategoryTotals(ctx context.Context, scope domain.Scope, from, to time.Time) ([]*domain.CategoryTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			kind,
			CASE WHEN kind IN ('fund_in', 'fund_out') THEN purpose ELSE category END AS label,
			COUNT(*),
			SUM(amount)
		FROM transactions
		WHERE scope = $1 AND occurred_on >= $2 AND occurred_on <= $3
		GROUP BY 1, 2
		ORDER BY 2, 1
	`, scope, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get category totals: %w", err)
	}
	defer rows.Close()

	var totals []*domain.CategoryTotal
	for rows.Next() {
		t := &domain.CategoryTotal{Scope: scope}
		if err := rows.Scan(&t.Kind, &t.Category, &t.Count, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}
	return totals, nil
}

func (r *reportRepo) VoucherTotals(ctx context.Context) ([]*domain.VoucherSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT source_scope, source_kind, voucher_type, COUNT(*), SUM(amount)
		FROM vouchers
		GROUP BY 1, 2, 3
		ORDER BY 1, 2
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get voucher totals: %w", err)
	}
	defer rows.Close()

	var totals []*domain.VoucherSummary
	for rows.Next() {
		var s domain.VoucherSummary
		if err := rows.Scan(&s.SourceScope, &s.SourceKind, &s.Type, &s.Count, &s.Total); err != nil {
			return nil, fmt.Errorf("failed to scan voucher summary: %w", err)
		}
		totals = append(totals, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voucher totals: %w", err)
	}
	return totals, nil
}

// TransactionBalanceAsOf replays the transaction log up to a business date.
// Audit path only; the live balance is maintained incrementally.
func (r *reportRepo) TransactionBalanceAsOf(ctx context.Context, scope domain.Scope, at time.Time) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(
			CASE WHEN kind IN ('income', 'fund_in') THEN amount ELSE -amount END
		), 0)
		FROM transactions
		WHERE scope = $1 AND occurred_on <= $2
	`, scope, at).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to replay transaction balance: %w", err)
	}
	return balance, nil
}

// VoucherBalanceAsOf replays the voucher log: Debit minus Credit.
func (r *reportRepo) VoucherBalanceAsOf(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(
			CASE WHEN voucher_type = 'Debit' THEN amount ELSE -amount END
		), 0)
		FROM vouchers
		WHERE date <= $1
	`, at).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to replay voucher balance: %w", err)
	}
	return balance, nil
}
