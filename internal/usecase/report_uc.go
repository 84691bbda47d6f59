package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type ReportUsecase struct {
	store       repository.Store
	redisClient *redis.Client
}

func NewReportUsecase(store repository.Store, redisClient *redis.Client) *ReportUsecase {
	return &ReportUsecase{
		store:       store,
		redisClient: redisClient,
	}
}

// MonthlyReport returns the profit-and-loss view for one scope and month
// with caching. Closed months are stable, so a short TTL is only needed
// for the current month.
func (uc *ReportUsecase) MonthlyReport(ctx context.Context, scope domain.Scope, year int, month time.Month) (*domain.MonthlyReport, error) {
	if !scope.IsValid() {
		return nil, domain.ErrUnknownScope
	}

	cacheKey := fmt.Sprintf("ledger:report:monthly:%s:%d:%d", scope, year, month)
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var report domain.MonthlyReport
			if jsonErr := json.Unmarshal([]byte(val), &report); jsonErr == nil {
				return &report, nil
			}
		}
	}

	report, err := uc.store.MonthlyReport(ctx, scope, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to build monthly report: %w", err)
	}

	if uc.redisClient != nil {
		ttl := 1 * time.Minute
		now := time.Now()
		if year < now.Year() || (year == now.Year() && month < now.Month()) {
			ttl = 1 * time.Hour
		}
		if data, err := json.Marshal(report); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, ttl).Err()
		}
	}

	return report, nil
}

// AccountSummary returns lifetime totals for one scope.
func (uc *ReportUsecase) AccountSummary(ctx context.Context, scope domain.Scope) (*domain.AccountSummary, error) {
	if !scope.IsValid() {
		return nil, domain.ErrUnknownScope
	}

	cacheKey := fmt.Sprintf("ledger:report:summary:%s", scope)
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var summary domain.AccountSummary
			if jsonErr := json.Unmarshal([]byte(val), &summary); jsonErr == nil {
				return &summary, nil
			}
		}
	}

	summary, err := uc.store.AccountSummary(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to build account summary: %w", err)
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(summary); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, 30*time.Second).Err()
		}
	}

	return summary, nil
}

// CategoryTotals returns per-category posted totals for one scope within a
// period.
func (uc *ReportUsecase) CategoryTotals(ctx context.Context, scope domain.Scope, from, to time.Time) ([]*domain.CategoryTotal, error) {
	if !scope.IsValid() {
		return nil, domain.ErrUnknownScope
	}
	if to.Before(from) {
		return nil, domain.ErrMissingDate
	}
	totals, err := uc.store.CategoryTotals(ctx, scope, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build category totals: %w", err)
	}
	return totals, nil
}

// VoucherTotals returns main-ledger voucher totals grouped by source scope
// and kind. Reconciliation compares these against department totals.
func (uc *ReportUsecase) VoucherTotals(ctx context.Context) ([]*domain.VoucherSummary, error) {
	totals, err := uc.store.VoucherTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build voucher totals: %w", err)
	}
	return totals, nil
}

// BalanceAsOf replays the scope's log up to and including the given date.
func (uc *ReportUsecase) BalanceAsOf(ctx context.Context, scope domain.Scope, at time.Time) (decimal.Decimal, error) {
	if !scope.IsValid() {
		return decimal.Zero, domain.ErrUnknownScope
	}
	if at.IsZero() {
		return decimal.Zero, domain.ErrMissingDate
	}
	balance, err := uc.store.BalanceAsOf(ctx, scope, domain.DateOnly(at))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute balance as of date: %w", err)
	}
	return balance, nil
}

// ListTransactions returns department postings matching the filter, newest
// first.
func (uc *ReportUsecase) ListTransactions(ctx context.Context, filter *domain.TransactionFilter) ([]*domain.Transaction, error) {
	if filter != nil && filter.Scope != nil && !filter.Scope.IsValid() {
		return nil, domain.ErrUnknownScope
	}
	txns, err := uc.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// ListVouchers returns main-ledger vouchers matching the filter, newest
// first.
func (uc *ReportUsecase) ListVouchers(ctx context.Context, filter *domain.VoucherFilter) ([]*domain.Voucher, error) {
	vouchers, err := uc.store.ListVouchers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	return vouchers, nil
}
