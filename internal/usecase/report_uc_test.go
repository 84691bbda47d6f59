package usecase

import (
	"context"
	"testing"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLedger(t *testing.T) (*PostingUsecase, *ReportUsecase) {
	t.Helper()
	store := memory.NewStore()
	postingUC := NewPostingUsecase(store, defaultPolicy(), nil, nil)
	reportUC := NewReportUsecase(store, nil)

	jan10 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	jan20 := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	feb5 := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

	post(t, postingUC, domain.ScopeHospital, domain.KindIncome, "500.00", "consultation", jan10)
	post(t, postingUC, domain.ScopeHospital, domain.KindIncome, "300.00", "surgery", jan10)
	post(t, postingUC, domain.ScopeHospital, domain.KindExpense, "200.00", "supplies", jan20)
	post(t, postingUC, domain.ScopeHospital, domain.KindFundIn, "1000.00", "opening capital", jan10)
	post(t, postingUC, domain.ScopeHospital, domain.KindIncome, "150.00", "consultation", feb5)

	return postingUC, reportUC
}

func TestMonthlyReportExcludesFundMovements(t *testing.T) {
	_, reportUC := seedLedger(t)

	report, err := reportUC.MonthlyReport(context.Background(), domain.ScopeHospital, 2024, time.January)
	require.NoError(t, err)

	assert.True(t, report.Income.Equal(decimal.RequireFromString("800.00")), "income %s", report.Income)
	assert.True(t, report.Expense.Equal(decimal.RequireFromString("200.00")))
	assert.True(t, report.Profit.Equal(decimal.RequireFromString("600.00")))
	// Balance is current, including the fund-in and February income.
	assert.True(t, report.Balance.Equal(decimal.RequireFromString("1750.00")))
}

func TestMonthlyReportIsIdempotent(t *testing.T) {
	_, reportUC := seedLedger(t)
	ctx := context.Background()

	first, err := reportUC.MonthlyReport(ctx, domain.ScopeHospital, 2024, time.January)
	require.NoError(t, err)
	second, err := reportUC.MonthlyReport(ctx, domain.ScopeHospital, 2024, time.January)
	require.NoError(t, err)

	assert.True(t, first.Income.Equal(second.Income))
	assert.True(t, first.Expense.Equal(second.Expense))
	assert.True(t, first.Profit.Equal(second.Profit))
}

func TestAccountSummaryNetEqualsCurrent(t *testing.T) {
	_, reportUC := seedLedger(t)

	summary, err := reportUC.AccountSummary(context.Background(), domain.ScopeHospital)
	require.NoError(t, err)

	assert.True(t, summary.TotalIncome.Equal(decimal.RequireFromString("1950.00")), "total income %s", summary.TotalIncome)
	assert.True(t, summary.TotalExpense.Equal(decimal.RequireFromString("200.00")))
	assert.True(t, summary.NetBalance.Equal(summary.CurrentBalance))
}

func TestBalanceAsOfReplaysTheLog(t *testing.T) {
	_, reportUC := seedLedger(t)
	ctx := context.Background()

	jan15, err := reportUC.BalanceAsOf(ctx, domain.ScopeHospital, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, jan15.Equal(decimal.RequireFromString("1800.00")), "jan15 %s", jan15)

	jan31, err := reportUC.BalanceAsOf(ctx, domain.ScopeHospital, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, jan31.Equal(decimal.RequireFromString("1600.00")))

	dec31, err := reportUC.BalanceAsOf(ctx, domain.ScopeHospital, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, dec31.IsZero())
}

func TestVoucherTotalsReconcileWithMainBalance(t *testing.T) {
	postingUC, reportUC := seedLedger(t)
	ctx := context.Background()

	totals, err := reportUC.VoucherTotals(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, totals)

	sum := decimal.Zero
	for _, vt := range totals {
		if vt.Type == domain.VoucherDebit {
			sum = sum.Add(vt.Total)
		} else {
			sum = sum.Sub(vt.Total)
		}
	}

	mainBalance, err := postingUC.GetBalance(ctx, domain.ScopeMain)
	require.NoError(t, err)
	assert.True(t, sum.Equal(mainBalance), "voucher sum %s, main balance %s", sum, mainBalance)
}

func TestCategoryTotals(t *testing.T) {
	_, reportUC := seedLedger(t)

	totals, err := reportUC.CategoryTotals(
		context.Background(),
		domain.ScopeHospital,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	byCategory := make(map[string]*domain.CategoryTotal, len(totals))
	for _, ct := range totals {
		byCategory[ct.Category] = ct
	}

	require.Contains(t, byCategory, "consultation")
	assert.True(t, byCategory["consultation"].Total.Equal(decimal.RequireFromString("500.00")))
	require.Contains(t, byCategory, "opening capital")
	assert.Equal(t, domain.KindFundIn, byCategory["opening capital"].Kind)

	_, err = reportUC.CategoryTotals(
		context.Background(),
		domain.ScopeHospital,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	assert.Error(t, err)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	_, reportUC := seedLedger(t)

	scope := domain.ScopeHospital
	txns, err := reportUC.ListTransactions(context.Background(), &domain.TransactionFilter{Scope: &scope})
	require.NoError(t, err)
	require.Len(t, txns, 5)

	for i := 1; i < len(txns); i++ {
		assert.False(t, txns[i-1].OccurredOn.Before(txns[i].OccurredOn))
	}
}
