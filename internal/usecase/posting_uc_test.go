package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPolicy() domain.MirrorPolicy {
	return domain.NewMirrorPolicy(
		[]domain.Scope{domain.ScopeHospital},
		map[domain.Scope][]domain.TransactionKind{
			domain.ScopeHospital: {domain.KindIncome},
		},
	)
}

func newPostingUC() (*PostingUsecase, *memory.Store) {
	store := memory.NewStore()
	uc := NewPostingUsecase(store, defaultPolicy(), nil, nil)
	return uc, store
}

func post(t *testing.T, uc *PostingUsecase, scope domain.Scope, kind domain.TransactionKind, amount, category string, day time.Time) *domain.Transaction {
	t.Helper()
	result, err := uc.Post(context.Background(), &domain.PostingRequest{
		Scope:      scope,
		Kind:       kind,
		Amount:     decimal.RequireFromString(amount),
		Category:   category,
		OccurredOn: day,
	})
	require.NoError(t, err)
	return result.Transaction
}

func TestPostMirrorsHospitalIncomeIntoOneDailyVoucher(t *testing.T) {
	uc, _ := newPostingUC()
	ctx := context.Background()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	first, err := uc.Post(ctx, &domain.PostingRequest{
		Scope:      domain.ScopeHospital,
		Kind:       domain.KindIncome,
		Amount:     decimal.RequireFromString("500.00"),
		Category:   "consultation",
		OccurredOn: day,
	})
	require.NoError(t, err)
	require.NotNil(t, first.Voucher)
	assert.False(t, first.VoucherMerged)
	assert.Equal(t, "HOS-INC-20240110-0001", first.Transaction.TransactionNo)
	assert.Equal(t, domain.VoucherDebit, first.Voucher.Type)
	assert.True(t, first.Balance.Equal(decimal.RequireFromString("500.00")))
	require.NotNil(t, first.MainBalance)
	assert.True(t, first.MainBalance.Equal(decimal.RequireFromString("500.00")))

	second, err := uc.Post(ctx, &domain.PostingRequest{
		Scope:      domain.ScopeHospital,
		Kind:       domain.KindIncome,
		Amount:     decimal.RequireFromString("300.00"),
		Category:   "surgery",
		OccurredOn: day,
	})
	require.NoError(t, err)
	require.NotNil(t, second.Voucher)
	assert.True(t, second.VoucherMerged)
	assert.Equal(t, "HOS-INC-20240110-0002", second.Transaction.TransactionNo)

	// Same-day income collapses into the first voucher.
	assert.Equal(t, first.Voucher.VoucherNo, second.Voucher.VoucherNo)
	assert.True(t, second.Voucher.Amount.Equal(decimal.RequireFromString("800.00")))
	require.NotNil(t, second.MainBalance)
	assert.True(t, second.MainBalance.Equal(decimal.RequireFromString("800.00")))

	balance, err := uc.GetBalance(ctx, domain.ScopeHospital)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("800.00")))
}

func TestPostHospitalExpenseCreatesVoucherPerPosting(t *testing.T) {
	uc, _ := newPostingUC()
	ctx := context.Background()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	post(t, uc, domain.ScopeHospital, domain.KindIncome, "1000.00", "consultation", day)

	first, err := uc.Post(ctx, &domain.PostingRequest{
		Scope:      domain.ScopeHospital,
		Kind:       domain.KindExpense,
		Amount:     decimal.RequireFromString("100.00"),
		Category:   "supplies",
		OccurredOn: day,
	})
	require.NoError(t, err)

	second, err := uc.Post(ctx, &domain.PostingRequest{
		Scope:      domain.ScopeHospital,
		Kind:       domain.KindExpense,
		Amount:     decimal.RequireFromString("50.00"),
		Category:   "supplies",
		OccurredOn: day,
	})
	require.NoError(t, err)

	// Expenses are not in the aggregation set, so each posting gets its
	// own Credit voucher.
	require.NotNil(t, first.Voucher)
	require.NotNil(t, second.Voucher)
	assert.False(t, second.VoucherMerged)
	assert.NotEqual(t, first.Voucher.VoucherNo, second.Voucher.VoucherNo)
	assert.Equal(t, domain.VoucherCredit, first.Voucher.Type)
}

func TestPostNonMirroredScopeLeavesMainUntouched(t *testing.T) {
	uc, _ := newPostingUC()
	ctx := context.Background()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	result, err := uc.Post(ctx, &domain.PostingRequest{
		Scope:      domain.ScopeMedicine,
		Kind:       domain.KindIncome,
		Amount:     decimal.RequireFromString("200.00"),
		Category:   "sales",
		OccurredOn: day,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Voucher)
	assert.Nil(t, result.MainBalance)
	assert.Equal(t, "MED-INC-20240110-0001", result.Transaction.TransactionNo)

	mainBalance, err := uc.GetBalance(ctx, domain.ScopeMain)
	require.NoError(t, err)
	assert.True(t, mainBalance.IsZero())
}

func TestPostInsufficientFundsLeavesNoSideEffects(t *testing.T) {
	uc, store := newPostingUC()
	ctx := context.Background()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	post(t, uc, domain.ScopeHospital, domain.KindIncome, "100.00", "consultation", day)

	_, err := uc.Post(ctx, &domain.PostingRequest{
		Scope:      domain.ScopeHospital,
		Kind:       domain.KindExpense,
		Amount:     decimal.RequireFromString("150.00"),
		Category:   "supplies",
		OccurredOn: day,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	balance, err := uc.GetBalance(ctx, domain.ScopeHospital)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("100.00")))

	scope := domain.ScopeHospital
	txns, err := store.ListTransactions(ctx, &domain.TransactionFilter{Scope: &scope})
	require.NoError(t, err)
	require.Len(t, txns, 1)

	mainBalance, err := store.GetBalance(ctx, domain.ScopeMain)
	require.NoError(t, err)
	assert.True(t, mainBalance.Equal(decimal.RequireFromString("100.00")))
}

func TestPostValidationRejectsBeforeAnyWrite(t *testing.T) {
	uc, store := newPostingUC()
	ctx := context.Background()

	_, err := uc.Post(ctx, &domain.PostingRequest{
		Scope:      domain.ScopeHospital,
		Kind:       domain.KindIncome,
		Amount:     decimal.RequireFromString("10.001"),
		OccurredOn: time.Now(),
	})
	require.ErrorIs(t, err, domain.ErrAmountPrecision)

	txns, err := store.ListTransactions(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestPostConcurrentNumbersAreUnique(t *testing.T) {
	uc, store := newPostingUC()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := uc.Post(context.Background(), &domain.PostingRequest{
					Scope:       domain.ScopeHospital,
					Kind:        domain.KindIncome,
					Amount:      decimal.RequireFromString("10.00"),
					Category:    "consultation",
					Description: fmt.Sprintf("worker %d posting %d", worker, j),
					OccurredOn:  day,
				})
				if err != nil {
					t.Errorf("post failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	scope := domain.ScopeHospital
	txns, err := store.ListTransactions(context.Background(), &domain.TransactionFilter{
		Scope: &scope,
		Limit: workers * perWorker,
	})
	require.NoError(t, err)
	require.Len(t, txns, workers*perWorker)

	seen := make(map[string]bool, len(txns))
	for _, txn := range txns {
		assert.False(t, seen[txn.TransactionNo], "duplicate transaction number %s", txn.TransactionNo)
		seen[txn.TransactionNo] = true
	}

	balance, err := store.GetBalance(context.Background(), domain.ScopeHospital)
	require.NoError(t, err)
	expected := decimal.RequireFromString("10.00").Mul(decimal.NewFromInt(workers * perWorker))
	assert.True(t, balance.Equal(expected), "balance %s, expected %s", balance, expected)

	// Everything aggregated into one voucher, and main tracks hospital.
	vouchers, err := store.ListVouchers(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	assert.True(t, vouchers[0].Amount.Equal(expected))

	mainBalance, err := store.GetBalance(context.Background(), domain.ScopeMain)
	require.NoError(t, err)
	assert.True(t, mainBalance.Equal(expected))
}

func TestFindByBusinessReference(t *testing.T) {
	uc, _ := newPostingUC()
	ctx := context.Background()

	_, err := uc.Post(ctx, &domain.PostingRequest{
		Scope:       domain.ScopeOptics,
		Kind:        domain.KindIncome,
		Amount:      decimal.RequireFromString("75.50"),
		Category:    "frames",
		OccurredOn:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		BusinessRef: &domain.BusinessReference{Type: "invoice", ID: "INV-100"},
	})
	require.NoError(t, err)

	txn, err := uc.FindByBusinessReference(ctx, domain.ScopeOptics, "invoice", "INV-100")
	require.NoError(t, err)
	assert.Equal(t, "OPT-INC-20240201-0001", txn.TransactionNo)

	_, err = uc.FindByBusinessReference(ctx, domain.ScopeOptics, "invoice", "INV-999")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.FindByBusinessReference(ctx, domain.ScopeMain, "invoice", "INV-100")
	assert.ErrorIs(t, err, domain.ErrUnknownScope)
}

func TestGetBalanceUnknownScope(t *testing.T) {
	uc, _ := newPostingUC()
	_, err := uc.GetBalance(context.Background(), "pharmacy")
	assert.ErrorIs(t, err, domain.ErrUnknownScope)
}
