// Package memory provides an in-memory implementation of the ledger store.
// It backs package tests and DB-less local runs. A single mutex stands in
// for the database's row locks: coarser than the postgres store, but it
// gives ApplyPosting the same all-or-nothing semantics.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu           sync.Mutex
	balances     map[domain.Scope]decimal.Decimal
	transactions []*domain.Transaction
	vouchers     []*domain.Voucher
	txSeq        map[string]int64
	voucherSeq   int64
	nextTxID     int64
	nextVchID    int64
}

func NewStore() *Store {
	return &Store{
		balances: make(map[domain.Scope]decimal.Decimal),
		txSeq:    make(map[string]int64),
	}
}

var _ repository.Store = (*Store)(nil)

func seqKey(scope domain.Scope, kind domain.TransactionKind, day time.Time) string {
	return fmt.Sprintf("%s|%s|%s", scope, kind, day.Format("20060102"))
}

// ApplyPosting mirrors the postgres store's atomic unit. All checks run
// before the first mutation, so a rejected posting leaves no side effects.
func (s *Store) ApplyPosting(ctx context.Context, entry *repository.PostingEntry) (*repository.PostingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := domain.DateOnly(entry.OccurredOn)
	signed := entry.SignedAmount()

	newBalance := s.balances[entry.Scope].Add(signed)
	if entry.EnforceSufficiency && newBalance.IsNegative() {
		return nil, domain.ErrInsufficientFunds
	}

	key := seqKey(entry.Scope, entry.Kind, day)
	s.txSeq[key]++
	s.nextTxID++

	txn := &domain.Transaction{
		ID:            s.nextTxID,
		Scope:         entry.Scope,
		TransactionNo: domain.FormatTransactionNo(entry.Scope, entry.Kind, day, s.txSeq[key]),
		Kind:          entry.Kind,
		Amount:        entry.Amount,
		Category:      entry.Category,
		Purpose:       entry.Purpose,
		Description:   entry.Description,
		BusinessRef:   entry.BusinessRef,
		OccurredOn:    day,
		CreatedBy:     entry.CreatedBy,
		CreatedAt:     time.Now(),
	}
	s.transactions = append(s.transactions, txn)
	s.balances[entry.Scope] = newBalance

	result := &repository.PostingResult{
		Transaction: cloneTransaction(txn),
		Balance:     newBalance,
	}

	if entry.Mirror {
		voucher, merged := s.mirrorVoucher(entry, txn, day)
		result.Voucher = cloneVoucher(voucher)
		result.VoucherMerged = merged

		mainBalance := s.balances[domain.ScopeMain].Add(signed)
		s.balances[domain.ScopeMain] = mainBalance
		result.MainBalance = &mainBalance
	}

	return result, nil
}

func (s *Store) mirrorVoucher(entry *repository.PostingEntry, txn *domain.Transaction, day time.Time) (*domain.Voucher, bool) {
	if entry.AggregateDaily {
		for _, v := range s.vouchers {
			if v.SourceScope == entry.Scope && v.SourceKind == entry.Kind && v.Date.Equal(day) {
				v.Amount = v.Amount.Add(entry.Amount)
				if entry.Narration != "" {
					if v.Narration != "" {
						v.Narration += "; "
					}
					v.Narration += entry.Narration
				}
				return v, true
			}
		}
	}

	s.voucherSeq++
	s.nextVchID++
	voucher := &domain.Voucher{
		ID:                  s.nextVchID,
		VoucherNo:           domain.FormatVoucherNo(s.voucherSeq),
		Type:                domain.VoucherTypeFor(entry.Kind),
		Date:                day,
		Narration:           entry.Narration,
		Amount:              entry.Amount,
		SourceScope:         entry.Scope,
		SourceKind:          entry.Kind,
		SourceTransactionNo: txn.TransactionNo,
		SourceTransactionID: txn.ID,
		CreatedBy:           entry.CreatedBy,
		CreatedAt:           time.Now(),
	}
	s.vouchers = append(s.vouchers, voucher)
	return voucher, false
}

func (s *Store) GetBalance(ctx context.Context, scope domain.Scope) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[scope], nil
}

func (s *Store) BalanceAsOf(ctx context.Context, scope domain.Scope, at time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := decimal.Zero
	if scope == domain.ScopeMain {
		for _, v := range s.vouchers {
			if !v.Date.After(at) {
				balance = balance.Add(v.SignedAmount())
			}
		}
		return balance, nil
	}
	for _, t := range s.transactions {
		if t.Scope == scope && !t.OccurredOn.After(at) {
			balance = balance.Add(t.SignedAmount())
		}
	}
	return balance, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter *domain.TransactionFilter) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filter == nil {
		filter = &domain.TransactionFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var matched []*domain.Transaction
	for _, t := range s.transactions {
		if filter.Scope != nil && t.Scope != *filter.Scope {
			continue
		}
		if filter.Kind != nil && t.Kind != *filter.Kind {
			continue
		}
		if filter.From != nil && t.OccurredOn.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.OccurredOn.After(*filter.To) {
			continue
		}
		matched = append(matched, t)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].OccurredOn.Equal(matched[j].OccurredOn) {
			return matched[i].OccurredOn.After(matched[j].OccurredOn)
		}
		return matched[i].ID > matched[j].ID
	})

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*domain.Transaction, len(matched))
	for i, t := range matched {
		out[i] = cloneTransaction(t)
	}
	return out, nil
}

func (s *Store) ListVouchers(ctx context.Context, filter *domain.VoucherFilter) ([]*domain.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filter == nil {
		filter = &domain.VoucherFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var matched []*domain.Voucher
	for _, v := range s.vouchers {
		if filter.Type != nil && v.Type != *filter.Type {
			continue
		}
		if filter.SourceScope != nil && v.SourceScope != *filter.SourceScope {
			continue
		}
		if filter.Date != nil && !v.Date.Equal(domain.DateOnly(*filter.Date)) {
			continue
		}
		if filter.From != nil && v.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && v.Date.After(*filter.To) {
			continue
		}
		matched = append(matched, v)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID > matched[j].ID
	})

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*domain.Voucher, len(matched))
	for i, v := range matched {
		out[i] = cloneVoucher(v)
	}
	return out, nil
}

func (s *Store) FindByBusinessReference(ctx context.Context, scope domain.Scope, refType, refID string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.transactions) - 1; i >= 0; i-- {
		t := s.transactions[i]
		if t.Scope != scope || t.BusinessRef == nil {
			continue
		}
		if t.BusinessRef.Type == refType && t.BusinessRef.ID == refID {
			return cloneTransaction(t), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) MonthlyReport(ctx context.Context, scope domain.Scope, year int, month time.Month) (*domain.MonthlyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &domain.MonthlyReport{
		Scope:   scope,
		Year:    year,
		Month:   month,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	for _, t := range s.transactions {
		if t.Scope != scope {
			continue
		}
		y, m, _ := t.OccurredOn.Date()
		if y != year || m != month {
			continue
		}
		switch t.Kind {
		case domain.KindIncome:
			report.Income = report.Income.Add(t.Amount)
		case domain.KindExpense:
			report.Expense = report.Expense.Add(t.Amount)
		}
	}
	report.Profit = report.Income.Sub(report.Expense)
	report.Balance = s.balances[scope]
	return report, nil
}

func (s *Store) AccountSummary(ctx context.Context, scope domain.Scope) (*domain.AccountSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totalIn, totalOut := decimal.Zero, decimal.Zero
	for _, t := range s.transactions {
		if t.Scope != scope {
			continue
		}
		if t.Kind.Increases() {
			totalIn = totalIn.Add(t.Amount)
		} else {
			totalOut = totalOut.Add(t.Amount)
		}
	}
	return &domain.AccountSummary{
		Scope:          scope,
		TotalIncome:    totalIn,
		TotalExpense:   totalOut,
		NetBalance:     totalIn.Sub(totalOut),
		CurrentBalance: s.balances[scope],
	}, nil
}

func (s *Store) CategoryTotals(ctx context.Context, scope domain.Scope, from, to time.Time) ([]*domain.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		kind  domain.TransactionKind
		label string
	}
	totals := make(map[key]*domain.CategoryTotal)
	for _, t := range s.transactions {
		if t.Scope != scope || t.OccurredOn.Before(from) || t.OccurredOn.After(to) {
			continue
		}
		k := key{kind: t.Kind, label: t.Label()}
		ct, ok := totals[k]
		if !ok {
			ct = &domain.CategoryTotal{
				Scope:    scope,
				Kind:     t.Kind,
				Category: t.Label(),
				Total:    decimal.Zero,
			}
			totals[k] = ct
		}
		ct.Count++
		ct.Total = ct.Total.Add(t.Amount)
	}

	out := make([]*domain.CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}

func (s *Store) VoucherTotals(ctx context.Context) ([]*domain.VoucherSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		scope domain.Scope
		kind  domain.TransactionKind
	}
	totals := make(map[key]*domain.VoucherSummary)
	for _, v := range s.vouchers {
		k := key{scope: v.SourceScope, kind: v.SourceKind}
		vs, ok := totals[k]
		if !ok {
			vs = &domain.VoucherSummary{
				SourceScope: v.SourceScope,
				SourceKind:  v.SourceKind,
				Type:        v.Type,
				Total:       decimal.Zero,
			}
			totals[k] = vs
		}
		vs.Count++
		vs.Total = vs.Total.Add(v.Amount)
	}

	out := make([]*domain.VoucherSummary, 0, len(totals))
	for _, vs := range totals {
		out = append(out, vs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceScope != out[j].SourceScope {
			return out[i].SourceScope < out[j].SourceScope
		}
		return out[i].SourceKind < out[j].SourceKind
	})
	return out, nil
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.BusinessRef != nil {
		ref := *t.BusinessRef
		c.BusinessRef = &ref
	}
	return &c
}

func cloneVoucher(v *domain.Voucher) *domain.Voucher {
	c := *v
	return &c
}
