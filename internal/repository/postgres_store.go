package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"ledger-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed migrations/001_init.sql
var schemaSQL string

// PostgresStore composes the per-entity repositories into the Store
// contract. ApplyPosting is the only write path and runs every step of a
// posting inside one database transaction with pessimistic row locks.
type PostgresStore struct {
	db              *pgxpool.Pool
	balanceRepo     BalanceRepository
	sequenceRepo    SequenceRepository
	transactionRepo TransactionRepository
	voucherRepo     VoucherRepository
	reportRepo      ReportRepository
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		db:              db,
		balanceRepo:     NewBalanceRepo(db),
		sequenceRepo:    NewSequenceRepo(db),
		transactionRepo: NewTransactionRepo(db),
		voucherRepo:     NewVoucherRepo(db),
		reportRepo:      NewReportRepo(db),
	}
}

var _ Store = (*PostgresStore)(nil)

// Migrate applies the embedded schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// ApplyPosting executes one posting atomically: sequence, transaction
// append, department balance apply, voucher create-or-merge, main balance
// apply. Lock acquisition order is fixed (counter row, department balance,
// voucher row, main balance) so concurrent postings cannot deadlock.
func (s *PostgresStore) ApplyPosting(ctx context.Context, entry *PostingEntry) (*PostingResult, error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	day := domain.DateOnly(entry.OccurredOn)

	seq, err := s.sequenceRepo.NextTransactionSeq(ctx, tx, entry.Scope, entry.Kind, day)
	if err != nil {
		return nil, mapPgError(err)
	}

	txn := &domain.Transaction{
		Scope:         entry.Scope,
		TransactionNo: domain.FormatTransactionNo(entry.Scope, entry.Kind, day, seq),
		Kind:          entry.Kind,
		Amount:        entry.Amount,
		Category:      entry.Category,
		Purpose:       entry.Purpose,
		Description:   entry.Description,
		BusinessRef:   entry.BusinessRef,
		OccurredOn:    day,
		CreatedBy:     entry.CreatedBy,
	}
	if err := s.transactionRepo.Create(ctx, tx, txn); err != nil {
		return nil, mapPgError(err)
	}

	signed := entry.SignedAmount()

	balance, err := s.balanceRepo.Apply(ctx, tx, entry.Scope, signed, entry.EnforceSufficiency)
	if err != nil {
		return nil, mapPgError(err)
	}

	result := &PostingResult{
		Transaction: txn,
		Balance:     balance,
	}

	if entry.Mirror {
		voucher, merged, err := s.mirrorVoucher(ctx, tx, entry, txn, day)
		if err != nil {
			return nil, mapPgError(err)
		}
		result.Voucher = voucher
		result.VoucherMerged = merged

		mainBalance, err := s.balanceRepo.Apply(ctx, tx, domain.ScopeMain, signed, false)
		if err != nil {
			return nil, mapPgError(err)
		}
		result.MainBalance = &mainBalance
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit posting: %w", mapPgError(err))
	}

	return result, nil
}

func (s *PostgresStore) mirrorVoucher(ctx context.Context, tx pgx.Tx, entry *PostingEntry, txn *domain.Transaction, day time.Time) (*domain.Voucher, bool, error) {
	if entry.AggregateDaily {
		existing, err := s.voucherRepo.GetDailyForUpdate(ctx, tx, entry.Scope, entry.Kind, day)
		if err == nil {
			narration := existing.Narration
			if entry.Narration != "" {
				if narration != "" {
					narration += "; "
				}
				narration += entry.Narration
			}
			if err := s.voucherRepo.AddAmount(ctx, tx, existing.ID, entry.Amount, narration); err != nil {
				return nil, false, err
			}
			existing.Amount = existing.Amount.Add(entry.Amount)
			existing.Narration = narration
			return existing, true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
	}

	seq, err := s.sequenceRepo.NextVoucherSeq(ctx, tx)
	if err != nil {
		return nil, false, err
	}

	voucher := &domain.Voucher{
		VoucherNo:           domain.FormatVoucherNo(seq),
		Type:                domain.VoucherTypeFor(entry.Kind),
		Date:                day,
		Narration:           entry.Narration,
		Amount:              entry.Amount,
		SourceScope:         entry.Scope,
		SourceKind:          entry.Kind,
		SourceTransactionNo: txn.TransactionNo,
		SourceTransactionID: txn.ID,
		CreatedBy:           entry.CreatedBy,
	}
	if err := s.voucherRepo.Create(ctx, tx, voucher); err != nil {
		return nil, false, err
	}
	return voucher, false, nil
}

func (s *PostgresStore) GetBalance(ctx context.Context, scope domain.Scope) (decimal.Decimal, error) {
	acc, err := s.balanceRepo.GetByScope(ctx, scope)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}

func (s *PostgresStore) BalanceAsOf(ctx context.Context, scope domain.Scope, at time.Time) (decimal.Decimal, error) {
	if scope == domain.ScopeMain {
		return s.reportRepo.VoucherBalanceAsOf(ctx, at)
	}
	return s.reportRepo.TransactionBalanceAsOf(ctx, scope, at)
}

func (s *PostgresStore) ListTransactions(ctx context.Context, filter *domain.TransactionFilter) ([]*domain.Transaction, error) {
	return s.transactionRepo.List(ctx, filter)
}

func (s *PostgresStore) ListVouchers(ctx context.Context, filter *domain.VoucherFilter) ([]*domain.Voucher, error) {
	return s.voucherRepo.List(ctx, filter)
}

func (s *PostgresStore) FindByBusinessReference(ctx context.Context, scope domain.Scope, refType, refID string) (*domain.Transaction, error) {
	return s.transactionRepo.FindByBusinessReference(ctx, scope, refType, refID)
}

func (s *PostgresStore) MonthlyReport(ctx context.Context, scope domain.Scope, year int, month time.Month) (*domain.MonthlyReport, error) {
	income, expense, err := s.reportRepo.MonthlyTotals(ctx, scope, year, month)
	if err != nil {
		return nil, err
	}
	balance, err := s.GetBalance(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &domain.MonthlyReport{
		Scope:   scope,
		Year:    year,
		Month:   month,
		Income:  income,
		Expense: expense,
		Profit:  income.Sub(expense),
		Balance: balance,
	}, nil
}

func (s *PostgresStore) AccountSummary(ctx context.Context, scope domain.Scope) (*domain.AccountSummary, error) {
	totalIn, totalOut, err := s.reportRepo.SummaryTotals(ctx, scope)
	if err != nil {
		return nil, err
	}
	balance, err := s.GetBalance(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &domain.AccountSummary{
		Scope:          scope,
		TotalIncome:    totalIn,
		TotalExpense:   totalOut,
		NetBalance:     totalIn.Sub(totalOut),
		CurrentBalance: balance,
	}, nil
}

func (s *PostgresStore) CategoryTotals(ctx context.Context, scope domain.Scope, from, to time.Time) ([]*domain.CategoryTotal, error) {
	return s.reportRepo.CategoryTotals(ctx, scope, from, to)
}

func (s *PostgresStore) VoucherTotals(ctx context.Context) ([]*domain.VoucherSummary, error) {
	return s.reportRepo.VoucherTotals(ctx)
}

// mapPgError translates retryable postgres failures into domain.ErrConflict
// so the posting service can re-run the atomic unit. 40001/40P01 are
// serialization and deadlock failures; 23505 covers a lost race on a
// uniqueness constraint.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.Code)
		}
	}
	return err
}
