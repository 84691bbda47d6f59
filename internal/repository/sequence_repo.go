package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceRepository hands out the numbers behind reference codes. Both
// methods are atomic: two concurrent callers can never observe the same
// value. Counter rows participate in the caller's transaction, so a rolled
// back posting may skip a number but can never duplicate one.
type SequenceRepository interface {
	// NextTransactionSeq increments the (scope, kind, day) counter and
	// returns its new value, starting at 1 for the first posting of a day.
	NextTransactionSeq(ctx context.Context, tx pgx.Tx, scope domain.Scope, kind domain.TransactionKind, day time.Time) (int64, error)

	// NextVoucherSeq returns the next value of the global voucher sequence.
	NextVoucherSeq(ctx context.Context, tx pgx.Tx) (int64, error)
}

type sequenceRepo struct {
	db *pgxpool.Pool
}

func NewSequenceRepo(db *pgxpool.Pool) SequenceRepository {
	return &sequenceRepo{db: db}
}

func (r *sequenceRepo) NextTransactionSeq(ctx context.Context, tx pgx.Tx, scope domain.Scope, kind domain.TransactionKind, day time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction cannot be nil")
	}

	// Atomic read-modify-write on one counter row. The upsert takes a row
	// lock, serializing same-day same-kind callers for the duration of the
	// surrounding transaction.
	var seq int64
	err := tx.QueryRow(ctx, `
		INSERT INTO ref_counters (scope, kind, day, value)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (scope, kind, day)
		DO UPDATE SET value = ref_counters.value + 1
		RETURNING value
	`, scope, kind, day).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to advance transaction counter: %w", err)
	}
	return seq, nil
}

func (r *sequenceRepo) NextVoucherSeq(ctx context.Context, tx pgx.Tx) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction cannot be nil")
	}

	var seq int64
	err := tx.QueryRow(ctx, `SELECT nextval('voucher_no_seq')`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to advance voucher sequence: %w", err)
	}
	return seq, nil
}
