package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type BalanceRepository interface {
	// GetByScope reads the current balance without locking. A scope with no
	// row yet reads as zero (rows are created lazily on first write).
	GetByScope(ctx context.Context, scope domain.Scope) (*domain.LedgerAccount, error)

	// Apply adds a signed delta to the scope balance inside tx, holding a
	// row lock for the rest of the transaction. With enforceSufficiency it
	// rejects deltas that would drive the balance negative while the lock
	// is held, so the check cannot race.
	Apply(ctx context.Context, tx pgx.Tx, scope domain.Scope, delta decimal.Decimal, enforceSufficiency bool) (decimal.Decimal, error)
}

type balanceRepo struct {
	db *pgxpool.Pool
}

func NewBalanceRepo(db *pgxpool.Pool) BalanceRepository {
	return &balanceRepo{db: db}
}

func (r *balanceRepo) GetByScope(ctx context.Context, scope domain.Scope) (*domain.LedgerAccount, error) {
	var acc domain.LedgerAccount
	err := r.db.QueryRow(ctx, `
		SELECT scope, balance, updated_at
		FROM balances
		WHERE scope = $1
	`, scope).Scan(&acc.Scope, &acc.Balance, &acc.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.LedgerAccount{Scope: scope, Balance: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return &acc, nil
}

func (r *balanceRepo) Apply(ctx context.Context, tx pgx.Tx, scope domain.Scope, delta decimal.Decimal, enforceSufficiency bool) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, errors.New("transaction cannot be nil")
	}

	// Create the row lazily so FOR UPDATE always has something to lock.
	_, err := tx.Exec(ctx, `
		INSERT INTO balances (scope, balance, updated_at)
		VALUES ($1, 0, $2)
		ON CONFLICT (scope) DO NOTHING
	`, scope, time.Now())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to ensure balance row: %w", err)
	}

	var current decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT balance
		FROM balances
		WHERE scope = $1
		FOR UPDATE
	`, scope).Scan(&current)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to lock balance row: %w", err)
	}

	newBalance := current.Add(delta)
	if enforceSufficiency && newBalance.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	cmdTag, err := tx.Exec(ctx, `
		UPDATE balances
		SET balance = $1, updated_at = $2
		WHERE scope = $3
	`, newBalance, time.Now(), scope)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return decimal.Zero, domain.ErrNotFound
	}

	return newBalance, nil
}
