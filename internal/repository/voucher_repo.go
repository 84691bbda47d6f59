package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ledger-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type VoucherRepository interface {
	// Create appends a voucher row inside tx and fills ID/CreatedAt.
	Create(ctx context.Context, tx pgx.Tx, v *domain.Voucher) error

	// GetDailyForUpdate locks and returns the voucher for (scope, kind,
	// date), or ErrNotFound. The lock guards the merge against a concurrent
	// posting aggregating into the same voucher.
	GetDailyForUpdate(ctx context.Context, tx pgx.Tx, scope domain.Scope, kind domain.TransactionKind, date time.Time) (*domain.Voucher, error)

	// AddAmount increments a voucher amount in place and replaces its
	// narration. The only permitted mutation of a voucher row.
	AddAmount(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal, narration string) error

	List(ctx context.Context, filter *domain.VoucherFilter) ([]*domain.Voucher, error)
}

type voucherRepo struct {
	db *pgxpool.Pool
}

func NewVoucherRepo(db *pgxpool.Pool) VoucherRepository {
	return &voucherRepo{db: db}
}

const voucherColumns = `
	id, voucher_no, voucher_type, date, narration, amount,
	source_scope, source_kind, source_transaction_no, source_transaction_id,
	created_by, created_at`

func scanVoucher(row pgx.Row) (*domain.Voucher, error) {
	var v domain.Voucher
	err := row.Scan(
		&v.ID, &v.VoucherNo, &v.Type, &v.Date, &v.Narration, &v.Amount,
		&v.SourceScope, &v.SourceKind, &v.SourceTransactionNo, &v.SourceTransactionID,
		&v.CreatedBy, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *voucherRepo) Create(ctx context.Context, tx pgx.Tx, v *domain.Voucher) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO vouchers
			(voucher_no, voucher_type, date, narration, amount,
			 source_scope, source_kind, source_transaction_no, source_transaction_id, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at
	`, v.VoucherNo, v.Type, v.Date, v.Narration, v.Amount,
		v.SourceScope, v.SourceKind, v.SourceTransactionNo, v.SourceTransactionID, v.CreatedBy).
		Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert voucher: %w", err)
	}
	return nil
}

func (r *voucherRepo) GetDailyForUpdate(ctx context.Context, tx pgx.Tx, scope domain.Scope, kind domain.TransactionKind, date time.Time) (*domain.Voucher, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil")
	}

	row := tx.QueryRow(ctx, `
		SELECT `+voucherColumns+`
		FROM vouchers
		WHERE source_scope = $1 AND source_kind = $2 AND date = $3
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`, scope, kind, date)

	v, err := scanVoucher(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock daily voucher: %w", err)
	}
	return v, nil
}

func (r *voucherRepo) AddAmount(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal, narration string) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	cmdTag, err := tx.Exec(ctx, `
		UPDATE vouchers
		SET amount = amount + $1, narration = $2
		WHERE id = $3
	`, amount, narration, id)
	if err != nil {
		return fmt.Errorf("failed to increment voucher amount: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *voucherRepo) List(ctx context.Context, filter *domain.VoucherFilter) ([]*domain.Voucher, error) {
	if filter == nil {
		filter = &domain.VoucherFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}

	var conditions []string
	var args []any
	argPos := 1

	addCondition := func(cond string, value any) {
		conditions = append(conditions, cond+"$"+strconv.Itoa(argPos))
		args = append(args, value)
		argPos++
	}

	if filter.Type != nil {
		addCondition("voucher_type = ", *filter.Type)
	}
	if filter.SourceScope != nil {
		addCondition("source_scope = ", *filter.SourceScope)
	}
	if filter.Date != nil {
		addCondition("date = ", *filter.Date)
	}
	if filter.From != nil {
		addCondition("date >= ", *filter.From)
	}
	if filter.To != nil {
		addCondition("date <= ", *filter.To)
	}

	query := "SELECT " + voucherColumns + " FROM vouchers"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY date DESC, id DESC LIMIT %d OFFSET %d", filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []*domain.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher row: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voucher rows: %w", err)
	}

	return vouchers, nil
}
