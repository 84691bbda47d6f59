package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ledger-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepository interface {
	// Create appends a transaction row inside tx and fills ID/CreatedAt.
	// Rows are immutable once written; there is no update or delete.
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error

	List(ctx context.Context, filter *domain.TransactionFilter) ([]*domain.Transaction, error)

	// FindByBusinessReference returns the most recent posting carrying the
	// given business reference in scope, for caller-side dedup.
	FindByBusinessReference(ctx context.Context, scope domain.Scope, refType, refID string) (*domain.Transaction, error)
}

type transactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepo(db *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	var refType, refID *string
	if t.BusinessRef != nil {
		refType = &t.BusinessRef.Type
		refID = &t.BusinessRef.ID
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO transactions
			(scope, transaction_no, kind, amount, category, purpose, description,
			 business_ref_type, business_ref_id, occurred_on, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at
	`, t.Scope, t.TransactionNo, t.Kind, t.Amount, t.Category, t.Purpose, t.Description,
		refType, refID, t.OccurredOn, t.CreatedBy).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

const transactionColumns = `
	id, scope, transaction_no, kind, amount, category, purpose, description,
	business_ref_type, business_ref_id, occurred_on, created_by, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var refType, refID *string
	err := row.Scan(
		&t.ID, &t.Scope, &t.TransactionNo, &t.Kind, &t.Amount,
		&t.Category, &t.Purpose, &t.Description,
		&refType, &refID, &t.OccurredOn, &t.CreatedBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refType != nil && refID != nil {
		t.BusinessRef = &domain.BusinessReference{Type: *refType, ID: *refID}
	}
	return &t, nil
}

func (r *transactionRepo) List(ctx context.Context, filter *domain.TransactionFilter) ([]*domain.Transaction, error) {
	if filter == nil {
		filter = &domain.TransactionFilter{}
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

	if filter.Scope != nil {
		addCondition("scope = ", *filter.Scope)
	}
	if filter.Kind != nil {
		addCondition("kind = ", *filter.Kind)
	}
	if filter.From != nil {
		addCondition("occurred_on >= ", *filter.From)
	}
	if filter.To != nil {
		addCondition("occurred_on <= ", *filter.To)
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY occurred_on DESC, id DESC LIMIT %d OFFSET %d", filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

func (r *transactionRepo) FindByBusinessReference(ctx context.Context, scope domain.Scope, refType, refID string) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE scope = $1 AND business_ref_type = $2 AND business_ref_id = $3
		ORDER BY id DESC
		LIMIT 1
	`, scope, refType, refID)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by reference: %w", err)
	}
	return t, nil
}
