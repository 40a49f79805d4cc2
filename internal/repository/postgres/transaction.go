package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridematch/internal/domain"
	"ridematch/internal/repository"
)

// TransactionRepository implements repository.TransactionRepository using
// PostgreSQL. The transactions table is append-only.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const txColumns = `id, account_id, amount, ride_id, description, running_balance, created_at`

// Append persists one ledger entry.
func (r *TransactionRepository) Append(ctx context.Context, tx *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx, insertTxQuery, insertTxArgs(tx)...)
	return wrapErr(err)
}

// AppendTransfer persists a debit and a credit atomically.
func (r *TransactionRepository) AppendTransfer(ctx context.Context, debit, credit *domain.Transaction) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(err)
	}

	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if _, err = sqlTx.ExecContext(ctx, insertTxQuery, insertTxArgs(debit)...); err != nil {
		return wrapErr(err)
	}
	if _, err = sqlTx.ExecContext(ctx, insertTxQuery, insertTxArgs(credit)...); err != nil {
		return wrapErr(err)
	}

	err = sqlTx.Commit()
	return wrapErr(err)
}

// SumByAccount returns the authoritative balance for the account.
func (r *TransactionRepository) SumByAccount(ctx context.Context, accountID string) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = $1`

	var sum float64
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&sum); err != nil {
		return 0, wrapErr(err)
	}
	return sum, nil
}

// ListByAccount returns the account's entries newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + txColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, wrapErr(rows.Err())
}

// GetByID retrieves a single entry.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id))
}

const insertTxQuery = `
	INSERT INTO transactions (id, account_id, amount, ride_id, description, running_balance, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func insertTxArgs(tx *domain.Transaction) []any {
	return []any{
		tx.ID,
		tx.AccountID,
		tx.Amount,
		nullString(tx.RideID),
		tx.Description,
		tx.RunningBalance,
		tx.CreatedAt,
	}
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var rideID sql.NullString

	err := row.Scan(
		&tx.ID,
		&tx.AccountID,
		&tx.Amount,
		&rideID,
		&tx.Description,
		&tx.RunningBalance,
		&tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr(err)
	}

	if rideID.Valid {
		tx.RideID = rideID.String
	}
	return &tx, nil
}
