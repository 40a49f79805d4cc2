package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridematch/internal/domain"
	"ridematch/internal/repository"
)

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create adds a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `INSERT INTO accounts (id, name, active, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, account.ID, account.Name, account.Active, account.CreatedAt)
	return wrapErr(err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT id, name, active, created_at FROM accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var account domain.Account
	err := row.Scan(&account.ID, &account.Name, &account.Active, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	return &account, nil
}

// EnsureExists creates the account on first interaction if absent.
func (r *AccountRepository) EnsureExists(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (id, name, active, created_at)
		VALUES ($1, '', TRUE, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return nil, wrapErr(err)
	}
	return r.GetByID(ctx, id)
}

// SetActive flips the deactivation flag.
func (r *AccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE accounts SET active = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return wrapErr(err)
	}
	return checkAffected(result)
}
