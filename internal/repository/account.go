package repository

import (
	"context"

	"ridematch/internal/domain"
)

// AccountRepository defines the persistence operations for accounts.
type AccountRepository interface {
	// Create persists a new account.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// EnsureExists creates the account on first interaction if absent and
	// returns it. Existing accounts are returned unchanged.
	EnsureExists(ctx context.Context, id string) (*domain.Account, error)

	// SetActive flips the deactivation flag. Accounts are never deleted.
	SetActive(ctx context.Context, id string, active bool) error
}
