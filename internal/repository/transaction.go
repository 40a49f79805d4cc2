package repository

import (
	"context"

	"ridematch/internal/domain"
)

// TransactionRepository defines the persistence operations for the wallet
// ledger. Entries are append-only; there is no update or delete.
type TransactionRepository interface {
	// Append persists one ledger entry.
	Append(ctx context.Context, tx *domain.Transaction) error

	// AppendTransfer persists a debit and a credit as a single
	// all-or-nothing unit.
	AppendTransfer(ctx context.Context, debit, credit *domain.Transaction) error

	// SumByAccount returns the sum of all entry amounts for the account.
	// This is the authoritative balance.
	SumByAccount(ctx context.Context, accountID string) (float64, error)

	// ListByAccount returns the account's entries newest first.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Transaction, error)

	// GetByID retrieves a single entry.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
}
