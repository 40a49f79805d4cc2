package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ridematch/internal/domain"
	"ridematch/internal/repository"
)

// WalletService is the balance ledger. Balances are always derived from the
// transaction history; the service never stores a mutable balance field, so
// the ledger and the balance cannot drift apart.
//
// All balance-mutating operations on one account are serialized through a
// per-account mutex, making the insufficient-funds check race-free.
type WalletService struct {
	accountRepo repository.AccountRepository
	txRepo      repository.TransactionRepository

	locks sync.Map // account id -> *sync.Mutex
	now   func() time.Time
}

// NewWalletService creates a new WalletService.
func NewWalletService(accountRepo repository.AccountRepository, txRepo repository.TransactionRepository) *WalletService {
	return &WalletService{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		now:         time.Now,
	}
}

func (s *WalletService) lock(accountID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(accountID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Balance returns the sum of all transactions for the account. The account
// is created on first interaction.
func (s *WalletService) Balance(ctx context.Context, accountID string) (float64, error) {
	if accountID == "" {
		return 0, ErrInvalidAccountID
	}
	if _, err := s.accountRepo.EnsureExists(ctx, accountID); err != nil {
		return 0, err
	}
	return s.txRepo.SumByAccount(ctx, accountID)
}

// Credit appends a positive ledger entry.
func (s *WalletService) Credit(ctx context.Context, accountID string, amount float64, rideID, description string) (*domain.Transaction, error) {
	if accountID == "" {
		return nil, ErrInvalidAccountID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := s.accountRepo.EnsureExists(ctx, accountID); err != nil {
		return nil, err
	}

	mu := s.lock(accountID)
	mu.Lock()
	defer mu.Unlock()

	balance, err := s.txRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	tx := s.newTransaction(accountID, amount, rideID, description, balance+amount)
	if err := s.txRepo.Append(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Debit appends a negative ledger entry. It fails with ErrInsufficientFunds
// when the resulting balance would go negative; the check and the append are
// serialized per account so no two debits can both pass a check only one can
// satisfy.
func (s *WalletService) Debit(ctx context.Context, accountID string, amount float64, rideID, description string) (*domain.Transaction, error) {
	if accountID == "" {
		return nil, ErrInvalidAccountID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := s.accountRepo.EnsureExists(ctx, accountID); err != nil {
		return nil, err
	}

	mu := s.lock(accountID)
	mu.Lock()
	defer mu.Unlock()

	balance, err := s.txRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if balance-amount < 0 {
		return nil, ErrInsufficientFunds
	}

	tx := s.newTransaction(accountID, -amount, rideID, description, balance-amount)
	if err := s.txRepo.Append(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Transfer debits one account and credits another as a single all-or-nothing
// unit. If the debit side fails the check, nothing is written. Locks are
// taken in account-id order so two opposing transfers cannot deadlock.
func (s *WalletService) Transfer(ctx context.Context, fromID, toID string, amount float64, rideID string) error {
	if fromID == "" || toID == "" || fromID == toID {
		return ErrInvalidAccountID
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if _, err := s.accountRepo.EnsureExists(ctx, fromID); err != nil {
		return err
	}
	if _, err := s.accountRepo.EnsureExists(ctx, toID); err != nil {
		return err
	}

	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}
	firstMu, secondMu := s.lock(first), s.lock(second)
	firstMu.Lock()
	defer firstMu.Unlock()
	secondMu.Lock()
	defer secondMu.Unlock()

	fromBalance, err := s.txRepo.SumByAccount(ctx, fromID)
	if err != nil {
		return err
	}
	if fromBalance-amount < 0 {
		return ErrInsufficientFunds
	}
	toBalance, err := s.txRepo.SumByAccount(ctx, toID)
	if err != nil {
		return err
	}

	debit := s.newTransaction(fromID, -amount, rideID, "ride fare", fromBalance-amount)
	credit := s.newTransaction(toID, amount, rideID, "ride fare", toBalance+amount)
	return s.txRepo.AppendTransfer(ctx, debit, credit)
}

// Transactions returns the account's ledger history, newest first.
func (s *WalletService) Transactions(ctx context.Context, accountID string, limit int) ([]*domain.Transaction, error) {
	if accountID == "" {
		return nil, ErrInvalidAccountID
	}
	return s.txRepo.ListByAccount(ctx, accountID, limit)
}

func (s *WalletService) newTransaction(accountID string, amount float64, rideID, description string, runningBalance float64) *domain.Transaction {
	return &domain.Transaction{
		ID:             uuid.New().String(),
		AccountID:      accountID,
		Amount:         amount,
		RideID:         rideID,
		Description:    description,
		RunningBalance: runningBalance,
		CreatedAt:      s.now(),
	}
}
