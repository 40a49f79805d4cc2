package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ridematch/internal/domain"
	"ridematch/internal/events"
	"ridematch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. The
// conditional updates run under the same mutex as the reads, so the mock
// gives the same at-most-one-winner guarantee the SQL implementation does.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	AcceptCallCount int32

	// Error injection
	CreateError error
	GetError    error
	UpdateError error
	AcceptError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.InitiatorID == accountID || r.CounterpartID == accountID {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockRideRepository) AcceptIfMatchable(ctx context.Context, rideID, counterpartID string, now time.Time) (bool, error) {
	atomic.AddInt32(&m.AcceptCallCount, 1)
	if m.AcceptError != nil {
		return false, m.AcceptError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if ride.Status != domain.RideStatusRequested && ride.Status != domain.RideStatusOffered {
		return false, nil
	}
	ride.Status = domain.RideStatusAccepted
	ride.CounterpartID = counterpartID
	ride.UpdatedAt = now
	return true, nil
}

func (m *MockRideRepository) UpdateIfStatus(ctx context.Context, ride *domain.Ride, expect domain.RideStatus) (bool, error) {
	if m.UpdateError != nil {
		return false, m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rides[ride.ID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if stored.Status != expect {
		return false, nil
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return true, nil
}

func (m *MockRideRepository) SetFareSettled(ctx context.Context, rideID string, settled, expect bool, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if ride.FareSettled != expect {
		return false, nil
	}
	ride.FareSettled = settled
	ride.UpdatedAt = now
	return true, nil
}

func (m *MockRideRepository) ApplyRating(ctx context.Context, rideID string, initiator bool, rating *domain.Rating, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return false, repository.ErrNotFound
	}
	stored := *rating
	if initiator {
		if ride.InitiatorRating != nil {
			return false, nil
		}
		ride.InitiatorRating = &stored
	} else {
		if ride.CounterpartRating != nil {
			return false, nil
		}
		ride.CounterpartRating = &stored
	}
	ride.UpdatedAt = now
	return true, nil
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// ──────────────────────────────────────────────
// MOCK ACCOUNT REPOSITORY
// ──────────────────────────────────────────────

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	// Error injection
	CreateError error
}

// NewMockAccountRepository creates a new mock account repository.
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// AddAccount adds an account to the mock repository.
func (m *MockAccountRepository) AddAccount(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *account
	m.accounts[account.ID] = &copy
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *account
	m.accounts[account.ID] = &copy
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *account
	return &copy, nil
}

func (m *MockAccountRepository) EnsureExists(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account, ok := m.accounts[id]; ok {
		copy := *account
		return &copy, nil
	}
	account := &domain.Account{ID: id, Active: true, CreatedAt: time.Now()}
	m.accounts[id] = account
	copy := *account
	return &copy, nil
}

func (m *MockAccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Active = active
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION REPOSITORY
// ──────────────────────────────────────────────

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu  sync.RWMutex
	txs []*domain.Transaction

	// Error injection
	AppendError   error
	TransferError error
}

// NewMockTransactionRepository creates a new mock transaction repository.
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{}
}

func (m *MockTransactionRepository) Append(ctx context.Context, tx *domain.Transaction) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *tx
	m.txs = append(m.txs, &copy)
	return nil
}

func (m *MockTransactionRepository) AppendTransfer(ctx context.Context, debit, credit *domain.Transaction) error {
	if m.TransferError != nil {
		return m.TransferError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	debitCopy, creditCopy := *debit, *credit
	m.txs = append(m.txs, &debitCopy, &creditCopy)
	return nil
}

func (m *MockTransactionRepository) SumByAccount(ctx context.Context, accountID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum float64
	for _, tx := range m.txs {
		if tx.AccountID == accountID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Transaction, 0)
	for i := len(m.txs) - 1; i >= 0; i-- {
		if m.txs[i].AccountID == accountID {
			copy := *m.txs[i]
			result = append(result, &copy)
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tx := range m.txs {
		if tx.ID == id {
			copy := *tx
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Count returns the number of stored entries for test assertions.
func (m *MockTransactionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.RideEvent

	// Error injection
	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, event events.RideEvent) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// EventTypes returns the published event types in order.
func (m *MockPublisher) EventTypes() []events.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]events.EventType, 0, len(m.Events))
	for _, e := range m.Events {
		result = append(result, e.Type)
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK CARD PROCESSOR
// ──────────────────────────────────────────────

// MockCardProcessor records card charges.
type MockCardProcessor struct {
	mu      sync.Mutex
	Charges []float64

	// Error injection
	ChargeError error
}

// NewMockCardProcessor creates a new mock card processor.
func NewMockCardProcessor() *MockCardProcessor {
	return &MockCardProcessor{}
}

func (m *MockCardProcessor) Charge(ctx context.Context, accountID string, amount float64, rideID string) error {
	if m.ChargeError != nil {
		return m.ChargeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Charges = append(m.Charges, amount)
	return nil
}

// ChargeCount returns the number of charges for test assertions.
func (m *MockCardProcessor) ChargeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Charges)
}
