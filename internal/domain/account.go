package domain

import "time"

// Account represents a party's identity and monetary balance. The balance is
// always derived from the transaction history; it is never stored here.
// Accounts are deactivated, never deleted.
type Account struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// Transaction is an immutable wallet ledger entry. Amount is signed: credits
// positive, debits negative. RunningBalance is the balance after this entry,
// recorded at write time for audit only.
type Transaction struct {
	ID             string
	AccountID      string
	Amount         float64
	RideID         string // empty for top-ups
	Description    string
	RunningBalance float64
	CreatedAt      time.Time
}
