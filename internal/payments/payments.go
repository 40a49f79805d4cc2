// Package payments is the boundary to external card settlement. Wallet and
// cash rides never reach it: wallet fares settle on the internal ledger and
// cash settles outside the system entirely.
package payments

import "context"

// CardProcessor charges a card-paid fare at ride completion. Implementations
// talk to an external provider; failures are reported, not retried here.
type CardProcessor interface {
	Charge(ctx context.Context, accountID string, amount float64, rideID string) error
}

// NoopProcessor accepts every charge. Used in tests and when no provider is
// configured.
type NoopProcessor struct{}

// NewNoopProcessor creates a NoopProcessor.
func NewNoopProcessor() *NoopProcessor {
	return &NoopProcessor{}
}

// Charge always succeeds.
func (p *NoopProcessor) Charge(ctx context.Context, accountID string, amount float64, rideID string) error {
	return nil
}
