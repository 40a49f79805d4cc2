package payments

import (
	"context"
	"math"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// StripeProcessor charges card fares through Stripe PaymentIntents.
type StripeProcessor struct {
	currency string
}

// NewStripeProcessor initializes the Stripe client with the given API key.
func NewStripeProcessor(apiKey, currency string) *StripeProcessor {
	stripe.Key = apiKey
	if currency == "" {
		currency = "inr"
	}
	return &StripeProcessor{currency: currency}
}

// Charge creates and confirms a PaymentIntent for the fare. Stripe amounts
// are in the currency's smallest unit.
func (p *StripeProcessor) Charge(ctx context.Context, accountID string, amount float64, rideID string) error {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(amount * 100))),
		Currency: stripe.String(p.currency),
		Confirm:  stripe.Bool(true),
	}
	params.AddMetadata("ride_id", rideID)
	params.AddMetadata("account_id", accountID)

	_, err := paymentintent.New(params)
	return err
}

var _ CardProcessor = (*StripeProcessor)(nil)
