package service

import "errors"

var (
	// ErrOfferConflict is returned when a caller loses the acceptance race:
	// the ride was matchable when checked but not at commit time.
	ErrOfferConflict = errors.New("offer no longer available")

	// ErrInsufficientFunds is returned when a debit would drive a wallet
	// balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAccountID is returned when an account ID is empty.
	ErrInvalidAccountID = errors.New("invalid account id")

	// ErrInvalidRideID is returned when a ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidRole is returned when a role is neither seeker nor offerer.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDropoffLocation is returned when dropoff coordinates are invalid.
	ErrInvalidDropoffLocation = errors.New("invalid dropoff location")

	// ErrInvalidPaymentMethod is returned when the payment method is unknown.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidAmount is returned when a wallet amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidRadius is returned when a search radius is not positive.
	ErrInvalidRadius = errors.New("radius must be positive")

	// ErrInvalidRating is returned when a rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrAlreadyRated is returned when a participant rates a ride twice.
	ErrAlreadyRated = errors.New("ride already rated by this participant")

	// ErrAlreadySettled is returned when settling a ride whose fare transfer
	// has already been recorded.
	ErrAlreadySettled = errors.New("ride fare already settled")

	// ErrNotWalletRide is returned when requesting ledger settlement for a
	// ride paid outside the wallet.
	ErrNotWalletRide = errors.New("ride is not wallet-paid")

	// ErrRideNotCompleted is returned when settlement or rating is requested
	// before the ride reaches COMPLETED.
	ErrRideNotCompleted = errors.New("ride is not completed")

	// ErrAccountDeactivated is returned when a deactivated account tries to
	// create or accept a ride.
	ErrAccountDeactivated = errors.New("account is deactivated")
)
