package repository

import (
	"context"
	"time"

	"ridematch/internal/domain"
)

// RideRepository defines the persistence operations for rides.
//
// The two conditional updates are the engine's serialization points: both
// commit a status transition only if the ride is still in the state the
// transition was validated against, in a single round trip.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListByAccount retrieves rides where the account is a participant,
	// newest first.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Ride, error)

	// AcceptIfMatchable atomically claims a still-matchable ride for the
	// counterpart: status becomes ACCEPTED if and only if it is still
	// REQUESTED or OFFERED. Returns false when the ride was no longer
	// matchable at commit time.
	AcceptIfMatchable(ctx context.Context, rideID, counterpartID string, now time.Time) (bool, error)

	// UpdateIfStatus rewrites the ride only if its stored status still
	// equals expect. Returns false when another transition won the race.
	UpdateIfStatus(ctx context.Context, ride *domain.Ride, expect domain.RideStatus) (bool, error)

	// SetFareSettled flips the settlement flag only if it currently equals
	// expect. Settlement claims and releases go through this so concurrent
	// attempts cannot both reach the ledger transfer.
	SetFareSettled(ctx context.Context, rideID string, settled, expect bool, now time.Time) (bool, error)

	// ApplyRating stores one side's rating only if that side's slot is
	// still empty, touching no other columns. Returns false when a rating
	// is already present.
	ApplyRating(ctx context.Context, rideID string, initiator bool, rating *domain.Rating, now time.Time) (bool, error)
}
