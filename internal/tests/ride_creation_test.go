package tests

import (
	"context"
	"errors"
	"testing"

	"ridematch/internal/domain"
	"ridematch/internal/service"
)

func TestCreateRide_SeekerStartsRequested(t *testing.T) {
	f := newFixture()

	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodCash)
	if ride.Status != domain.RideStatusRequested {
		t.Errorf("expected REQUESTED, got %s", ride.Status)
	}
	if ride.InitiatorRole != domain.RoleSeeker {
		t.Errorf("expected SEEKER role, got %s", ride.InitiatorRole)
	}
	if ride.Fare <= 0 {
		t.Errorf("expected positive fare estimate, got %.2f", ride.Fare)
	}
}

func TestCreateRide_OffererStartsOffered(t *testing.T) {
	f := newFixture()

	ride := f.createRide(t, "bob", domain.RoleOfferer, domain.PaymentMethodCash)
	if ride.Status != domain.RideStatusOffered {
		t.Errorf("expected OFFERED, got %s", ride.Status)
	}
}

func TestCreateRide_RegisteredInIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodCash)

	entries, err := f.matching.ListNearby(ctx, service.ListNearbyRequest{
		RequesterID: "bob",
		Lat:         12.97,
		Lng:         77.59,
		AsRole:      domain.RoleOfferer,
	})
	if err != nil {
		t.Fatalf("list nearby failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].RideID != ride.ID {
		t.Errorf("expected ride %s in index, got %s", ride.ID, entries[0].RideID)
	}
	if entries[0].FareEstimate != ride.Fare {
		t.Errorf("index fare %f does not match ride fare %f", entries[0].FareEstimate, ride.Fare)
	}
}

func TestCreateRide_InvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	base := service.CreateRideRequest{
		InitiatorID:   "alice",
		Role:          domain.RoleSeeker,
		PickupLat:     12.9716,
		PickupLng:     77.5946,
		DropoffLat:    13.0827,
		DropoffLng:    77.5877,
		PaymentMethod: domain.PaymentMethodCash,
	}

	req := base
	req.PickupLat = 95
	if _, err := f.matching.CreateRide(ctx, req); !errors.Is(err, service.ErrInvalidPickupLocation) {
		t.Errorf("expected ErrInvalidPickupLocation, got %v", err)
	}

	req = base
	req.DropoffLng = 200
	if _, err := f.matching.CreateRide(ctx, req); !errors.Is(err, service.ErrInvalidDropoffLocation) {
		t.Errorf("expected ErrInvalidDropoffLocation, got %v", err)
	}

	req = base
	req.Role = "PASSENGER"
	if _, err := f.matching.CreateRide(ctx, req); !errors.Is(err, service.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}

	req = base
	req.PaymentMethod = "CHEQUE"
	if _, err := f.matching.CreateRide(ctx, req); !errors.Is(err, service.ErrInvalidPaymentMethod) {
		t.Errorf("expected ErrInvalidPaymentMethod, got %v", err)
	}

	req = base
	req.InitiatorID = ""
	if _, err := f.matching.CreateRide(ctx, req); !errors.Is(err, service.ErrInvalidAccountID) {
		t.Errorf("expected ErrInvalidAccountID, got %v", err)
	}
}

func TestCreateRide_DeactivatedAccountRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.accounts.AddAccount(&domain.Account{ID: "alice", Name: "Alice", Active: false})

	_, err := f.matching.CreateRide(ctx, service.CreateRideRequest{
		InitiatorID:   "alice",
		Role:          domain.RoleSeeker,
		PickupLat:     12.9716,
		PickupLng:     77.5946,
		DropoffLat:    13.0827,
		DropoffLng:    77.5877,
		PaymentMethod: domain.PaymentMethodCash,
	})
	if !errors.Is(err, service.ErrAccountDeactivated) {
		t.Errorf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestListNearby_DefaultRadiusApplied(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodCash)

	// Radius 0 falls back to the configured default (5km in the fixture).
	entries, err := f.matching.ListNearby(ctx, service.ListNearbyRequest{
		RequesterID: "bob",
		Lat:         12.97,
		Lng:         77.59,
		AsRole:      domain.RoleOfferer,
	})
	if err != nil {
		t.Fatalf("list nearby failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry with default radius, got %d", len(entries))
	}

	_, err = f.matching.ListNearby(ctx, service.ListNearbyRequest{
		RequesterID:  "bob",
		Lat:          12.97,
		Lng:          77.59,
		RadiusMeters: -1,
		AsRole:       domain.RoleOfferer,
	})
	if !errors.Is(err, service.ErrInvalidRadius) {
		t.Errorf("expected ErrInvalidRadius, got %v", err)
	}
}
