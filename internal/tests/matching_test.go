package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ridematch/internal/domain"
	"ridematch/internal/events"
	"ridematch/internal/fare"
	"ridematch/internal/geo"
	"ridematch/internal/lifecycle"
	"ridematch/internal/service"
)

// fixture bundles the wired service and its collaborators for assertions.
type fixture struct {
	matching  *service.MatchingService
	wallet    *service.WalletService
	rideRepo  *MockRideRepository
	accounts  *MockAccountRepository
	txRepo    *MockTransactionRepository
	geoIndex  *geo.MemoryIndex
	publisher *MockPublisher
	cards     *MockCardProcessor
}

func newFixture() *fixture {
	rideRepo := NewMockRideRepository()
	accounts := NewMockAccountRepository()
	txRepo := NewMockTransactionRepository()
	geoIndex := geo.NewMemoryIndex()
	publisher := NewMockPublisher()
	cards := NewMockCardProcessor()

	wallet := service.NewWalletService(accounts, txRepo)
	matching := service.NewMatchingService(
		rideRepo,
		accounts,
		geoIndex,
		fare.NewEstimator(50, 12),
		wallet,
		cards,
		publisher,
		nil,
		5000,
	)

	return &fixture{
		matching:  matching,
		wallet:    wallet,
		rideRepo:  rideRepo,
		accounts:  accounts,
		txRepo:    txRepo,
		geoIndex:  geoIndex,
		publisher: publisher,
		cards:     cards,
	}
}

func (f *fixture) createRide(t *testing.T, initiatorID string, role domain.Role, method domain.PaymentMethod) *domain.Ride {
	t.Helper()
	ride, err := f.matching.CreateRide(context.Background(), service.CreateRideRequest{
		InitiatorID:   initiatorID,
		Role:          role,
		PickupLat:     12.9716,
		PickupLng:     77.5946,
		DropoffLat:    13.0827,
		DropoffLng:    77.5877,
		PaymentMethod: method,
	})
	if err != nil {
		t.Fatalf("create ride failed: %v", err)
	}
	return ride
}

func TestAcceptOffer_ExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodCash)

	// Ten counterparts race for the same ride.
	const racers = 10
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = f.matching.AcceptOffer(ctx, ride.ID, acceptorName(n))
		}(i)
	}
	wg.Wait()

	winners, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, service.ErrOfferConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly one winner, got %d", winners)
	}
	if conflicts != racers-1 {
		t.Errorf("expected %d conflicts, got %d", racers-1, conflicts)
	}

	stored := f.rideRepo.GetRide(ride.ID)
	if stored.Status != domain.RideStatusAccepted {
		t.Errorf("expected stored ride ACCEPTED, got %s", stored.Status)
	}
	if stored.CounterpartID == "" {
		t.Error("winner not recorded on the ride")
	}
}

func acceptorName(n int) string {
	return "acceptor-" + string(rune('a'+n))
}

func TestAcceptOffer_RejectsSelfMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodCash)

	_, err := f.matching.AcceptOffer(ctx, ride.ID, "alice")
	if !errors.Is(err, lifecycle.ErrSelfMatch) {
		t.Errorf("expected ErrSelfMatch, got %v", err)
	}

	stored := f.rideRepo.GetRide(ride.ID)
	if stored.Status != domain.RideStatusRequested {
		t.Errorf("ride status changed on rejected self-match: %s", stored.Status)
	}
}

func TestAcceptOffer_RemovesRideFromIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// An offered ride is visible to a searching seeker until someone claims it.
	ride := f.createRide(t, "alice", domain.RoleOfferer, domain.PaymentMethodCash)

	entries, err := f.matching.ListNearby(ctx, service.ListNearbyRequest{
		RequesterID: "carol",
		Lat:         12.97,
		Lng:         77.59,
		AsRole:      domain.RoleSeeker,
	})
	if err != nil {
		t.Fatalf("list nearby failed: %v", err)
	}
	if len(entries) != 1 || entries[0].RideID != ride.ID {
		t.Fatalf("expected the offered ride to be discoverable, got %d entries", len(entries))
	}

	if _, err := f.matching.AcceptOffer(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	entries, err = f.matching.ListNearby(ctx, service.ListNearbyRequest{
		RequesterID: "carol",
		Lat:         12.97,
		Lng:         77.59,
		AsRole:      domain.RoleSeeker,
	})
	if err != nil {
		t.Fatalf("list nearby failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("accepted ride still discoverable, got %d entries", len(entries))
	}
}

func TestListNearby_ExcludesCallersOwnRides(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.createRide(t, "alice", domain.RoleOfferer, domain.PaymentMethodCash)
	f.createRide(t, "bob", domain.RoleOfferer, domain.PaymentMethodCash)

	// A third-party seeker sees both offers.
	entries, err := f.matching.ListNearby(ctx, service.ListNearbyRequest{
		RequesterID: "carol",
		Lat:         12.97,
		Lng:         77.59,
		AsRole:      domain.RoleSeeker,
	})
	if err != nil {
		t.Fatalf("list nearby failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for third party, got %d", len(entries))
	}

	// Alice must not be offered her own ride.
	entries, err = f.matching.ListNearby(ctx, service.ListNearbyRequest{
		RequesterID: "alice",
		Lat:         12.97,
		Lng:         77.59,
		AsRole:      domain.RoleSeeker,
	})
	if err != nil {
		t.Fatalf("list nearby failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry for alice, got %d", len(entries))
	}
	if entries[0].InitiatorID != "bob" {
		t.Errorf("expected bob's offer, got %s", entries[0].InitiatorID)
	}
}

func TestFullLifecycle_WalletSettlement(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, err := f.wallet.Credit(ctx, "alice", 1000, "", "wallet top-up"); err != nil {
		t.Fatalf("top-up failed: %v", err)
	}

	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodWallet)

	if _, err := f.matching.AcceptOffer(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.matching.StartRide(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	completed, err := f.matching.CompleteRide(ctx, ride.ID, "bob")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if completed.Status != domain.RideStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", completed.Status)
	}
	if !completed.FareSettled {
		t.Error("expected fare settled")
	}

	aliceBalance, _ := f.wallet.Balance(ctx, "alice")
	bobBalance, _ := f.wallet.Balance(ctx, "bob")
	if aliceBalance != 1000-completed.Fare {
		t.Errorf("expected alice balance %.2f, got %.2f", 1000-completed.Fare, aliceBalance)
	}
	if bobBalance != completed.Fare {
		t.Errorf("expected bob balance %.2f, got %.2f", completed.Fare, bobBalance)
	}

	types := f.publisher.EventTypes()
	expected := []events.EventType{
		events.RideCreated, events.RideAccepted, events.RideStarted, events.RideCompleted, events.RideSettled,
	}
	if len(types) != len(expected) {
		t.Fatalf("expected %d events, got %d: %v", len(expected), len(types), types)
	}
	for i, want := range expected {
		if types[i] != want {
			t.Errorf("event %d: expected %s, got %s", i, want, types[i])
		}
	}
}

func TestCompleteRide_InsufficientFundsLeavesRideCompleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodWallet)
	if _, err := f.matching.AcceptOffer(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.matching.StartRide(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// Alice has no funds: the ride completes but settlement fails.
	_, err := f.matching.CompleteRide(ctx, ride.ID, "bob")
	if !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	stored := f.rideRepo.GetRide(ride.ID)
	if stored.Status != domain.RideStatusCompleted {
		t.Errorf("expected ride COMPLETED despite failed settlement, got %s", stored.Status)
	}
	if stored.FareSettled {
		t.Error("fare must not be marked settled")
	}
	if f.txRepo.Count() != 0 {
		t.Errorf("no ledger entries expected, got %d", f.txRepo.Count())
	}

	// Fund the wallet and retry settlement.
	if _, err := f.wallet.Credit(ctx, "alice", 1000, "", "wallet top-up"); err != nil {
		t.Fatalf("top-up failed: %v", err)
	}
	settled, err := f.matching.SettleRide(ctx, ride.ID, "bob")
	if err != nil {
		t.Fatalf("settle retry failed: %v", err)
	}
	if !settled.FareSettled {
		t.Error("expected fare settled after retry")
	}

	// A second retry is rejected, not double-charged.
	_, err = f.matching.SettleRide(ctx, ride.ID, "bob")
	if !errors.Is(err, service.ErrAlreadySettled) {
		t.Errorf("expected ErrAlreadySettled, got %v", err)
	}
}

func TestSettleRide_ConcurrentRetriesTransferOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// Complete a wallet ride with an empty payer wallet so it stays unsettled.
	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodWallet)
	if _, err := f.matching.AcceptOffer(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.matching.StartRide(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := f.matching.CompleteRide(ctx, ride.ID, "bob"); !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if _, err := f.wallet.Credit(ctx, "alice", 1000, "", "wallet top-up"); err != nil {
		t.Fatalf("top-up failed: %v", err)
	}

	// Eight retries race for the same settlement.
	const racers = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			_, errs[n] = f.matching.SettleRide(ctx, ride.ID, "bob")
		}(i)
	}
	close(start)
	wg.Wait()

	settled := 0
	for _, err := range errs {
		switch {
		case err == nil:
			settled++
		case errors.Is(err, service.ErrAlreadySettled):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if settled != 1 {
		t.Errorf("expected exactly one successful settlement, got %d", settled)
	}

	// One top-up plus one debit/credit pair, never more.
	if f.txRepo.Count() != 3 {
		t.Errorf("expected 3 ledger entries, got %d", f.txRepo.Count())
	}
	stored := f.rideRepo.GetRide(ride.ID)
	if !stored.FareSettled {
		t.Error("expected fare settled")
	}
	bobBalance, _ := f.wallet.Balance(ctx, "bob")
	if bobBalance != stored.Fare {
		t.Errorf("fare must move exactly once: offerer balance %.2f, fare %.2f", bobBalance, stored.Fare)
	}
}

func TestCompleteRide_CardChargesProcessor(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodCard)
	if _, err := f.matching.AcceptOffer(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.matching.StartRide(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := f.matching.CompleteRide(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if f.cards.ChargeCount() != 1 {
		t.Errorf("expected one card charge, got %d", f.cards.ChargeCount())
	}
	if f.txRepo.Count() != 0 {
		t.Errorf("card rides must not touch the ledger, got %d entries", f.txRepo.Count())
	}
}

func TestCancelOffer_Guards(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// Outsider cannot cancel an unmatched ride.
	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodCash)
	_, err := f.matching.CancelOffer(ctx, ride.ID, "mallory", "")
	if !errors.Is(err, lifecycle.ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}

	// The initiator can.
	cancelled, err := f.matching.CancelOffer(ctx, ride.ID, "alice", "changed plans")
	if err != nil {
		t.Fatalf("initiator cancel failed: %v", err)
	}
	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}

	// A cancelled ride leaves the index.
	entries, err := f.matching.ListNearby(ctx, service.ListNearbyRequest{
		RequesterID: "carol",
		Lat:         12.97,
		Lng:         77.59,
		AsRole:      domain.RoleOfferer,
	})
	if err != nil {
		t.Fatalf("list nearby failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cancelled ride still discoverable")
	}

	// Once matched, the counterpart can cancel too.
	ride = f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodCash)
	if _, err := f.matching.AcceptOffer(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.matching.CancelOffer(ctx, ride.ID, "bob", "car broke down"); err != nil {
		t.Fatalf("counterpart cancel failed: %v", err)
	}
}

func TestCancelOffer_TerminalRideRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodCash)
	if _, err := f.matching.CancelOffer(ctx, ride.ID, "alice", ""); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err := f.matching.CancelOffer(ctx, ride.ID, "alice", "")
	var invalid *lifecycle.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidTransitionError on double cancel, got %v", err)
	}
}

func TestAcceptOffer_LostRaceReturnsConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ride := f.createRide(t, "alice", domain.RoleSeeker, domain.PaymentMethodCash)
	if _, err := f.matching.AcceptOffer(ctx, ride.ID, "bob"); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	_, err := f.matching.AcceptOffer(ctx, ride.ID, "carol")
	if !errors.Is(err, service.ErrOfferConflict) {
		t.Errorf("expected ErrOfferConflict, got %v", err)
	}
}
