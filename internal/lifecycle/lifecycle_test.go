package lifecycle

import (
	"errors"
	"testing"
	"time"

	"ridematch/internal/domain"
)

func newRide(status domain.RideStatus) *domain.Ride {
	r := &domain.Ride{
		ID:            "ride-1",
		InitiatorID:   "alice",
		InitiatorRole: domain.RoleSeeker,
		Status:        status,
	}
	if status != domain.RideStatusRequested && status != domain.RideStatusOffered {
		r.CounterpartID = "bob"
	}
	return r
}

func TestAccept_FromMatchableStates(t *testing.T) {
	now := time.Now()
	for _, status := range []domain.RideStatus{domain.RideStatusRequested, domain.RideStatusOffered} {
		r := newRide(status)
		if err := Accept(r, "bob", now); err != nil {
			t.Fatalf("accept from %s failed: %v", status, err)
		}
		if r.Status != domain.RideStatusAccepted {
			t.Errorf("expected ACCEPTED, got %s", r.Status)
		}
		if r.CounterpartID != "bob" {
			t.Errorf("counterpart not recorded, got %q", r.CounterpartID)
		}
	}
}

func TestAccept_RejectsNonMatchableStates(t *testing.T) {
	now := time.Now()
	for _, status := range []domain.RideStatus{
		domain.RideStatusAccepted,
		domain.RideStatusOngoing,
		domain.RideStatusCompleted,
		domain.RideStatusCancelled,
	} {
		r := newRide(status)
		err := Accept(r, "carol", now)
		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("accept from %s: expected InvalidTransitionError, got %v", status, err)
		}
	}
}

func TestAccept_RejectsSelfMatch(t *testing.T) {
	r := newRide(domain.RideStatusRequested)
	err := Accept(r, "alice", time.Now())
	if !errors.Is(err, ErrSelfMatch) {
		t.Errorf("expected ErrSelfMatch, got %v", err)
	}
	if r.Status != domain.RideStatusRequested {
		t.Errorf("status changed on rejected accept: %s", r.Status)
	}
}

func TestStart_OnlyFromAccepted(t *testing.T) {
	r := newRide(domain.RideStatusAccepted)
	if err := Start(r, time.Now()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if r.Status != domain.RideStatusOngoing {
		t.Errorf("expected ONGOING, got %s", r.Status)
	}

	for _, status := range []domain.RideStatus{
		domain.RideStatusRequested,
		domain.RideStatusOngoing,
		domain.RideStatusCompleted,
		domain.RideStatusCancelled,
	} {
		r := newRide(status)
		err := Start(r, time.Now())
		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("start from %s: expected InvalidTransitionError, got %v", status, err)
		}
	}
}

func TestComplete_OnlyFromOngoing(t *testing.T) {
	r := newRide(domain.RideStatusOngoing)
	if err := Complete(r, 125.50, time.Now()); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if r.Status != domain.RideStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", r.Status)
	}
	if r.Fare != 125.50 {
		t.Errorf("fare not recorded, got %.2f", r.Fare)
	}

	r = newRide(domain.RideStatusAccepted)
	err := Complete(r, 100, time.Now())
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidTransitionError, got %v", err)
	}
}

func TestComplete_RejectsNegativeFare(t *testing.T) {
	r := newRide(domain.RideStatusOngoing)
	err := Complete(r, -1, time.Now())
	if !errors.Is(err, ErrNegativeFare) {
		t.Errorf("expected ErrNegativeFare, got %v", err)
	}
	if r.Status != domain.RideStatusOngoing {
		t.Errorf("status changed on rejected complete: %s", r.Status)
	}
}

func TestCancel_MatchableOnlyByInitiator(t *testing.T) {
	r := newRide(domain.RideStatusRequested)
	err := Cancel(r, "mallory", "changed plans", time.Now())
	if !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}

	r = newRide(domain.RideStatusRequested)
	if err := Cancel(r, "alice", "changed plans", time.Now()); err != nil {
		t.Fatalf("initiator cancel failed: %v", err)
	}
	if r.Status != domain.RideStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", r.Status)
	}
	if r.CancelReason != "changed plans" {
		t.Errorf("reason not recorded, got %q", r.CancelReason)
	}
	if r.CancelledAt.IsZero() {
		t.Error("CancelledAt not set")
	}
}

func TestCancel_MatchedByEitherParticipant(t *testing.T) {
	for _, actor := range []string{"alice", "bob"} {
		for _, status := range []domain.RideStatus{domain.RideStatusAccepted, domain.RideStatusOngoing} {
			r := newRide(status)
			if err := Cancel(r, actor, "", time.Now()); err != nil {
				t.Errorf("cancel of %s ride by %s failed: %v", status, actor, err)
			}
		}
	}

	r := newRide(domain.RideStatusAccepted)
	err := Cancel(r, "mallory", "", time.Now())
	if !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant for outsider, got %v", err)
	}
}

func TestCancel_RejectsTerminalStates(t *testing.T) {
	for _, status := range []domain.RideStatus{domain.RideStatusCompleted, domain.RideStatusCancelled} {
		r := newRide(status)
		err := Cancel(r, "alice", "", time.Now())
		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("cancel from %s: expected InvalidTransitionError, got %v", status, err)
		}
	}
}
