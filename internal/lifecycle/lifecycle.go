// Package lifecycle owns the ride state machine. Status moves only forward
// along REQUESTED/OFFERED -> ACCEPTED -> ONGOING -> COMPLETED, with CANCELLED
// reachable from every non-terminal state under the guards below. No other
// package may set a ride's status directly.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"ridematch/internal/domain"
)

// Event names a requested transition, used in error reporting.
type Event string

const (
	EventAccept   Event = "accept"
	EventStart    Event = "start"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
)

// InvalidTransitionError is returned when an event is not valid from the
// ride's current status.
type InvalidTransitionError struct {
	Event  Event
	Status domain.RideStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s: ride is %s", e.Event, e.Status)
}

var (
	// ErrSelfMatch is returned when a party tries to accept its own ride.
	ErrSelfMatch = errors.New("cannot accept your own ride")

	// ErrNotParticipant is returned when the acting party is neither the
	// initiator nor the matched counterpart.
	ErrNotParticipant = errors.New("actor is not a participant of this ride")

	// ErrNegativeFare is returned when completing a ride with a negative fare.
	ErrNegativeFare = errors.New("fare must be non-negative")
)

// IsMatchable reports whether a ride in this status can still be claimed.
func IsMatchable(s domain.RideStatus) bool {
	return s == domain.RideStatusRequested || s == domain.RideStatusOffered
}

// IsTerminal reports whether no further transition can apply.
func IsTerminal(s domain.RideStatus) bool {
	return s == domain.RideStatusCompleted || s == domain.RideStatusCancelled
}

// Accept moves a matchable ride to ACCEPTED, recording the counterpart.
// The caller remains responsible for committing the transition atomically
// against concurrent acceptors; this guard alone is necessary, not sufficient.
func Accept(r *domain.Ride, counterpartID string, now time.Time) error {
	if !IsMatchable(r.Status) {
		return &InvalidTransitionError{Event: EventAccept, Status: r.Status}
	}
	if counterpartID == r.InitiatorID {
		return ErrSelfMatch
	}
	r.Status = domain.RideStatusAccepted
	r.CounterpartID = counterpartID
	r.UpdatedAt = now
	return nil
}

// Start moves an accepted ride to ONGOING. Both parties must be resolved.
func Start(r *domain.Ride, now time.Time) error {
	if r.Status != domain.RideStatusAccepted {
		return &InvalidTransitionError{Event: EventStart, Status: r.Status}
	}
	if r.InitiatorID == "" || r.CounterpartID == "" {
		return ErrNotParticipant
	}
	r.Status = domain.RideStatusOngoing
	r.UpdatedAt = now
	return nil
}

// Complete moves an ongoing ride to COMPLETED with its final fare.
func Complete(r *domain.Ride, fare float64, now time.Time) error {
	if r.Status != domain.RideStatusOngoing {
		return &InvalidTransitionError{Event: EventComplete, Status: r.Status}
	}
	if fare < 0 {
		return ErrNegativeFare
	}
	r.Status = domain.RideStatusCompleted
	r.Fare = fare
	r.UpdatedAt = now
	return nil
}

// Cancel moves a ride to CANCELLED. While the ride is still matchable only
// the initiator may cancel; once matched, either participant may.
func Cancel(r *domain.Ride, actorID, reason string, now time.Time) error {
	switch {
	case IsMatchable(r.Status):
		if actorID != r.InitiatorID {
			return ErrNotParticipant
		}
	case r.Status == domain.RideStatusAccepted || r.Status == domain.RideStatusOngoing:
		if !r.IsParticipant(actorID) {
			return ErrNotParticipant
		}
	default:
		return &InvalidTransitionError{Event: EventCancel, Status: r.Status}
	}
	r.Status = domain.RideStatusCancelled
	r.CancelledAt = now
	r.CancelReason = reason
	r.UpdatedAt = now
	return nil
}
