// Package events publishes ride lifecycle changes to interested consumers.
// Delivery is fire-and-forget: the matching engine never blocks a transition
// on the event stream.
package events

import (
	"context"
	"time"

	"ridematch/internal/domain"
)

// EventType names a lifecycle change.
type EventType string

const (
	RideCreated   EventType = "RIDE_CREATED"
	RideAccepted  EventType = "RIDE_ACCEPTED"
	RideStarted   EventType = "RIDE_STARTED"
	RideCompleted EventType = "RIDE_COMPLETED"
	RideCancelled EventType = "RIDE_CANCELLED"
	RideSettled   EventType = "RIDE_SETTLED"
)

// RideEvent is the published record of a lifecycle change.
type RideEvent struct {
	Type          EventType         `json:"type"`
	RideID        string            `json:"ride_id"`
	Status        domain.RideStatus `json:"status"`
	InitiatorID   string            `json:"initiator_id"`
	CounterpartID string            `json:"counterpart_id,omitempty"`
	Fare          float64           `json:"fare,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// Publisher delivers ride events to an external stream.
type Publisher interface {
	Publish(ctx context.Context, event RideEvent) error
	Close() error
}

// FromRide builds the event payload for a ride's current state.
func FromRide(t EventType, ride *domain.Ride, now time.Time) RideEvent {
	return RideEvent{
		Type:          t,
		RideID:        ride.ID,
		Status:        ride.Status,
		InitiatorID:   ride.InitiatorID,
		CounterpartID: ride.CounterpartID,
		Fare:          ride.Fare,
		OccurredAt:    now,
	}
}
