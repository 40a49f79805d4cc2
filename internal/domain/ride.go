package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested RideStatus = "REQUESTED"
	RideStatusOffered   RideStatus = "OFFERED"
	RideStatusAccepted  RideStatus = "ACCEPTED"
	RideStatusOngoing   RideStatus = "ONGOING"
	RideStatusCompleted RideStatus = "COMPLETED"
	RideStatusCancelled RideStatus = "CANCELLED"
)

// Role tags which side of the match a party is on. A seeker is looking for
// transport; an offerer is providing it. Either role may initiate a ride.
type Role string

const (
	RoleSeeker  Role = "SEEKER"
	RoleOfferer Role = "OFFERER"
)

// Counterpart returns the opposite role.
func (r Role) Counterpart() Role {
	if r == RoleSeeker {
		return RoleOfferer
	}
	return RoleSeeker
}

// PaymentMethod represents the payment method for a ride.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodWallet PaymentMethod = "WALLET"
)

// Rating holds a single participant's rating of a completed ride.
type Rating struct {
	Stars   int
	Comment string
	RatedAt time.Time
}

// Ride is the central entity: a matchable or matched trip across its whole
// lifecycle. One entity serves both requests and offers; InitiatorRole says
// which side created it. Status is mutated only through lifecycle transitions.
type Ride struct {
	ID            string
	InitiatorID   string
	CounterpartID string // empty until matched
	InitiatorRole Role
	PickupLat     float64
	PickupLng     float64
	DropoffLat    float64
	DropoffLng    float64
	PaymentMethod PaymentMethod
	Status        RideStatus
	Fare          float64
	FareSettled   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CancelledAt   time.Time
	CancelReason  string

	InitiatorRating   *Rating
	CounterpartRating *Rating
}

// SeekerID returns the account that pays the fare. Empty until matched when
// the initiator is the offerer.
func (r *Ride) SeekerID() string {
	if r.InitiatorRole == RoleSeeker {
		return r.InitiatorID
	}
	return r.CounterpartID
}

// OffererID returns the account that receives the fare.
func (r *Ride) OffererID() string {
	if r.InitiatorRole == RoleOfferer {
		return r.InitiatorID
	}
	return r.CounterpartID
}

// IsParticipant reports whether the account is the initiator or the matched
// counterpart of this ride.
func (r *Ride) IsParticipant(accountID string) bool {
	return accountID != "" && (accountID == r.InitiatorID || accountID == r.CounterpartID)
}
