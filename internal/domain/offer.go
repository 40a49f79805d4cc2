package domain

// OfferEntry is the ephemeral projection of a Ride while it is matchable
// (REQUESTED or OFFERED). It exists only inside the geo index and is rebuilt
// from the Ride on every registration; it is never persisted on its own.
type OfferEntry struct {
	RideID        string
	Role          Role // role of the ride's initiator
	InitiatorID   string
	InitiatorName string
	PickupLat     float64
	PickupLng     float64
	FareEstimate  float64

	// DistanceMeters is filled in by radius queries.
	DistanceMeters float64
}
