// Package geo maintains the set of currently matchable rides and answers
// radius queries over it.
package geo

import (
	"context"
	"math"

	"ridematch/internal/domain"
)

// earthRadiusMeters is the mean Earth radius used for great-circle distance.
const earthRadiusMeters = 6371000.0

// Index is the offer/request proximity index. Implementations must be safe
// for concurrent register/unregister/query.
type Index interface {
	// Register inserts an entry, replacing any existing entry for the same
	// ride id.
	Register(ctx context.Context, entry domain.OfferEntry) error

	// Unregister removes the entry for the ride id; absent ids are a no-op.
	Unregister(ctx context.Context, rideID string) error

	// QueryNearby returns all entries of the given initiator role within
	// radiusMeters of the point, annotated with distance and ordered
	// ascending by distance, ties broken by ride id.
	QueryNearby(ctx context.Context, lat, lng, radiusMeters float64, role domain.Role) ([]domain.OfferEntry, error)
}

// Haversine returns the great-circle distance in meters between two
// latitude/longitude pairs in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
