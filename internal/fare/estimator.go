// Package fare turns a coordinate pair into a monetary fare.
package fare

import "ridematch/internal/geo"

// Estimator computes fares from great-circle distance. It holds only
// immutable tariff constants, so the same coordinate pair always yields the
// same fare and re-estimation is idempotent.
type Estimator struct {
	baseFare  float64
	perKmRate float64
}

// NewEstimator creates an Estimator with the given tariff.
func NewEstimator(baseFare, perKmRate float64) *Estimator {
	return &Estimator{baseFare: baseFare, perKmRate: perKmRate}
}

// Breakdown itemizes an estimate.
type Breakdown struct {
	DistanceMeters float64
	BaseFare       float64
	DistanceFare   float64
	TotalFare      float64
}

// Estimate returns the fare for a trip between pickup and dropoff. Identical
// or degenerate endpoints yield the base fare, not an error.
func (e *Estimator) Estimate(pickupLat, pickupLng, dropoffLat, dropoffLng float64) float64 {
	return e.EstimateBreakdown(pickupLat, pickupLng, dropoffLat, dropoffLng).TotalFare
}

// EstimateBreakdown returns the fare with its components.
func (e *Estimator) EstimateBreakdown(pickupLat, pickupLng, dropoffLat, dropoffLng float64) Breakdown {
	distance := geo.Haversine(pickupLat, pickupLng, dropoffLat, dropoffLng)
	if distance < 0 {
		distance = 0
	}
	distanceFare := distance / 1000 * e.perKmRate
	return Breakdown{
		DistanceMeters: distance,
		BaseFare:       e.baseFare,
		DistanceFare:   distanceFare,
		TotalFare:      e.baseFare + distanceFare,
	}
}
