package geo

import (
	"context"
	"math"
	"sort"
	"sync"

	"ridematch/internal/domain"
)

// cellSizeDeg is the grid cell edge in degrees of latitude (~5.5 km).
// Queries scan only the cells overlapping the search bounding box, so cost
// stays proportional to the entries near the point, not the whole index.
const cellSizeDeg = 0.05

// lngCells is the number of longitude cells around the globe. Longitude
// indexes wrap modulo this width so the grid is contiguous across the
// antimeridian.
var lngCells = int(math.Round(360 / cellSizeDeg))

type cellKey struct {
	latIdx int
	lngIdx int
}

// MemoryIndex is an in-process grid-bucketed implementation of Index.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]domain.OfferEntry // ride id -> entry
	cells   map[cellKey]map[string]struct{}
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]domain.OfferEntry),
		cells:   make(map[cellKey]map[string]struct{}),
	}
}

func cellOf(lat, lng float64) cellKey {
	return cellKey{
		latIdx: int(math.Floor(lat / cellSizeDeg)),
		lngIdx: wrapLngIdx(int(math.Floor(lng / cellSizeDeg))),
	}
}

func wrapLngIdx(idx int) int {
	idx %= lngCells
	if idx < 0 {
		idx += lngCells
	}
	return idx
}

// Register inserts or replaces the entry for the ride id.
func (g *MemoryIndex) Register(ctx context.Context, entry domain.OfferEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.removeLocked(entry.RideID)

	g.entries[entry.RideID] = entry
	key := cellOf(entry.PickupLat, entry.PickupLng)
	bucket, ok := g.cells[key]
	if !ok {
		bucket = make(map[string]struct{})
		g.cells[key] = bucket
	}
	bucket[entry.RideID] = struct{}{}
	return nil
}

// Unregister removes the entry; unknown ids are a no-op.
func (g *MemoryIndex) Unregister(ctx context.Context, rideID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(rideID)
	return nil
}

func (g *MemoryIndex) removeLocked(rideID string) {
	entry, ok := g.entries[rideID]
	if !ok {
		return
	}
	delete(g.entries, rideID)
	key := cellOf(entry.PickupLat, entry.PickupLng)
	if bucket, ok := g.cells[key]; ok {
		delete(bucket, rideID)
		if len(bucket) == 0 {
			delete(g.cells, key)
		}
	}
}

// QueryNearby scans the grid cells overlapping the search circle's bounding
// box and returns matching entries ordered by distance, then ride id.
func (g *MemoryIndex) QueryNearby(ctx context.Context, lat, lng, radiusMeters float64, role domain.Role) ([]domain.OfferEntry, error) {
	if radiusMeters <= 0 {
		return nil, nil
	}

	// Bounding box in grid cells. Longitude degrees shrink with latitude.
	latDelta := radiusMeters / earthRadiusMeters * 180 / math.Pi
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01 // near the poles every longitude is close
	}
	lngDelta := latDelta / cosLat

	minLatIdx := int(math.Floor((lat - latDelta) / cellSizeDeg))
	maxLatIdx := int(math.Floor((lat + latDelta) / cellSizeDeg))
	// Longitude indexes run unwrapped here and wrap per cell lookup, so a box
	// straddling the antimeridian still covers both sides.
	minLngIdx := int(math.Floor((lng - lngDelta) / cellSizeDeg))
	maxLngIdx := int(math.Floor((lng + lngDelta) / cellSizeDeg))
	if maxLngIdx-minLngIdx+1 > lngCells {
		maxLngIdx = minLngIdx + lngCells - 1
	}

	g.mu.RLock()
	var matches []domain.OfferEntry
	for latIdx := minLatIdx; latIdx <= maxLatIdx; latIdx++ {
		for lngIdx := minLngIdx; lngIdx <= maxLngIdx; lngIdx++ {
			bucket, ok := g.cells[cellKey{latIdx: latIdx, lngIdx: wrapLngIdx(lngIdx)}]
			if !ok {
				continue
			}
			for rideID := range bucket {
				entry := g.entries[rideID]
				if role != "" && entry.Role != role {
					continue
				}
				dist := Haversine(lat, lng, entry.PickupLat, entry.PickupLng)
				if dist > radiusMeters {
					continue
				}
				entry.DistanceMeters = dist
				matches = append(matches, entry)
			}
		}
	}
	g.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceMeters != matches[j].DistanceMeters {
			return matches[i].DistanceMeters < matches[j].DistanceMeters
		}
		return matches[i].RideID < matches[j].RideID
	})
	return matches, nil
}
