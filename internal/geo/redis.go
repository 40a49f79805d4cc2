package geo

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"

	"ridematch/internal/domain"
)

const (
	offerGeoKeyPrefix   = "offers:locations:" // one GEO set per initiator role
	offerEntryKeyPrefix = "offers:entry:"
)

// RedisIndex is a Redis-backed implementation of Index using GEO commands.
// Coordinates live in one geo set per role; the rest of the projection is a
// JSON value alongside, rebuilt on every registration.
type RedisIndex struct {
	client *redis.Client
}

// NewRedisIndex creates a new RedisIndex.
func NewRedisIndex(client *redis.Client) *RedisIndex {
	return &RedisIndex{client: client}
}

func geoKey(role domain.Role) string {
	return offerGeoKeyPrefix + string(role)
}

// Register inserts or replaces the entry for the ride id.
func (s *RedisIndex) Register(ctx context.Context, entry domain.OfferEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	// Replace any stale placement under the other role first.
	pipe.ZRem(ctx, geoKey(entry.Role.Counterpart()), entry.RideID)
	pipe.GeoAdd(ctx, geoKey(entry.Role), &redis.GeoLocation{
		Name:      entry.RideID,
		Longitude: entry.PickupLng,
		Latitude:  entry.PickupLat,
	})
	pipe.Set(ctx, offerEntryKeyPrefix+entry.RideID, data, 0)
	_, err = pipe.Exec(ctx)
	return err
}

// Unregister removes the entry from both role sets; absent ids are a no-op.
func (s *RedisIndex) Unregister(ctx context.Context, rideID string) error {
	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, geoKey(domain.RoleSeeker), rideID)
	pipe.ZRem(ctx, geoKey(domain.RoleOfferer), rideID)
	pipe.Del(ctx, offerEntryKeyPrefix+rideID)
	_, err := pipe.Exec(ctx)
	return err
}

// QueryNearby returns entries of the given role within radiusMeters, ordered
// ascending by distance with ties broken by ride id.
func (s *RedisIndex) QueryNearby(ctx context.Context, lat, lng, radiusMeters float64, role domain.Role) ([]domain.OfferEntry, error) {
	results, err := s.client.GeoRadius(ctx, geoKey(role), lng, lat, &redis.GeoRadiusQuery{
		Radius:   radiusMeters,
		Unit:     "m",
		WithDist: true,
		Sort:     "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	keys := make([]string, len(results))
	for i, r := range results {
		keys[i] = offerEntryKeyPrefix + r.Name
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.OfferEntry, 0, len(results))
	for i, r := range results {
		raw, ok := values[i].(string)
		if !ok {
			// Entry removed between the radius query and the fetch.
			continue
		}
		var entry domain.OfferEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entry.DistanceMeters = r.Dist // same unit as the query radius
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DistanceMeters != entries[j].DistanceMeters {
			return entries[i].DistanceMeters < entries[j].DistanceMeters
		}
		return entries[i].RideID < entries[j].RideID
	})
	return entries, nil
}

// Ensure both implementations satisfy the interface.
var (
	_ Index = (*MemoryIndex)(nil)
	_ Index = (*RedisIndex)(nil)
)
