package geo

import (
	"context"
	"testing"

	"ridematch/internal/domain"
)

func entryAt(rideID string, role domain.Role, lat, lng float64) domain.OfferEntry {
	return domain.OfferEntry{
		RideID:      rideID,
		Role:        role,
		InitiatorID: "account-" + rideID,
		PickupLat:   lat,
		PickupLng:   lng,
	}
}

func TestMemoryIndex_OrdersByDistanceThenID(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	// Two at the same spot, one farther away.
	mustRegister(t, idx, entryAt("ride-b", domain.RoleOfferer, 12.9720, 77.5950))
	mustRegister(t, idx, entryAt("ride-a", domain.RoleOfferer, 12.9720, 77.5950))
	mustRegister(t, idx, entryAt("ride-c", domain.RoleOfferer, 12.9800, 77.6000))

	entries, err := idx.QueryNearby(ctx, 12.9716, 77.5946, 5000, domain.RoleOfferer)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Equidistant entries tie-break on ride id.
	if entries[0].RideID != "ride-a" || entries[1].RideID != "ride-b" || entries[2].RideID != "ride-c" {
		t.Errorf("unexpected order: %s, %s, %s", entries[0].RideID, entries[1].RideID, entries[2].RideID)
	}
	if entries[0].DistanceMeters > entries[2].DistanceMeters {
		t.Errorf("entries not sorted by distance")
	}
}

func TestMemoryIndex_RadiusExcludesFarEntries(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	mustRegister(t, idx, entryAt("ride-near", domain.RoleOfferer, 12.9720, 77.5950))
	mustRegister(t, idx, entryAt("ride-far", domain.RoleOfferer, 13.0827, 77.5877)) // ~12km away

	entries, err := idx.QueryNearby(ctx, 12.9716, 77.5946, 5000, domain.RoleOfferer)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry within 5km, got %d", len(entries))
	}
	if entries[0].RideID != "ride-near" {
		t.Errorf("expected ride-near, got %s", entries[0].RideID)
	}
}

func TestMemoryIndex_FiltersByRole(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	mustRegister(t, idx, entryAt("ride-offer", domain.RoleOfferer, 12.9720, 77.5950))
	mustRegister(t, idx, entryAt("ride-request", domain.RoleSeeker, 12.9721, 77.5951))

	entries, err := idx.QueryNearby(ctx, 12.9716, 77.5946, 5000, domain.RoleSeeker)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 seeker entry, got %d", len(entries))
	}
	if entries[0].RideID != "ride-request" {
		t.Errorf("expected ride-request, got %s", entries[0].RideID)
	}
}

func TestMemoryIndex_UnregisterRemovesEntry(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	mustRegister(t, idx, entryAt("ride-1", domain.RoleOfferer, 12.9720, 77.5950))
	if err := idx.Unregister(ctx, "ride-1"); err != nil {
		t.Fatalf("unregister failed: %v", err)
	}

	entries, err := idx.QueryNearby(ctx, 12.9716, 77.5946, 5000, domain.RoleOfferer)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries after unregister, got %d", len(entries))
	}
}

func TestMemoryIndex_RegisterReplacesExisting(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	mustRegister(t, idx, entryAt("ride-1", domain.RoleOfferer, 12.9720, 77.5950))
	// Re-register the same ride at a new position.
	mustRegister(t, idx, entryAt("ride-1", domain.RoleOfferer, 12.9750, 77.5980))

	entries, err := idx.QueryNearby(ctx, 12.9716, 77.5946, 5000, domain.RoleOfferer)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].PickupLat != 12.9750 {
		t.Errorf("expected updated position, got lat %f", entries[0].PickupLat)
	}
}

func TestMemoryIndex_FindsEntriesAcrossAntimeridian(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	// Opposite signs of longitude, ~2.2km apart across the 180th meridian.
	mustRegister(t, idx, entryAt("ride-east", domain.RoleOfferer, 0, 179.99))
	mustRegister(t, idx, entryAt("ride-west", domain.RoleOfferer, 0, -179.995))

	entries, err := idx.QueryNearby(ctx, 0, -179.99, 5000, domain.RoleOfferer)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both entries across the antimeridian, got %d", len(entries))
	}

	// Querying from the other side finds them too.
	entries, err = idx.QueryNearby(ctx, 0, 179.99, 5000, domain.RoleOfferer)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both entries from the eastern side, got %d", len(entries))
	}
}

func mustRegister(t *testing.T, idx *MemoryIndex, entry domain.OfferEntry) {
	t.Helper()
	if err := idx.Register(context.Background(), entry); err != nil {
		t.Fatalf("register failed: %v", err)
	}
}
