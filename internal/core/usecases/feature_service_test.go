package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/mapcat/internal/adapters/memory"
	"github.com/samirrijal/mapcat/internal/core/usecases"
)

// --- Mock CacheService ---

type mockCache struct {
	data map[string][]byte
	gets int
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.gets++
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("valkey nil message")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func seededStore(t *testing.T) *memory.FeatureStore {
	t.Helper()
	store := memory.NewFeatureStore()
	svc := usecases.NewCommandService(store)
	for _, line := range []string{
		"add-point (52.5,13.4) id=home tag=places",
		"add-polyline (52.5,13.4);(52.6,13.5) id=route",
		"add-polygon (52.1,13.1);(52.2,13.2);(52.15,13.15) id=area tag=places",
	} {
		if _, err := svc.Execute(context.Background(), "test", line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	return store
}

func TestFeatureService_List(t *testing.T) {
	svc := usecases.NewFeatureService(seededStore(t), nil, 0)

	all, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "home" || all[2].ID != "area" {
		t.Errorf("list = %v", all)
	}

	tagged, _ := svc.List(context.Background(), "places")
	if len(tagged) != 2 || tagged[0].ID != "home" || tagged[1].ID != "area" {
		t.Errorf("tagged = %v", tagged)
	}
}

func TestFeatureService_ListCache(t *testing.T) {
	store := seededStore(t)
	cache := newMockCache()
	svc := usecases.NewFeatureService(store, cache, 60)
	ctx := context.Background()

	first, _ := svc.List(ctx, "")
	if cache.sets != 1 {
		t.Fatalf("expected listing to be cached, sets=%d", cache.sets)
	}
	second, _ := svc.List(ctx, "")
	if cache.sets != 1 {
		t.Error("cache hit should not write again")
	}
	if len(first) != len(second) {
		t.Errorf("cached listing differs: %d vs %d", len(first), len(second))
	}

	// a mutation bumps the version, so the next listing misses the cache
	store.Remove("route")
	third, _ := svc.List(ctx, "")
	if len(third) != 2 || cache.sets != 2 {
		t.Errorf("expected fresh listing after mutation, got %d features, sets=%d", len(third), cache.sets)
	}
}

func TestFeatureService_ListCacheSharedAcrossStores(t *testing.T) {
	ctx := context.Background()
	cache := newMockCache()

	storeA := memory.NewFeatureStore()
	if _, err := usecases.NewCommandService(storeA).Execute(ctx, "test", "add-point (1,1) id=from-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := usecases.NewFeatureService(storeA, cache, 60).List(ctx, ""); err != nil {
		t.Fatal(err)
	}

	// a restarted or second instance reaches the same version with other features
	storeB := memory.NewFeatureStore()
	if _, err := usecases.NewCommandService(storeB).Execute(ctx, "test", "add-point (2,2) id=from-b"); err != nil {
		t.Fatal(err)
	}
	if storeA.Version() != storeB.Version() {
		t.Fatalf("stores should share a version, got %d and %d", storeA.Version(), storeB.Version())
	}

	got, err := usecases.NewFeatureService(storeB, cache, 60).List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "from-b" {
		t.Errorf("expected only from-b, got %v", got)
	}
	if len(cache.data) != 2 {
		t.Errorf("expected one cache entry per store, got %d", len(cache.data))
	}
}

func TestFeatureService_GetNotFound(t *testing.T) {
	svc := usecases.NewFeatureService(memory.NewFeatureStore(), nil, 0)
	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, usecases.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFeatureService_GeoJSON(t *testing.T) {
	svc := usecases.NewFeatureService(seededStore(t), nil, 0)
	fc, err := svc.GeoJSON(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc.Features))
	}

	pt, ok := fc.Features[0].Geometry.(orb.Point)
	if !ok || pt.Lon() != 13.4 || pt.Lat() != 52.5 {
		t.Errorf("point geometry = %#v", fc.Features[0].Geometry)
	}
	if fc.Features[0].Properties["color"] != "#007cff" || fc.Features[0].Properties["type"] != "point" {
		t.Errorf("point properties = %v", fc.Features[0].Properties)
	}

	if _, ok := fc.Features[1].Geometry.(orb.LineString); !ok {
		t.Errorf("polyline geometry = %T", fc.Features[1].Geometry)
	}

	poly, ok := fc.Features[2].Geometry.(orb.Polygon)
	if !ok || len(poly) != 1 {
		t.Fatalf("polygon geometry = %#v", fc.Features[2].Geometry)
	}
	if len(poly[0]) != 4 || !poly[0].Closed() {
		t.Errorf("polygon ring not closed: %v", poly[0])
	}

	if _, err := json.Marshal(fc); err != nil {
		t.Errorf("marshal feature collection: %v", err)
	}
}

func TestFeatureService_Count(t *testing.T) {
	svc := usecases.NewFeatureService(seededStore(t), nil, 0)
	if svc.Count() != 3 {
		t.Errorf("count = %d", svc.Count())
	}
}
