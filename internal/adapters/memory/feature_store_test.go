package memory

import (
	"bytes"
	"errors"
	"reflect"
	"regexp"
	"sync"
	"testing"

	"github.com/samirrijal/mapcat/internal/core/domain"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{8}$`)

func point(lat, lng float64) []domain.Coordinate {
	return []domain.Coordinate{{Lat: lat, Lng: lng}}
}

// assertIndex checks that the id index and the feature map agree.
func assertIndex(t *testing.T, s *FeatureStore) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) != len(s.features) {
		t.Fatalf("index has %d ids, map has %d features", len(s.order), len(s.features))
	}
	for _, id := range s.order {
		f, ok := s.features[id]
		if !ok {
			t.Fatalf("id %q indexed but not stored", id)
		}
		if f.ID != id {
			t.Fatalf("feature stored under %q carries id %q", id, f.ID)
		}
	}
}

func TestAdd_GeneratedID(t *testing.T) {
	s := NewFeatureStore()
	id, err := s.Add(domain.KindPoint, point(52.5, 13.4), domain.Params{"color": "red"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hexID.MatchString(id) {
		t.Errorf("generated id %q is not 8 hex chars", id)
	}
	if _, ok := s.Get(id); !ok {
		t.Error("generated id not found")
	}
	assertIndex(t, s)
}

func TestAdd_RequestedIDRoundTrip(t *testing.T) {
	s := NewFeatureStore()
	params := domain.Params{"color": "#007cff", "opacity": 1.0, "radius": 4, "border": 2}
	id, err := s.Add(domain.KindPoint, point(52.5, 13.4), params, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "p1" {
		t.Fatalf("expected id p1, got %s", id)
	}

	f, ok := s.Get("p1")
	if !ok {
		t.Fatal("p1 not found")
	}
	if f.Kind != domain.KindPoint {
		t.Errorf("kind = %s", f.Kind)
	}
	if !reflect.DeepEqual(f.Coords, point(52.5, 13.4)) {
		t.Errorf("coords = %v", f.Coords)
	}
	if !reflect.DeepEqual(f.Params, params) {
		t.Errorf("params = %v", f.Params)
	}

	if !s.Remove("p1") {
		t.Fatal("remove p1 returned false")
	}
	if _, ok := s.Get("p1"); ok {
		t.Error("p1 still present after remove")
	}
	if s.Remove("p1") {
		t.Error("second remove should return false")
	}
	assertIndex(t, s)
}

func TestAdd_DuplicateID(t *testing.T) {
	s := NewFeatureStore()
	if _, err := s.Add(domain.KindPoint, point(1, 2), nil, "dup"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := s.Add(domain.KindPoint, point(3, 4), nil, "dup")
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 feature, got %d", s.Len())
	}
	f, _ := s.Get("dup")
	if f.Coords[0] != (domain.Coordinate{Lat: 1, Lng: 2}) {
		t.Errorf("original feature was overwritten: %v", f.Coords)
	}
	assertIndex(t, s)
}

func TestGenerateID_Unique(t *testing.T) {
	s := NewFeatureStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := s.Add(domain.KindPoint, point(0, 0), nil, "")
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("duplicate generated id %s", id)
		}
		seen[id] = true
	}
	if s.Len() != 100 {
		t.Errorf("expected 100 features, got %d", s.Len())
	}
	assertIndex(t, s)
}

func TestGenerateID_RetriesOnCollision(t *testing.T) {
	entropy := []byte{
		0, 0, 0, 1, // first id
		0, 0, 0, 1, // collides
		0, 0, 0, 2,
	}
	s := NewFeatureStore(WithRandom(bytes.NewReader(entropy)))

	first, err := s.Add(domain.KindPoint, point(0, 0), nil, "")
	if err != nil || first != "00000001" {
		t.Fatalf("first id = %q, %v", first, err)
	}
	second, err := s.Add(domain.KindPoint, point(0, 0), nil, "")
	if err != nil || second != "00000002" {
		t.Fatalf("second id = %q, %v", second, err)
	}
}

func TestGenerateID_SourceFailure(t *testing.T) {
	s := NewFeatureStore(WithRandom(bytes.NewReader(nil)))
	if _, err := s.Add(domain.KindPoint, point(0, 0), nil, ""); err == nil {
		t.Fatal("expected error from exhausted entropy source")
	}
	if s.Len() != 0 || s.Version() != 0 {
		t.Error("failed add must not mutate the store")
	}
}

func TestRemoveByTag(t *testing.T) {
	s := NewFeatureStore()
	a, _ := s.Add(domain.KindPoint, point(1, 1), domain.Params{"tag": "traffic"}, "")
	_, _ = s.Add(domain.KindPoint, point(2, 2), domain.Params{"tag": "other"}, "keep")
	b, _ := s.Add(domain.KindPolyline, []domain.Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}, domain.Params{"tag": "traffic"}, "")

	removed := s.RemoveByTag("traffic")
	if !reflect.DeepEqual(removed, []string{a, b}) {
		t.Fatalf("removed = %v, want [%s %s]", removed, a, b)
	}
	if _, ok := s.Get("keep"); !ok {
		t.Error("untagged feature was removed")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 feature left, got %d", s.Len())
	}

	again := s.RemoveByTag("traffic")
	if again == nil || len(again) != 0 {
		t.Errorf("second removal = %#v, want empty slice", again)
	}
	assertIndex(t, s)
}

func TestRemoveByTag_ExactMatch(t *testing.T) {
	s := NewFeatureStore()
	_, _ = s.Add(domain.KindPoint, point(1, 1), domain.Params{"tag": "Traffic"}, "a")
	_, _ = s.Add(domain.KindPoint, point(1, 1), domain.Params{"tag": "traffic "}, "b")
	_, _ = s.Add(domain.KindPoint, point(1, 1), nil, "c")

	if got := s.RemoveByTag("traffic"); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 features, got %d", s.Len())
	}
}

func TestClear(t *testing.T) {
	s := NewFeatureStore()

	empty := s.Clear()
	if empty == nil || len(empty) != 0 {
		t.Fatalf("clear on empty store = %#v, want empty slice", empty)
	}
	if s.Len() != 0 {
		t.Fatal("store not empty")
	}

	id1, _ := s.Add(domain.KindPoint, point(1, 1), nil, "")
	id2, _ := s.Add(domain.KindPolygon, []domain.Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 1}}, nil, "poly")

	removed := s.Clear()
	if !reflect.DeepEqual(removed, []string{id1, id2}) {
		t.Errorf("removed = %v", removed)
	}
	if s.Len() != 0 || len(s.List()) != 0 {
		t.Error("store not empty after clear")
	}
	assertIndex(t, s)

	// ids are free again
	if _, err := s.Add(domain.KindPoint, point(1, 1), nil, "poly"); err != nil {
		t.Errorf("re-adding cleared id: %v", err)
	}
}

func TestList_OrderAndIsolation(t *testing.T) {
	s := NewFeatureStore()
	for _, id := range []string{"c", "a", "b"} {
		if _, err := s.Add(domain.KindPoint, point(1, 1), domain.Params{"color": "red"}, id); err != nil {
			t.Fatal(err)
		}
	}
	s.Remove("a")

	list := s.List()
	if len(list) != 2 || list[0].ID != "c" || list[1].ID != "b" {
		t.Fatalf("list order = %v", list)
	}

	list[0].Params["color"] = "blue"
	list[0].Coords[0].Lat = 9
	f, _ := s.Get("c")
	if f.Params["color"] != "red" || f.Coords[0].Lat != 1 {
		t.Error("mutating a listed feature leaked into the store")
	}
}

func TestAdd_CopiesInput(t *testing.T) {
	s := NewFeatureStore()
	coords := point(1, 1)
	params := domain.Params{"color": "red"}
	_, _ = s.Add(domain.KindPoint, coords, params, "x")

	coords[0].Lat = 50
	params["color"] = "blue"

	f, _ := s.Get("x")
	if f.Coords[0].Lat != 1 || f.Params["color"] != "red" {
		t.Error("store retained caller's slices or maps")
	}
}

func TestVersion(t *testing.T) {
	s := NewFeatureStore()
	v0 := s.Version()
	_, _ = s.Add(domain.KindPoint, point(1, 1), nil, "a")
	v1 := s.Version()
	s.Remove("missing")
	s.RemoveByTag("none")
	if s.Version() != v1 {
		t.Error("no-op mutations must not bump the version")
	}
	s.Remove("a")
	if !(v0 < v1 && v1 < s.Version()) {
		t.Errorf("versions not increasing: %d %d %d", v0, v1, s.Version())
	}
}

func TestConcurrentDuplicateAdd(t *testing.T) {
	s := NewFeatureStore()
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Add(domain.KindPoint, point(1, 1), nil, "same"); err == nil {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if oks != 1 {
		t.Errorf("expected exactly one successful add, got %d", oks)
	}
	assertIndex(t, s)
}
