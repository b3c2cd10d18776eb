package usecases_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/samirrijal/mapcat/internal/adapters/memory"
	"github.com/samirrijal/mapcat/internal/core/command"
	"github.com/samirrijal/mapcat/internal/core/domain"
	"github.com/samirrijal/mapcat/internal/core/usecases"
)

func handlerFor(t *testing.T, name string) usecases.Handler {
	t.Helper()
	for _, h := range usecases.DefaultHandlers() {
		if h.Name() == name {
			return h
		}
	}
	t.Fatalf("no handler registered for %s", name)
	return nil
}

func parsed(t *testing.T, line string) domain.ParsedCommand {
	t.Helper()
	cmd, err := command.Parse(line)
	if err != nil {
		t.Fatalf("parse %q: %v", line, err)
	}
	return cmd
}

func run(t *testing.T, store *memory.FeatureStore, line string) (domain.Event, error) {
	t.Helper()
	cmd := parsed(t, line)
	return handlerFor(t, cmd.Name).Handle(store, cmd)
}

func TestRegistry_HasEveryCommand(t *testing.T) {
	names := map[string]bool{}
	for _, h := range usecases.DefaultHandlers() {
		if names[h.Name()] {
			t.Errorf("handler %s registered twice", h.Name())
		}
		names[h.Name()] = true
	}
	for _, want := range []string{"add-point", "add-polyline", "add-polygon", "remove", "clear", "update-current-position"} {
		if !names[want] {
			t.Errorf("missing handler for %s", want)
		}
	}
}

func TestAddPoint_Defaults(t *testing.T) {
	store := memory.NewFeatureStore()
	event, err := run(t, store, "add-point (52.5,13.4) color=red")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	add, ok := event.(domain.AddEvent)
	if !ok {
		t.Fatalf("expected AddEvent, got %T", event)
	}
	if add.Kind != domain.KindPoint {
		t.Errorf("kind = %s", add.Kind)
	}
	if add.ID == "" {
		t.Error("expected generated id")
	}
	want := domain.Params{"color": "red", "opacity": 1.0, "radius": 4, "border": 2}
	if !reflect.DeepEqual(add.Params, want) {
		t.Errorf("params = %#v, want %#v", add.Params, want)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 feature, got %d", store.Len())
	}
}

func TestAddPoint_CoercesNumbers(t *testing.T) {
	store := memory.NewFeatureStore()
	event, err := run(t, store, "add-point (1,2) opacity=0.5 radius=6 border=3 label=x")
	if err != nil {
		t.Fatal(err)
	}
	got := event.(domain.AddEvent).Params
	want := domain.Params{"color": "#007cff", "opacity": 0.5, "radius": 6, "border": 3, "label": "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("params = %#v, want %#v", got, want)
	}
}

func TestAddPoint_UserIDRoundTrip(t *testing.T) {
	store := memory.NewFeatureStore()
	event, err := run(t, store, "add-point (52.5,13.4) id=p1 color=blue")
	if err != nil {
		t.Fatal(err)
	}
	add := event.(domain.AddEvent)
	if add.ID != "p1" {
		t.Fatalf("id = %s", add.ID)
	}

	f, ok := store.Get("p1")
	if !ok {
		t.Fatal("p1 not stored")
	}
	if f.Kind != add.Kind || !reflect.DeepEqual(f.Coords, add.Coords) || !reflect.DeepEqual(f.Params, add.Params) {
		t.Errorf("stored %+v differs from event %+v", f, add)
	}
}

func TestAddPolylineDefaults(t *testing.T) {
	store := memory.NewFeatureStore()
	event, err := run(t, store, "add-polyline (52.5,13.4);(52.6,13.5)")
	if err != nil {
		t.Fatal(err)
	}
	want := domain.Params{"color": "#007cff", "opacity": 1.0, "width": 2, "markers": 0, "markerBorder": 2}
	if got := event.(domain.AddEvent).Params; !reflect.DeepEqual(got, want) {
		t.Errorf("params = %#v, want %#v", got, want)
	}
}

func TestAddPolygonDefaults(t *testing.T) {
	store := memory.NewFeatureStore()
	event, err := run(t, store, "add-polygon (52.1,13.1);(52.2,13.2);(52.15,13.15) color=green")
	if err != nil {
		t.Fatal(err)
	}
	add := event.(domain.AddEvent)
	want := domain.Params{"color": "green", "opacity": 0.3, "border": 2}
	if !reflect.DeepEqual(add.Params, want) {
		t.Errorf("params = %#v, want %#v", add.Params, want)
	}
	if len(add.Coords) != 3 {
		t.Errorf("expected 3 coords, got %d", len(add.Coords))
	}
}

func TestArity(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
	}{
		{"add-point (1,1)", true},
		{"add-point (1,1);(2,2)", false},
		{"add-point id=x", false},
		{"add-polyline (1,1)", false},
		{"add-polyline (1,1);(2,2)", true},
		{"add-polyline (1,1);(2,2);(3,3);(4,4)", true},
		{"add-polygon (1,1);(2,2)", false},
		{"add-polygon (1,1);(2,2);(3,3)", true},
		{"update-current-position (1,1)", true},
		{"update-current-position (1,1);(2,2)", false},
		{"update-current-position", false},
		{"clear (1,1)", false},
		{"remove (1,1) id=a", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			store := memory.NewFeatureStore()
			_, _ = store.Add(domain.KindPoint, []domain.Coordinate{{}}, nil, "a")
			before := store.Len()

			_, err := run(t, store, tt.line)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, usecases.ErrArityMismatch) {
				t.Fatalf("expected ErrArityMismatch, got %v", err)
			}
			if store.Len() != before {
				t.Error("failed command changed the store")
			}
		})
	}
}

func TestArity_ReasonNamesCounts(t *testing.T) {
	_, err := run(t, memory.NewFeatureStore(), "add-polygon (1,1);(2,2)")
	var ce *usecases.CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CommandError, got %v", err)
	}
	if ce.Command != "add-polygon" || !strings.Contains(ce.Reason, "at least 3") || !strings.Contains(ce.Reason, "got 2") {
		t.Errorf("unexpected failure: %+v", ce)
	}
}

func TestAdd_DuplicateID(t *testing.T) {
	store := memory.NewFeatureStore()
	if _, err := run(t, store, "add-point (52.5,13.4) id=dup"); err != nil {
		t.Fatal(err)
	}
	_, err := run(t, store, "add-polyline (52.6,13.5);(1,1) id=dup")
	if !errors.Is(err, usecases.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 feature, got %d", store.Len())
	}
	if f, _ := store.Get("dup"); f.Kind != domain.KindPoint {
		t.Error("original feature replaced")
	}
}

func TestAdd_InvalidParameter(t *testing.T) {
	for _, line := range []string{
		"add-point (1,1) opacity=abc",
		"add-point (1,1) radius=2.5",
		"add-point (1,1) border=",
		"add-polyline (1,1);(2,2) width=wide",
		"add-polyline (1,1);(2,2) markers=1e3",
		"add-polyline (1,1);(2,2) markerBorder=x",
		"add-polygon (1,1);(2,2);(3,3) opacity=NaN",
	} {
		t.Run(line, func(t *testing.T) {
			store := memory.NewFeatureStore()
			_, err := run(t, store, line)
			if !errors.Is(err, usecases.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			if store.Len() != 0 {
				t.Error("invalid command inserted a feature")
			}
		})
	}
}

func TestAdd_InvalidParameterNamesField(t *testing.T) {
	_, err := run(t, memory.NewFeatureStore(), "add-point (1,1) radius=big")
	if err == nil || !strings.Contains(err.Error(), "radius") {
		t.Fatalf("expected failure naming radius, got %v", err)
	}
}

func TestAdd_EmptyIDIsGenerated(t *testing.T) {
	store := memory.NewFeatureStore()
	event, err := run(t, store, `add-point (1,1) id=""`)
	if err != nil {
		t.Fatal(err)
	}
	if event.(domain.AddEvent).ID == "" {
		t.Error("expected generated id for empty id parameter")
	}
}

func TestRemove_ByID(t *testing.T) {
	store := memory.NewFeatureStore()
	_, _ = store.Add(domain.KindPoint, []domain.Coordinate{{Lat: 52.5, Lng: 13.4}}, nil, "to-remove")

	event, err := run(t, store, "remove id=to-remove")
	if err != nil {
		t.Fatal(err)
	}
	if event != (domain.RemoveEvent{ID: "to-remove"}) {
		t.Errorf("event = %#v", event)
	}
	if store.Len() != 0 {
		t.Error("feature not removed")
	}
}

func TestRemove_NotFound(t *testing.T) {
	store := memory.NewFeatureStore()
	for _, line := range []string{"remove id=nonexistent", "remove tag=nothing"} {
		if _, err := run(t, store, line); !errors.Is(err, usecases.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", line, err)
		}
	}
}

func TestRemove_AmbiguousTarget(t *testing.T) {
	store := memory.NewFeatureStore()
	_, _ = store.Add(domain.KindPoint, []domain.Coordinate{{}}, domain.Params{"tag": "t"}, "a")

	for _, line := range []string{"remove", "remove id=a tag=t", "remove color=red", `remove id="" tag=""`} {
		if _, err := run(t, store, line); !errors.Is(err, usecases.ErrAmbiguousTarget) {
			t.Errorf("%s: expected ErrAmbiguousTarget, got %v", line, err)
		}
	}
	if store.Len() != 1 {
		t.Error("ambiguous remove mutated the store")
	}
}

func TestRemove_ByTag(t *testing.T) {
	store := memory.NewFeatureStore()
	a, _ := run(t, store, "add-point (1,1) tag=traffic")
	_, _ = run(t, store, "add-point (2,2) id=keep")
	b, _ := run(t, store, "add-polyline (1,1);(2,2) tag=traffic")

	event, err := run(t, store, "remove tag=traffic")
	if err != nil {
		t.Fatal(err)
	}
	got := event.(domain.RemoveByTagEvent)
	want := []string{a.(domain.AddEvent).ID, b.(domain.AddEvent).ID}
	if got.Tag != "traffic" || !reflect.DeepEqual(got.IDs, want) {
		t.Errorf("event = %#v, want ids %v", got, want)
	}
	if _, ok := store.Get("keep"); !ok || store.Len() != 1 {
		t.Error("untagged feature affected")
	}
}

func TestClear(t *testing.T) {
	store := memory.NewFeatureStore()
	event, err := run(t, store, "clear")
	if err != nil {
		t.Fatal(err)
	}
	if ids := event.(domain.ClearEvent).IDs; ids == nil || len(ids) != 0 {
		t.Errorf("clear on empty store ids = %#v", ids)
	}

	first, _ := run(t, store, "add-point (52.5,13.4)")
	second, _ := run(t, store, "add-polyline (52.5,13.4);(52.6,13.5)")
	event, err = run(t, store, "clear")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{first.(domain.AddEvent).ID, second.(domain.AddEvent).ID}
	if got := event.(domain.ClearEvent).IDs; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if store.Len() != 0 {
		t.Error("store not empty")
	}
}

func TestUpdateCurrentPosition(t *testing.T) {
	store := memory.NewFeatureStore()
	event, err := run(t, store, "update-current-position (52.5,13.4) heading=90")
	if err != nil {
		t.Fatal(err)
	}
	got := event.(domain.UpdateCursorEvent)
	if got.Coord != (domain.Coordinate{Lat: 52.5, Lng: 13.4}) {
		t.Errorf("coord = %v", got.Coord)
	}
	if !reflect.DeepEqual(got.Params, map[string]string{"heading": "90"}) {
		t.Errorf("params = %v", got.Params)
	}
	if store.Len() != 0 || store.Version() != 0 {
		t.Error("cursor update touched the store")
	}
}

func TestFailureKind(t *testing.T) {
	_, parseErr := command.Parse("add-point (100,0)")
	tests := []struct {
		err  error
		want string
	}{
		{parseErr, "invalid_coordinate"},
		{&usecases.CommandError{Command: "x", Kind: usecases.ErrUnknownCommand}, "unknown_command"},
		{&usecases.CommandError{Command: "x", Kind: usecases.ErrDuplicateID}, "duplicate_id"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := usecases.FailureKind(tt.err); got != tt.want {
			t.Errorf("FailureKind(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
	if got := usecases.FailureCommand(parseErr); got != "add-point" {
		t.Errorf("FailureCommand = %q", got)
	}
}

func TestHelpTextMentionsEveryCommand(t *testing.T) {
	for _, h := range usecases.DefaultHandlers() {
		if !strings.Contains(usecases.HelpText, h.Name()) {
			t.Errorf("help text does not document %s", h.Name())
		}
	}
}
