package usecases

import (
	"errors"
	"maps"

	"github.com/samirrijal/mapcat/internal/core/domain"
	"github.com/samirrijal/mapcat/internal/core/ports"
)

// Handler executes one kind of command against the store. Handlers validate
// everything before mutating, so a failure never leaves a partial change.
type Handler interface {
	Name() string
	Handle(store ports.FeatureStore, cmd domain.ParsedCommand) (domain.Event, error)
}

// Command names.
const (
	CmdAddPoint              = "add-point"
	CmdAddPolyline           = "add-polyline"
	CmdAddPolygon            = "add-polygon"
	CmdRemove                = "remove"
	CmdClear                 = "clear"
	CmdUpdateCurrentPosition = "update-current-position"
	CmdHelp                  = "help"
)

// DefaultHandlers returns the fixed command set.
func DefaultHandlers() []Handler {
	return []Handler{
		addFeatureHandler{name: CmdAddPoint, kind: domain.KindPoint, arity: exactly(1), defaults: pointDefaults},
		addFeatureHandler{name: CmdAddPolyline, kind: domain.KindPolyline, arity: atLeast(2), defaults: polylineDefaults},
		addFeatureHandler{name: CmdAddPolygon, kind: domain.KindPolygon, arity: atLeast(3), defaults: polygonDefaults},
		removeHandler{},
		clearHandler{},
		updateCursorHandler{},
	}
}

// arity bounds a coordinate count; max < 0 means unbounded.
type arity struct {
	min, max int
}

func exactly(n int) arity { return arity{min: n, max: n} }
func atLeast(n int) arity { return arity{min: n, max: -1} }

func (a arity) check(cmd domain.ParsedCommand) error {
	n := len(cmd.Coords)
	switch {
	case a.max >= 0 && a.min == a.max && n != a.min:
		return newCommandError(cmd.Name, ErrArityMismatch, "%s requires exactly %d %s, got %d", cmd.Name, a.min, plural(a.min), n)
	case n < a.min:
		return newCommandError(cmd.Name, ErrArityMismatch, "%s requires at least %d %s, got %d", cmd.Name, a.min, plural(a.min), n)
	case a.max >= 0 && n > a.max:
		return newCommandError(cmd.Name, ErrArityMismatch, "%s accepts at most %d %s, got %d", cmd.Name, a.max, plural(a.max), n)
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "coordinate"
	}
	return "coordinates"
}

// addFeatureHandler serves add-point, add-polyline and add-polygon.
type addFeatureHandler struct {
	name     string
	kind     domain.FeatureKind
	arity    arity
	defaults []paramDefault
}

func (h addFeatureHandler) Name() string { return h.name }

func (h addFeatureHandler) Handle(store ports.FeatureStore, cmd domain.ParsedCommand) (domain.Event, error) {
	if err := h.arity.check(cmd); err != nil {
		return nil, err
	}

	params, err := resolveParams(cmd.Name, cmd.Params, h.defaults)
	if err != nil {
		return nil, err
	}

	requested, _ := cmd.Param("id")
	id, err := store.Add(h.kind, cmd.Coords, params, requested)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			return nil, newCommandError(cmd.Name, ErrDuplicateID, "feature id '%s' already exists", requested)
		}
		return nil, err
	}

	return domain.AddEvent{
		ID:     id,
		Kind:   h.kind,
		Coords: append([]domain.Coordinate(nil), cmd.Coords...),
		Params: params,
	}, nil
}

type removeHandler struct{}

func (removeHandler) Name() string { return CmdRemove }

func (removeHandler) Handle(store ports.FeatureStore, cmd domain.ParsedCommand) (domain.Event, error) {
	if err := exactly(0).check(cmd); err != nil {
		return nil, err
	}

	id, hasID := cmd.Param("id")
	tag, hasTag := cmd.Param(domain.TagParam)
	switch {
	case !hasID && !hasTag:
		return nil, newCommandError(cmd.Name, ErrAmbiguousTarget, "remove requires either id or tag parameter")
	case hasID && hasTag:
		return nil, newCommandError(cmd.Name, ErrAmbiguousTarget, "remove accepts either id or tag, not both")
	}

	if hasID {
		if !store.Remove(id) {
			return nil, newCommandError(cmd.Name, ErrNotFound, "feature with id '%s' not found", id)
		}
		return domain.RemoveEvent{ID: id}, nil
	}

	ids := store.RemoveByTag(tag)
	if len(ids) == 0 {
		return nil, newCommandError(cmd.Name, ErrNotFound, "no features found with tag '%s'", tag)
	}
	return domain.RemoveByTagEvent{Tag: tag, IDs: ids}, nil
}

type clearHandler struct{}

func (clearHandler) Name() string { return CmdClear }

func (clearHandler) Handle(store ports.FeatureStore, cmd domain.ParsedCommand) (domain.Event, error) {
	if err := exactly(0).check(cmd); err != nil {
		return nil, err
	}
	return domain.ClearEvent{IDs: store.Clear()}, nil
}

// updateCursorHandler never touches the store.
type updateCursorHandler struct{}

func (updateCursorHandler) Name() string { return CmdUpdateCurrentPosition }

func (updateCursorHandler) Handle(_ ports.FeatureStore, cmd domain.ParsedCommand) (domain.Event, error) {
	if err := exactly(1).check(cmd); err != nil {
		return nil, err
	}
	return domain.UpdateCursorEvent{Coord: cmd.Coords[0], Params: maps.Clone(cmd.Params)}, nil
}
