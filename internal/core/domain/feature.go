package domain

import (
	"errors"
	"maps"
	"slices"
)

// FeatureKind is the geometry of a stored feature.
type FeatureKind string

const (
	KindPoint    FeatureKind = "point"
	KindPolyline FeatureKind = "polyline"
	KindPolygon  FeatureKind = "polygon"
)

// TagParam is the reserved parameter used for bulk removal.
const TagParam = "tag"

// ErrDuplicateID is returned when a requested feature id is already in use.
var ErrDuplicateID = errors.New("duplicate feature id")

// Params holds resolved display parameters. Values are strings, float64 or int.
type Params map[string]any

// Feature is a stored geometric object with its display parameters.
type Feature struct {
	ID     string       `json:"id"`
	Kind   FeatureKind  `json:"type"`
	Coords []Coordinate `json:"coords"`
	Params Params       `json:"params"`
}

// Tag returns the feature's tag parameter, if it has a string one.
func (f Feature) Tag() (string, bool) {
	tag, ok := f.Params[TagParam].(string)
	return tag, ok
}

// Clone returns a deep copy that shares no memory with f.
func (f Feature) Clone() Feature {
	f.Coords = slices.Clone(f.Coords)
	f.Params = maps.Clone(f.Params)
	return f
}
