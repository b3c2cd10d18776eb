package domain

import "encoding/json"

// Action names the outward event variants as they appear on the wire.
type Action string

const (
	ActionAdd          Action = "add"
	ActionRemove       Action = "remove"
	ActionRemoveByTag  Action = "remove-by-tag"
	ActionClear        Action = "clear"
	ActionUpdateCursor Action = "update-current-position"
)

// Event is the canonical message emitted after a successful command.
// Implementations are AddEvent, RemoveEvent, RemoveByTagEvent, ClearEvent
// and UpdateCursorEvent.
type Event interface {
	Action() Action
	// FeatureIDs lists the feature ids the event touches.
	FeatureIDs() []string
}

// AddEvent announces a newly stored feature.
type AddEvent struct {
	ID     string
	Kind   FeatureKind
	Coords []Coordinate
	Params Params
}

// NewAddEvent builds the Add event that replays f to a subscriber.
func NewAddEvent(f Feature) AddEvent {
	f = f.Clone()
	return AddEvent{ID: f.ID, Kind: f.Kind, Coords: f.Coords, Params: f.Params}
}

func (AddEvent) Action() Action         { return ActionAdd }
func (e AddEvent) FeatureIDs() []string { return []string{e.ID} }

func (e AddEvent) MarshalJSON() ([]byte, error) {
	// Points carry a single [lat,lng]; lines and polygons a list of them.
	var coords any = nonNilCoords(e.Coords)
	if e.Kind == KindPoint && len(e.Coords) == 1 {
		coords = e.Coords[0]
	}
	params := e.Params
	if params == nil {
		params = Params{}
	}
	return json.Marshal(struct {
		Action Action      `json:"action"`
		ID     string      `json:"id"`
		Type   FeatureKind `json:"type"`
		Coords any         `json:"coords"`
		Params Params      `json:"params"`
	}{ActionAdd, e.ID, e.Kind, coords, params})
}

// RemoveEvent announces removal of a single feature.
type RemoveEvent struct {
	ID string
}

func (RemoveEvent) Action() Action         { return ActionRemove }
func (e RemoveEvent) FeatureIDs() []string { return []string{e.ID} }

func (e RemoveEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action Action `json:"action"`
		ID     string `json:"id"`
	}{ActionRemove, e.ID})
}

// RemoveByTagEvent announces removal of every feature carrying Tag.
type RemoveByTagEvent struct {
	Tag string
	IDs []string
}

func (RemoveByTagEvent) Action() Action         { return ActionRemoveByTag }
func (e RemoveByTagEvent) FeatureIDs() []string { return e.IDs }

func (e RemoveByTagEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action Action   `json:"action"`
		Tag    string   `json:"tag"`
		IDs    []string `json:"ids"`
	}{ActionRemoveByTag, e.Tag, nonNilIDs(e.IDs)})
}

// ClearEvent announces removal of everything; IDs were present before.
type ClearEvent struct {
	IDs []string
}

func (ClearEvent) Action() Action         { return ActionClear }
func (e ClearEvent) FeatureIDs() []string { return e.IDs }

func (e ClearEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action Action   `json:"action"`
		IDs    []string `json:"ids"`
	}{ActionClear, nonNilIDs(e.IDs)})
}

// UpdateCursorEvent moves the current position marker. It is never stored.
type UpdateCursorEvent struct {
	Coord  Coordinate
	Params map[string]string
}

func (UpdateCursorEvent) Action() Action       { return ActionUpdateCursor }
func (UpdateCursorEvent) FeatureIDs() []string { return nil }

func (e UpdateCursorEvent) MarshalJSON() ([]byte, error) {
	params := e.Params
	if params == nil {
		params = map[string]string{}
	}
	return json.Marshal(struct {
		Action Action            `json:"action"`
		Coords Coordinate        `json:"coords"`
		Params map[string]string `json:"params"`
	}{ActionUpdateCursor, e.Coord, params})
}

func nonNilIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func nonNilCoords(c []Coordinate) []Coordinate {
	if c == nil {
		return []Coordinate{}
	}
	return c
}
