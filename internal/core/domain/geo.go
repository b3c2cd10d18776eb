package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Valid WGS 84 ranges, inclusive.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLng = -180.0
	MaxLng = 180.0
)

// Coordinate represents a geographic coordinate (WGS 84).
// On the wire it is a two element array: [lat, lng].
type Coordinate struct {
	Lat float64
	Lng float64
}

// Validate reports whether both components are finite and within range.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("coordinate must be finite, got (%v,%v)", c.Lat, c.Lng)
	}
	if c.Lat < MinLat || c.Lat > MaxLat {
		return fmt.Errorf("latitude out of range: %v", c.Lat)
	}
	if c.Lng < MinLng || c.Lng > MaxLng {
		return fmt.Errorf("longitude out of range: %v", c.Lng)
	}
	return nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g,%g)", c.Lat, c.Lng)
}
