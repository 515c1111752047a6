package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Coordinate is a geographic longitude/latitude pair (WGS84).
type Coordinate struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Valid reports whether the coordinate lies in geographic range.
func (c Coordinate) Valid() bool {
	return c.Longitude >= -180 && c.Longitude <= 180 &&
		c.Latitude >= -90 && c.Latitude <= 90
}

// Ring is a closed ordered sequence of coordinates describing a simple
// polygon boundary. It is persisted as a JSON array of [lon, lat] pairs so
// coordinates round-trip losslessly.
type Ring []Coordinate

// IsClosed reports whether the first and last coordinates are equal.
func (r Ring) IsClosed() bool {
	if len(r) < 2 {
		return false
	}
	return r[0] == r[len(r)-1]
}

// Closed returns the ring with the first coordinate appended when the ring is
// not already closed. The receiver is never mutated.
func (r Ring) Closed() Ring {
	if len(r) == 0 || r.IsClosed() {
		return r
	}
	out := make(Ring, len(r)+1)
	copy(out, r)
	out[len(r)] = r[0]
	return out
}

// DistinctPoints counts unique vertices, ignoring the closing duplicate.
func (r Ring) DistinctPoints() int {
	seen := make(map[Coordinate]struct{}, len(r))
	for _, c := range r {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// MarshalJSON renders the ring as an array of [lon, lat] pairs.
func (r Ring) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(r))
	for i, c := range r {
		pairs[i] = [2]float64{c.Longitude, c.Latitude}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON accepts an array of [lon, lat] pairs.
func (r *Ring) UnmarshalJSON(data []byte) error {
	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("ring: %w", err)
	}
	out := make(Ring, len(pairs))
	for i, p := range pairs {
		out[i] = Coordinate{Longitude: p[0], Latitude: p[1]}
	}
	*r = out
	return nil
}

// Value serializes the ring for storage.
func (r Ring) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, fmt.Errorf("ring: empty geometry")
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("ring: %w", err)
	}
	return string(raw), nil
}

// Scan decodes the stored JSON text.
func (r *Ring) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}

	switch v := value.(type) {
	case string:
		return r.UnmarshalJSON([]byte(v))
	case []byte:
		return r.UnmarshalJSON(v)
	default:
		return fmt.Errorf("ring: unsupported scan type %T", value)
	}
}
