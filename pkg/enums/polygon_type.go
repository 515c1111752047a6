package enums

import "fmt"

// PolygonType describes the allowed values for the `polygon_type` column in polygon_versions.
type PolygonType string

const (
	// PolygonTypeDedicated is a store's exclusive service area.
	PolygonTypeDedicated PolygonType = "dedicated"
	// PolygonTypeDelivery is a store's broader delivery coverage area.
	PolygonTypeDelivery PolygonType = "delivery"
)

var validPolygonTypes = []PolygonType{
	PolygonTypeDedicated,
	PolygonTypeDelivery,
}

// IsValid reports whether the value matches the canonical polygon type enum.
func (p PolygonType) IsValid() bool {
	for _, candidate := range validPolygonTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePolygonType converts the raw string to PolygonType.
func ParsePolygonType(value string) (PolygonType, error) {
	for _, candidate := range validPolygonTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid polygon type %q", value)
}
