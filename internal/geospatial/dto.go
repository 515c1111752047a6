package geospatial

import (
	"github.com/google/uuid"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

// Containment names one current polygon that contains a queried point.
type Containment struct {
	StoreID       uuid.UUID         `json:"store_id"`
	PolygonType   enums.PolygonType `json:"polygon_type"`
	VersionID     uuid.UUID         `json:"version_id"`
	VersionNumber int               `json:"version_number"`
}

// PointCheckResult answers one containment query: the echoed coordinate,
// whether anything contains it, and the matching polygons.
type PointCheckResult struct {
	Coordinate types.Coordinate `json:"coordinate"`
	Contained  bool             `json:"contained"`
	Matches    []Containment    `json:"matches"`
}

// BulkPointCheckResult aggregates per-point answers in input order.
type BulkPointCheckResult struct {
	Results        []PointCheckResult `json:"results"`
	TotalChecked   int                `json:"total_checked"`
	TotalContained int                `json:"total_contained"`
}

// Overlap reports one unordered pair of current polygons whose interiors
// intersect.
type Overlap struct {
	StoreA       uuid.UUID         `json:"store_a"`
	PolygonTypeA enums.PolygonType `json:"polygon_type_a"`
	VersionA     uuid.UUID         `json:"version_a"`
	StoreB       uuid.UUID         `json:"store_b"`
	PolygonTypeB enums.PolygonType `json:"polygon_type_b"`
	VersionB     uuid.UUID         `json:"version_b"`
	// Planar overlap area in squared degrees; a relative signal only.
	Area float64 `json:"area"`
}

// StoreMatch is the single store chosen to serve a point.
type StoreMatch struct {
	StoreID       uuid.UUID         `json:"store_id"`
	StoreName     string            `json:"store_name"`
	StoreCode     *string           `json:"store_code,omitempty"`
	PolygonType   enums.PolygonType `json:"polygon_type"`
	VersionID     uuid.UUID         `json:"version_id"`
	VersionNumber int               `json:"version_number"`
}
