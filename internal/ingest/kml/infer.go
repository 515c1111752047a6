package kml

import (
	"strings"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/enums"
)

// Keyword stems, checked against the lowercased placemark name. Exports come
// from both English- and Greek-speaking operators.
var (
	deliveryKeywords  = []string{"delivery", "del ", "παραγγελ"}
	dedicatedKeywords = []string{"dedicated", "ded ", "αφοσιωμ"}
)

// InferPolygonType classifies a placemark by its name. Delivery keywords are
// checked first, so a label carrying both kinds reads as delivery. Names
// matching no keyword default to delivery, the far more common polygon kind
// in exports.
func InferPolygonType(name string) enums.PolygonType {
	lower := strings.ToLower(name)
	for _, kw := range deliveryKeywords {
		if strings.Contains(lower, kw) {
			return enums.PolygonTypeDelivery
		}
	}
	for _, kw := range dedicatedKeywords {
		if strings.Contains(lower, kw) {
			return enums.PolygonTypeDedicated
		}
	}
	return enums.PolygonTypeDelivery
}
