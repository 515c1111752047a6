package geometry

import (
	"math"

	pkgerrors "github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/errors"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/types"
)

// eps guards strict sign tests against float noise at degree scale.
const eps = 1e-12

// ValidateRing closes the ring if needed and rejects degenerate geometry.
// A usable ring has at least 3 distinct vertices after closing.
func ValidateRing(ring types.Ring) (types.Ring, error) {
	closed := ring.Closed()
	if closed.DistinctPoints() < 3 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidGeometry, "ring needs at least 3 distinct points")
	}
	for _, c := range closed {
		if !c.Valid() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidGeometry, "coordinate out of geographic range")
		}
	}
	return closed, nil
}

// BoundingBox returns minLon, minLat, maxLon, maxLat.
func BoundingBox(ring types.Ring) [4]float64 {
	box := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, c := range ring {
		box[0] = math.Min(box[0], c.Longitude)
		box[1] = math.Min(box[1], c.Latitude)
		box[2] = math.Max(box[2], c.Longitude)
		box[3] = math.Max(box[3], c.Latitude)
	}
	return box
}

func boxContains(box [4]float64, pt types.Coordinate) bool {
	return pt.Longitude >= box[0] && pt.Longitude <= box[2] &&
		pt.Latitude >= box[1] && pt.Latitude <= box[3]
}

func boxesIntersect(a, b [4]float64) bool {
	return a[0] <= b[2] && b[0] <= a[2] && a[1] <= b[3] && b[1] <= a[3]
}

// PointInRing reports whether the point lies inside the closed ring using an
// even-odd ray cast. A point exactly on a boundary edge counts as contained;
// the on-segment test runs first so the result is deterministic for identical
// inputs regardless of ray direction.
func PointInRing(pt types.Coordinate, ring types.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	if !boxContains(BoundingBox(ring), pt) {
		return false
	}

	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if onSegment(pt, ring[j], ring[i]) {
			return true
		}
	}

	inside := false
	x, y := pt.Longitude, pt.Latitude
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Longitude, ring[i].Latitude
		xj, yj := ring[j].Longitude, ring[j].Latitude
		intersect := ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi)+xi)
		if intersect {
			inside = !inside
		}
	}
	return inside
}

// strictlyInside is PointInRing minus the boundary.
func strictlyInside(pt types.Coordinate, ring types.Ring) bool {
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if onSegment(pt, ring[j], ring[i]) {
			return false
		}
	}
	return PointInRing(pt, ring)
}

func onSegment(pt, a, b types.Coordinate) bool {
	cross := (b.Longitude-a.Longitude)*(pt.Latitude-a.Latitude) -
		(b.Latitude-a.Latitude)*(pt.Longitude-a.Longitude)
	if math.Abs(cross) > eps {
		return false
	}
	return pt.Longitude >= math.Min(a.Longitude, b.Longitude)-eps &&
		pt.Longitude <= math.Max(a.Longitude, b.Longitude)+eps &&
		pt.Latitude >= math.Min(a.Latitude, b.Latitude)-eps &&
		pt.Latitude <= math.Max(a.Latitude, b.Latitude)+eps
}

// Area returns the planar (shoelace) area of the ring in squared degrees.
func Area(ring types.Ring) float64 {
	return math.Abs(signedArea(ring))
}

func signedArea(ring types.Ring) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		sum += ring[j].Longitude*ring[i].Latitude - ring[i].Longitude*ring[j].Latitude
	}
	return sum / 2
}

// Centroid returns the vertex centroid of the ring (closing duplicate excluded).
func Centroid(ring types.Ring) types.Coordinate {
	pts := ring
	if ring.IsClosed() && len(ring) > 1 {
		pts = ring[:len(ring)-1]
	}
	var lon, lat float64
	for _, c := range pts {
		lon += c.Longitude
		lat += c.Latitude
	}
	n := float64(len(pts))
	if n == 0 {
		return types.Coordinate{}
	}
	return types.Coordinate{Longitude: lon / n, Latitude: lat / n}
}

// RingsOverlap reports whether the interiors of the two rings intersect with
// positive area. Shared boundary alone is not an overlap: edge tests require a
// proper crossing and containment probes are strict (boundary excluded).
func RingsOverlap(a, b types.Ring) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	if !boxesIntersect(BoundingBox(a), BoundingBox(b)) {
		return false
	}

	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			if properCrossing(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}

	for _, pt := range a {
		if strictlyInside(pt, b) {
			return true
		}
	}
	for _, pt := range b {
		if strictlyInside(pt, a) {
			return true
		}
	}

	// Identical or fully nested rings can share every vertex with the other
	// ring's boundary; test an interior point of each.
	if ca := Centroid(a); strictlyInside(ca, a) && strictlyInside(ca, b) {
		return true
	}
	if cb := Centroid(b); strictlyInside(cb, b) && strictlyInside(cb, a) {
		return true
	}
	return false
}

func properCrossing(p1, p2, p3, p4 types.Coordinate) bool {
	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)
	return ((d1 > eps && d2 < -eps) || (d1 < -eps && d2 > eps)) &&
		((d3 > eps && d4 < -eps) || (d3 < -eps && d4 > eps))
}

func direction(a, b, c types.Coordinate) float64 {
	return (b.Longitude-a.Longitude)*(c.Latitude-a.Latitude) -
		(b.Latitude-a.Latitude)*(c.Longitude-a.Longitude)
}

// OverlapArea approximates the planar area (squared degrees) of the
// intersection of the two ring interiors. The value is a relative signal, not
// a geodesic area: each ring is clipped against the other's edges
// (Sutherland-Hodgman) and the two clip areas are averaged, which is exact for
// convex rings and symmetric in its arguments by construction. Returns 0 when
// the rings are disjoint or touch only at the boundary.
func OverlapArea(a, b types.Ring) float64 {
	if !RingsOverlap(a, b) {
		return 0
	}
	area := (clipArea(a, b) + clipArea(b, a)) / 2
	if area < eps {
		return 0
	}
	return area
}

func clipArea(subject, clip types.Ring) float64 {
	clipped := clipRing(subject, counterClockwise(clip))
	return Area(clipped)
}

func counterClockwise(ring types.Ring) types.Ring {
	if signedArea(ring) >= 0 {
		return ring
	}
	out := make(types.Ring, len(ring))
	for i, c := range ring {
		out[len(ring)-1-i] = c
	}
	return out
}

// clipRing clips the subject ring against each edge of the (counterclockwise)
// clip ring.
func clipRing(subject, clip types.Ring) types.Ring {
	output := openRing(subject)
	cl := openRing(clip)

	for i := 0; i < len(cl) && len(output) > 0; i++ {
		edgeA := cl[i]
		edgeB := cl[(i+1)%len(cl)]

		input := output
		output = nil
		for j := 0; j < len(input); j++ {
			current := input[j]
			previous := input[(j+len(input)-1)%len(input)]

			curIn := direction(edgeA, edgeB, current) >= -eps
			prevIn := direction(edgeA, edgeB, previous) >= -eps

			switch {
			case curIn && prevIn:
				output = append(output, current)
			case curIn && !prevIn:
				output = append(output, lineIntersection(previous, current, edgeA, edgeB), current)
			case !curIn && prevIn:
				output = append(output, lineIntersection(previous, current, edgeA, edgeB))
			}
		}
	}
	return output
}

func openRing(ring types.Ring) types.Ring {
	if ring.IsClosed() && len(ring) > 1 {
		return ring[:len(ring)-1]
	}
	return ring
}

func lineIntersection(a, b, c, d types.Coordinate) types.Coordinate {
	a1 := b.Latitude - a.Latitude
	b1 := a.Longitude - b.Longitude
	c1 := a1*a.Longitude + b1*a.Latitude

	a2 := d.Latitude - c.Latitude
	b2 := c.Longitude - d.Longitude
	c2 := a2*c.Longitude + b2*c.Latitude

	det := a1*b2 - a2*b1
	if math.Abs(det) < eps {
		return b
	}
	return types.Coordinate{
		Longitude: (b2*c1 - b1*c2) / det,
		Latitude:  (a1*c2 - a2*c1) / det,
	}
}
