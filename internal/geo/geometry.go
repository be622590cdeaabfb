// Package geo holds the pure polygon math the zone stores rely on:
// vertex-count and self-intersection validation, strict point-in-polygon
// containment, and the GeoJSON wire form of persisted polygons.
package geo

import "fmt"

const (
	MinVertices = 3
	MaxVertices = 6
)

// Point is a WGS84 coordinate. JSON and all service boundaries use
// (lat, lng) order; only the persisted GeoJSON form is [lng, lat].
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Polygon is an ordered vertex sequence forming a single implicitly
// closed ring. The closing vertex is never stored in memory.
type Polygon []Point

// ValidationError reports why a polygon was rejected. Vertex is the
// offending vertex index, or -1 when no single vertex is to blame.
type ValidationError struct {
	Vertex int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Vertex >= 0 {
		return fmt.Sprintf("invalid polygon at vertex %d: %s", e.Vertex, e.Reason)
	}
	return fmt.Sprintf("invalid polygon: %s", e.Reason)
}

// Validate rejects polygons with fewer than MinVertices or more than
// MaxVertices vertices, and polygons whose non-adjacent edges intersect.
// Coincident vertices are not deduplicated; callers get the coordinates
// exactly as drawn.
func Validate(p Polygon) error {
	if len(p) < MinVertices {
		return &ValidationError{Vertex: -1, Reason: fmt.Sprintf("needs at least %d vertices, got %d", MinVertices, len(p))}
	}
	if len(p) > MaxVertices {
		return &ValidationError{Vertex: -1, Reason: fmt.Sprintf("allows at most %d vertices, got %d", MaxVertices, len(p))}
	}

	n := len(p)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if edgesAdjacent(i, j, n) {
				continue
			}
			a1, a2 := p[i], p[(i+1)%n]
			b1, b2 := p[j], p[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return &ValidationError{Vertex: i, Reason: fmt.Sprintf("edge %d-%d crosses edge %d-%d", i, (i+1)%n, j, (j+1)%n)}
			}
		}
	}

	return nil
}

// Contains reports whether pt lies strictly inside the polygon.
// Boundary points count as outside, so cells on a shared edge between
// two areas never pass containment for either of them.
func Contains(pt Point, p Polygon) bool {
	n := len(p)
	if n < MinVertices {
		return false
	}

	for i := 0; i < n; i++ {
		if onSegment(p[i], p[(i+1)%n], pt) {
			return false
		}
	}

	// Ray casting on the (lng, lat) plane.
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := p[i], p[j]
		if (vi.Lat > pt.Lat) != (vj.Lat > pt.Lat) {
			x := (vj.Lng-vi.Lng)*(pt.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lng
			if pt.Lng < x {
				inside = !inside
			}
		}
	}
	return inside
}

// edgesAdjacent reports whether edges starting at vertices i and j
// (i < j) share an endpoint in a ring of n vertices.
func edgesAdjacent(i, j, n int) bool {
	return j == i+1 || (i == 0 && j == n-1)
}

func cross(o, a, b Point) float64 {
	return (a.Lng-o.Lng)*(b.Lat-o.Lat) - (a.Lat-o.Lat)*(b.Lng-o.Lng)
}

// onSegment reports whether pt lies on the closed segment a-b.
func onSegment(a, b, pt Point) bool {
	if cross(a, b, pt) != 0 {
		return false
	}
	return min(a.Lng, b.Lng) <= pt.Lng && pt.Lng <= max(a.Lng, b.Lng) &&
		min(a.Lat, b.Lat) <= pt.Lat && pt.Lat <= max(a.Lat, b.Lat)
}

func segmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	if d1 == 0 && onSegment(q1, q2, p1) {
		return true
	}
	if d2 == 0 && onSegment(q1, q2, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, q2) {
		return true
	}
	return false
}
