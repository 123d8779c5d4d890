package shape

import "markcanvas/pkg/geometry"

// polygon points are the vertex ring, closed implicitly.
type polygon struct{ handles }

func (polygon) Kind() Kind         { return Polygon }
func (polygon) Gesture() Gesture   { return GestureClick }
func (polygon) MinPointCount() int { return 3 }

func (polygon) Contains(points []geometry.Point2D, p geometry.Point2D, _ float64) bool {
	return geometry.PointInPolygon(p, points)
}

// CompletionValid requires a simple ring enclosing non-zero area;
// self-intersecting rings are rejected.
func (polygon) CompletionValid(points []geometry.Point2D, _ Thresholds) bool {
	return geometry.IsSimpleRing(points)
}

// ClosesRing reports whether p is close enough to the first vertex to close
// a ring of at least three vertices.
func ClosesRing(vertices []geometry.Point2D, p geometry.Point2D, radius float64) bool {
	if len(vertices) < 3 {
		return false
	}
	return p.Distance(vertices[0]) <= radius
}
