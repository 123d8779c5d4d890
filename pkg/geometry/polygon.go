package geometry

import (
	"math"

	"github.com/peterstace/simplefeatures/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// PointInPolygon tests if a point is inside a polygon using ray casting
// (even-odd rule). The ring is closed implicitly.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// PolygonArea returns the unsigned shoelace area of an implicitly closed ring.
func PolygonArea(polygon []Point2D) float64 {
	if len(polygon) < 3 {
		return 0
	}

	origin := polygon[0]
	var sum float64
	for i := 1; i < len(polygon)-1; i++ {
		sum += crossProduct(origin, polygon[i], polygon[i+1])
	}
	return math.Abs(sum) / 2
}

// IsSimpleRing reports whether the vertices form a valid simple ring: at
// least three distinct vertices, no self-intersection and a non-zero area.
func IsSimpleRing(polygon []Point2D) bool {
	if len(polygon) < 3 || PolygonArea(polygon) == 0 {
		return false
	}

	coords := make([]float64, 0, 2*(len(polygon)+1))
	for _, p := range polygon {
		coords = append(coords, p.X, p.Y)
	}
	coords = append(coords, polygon[0].X, polygon[0].Y)

	ring, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	if err != nil {
		return false
	}
	if !ring.IsRing() {
		return false
	}

	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return false
	}
	return poly.Area() > 0
}

// SegmentDistance returns the shortest distance from p to the segment a-b.
func SegmentDistance(p, a, b Point2D) float64 {
	ab := r2.Sub(b.Vec(), a.Vec())
	ap := r2.Sub(p.Vec(), a.Vec())

	lenSq := r2.Norm2(ab)
	if lenSq == 0 {
		return r2.Norm(ap)
	}

	t := r2.Dot(ap, ab) / lenSq
	t = math.Max(0, math.Min(1, t))

	closest := r2.Add(a.Vec(), r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p.Vec(), closest))
}

// NearestIndex returns the index of the point closest to p, provided it lies
// within maxDist. It returns -1 when no point qualifies.
func NearestIndex(points []Point2D, p Point2D, maxDist float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, q := range points {
		d := p.Distance(q)
		if d <= maxDist && d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return r2.Cross(r2.Sub(a.Vec(), o.Vec()), r2.Sub(b.Vec(), o.Vec()))
}
