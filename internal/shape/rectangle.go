package shape

import "markcanvas/pkg/geometry"

// rectangle points are two opposite corners.
type rectangle struct{ handles }

func (rectangle) Kind() Kind         { return Rectangle }
func (rectangle) Gesture() Gesture   { return GestureDrag }
func (rectangle) MinPointCount() int { return 2 }

func (rectangle) Contains(points []geometry.Point2D, p geometry.Point2D, _ float64) bool {
	if len(points) < 2 {
		return false
	}
	return geometry.RectFromCorners(points[0], points[1]).Contains(p)
}

// CompletionValid needs two corners; a press released in place yields two
// coincident corners, which do not count.
func (rectangle) CompletionValid(points []geometry.Point2D, _ Thresholds) bool {
	return len(points) >= 2 && points[0] != points[1]
}
