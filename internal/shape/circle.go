package shape

import "markcanvas/pkg/geometry"

// circle points are [center, point on the circumference].
type circle struct{ handles }

func (circle) Kind() Kind         { return Circle }
func (circle) Gesture() Gesture   { return GestureDrag }
func (circle) MinPointCount() int { return 2 }

func (circle) Contains(points []geometry.Point2D, p geometry.Point2D, _ float64) bool {
	if len(points) < 2 {
		return false
	}
	return p.Distance(points[0]) <= Radius(points)
}

func (circle) CompletionValid(points []geometry.Point2D, th Thresholds) bool {
	return len(points) >= 2 && Radius(points) >= th.CircleMinRadius
}

// Radius returns the circle radius encoded by [center, rim].
func Radius(points []geometry.Point2D) float64 {
	if len(points) < 2 {
		return 0
	}
	return points[0].Distance(points[1])
}
