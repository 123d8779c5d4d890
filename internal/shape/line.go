package shape

import "markcanvas/pkg/geometry"

// line points are the two endpoints.
type line struct{ handles }

func (line) Kind() Kind         { return Line }
func (line) Gesture() Gesture   { return GestureDrag }
func (line) MinPointCount() int { return 2 }

func (line) Contains(points []geometry.Point2D, p geometry.Point2D, expand float64) bool {
	if len(points) < 2 {
		return false
	}
	return geometry.SegmentDistance(p, points[0], points[1]) <= expand
}

func (line) CompletionValid(points []geometry.Point2D, th Thresholds) bool {
	if len(points) < 2 {
		return false
	}
	return points[0].Distance(points[1]) >= th.LineMinLength
}
