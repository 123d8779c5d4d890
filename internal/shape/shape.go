// Package shape holds the per-kind geometry strategies: point semantics,
// hit-testing, handle resolution and completion validity.
package shape

import (
	"errors"
	"fmt"

	"markcanvas/pkg/geometry"
)

// Kind tags an annotation's shape. The zero value means no shape.
type Kind string

const (
	None      Kind = ""
	Rectangle Kind = "rect"
	Polygon   Kind = "polygon"
	Line      Kind = "line"
	Circle    Kind = "circle"
)

// ErrUnknownKind is returned when parsing an unrecognised kind.
var ErrUnknownKind = errors.New("unknown shape kind")

// Kinds lists every drawable kind.
var Kinds = []Kind{Rectangle, Polygon, Line, Circle}

// String returns the kind's wire name, "none" for None.
func (k Kind) String() string {
	if k == None {
		return "none"
	}
	return string(k)
}

// ParseKind parses a wire name. "none" and "" map to None.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case None, "none":
		return None, nil
	case Rectangle, "rectangle":
		return Rectangle, nil
	case Polygon, Line, Circle:
		return Kind(s), nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Gesture describes how points are entered while drawing.
type Gesture int

const (
	// GestureDrag kinds anchor two points on press, move the second while the
	// button is held and confirm on release.
	GestureDrag Gesture = iota
	// GestureClick kinds append one vertex per press and track a trailing
	// provisional vertex under the pointer.
	GestureClick
)

// Thresholds are the tunable tolerances. HandleRadius and CloseRadius are in
// device pixels and divided by zoom before use; the minimum sizes are in
// image units.
type Thresholds struct {
	HandleRadius    float64
	CloseRadius     float64
	LineMinLength   float64
	CircleMinRadius float64
}

// DefaultThresholds match the stock interaction feel.
var DefaultThresholds = Thresholds{
	HandleRadius:    8,
	CloseRadius:     8,
	LineMinLength:   30,
	CircleMinRadius: 5,
}

// Geometry is the capability set every kind provides. expand is an
// image-space tolerance, normally HandleRadius/zoom.
type Geometry interface {
	Kind() Kind
	Gesture() Gesture
	MinPointCount() int
	Contains(points []geometry.Point2D, p geometry.Point2D, expand float64) bool
	NearestHandle(points []geometry.Point2D, p geometry.Point2D, expand float64) int
	CompletionValid(points []geometry.Point2D, th Thresholds) bool
}

var registry = map[Kind]Geometry{
	Rectangle: rectangle{},
	Polygon:   polygon{},
	Line:      line{},
	Circle:    circle{},
}

// For returns the geometry strategy for a kind.
func For(k Kind) (Geometry, bool) {
	g, ok := registry[k]
	return g, ok
}

// handles is shared nearest-handle resolution.
type handles struct{}

func (handles) NearestHandle(points []geometry.Point2D, p geometry.Point2D, expand float64) int {
	return geometry.NearestIndex(points, p, expand)
}
