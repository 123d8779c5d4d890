// Package surface defines the rendering contract the annotation engine draws
// into: primitive nodes grouped per owner, and a surface that can add, remove,
// scale and translate them.
package surface

import (
	"image/color"
	"sync"

	"markcanvas/pkg/geometry"
)

// Layer selects the coordinate space a group is drawn in.
type Layer int

const (
	// LayerObjects is drawn in image space and follows the viewport transform.
	LayerObjects Layer = iota
	// LayerGuide is drawn in device space on top of everything else.
	LayerGuide
)

// Style describes how a primitive is stroked and filled. Widths are in the
// coordinate space of the layer.
type Style struct {
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
	// Dash holds {dash, period} for dashed strokes; zero means solid.
	Dash [2]float64
}

// Node is a visual primitive.
type Node interface {
	node()
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, Width, Height float64
	Style
}

// Ellipse is an axis-aligned ellipse described by its bounding box.
type Ellipse struct {
	X, Y, Width, Height float64
	Style
}

// Path is a polyline, closed into a polygon when Closed is set.
type Path struct {
	Points []geometry.Point2D
	Closed bool
	Style
}

// Text is a single line of text anchored at its top-left corner.
type Text struct {
	X, Y   float64
	Value  string
	Size   float64
	Colour color.RGBA
}

func (*Rect) node()    {}
func (*Ellipse) node() {}
func (*Path) node()    {}
func (*Text) node()    {}

// NewRect creates a rectangle node.
func NewRect(x, y, w, h float64, style Style) *Rect {
	return &Rect{X: x, Y: y, Width: w, Height: h, Style: style}
}

// NewEllipse creates an ellipse node centered at c with the given radii.
func NewEllipse(c geometry.Point2D, rx, ry float64, style Style) *Ellipse {
	return &Ellipse{X: c.X - rx, Y: c.Y - ry, Width: 2 * rx, Height: 2 * ry, Style: style}
}

// NewPath creates a path node. The points are copied.
func NewPath(points []geometry.Point2D, closed bool, style Style) *Path {
	pts := make([]geometry.Point2D, len(points))
	copy(pts, points)
	return &Path{Points: pts, Closed: closed, Style: style}
}

// NewText creates a text node.
func NewText(x, y float64, value string, size float64, c color.RGBA) *Text {
	return &Text{X: x, Y: y, Value: value, Size: size, Colour: c}
}

// Group is the unit added to a surface. Its children are replaced wholesale
// on every re-render of its owner; nodes are never mutated once set.
type Group struct {
	Layer Layer

	mu       sync.RWMutex
	children []Node
}

// NewGroup creates an empty group on a layer.
func NewGroup(layer Layer) *Group {
	return &Group{Layer: layer}
}

// Set replaces the group's children.
func (g *Group) Set(nodes ...Node) {
	children := append([]Node(nil), nodes...)
	g.mu.Lock()
	g.children = children
	g.mu.Unlock()
}

// Clear removes every child.
func (g *Group) Clear() {
	g.mu.Lock()
	g.children = nil
	g.mu.Unlock()
}

// Children returns a snapshot of the current children.
func (g *Group) Children() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Node(nil), g.children...)
}

// Surface is the rendering backend the engine draws into.
type Surface interface {
	Add(g *Group)
	Remove(g *Group)
	Scale(x, y float64)
	Translate(x, y float64)
}
