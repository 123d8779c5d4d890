// Package viewport maps device pixels to image space and owns zoom/pan state.
package viewport

import (
	"math"

	"markcanvas/internal/event"
	"markcanvas/pkg/geometry"
)

// Layout is a zoom factor plus a device-space offset of the image origin.
type Layout struct {
	Zoom    float64 `json:"zoom"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Identity is the layout with zoom 1 and no offset.
var Identity = Layout{Zoom: 1}

// ToImage converts a device point to image space: (p - offset) / zoom.
func (l Layout) ToImage(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: (p.X - l.OffsetX) / l.Zoom,
		Y: (p.Y - l.OffsetY) / l.Zoom,
	}
}

// ToDevice converts an image point to device space.
func (l Layout) ToDevice(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: p.X*l.Zoom + l.OffsetX,
		Y: p.Y*l.Zoom + l.OffsetY,
	}
}

// FitToView returns the layout that fits content inside view, centered.
// Empty sizes yield the identity layout.
func FitToView(content, view geometry.Size) Layout {
	if content.Empty() || view.Empty() {
		return Identity
	}
	zoom := math.Min(view.Width/content.Width, view.Height/content.Height)
	return Layout{
		Zoom:    zoom,
		OffsetX: (view.Width - content.Width*zoom) / 2,
		OffsetY: (view.Height - content.Height*zoom) / 2,
	}
}

// Target receives the layer transform whenever the layout changes.
type Target interface {
	Scale(x, y float64)
	Translate(x, y float64)
}

// Options bounds the zoom range and sets the wheel multipliers.
type Options struct {
	ZoomIn  float64
	ZoomOut float64
	MinZoom float64
	MaxZoom float64
}

// DefaultOptions are the multipliers used for wheel zoom.
var DefaultOptions = Options{ZoomIn: 1.1, ZoomOut: 0.9, MinZoom: 0.01, MaxZoom: 100}

// Viewport holds the initial and current layouts. Every change is pushed to
// the target first and then announced on the bus.
type Viewport struct {
	bus    *event.Bus
	target Target
	opts   Options

	initial Layout
	current Layout
}

// New creates a viewport at the identity layout. target may be nil.
func New(bus *event.Bus, target Target, opts Options) *Viewport {
	if opts.ZoomIn <= 0 {
		opts.ZoomIn = DefaultOptions.ZoomIn
	}
	if opts.ZoomOut <= 0 {
		opts.ZoomOut = DefaultOptions.ZoomOut
	}
	return &Viewport{
		bus:     bus,
		target:  target,
		opts:    opts,
		initial: Identity,
		current: Identity,
	}
}

// Current returns the live layout.
func (v *Viewport) Current() Layout { return v.current }

// Initial returns the baseline layout from the last fit.
func (v *Viewport) Initial() Layout { return v.initial }

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 { return v.current.Zoom }

// ToImage converts a device point using the current layout.
func (v *Viewport) ToImage(p geometry.Point2D) geometry.Point2D {
	return v.current.ToImage(p)
}

// ToDevice converts an image point using the current layout.
func (v *Viewport) ToDevice(p geometry.Point2D) geometry.Point2D {
	return v.current.ToDevice(p)
}

// SetZoom updates the zoom and emits onzoom. Non-positive values are ignored.
func (v *Viewport) SetZoom(z float64) {
	if z <= 0 || math.IsNaN(z) || math.IsInf(z, 0) {
		return
	}
	v.current.Zoom = z
	if v.target != nil {
		v.target.Scale(z, z)
	}
	if v.bus != nil {
		v.bus.Emit(event.Zoom, event.ZoomPayload{Zoom: z})
	}
}

// SetPan updates the offset and emits onTranslate.
func (v *Viewport) SetPan(x, y float64) {
	v.current.OffsetX, v.current.OffsetY = x, y
	if v.target != nil {
		v.target.Translate(x, y)
	}
	if v.bus != nil {
		v.bus.Emit(event.Translate, event.TranslatePayload{X: x, Y: y})
	}
}

// Apply sets zoom then pan.
func (v *Viewport) Apply(l Layout) {
	v.SetZoom(l.Zoom)
	v.SetPan(l.OffsetX, l.OffsetY)
}

// Fit fits content into view, applies it and makes it the new baseline.
func (v *Viewport) Fit(content, view geometry.Size) Layout {
	l := FitToView(content, view)
	v.initial = l
	v.Apply(l)
	return l
}

// Reset returns to the baseline layout.
func (v *Viewport) Reset() {
	v.Apply(v.initial)
}

// Factor returns the wheel multiplier for a delta: zoom in for positive deltas.
func (v *Viewport) Factor(delta float64) float64 {
	if delta > 0 {
		return v.opts.ZoomIn
	}
	return v.opts.ZoomOut
}

// ZoomAt scales around a device-space anchor so that the anchor's image
// coordinate is unchanged. The zoom is clamped to the configured range and
// the pan is derived from the factor actually applied.
func (v *Viewport) ZoomAt(anchor geometry.Point2D, delta float64) {
	v.ZoomAtFactor(anchor, v.Factor(delta))
}

// ZoomAtFactor is ZoomAt with an explicit multiplier.
func (v *Viewport) ZoomAtFactor(anchor geometry.Point2D, factor float64) {
	if factor <= 0 {
		return
	}
	old := v.current
	z := old.Zoom * factor
	if v.opts.MinZoom > 0 {
		z = math.Max(z, v.opts.MinZoom)
	}
	if v.opts.MaxZoom > 0 {
		z = math.Min(z, v.opts.MaxZoom)
	}
	if z == old.Zoom {
		return
	}
	applied := z / old.Zoom

	v.SetZoom(z)
	v.SetPan(
		anchor.X-(anchor.X-old.OffsetX)*applied,
		anchor.Y-(anchor.Y-old.OffsetY)*applied,
	)
}

// PanBy translates the offset by a device-space delta.
func (v *Viewport) PanBy(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	v.SetPan(v.current.OffsetX+dx, v.current.OffsetY+dy)
}
