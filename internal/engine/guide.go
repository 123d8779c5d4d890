package engine

import (
	"markcanvas/internal/surface"
	"markcanvas/pkg/geometry"
)

// renderGuide draws dashed crosshair lines through the pointer across the
// whole view. The guide lives in device space and is hidden while panning.
func (e *Engine) renderGuide() {
	g := e.opts.Guide
	if !g.Enabled || e.panMode || !e.hasPointer || e.viewSize.Empty() {
		e.guide.Clear()
		return
	}

	p := e.pointer
	style := surface.Style{
		Stroke:      g.Color,
		StrokeWidth: 1,
		Dash:        [2]float64{g.Dash, g.Period},
	}
	e.guide.Set(
		surface.NewPath([]geometry.Point2D{{X: 0, Y: p.Y}, {X: e.viewSize.Width, Y: p.Y}}, false, style),
		surface.NewPath([]geometry.Point2D{{X: p.X, Y: 0}, {X: p.X, Y: e.viewSize.Height}}, false, style),
	)
}

// Guide exposes the overlay group.
func (e *Engine) Guide() *surface.Group { return e.guide }
