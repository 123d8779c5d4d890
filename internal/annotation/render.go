package annotation

import (
	"strconv"

	"markcanvas/internal/shape"
	"markcanvas/internal/surface"
	"markcanvas/pkg/colorutil"
	"markcanvas/pkg/geometry"
)

const (
	badgeWidth  = 30
	badgeHeight = 20
	badgeFont   = 12
)

// Render rebuilds the object's visual group. Sizes are divided by zoom so
// they stay constant on screen.
func (o *Object) Render() {
	if o.destroyed {
		return
	}

	zoom := o.host.Zoom()
	if zoom <= 0 {
		zoom = 1
	}
	st := o.host.Style()
	lw := st.LineWidth
	if lw <= 0 {
		lw = 2
	}

	stroke := colorutil.ParseOr(o.color, colorutil.ParseOr(st.DefaultColor, colorutil.Red))
	outline := surface.Style{Stroke: stroke, StrokeWidth: lw / zoom}
	if o.hover || o.status == StatusEdit {
		outline.Fill = colorutil.HoverFill
	}

	var nodes []surface.Node
	pts := o.points

	switch o.kind {
	case shape.Rectangle:
		if len(pts) >= 2 {
			r := geometry.RectFromCorners(pts[0], pts[1])
			nodes = append(nodes, surface.NewRect(r.X, r.Y, r.Width, r.Height, outline))
		}
	case shape.Polygon:
		if len(pts) >= 2 {
			closed := o.status != StatusDraw
			if !closed {
				outline.Fill = colorutil.Transparent
			}
			nodes = append(nodes, surface.NewPath(pts, closed, outline))
		}
	case shape.Line:
		if len(pts) >= 2 {
			nodes = append(nodes, surface.NewPath(pts[:2], false, outline))
		}
	case shape.Circle:
		if len(pts) >= 2 {
			r := shape.Radius(pts)
			nodes = append(nodes, surface.NewEllipse(pts[0], r, r, outline))
		}
	}

	if o.status == StatusEdit || o.status == StatusDraw {
		for i, p := range o.vertices() {
			radius := 2 * lw / zoom
			if i == o.activeHandle {
				radius = 4 * lw / zoom
			}
			nodes = append(nodes, surface.NewEllipse(p, radius, radius, surface.Style{Fill: stroke}))
		}
	}

	if len(pts) > 0 && o.status != StatusDraw {
		x, y := pts[0].X, pts[0].Y-badgeHeight/zoom
		nodes = append(nodes,
			surface.NewRect(x, y, badgeWidth/zoom, badgeHeight/zoom, surface.Style{Fill: colorutil.BadgeFill}),
			surface.NewText(x, y, strconv.Itoa(o.index), badgeFont/zoom, colorutil.White),
		)
	}

	o.group.Set(nodes...)
}

// Group exposes the object's visual group.
func (o *Object) Group() *surface.Group { return o.group }
