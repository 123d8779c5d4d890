package surface

import (
	"image"
	"image/color"
	"math"
	"sort"

	"markcanvas/pkg/colorutil"
	"markcanvas/pkg/geometry"
)

// canvasColor fills the area not covered by the background image.
var canvasColor = color.RGBA{R: 48, G: 48, B: 48, A: 255}

// transform maps layer coordinates to device pixels.
type transform struct {
	sx, sy, tx, ty float64
}

func (t transform) point(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{X: p.X*t.sx + t.tx, Y: p.Y*t.sy + t.ty}
}

func (t transform) length(v float64) float64 {
	return v * (math.Abs(t.sx) + math.Abs(t.sy)) / 2
}

var identity = transform{sx: 1, sy: 1}

// Paint rasterises the scene into a new w x h image: background first, then
// object groups through the layer transform, then guide groups untransformed.
func (s *Scene) Paint(w, h int) *image.RGBA {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return output
	}

	sx, sy, tx, ty := s.Transform()
	layer := transform{sx: sx, sy: sy, tx: tx, ty: ty}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			output.SetRGBA(x, y, canvasColor)
		}
	}
	if bg := s.Background(); bg != nil && sx > 0 && sy > 0 {
		drawBackground(output, bg, layer)
	}

	groups := s.Groups()
	for _, g := range groups {
		if g.Layer == LayerObjects {
			paintNodes(output, g.Children(), layer)
		}
	}
	for _, g := range groups {
		if g.Layer == LayerGuide {
			paintNodes(output, g.Children(), identity)
		}
	}
	return output
}

// drawBackground samples the background with nearest-neighbour lookup.
func drawBackground(output *image.RGBA, bg image.Image, t transform) {
	src := bg.Bounds()
	bounds := output.Bounds()

	minX := int(math.Max(float64(bounds.Min.X), math.Floor(t.tx)))
	minY := int(math.Max(float64(bounds.Min.Y), math.Floor(t.ty)))
	maxX := int(math.Min(float64(bounds.Max.X), math.Ceil(t.tx+float64(src.Dx())*t.sx)))
	maxY := int(math.Min(float64(bounds.Max.Y), math.Ceil(t.ty+float64(src.Dy())*t.sy)))

	for y := minY; y < maxY; y++ {
		iy := int((float64(y)+0.5-t.ty)/t.sy) + src.Min.Y
		if iy < src.Min.Y || iy >= src.Max.Y {
			continue
		}
		for x := minX; x < maxX; x++ {
			ix := int((float64(x)+0.5-t.tx)/t.sx) + src.Min.X
			if ix < src.Min.X || ix >= src.Max.X {
				continue
			}
			output.Set(x, y, bg.At(ix, iy))
		}
	}
}

func paintNodes(output *image.RGBA, nodes []Node, t transform) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Rect:
			p0 := t.point(geometry.Point2D{X: n.X, Y: n.Y})
			p1 := t.point(geometry.Point2D{X: n.X + n.Width, Y: n.Y + n.Height})
			corners := []geometry.Point2D{p0, {X: p1.X, Y: p0.Y}, p1, {X: p0.X, Y: p1.Y}}
			if n.Fill.A > 0 {
				fillPolygon(output, corners, n.Fill)
			}
			strokePath(output, corners, true, n.Style, t)
		case *Ellipse:
			p0 := t.point(geometry.Point2D{X: n.X, Y: n.Y})
			p1 := t.point(geometry.Point2D{X: n.X + n.Width, Y: n.Y + n.Height})
			drawEllipse(output, geometry.RectFromCorners(p0, p1), n.Style, t)
		case *Path:
			pts := make([]geometry.Point2D, len(n.Points))
			for i, p := range n.Points {
				pts[i] = t.point(p)
			}
			if n.Closed && n.Fill.A > 0 {
				fillPolygon(output, pts, n.Fill)
			}
			strokePath(output, pts, n.Closed, n.Style, t)
		case *Text:
			p := t.point(geometry.Point2D{X: n.X, Y: n.Y})
			drawText(output, n.Value, int(p.X), int(p.Y), t.length(n.Size), n.Colour)
		}
	}
}

// blendPixel composites col over the pixel at (x, y), ignoring out-of-bounds writes.
func blendPixel(output *image.RGBA, x, y int, col color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(output.Bounds()) {
		return
	}
	output.SetRGBA(x, y, colorutil.Blend(output.RGBAAt(x, y), col))
}

func strokePath(output *image.RGBA, pts []geometry.Point2D, closed bool, style Style, t transform) {
	if style.Stroke.A == 0 || style.StrokeWidth <= 0 || len(pts) < 2 {
		return
	}
	thickness := int(math.Round(t.length(style.StrokeWidth)))
	if thickness < 1 {
		thickness = 1
	}

	n := len(pts)
	segments := n - 1
	if closed {
		segments = n
	}
	for i := 0; i < segments; i++ {
		p1 := pts[i]
		p2 := pts[(i+1)%n]
		drawLine(output, int(p1.X), int(p1.Y), int(p2.X), int(p2.Y), style.Stroke, thickness, style.Dash)
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
// A non-zero dash {on, period} skips pixels whose step index modulo period
// is past on.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int, dash [2]float64) {
	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	on, period := int(dash[0]), int(dash[1])
	err := dx - dy
	step := 0

	for {
		if period <= 0 || step%period < on {
			for t := -thickness / 2; t <= (thickness-1)/2; t++ {
				for s := -thickness / 2; s <= (thickness-1)/2; s++ {
					blendPixel(output, x1+s, y1+t, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
		step++
	}
}

// fillPolygon fills a polygon using the scanline algorithm.
func fillPolygon(output *image.RGBA, pts []geometry.Point2D, col color.RGBA) {
	if len(pts) < 3 {
		return
	}
	bounds := output.Bounds()
	box := geometry.BoundingBox(pts)

	minY := int(math.Max(math.Floor(box.Y), float64(bounds.Min.Y)))
	maxY := int(math.Min(math.Ceil(box.Y+box.Height), float64(bounds.Max.Y-1)))

	n := len(pts)
	var xs []float64
	for y := minY; y <= maxY; y++ {
		scan := float64(y) + 0.5
		xs = xs[:0]
		for i := 0; i < n; i++ {
			p1 := pts[i]
			p2 := pts[(i+1)%n]
			if (p1.Y <= scan && p2.Y > scan) || (p2.Y <= scan && p1.Y > scan) {
				t := (scan - p1.Y) / (p2.Y - p1.Y)
				xs = append(xs, p1.X+t*(p2.X-p1.X))
			}
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			x1 := int(math.Max(math.Round(xs[i]), float64(bounds.Min.X)))
			x2 := int(math.Min(math.Round(xs[i+1]), float64(bounds.Max.X)))
			for x := x1; x < x2; x++ {
				blendPixel(output, x, y, col)
			}
		}
	}
}

// drawEllipse fills and/or rings an axis-aligned ellipse given in device space.
func drawEllipse(output *image.RGBA, box geometry.Rect, style Style, t transform) {
	rx, ry := box.Width/2, box.Height/2
	if rx <= 0 || ry <= 0 {
		return
	}
	c := box.Center()

	thickness := t.length(style.StrokeWidth)
	if style.Stroke.A > 0 && thickness < 1 {
		thickness = 1
	}

	minX, maxX := int(c.X-rx-1), int(c.X+rx+1)
	minY, maxY := int(c.Y-ry-1), int(c.Y+ry+1)
	innerRX, innerRY := math.Max(rx-thickness, 0), math.Max(ry-thickness, 0)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) + 0.5 - c.X
			dy := float64(y) + 0.5 - c.Y
			outer := (dx*dx)/(rx*rx) + (dy*dy)/(ry*ry)
			if outer > 1 {
				continue
			}
			inRing := style.Stroke.A > 0 && (innerRX == 0 || innerRY == 0 ||
				(dx*dx)/(innerRX*innerRX)+(dy*dy)/(innerRY*innerRY) >= 1)
			switch {
			case inRing:
				blendPixel(output, x, y, style.Stroke)
			case style.Fill.A > 0:
				blendPixel(output, x, y, style.Fill)
			}
		}
	}
}
