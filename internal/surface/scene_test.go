package surface

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markcanvas/pkg/colorutil"
	"markcanvas/pkg/geometry"
)

func TestSceneAddRemove(t *testing.T) {
	s := NewScene()
	changes := 0
	s.SetOnChange(func() { changes++ })

	g := NewGroup(LayerObjects)
	s.Add(g)
	s.Add(g)
	s.Add(NewGroup(LayerGuide))
	assert.Len(t, s.Groups(), 2)
	assert.Equal(t, 1, s.Count(LayerObjects))

	s.Remove(g)
	assert.Equal(t, 0, s.Count(LayerObjects))
	assert.Equal(t, 3, changes)
}

func TestGroupSetSnapshots(t *testing.T) {
	g := NewGroup(LayerObjects)
	nodes := []Node{NewRect(0, 0, 1, 1, Style{})}
	g.Set(nodes...)
	nodes[0] = nil
	require.Len(t, g.Children(), 1)
	assert.NotNil(t, g.Children()[0])

	g.Clear()
	assert.Empty(t, g.Children())
}

func TestPaintAppliesLayerTransform(t *testing.T) {
	s := NewScene()
	s.Scale(2, 2)
	s.Translate(10, 10)

	g := NewGroup(LayerObjects)
	g.Set(NewRect(0, 0, 5, 5, Style{Fill: colorutil.Red}))
	s.Add(g)

	img := s.Paint(40, 40)
	// image (2,2) lands on device (14,14)
	assert.Equal(t, colorutil.Red, img.RGBAAt(14, 14))
	assert.Equal(t, canvasColor, img.RGBAAt(5, 5))
	assert.Equal(t, canvasColor, img.RGBAAt(25, 25))
}

func TestPaintGuideIgnoresTransform(t *testing.T) {
	s := NewScene()
	s.Scale(3, 3)

	g := NewGroup(LayerGuide)
	g.Set(NewPath([]geometry.Point2D{{X: 0, Y: 5}, {X: 19, Y: 5}}, false,
		Style{Stroke: colorutil.White, StrokeWidth: 1, Dash: [2]float64{2, 4}}))
	s.Add(g)

	img := s.Paint(20, 20)
	assert.Equal(t, colorutil.White, img.RGBAAt(0, 5))
	assert.Equal(t, colorutil.White, img.RGBAAt(1, 5))
	assert.Equal(t, canvasColor, img.RGBAAt(2, 5))
	assert.Equal(t, colorutil.White, img.RGBAAt(4, 5))
}

func TestPaintBackgroundAndEllipse(t *testing.T) {
	bg := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			bg.SetRGBA(x, y, colorutil.White)
		}
	}

	s := NewScene()
	s.SetBackground(bg)

	g := NewGroup(LayerObjects)
	g.Set(NewEllipse(geometry.Point2D{X: 5, Y: 5}, 3, 3, Style{Fill: color.RGBA{B: 255, A: 255}}))
	s.Add(g)

	img := s.Paint(12, 12)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(5, 5))
	assert.Equal(t, colorutil.White, img.RGBAAt(0, 0))
	assert.Equal(t, canvasColor, img.RGBAAt(11, 11))
}
