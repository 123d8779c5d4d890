package engine

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"

	"markcanvas/internal/annotation"
	"markcanvas/internal/event"
	"markcanvas/internal/shape"
	"markcanvas/internal/surface"
	"markcanvas/internal/viewport"
	"markcanvas/pkg/geometry"
)

type labelLog struct {
	requests []*LabelRequest
}

func newEngine(t *testing.T) (*Engine, *surface.Scene, *labelLog) {
	t.Helper()
	scene := surface.NewScene()
	eng := New(scene, DefaultOptions())
	t.Cleanup(eng.Close)

	labels := &labelLog{}
	eng.Bus().On(event.Complete, func(d interface{}) {
		labels.requests = append(labels.requests, d.(*LabelRequest))
	})
	return eng, scene, labels
}

func pt(x, y float64) geometry.Point2D { return geometry.Point2D{X: x, Y: y} }

func press(eng *Engine, p geometry.Point2D) {
	eng.PointerDown(PointerEvent{Position: p, Button: ButtonPrimary})
}

func release(eng *Engine, p geometry.Point2D) {
	eng.PointerUp(PointerEvent{Position: p, Button: ButtonPrimary})
}

func moveHeld(eng *Engine, p geometry.Point2D) {
	eng.PointerMove(PointerEvent{Position: p, Button: ButtonPrimary})
}

func hover(eng *Engine, p geometry.Point2D) {
	eng.PointerMove(PointerEvent{Position: p})
}

func drag(eng *Engine, from, to geometry.Point2D) {
	press(eng, from)
	moveHeld(eng, to)
	release(eng, to)
}

func click(eng *Engine, p geometry.Point2D) {
	press(eng, p)
	release(eng, p)
}

func countStatus(eng *Engine, s annotation.Status) int {
	n := 0
	for _, o := range eng.List() {
		if o.Status() == s {
			n++
		}
	}
	return n
}

func assertContiguous(t *testing.T, eng *Engine) {
	t.Helper()
	for i, o := range eng.List() {
		assert.Equal(t, i+1, o.Index())
	}
}

func rect(x0, y0, x1, y1 float64) annotation.Record {
	return annotation.Record{Type: shape.Rectangle, PointList: []geometry.Point2D{pt(x0, y0), pt(x1, y1)}}
}

func TestDrawRectangleAndContinue(t *testing.T) {
	eng, _, labels := newEngine(t)

	_, err := eng.SetDrawKind(shape.Rectangle)
	require.NoError(t, err)
	require.Equal(t, 1, eng.Len())

	drag(eng, pt(0, 0), pt(100, 100))
	require.Len(t, labels.requests, 1)
	req := labels.requests[0]
	assert.Equal(t, shape.Rectangle, req.Type)

	require.NoError(t, req.Resolve(annotation.LabelData{Label: "car", Color: "#00ff00"}))

	assert.Equal(t, []annotation.Record{{
		Index:     1,
		Type:      shape.Rectangle,
		Label:     "car",
		Color:     "#00ff00",
		PointList: []geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 100}},
	}}, eng.Export())

	// drawing continues with a fresh object at the end
	require.Equal(t, 2, eng.Len())
	d := eng.Drawing()
	require.NotNil(t, d)
	assert.Same(t, eng.List()[1], d)
	assert.Equal(t, shape.Rectangle, d.Kind())
	assert.Equal(t, 0, eng.PendingLabels())
	assertContiguous(t, eng)
}

func TestLineBelowThresholdStaysInDraw(t *testing.T) {
	eng, _, labels := newEngine(t)
	_, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	drag(eng, pt(0, 0), pt(10, 0))

	assert.Empty(t, labels.requests)
	d := eng.Drawing()
	require.NotNil(t, d)
	assert.Equal(t, annotation.StatusDraw, d.Status())
	assert.Empty(t, d.Points())
}

func TestRejectedLabelRestartsObject(t *testing.T) {
	eng, _, labels := newEngine(t)
	_, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	press(eng, pt(0, 0))
	moveHeld(eng, pt(50, 0))
	d := eng.Drawing()
	c := d.Complete()
	require.Len(t, labels.requests, 1)

	require.NoError(t, labels.requests[0].Reject())

	assert.Equal(t, annotation.StatusDraw, d.Status())
	assert.Empty(t, d.Points())
	assert.ErrorIs(t, c.Err(), annotation.ErrNoLabel)
	assert.Same(t, d, eng.Drawing())
	assert.Equal(t, 1, eng.Len())

	assert.ErrorIs(t, labels.requests[0].Reject(), ErrUnknownRequest)
}

func TestReorder(t *testing.T) {
	eng, _, _ := newEngine(t)
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 1, 1), rect(2, 2, 3, 3), rect(4, 4, 5, 5)}))

	list := eng.List()
	a, b, c := list[0].ID(), list[1].ID(), list[2].ID()

	eng.Reorder([]string{c, a, b})

	got := eng.List()
	assert.Equal(t, []string{c, a, b}, []string{got[0].ID(), got[1].ID(), got[2].ID()})
	assertContiguous(t, eng)

	// listed ids go after unlisted ones
	eng.Reorder([]string{c, "missing"})
	got = eng.List()
	assert.Equal(t, []string{a, b, c}, []string{got[0].ID(), got[1].ID(), got[2].ID()})
}

func TestHoverTopmostAndExclusiveSelection(t *testing.T) {
	eng, _, _ := newEngine(t)
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 100, 100), rect(50, 50, 150, 150)}))
	first, second := eng.List()[0], eng.List()[1]

	hover(eng, pt(75, 75))
	assert.False(t, first.Hovered())
	assert.True(t, second.Hovered())

	press(eng, pt(75, 75))
	release(eng, pt(75, 75))
	assert.Equal(t, annotation.StatusEdit, second.Status())
	assert.Same(t, second, eng.Selected())

	eng.SelectByID(first.ID())
	assert.Equal(t, annotation.StatusEdit, first.Status())
	assert.Equal(t, annotation.StatusDone, second.Status())
	assert.Equal(t, 1, countStatus(eng, annotation.StatusEdit))

	hover(eng, pt(400, 400))
	press(eng, pt(400, 400))
	assert.Equal(t, 0, countStatus(eng, annotation.StatusEdit))
	assert.Nil(t, eng.Selected())
}

func TestDragSelectedBody(t *testing.T) {
	eng, _, _ := newEngine(t)
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 100, 100)}))
	o := eng.List()[0]

	changes := 0
	eng.Bus().On(event.Change, func(interface{}) { changes++ })

	hover(eng, pt(50, 50))
	press(eng, pt(50, 50))
	moveHeld(eng, pt(70, 40))
	release(eng, pt(70, 40))

	assert.Equal(t, []geometry.Point2D{{X: 20, Y: -10}, {X: 120, Y: 90}}, o.Points())
	assert.Equal(t, 2, changes)
}

func TestWheelZoomKeepsAnchor(t *testing.T) {
	eng, _, _ := newEngine(t)
	var zooms []float64
	eng.Bus().On(event.Zoom, func(d interface{}) { zooms = append(zooms, d.(event.ZoomPayload).Zoom) })

	anchor := pt(120, 80)
	before := eng.Viewport().ToImage(anchor)

	eng.Wheel(WheelEvent{Position: anchor, Delta: 1})
	eng.Wheel(WheelEvent{Position: anchor, Delta: 1})
	eng.Wheel(WheelEvent{Position: anchor, Delta: -1})

	after := eng.Viewport().ToImage(anchor)
	assert.True(t, scalar.EqualWithinAbs(before.X, after.X, 1e-9))
	assert.True(t, scalar.EqualWithinAbs(before.Y, after.Y, 1e-9))
	require.Len(t, zooms, 3)
	assert.InDelta(t, 1.1*1.1*0.9, zooms[2], 1e-12)
}

func TestPanMode(t *testing.T) {
	eng, _, _ := newEngine(t)
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 100, 100)}))

	var moves []bool
	eng.Bus().On(event.Move, func(d interface{}) { moves = append(moves, d.(event.MovePayload).Status) })
	downs := 0
	eng.Bus().On(event.PointDown, func(interface{}) { downs++ })

	hover(eng, pt(10, 10))
	require.True(t, eng.List()[0].Hovered())

	eng.KeyDown(KeySpace)
	assert.Equal(t, IntentPan, eng.Intent())
	assert.False(t, eng.List()[0].Hovered())

	press(eng, pt(10, 10))
	moveHeld(eng, pt(30, 25))
	assert.Equal(t, 0, downs)
	l := eng.Viewport().Current()
	assert.InDelta(t, 20.0, l.OffsetX, 1e-12)
	assert.InDelta(t, 15.0, l.OffsetY, 1e-12)

	// moving without the button does not pan
	hover(eng, pt(60, 60))
	assert.InDelta(t, 20.0, eng.Viewport().Current().OffsetX, 1e-12)

	eng.KeyUp(KeySpace)
	assert.Equal(t, IntentSelect, eng.Intent())
	assert.Equal(t, []bool{true, false}, moves)
}

func TestReleaseWhilePanningDoesNotComplete(t *testing.T) {
	eng, _, labels := newEngine(t)
	_, err := eng.SetDrawKind(shape.Rectangle)
	require.NoError(t, err)

	press(eng, pt(0, 0))
	moveHeld(eng, pt(100, 100))
	eng.KeyDown(KeySpace)
	release(eng, pt(100, 100))

	assert.Empty(t, labels.requests)
	d := eng.Drawing()
	require.NotNil(t, d)
	assert.Equal(t, annotation.StatusDraw, d.Status())
	assert.Len(t, d.Points(), 2)

	eng.KeyUp(KeySpace)
	release(eng, pt(100, 100))
	assert.Len(t, labels.requests, 1)
}

func TestDeleteKeyRemovesSelected(t *testing.T) {
	eng, scene, _ := newEngine(t)
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 10, 10), rect(20, 20, 30, 30), rect(40, 40, 50, 50)}))
	middle := eng.List()[1]

	eng.KeyDown(KeyDelete)
	assert.Equal(t, 3, eng.Len())

	eng.SelectByID(middle.ID())
	eng.KeyDown(KeyDelete)

	assert.Equal(t, 2, eng.Len())
	assert.Nil(t, eng.Get(middle.ID()))
	assert.True(t, middle.Destroyed())
	assert.Equal(t, 2, scene.Count(surface.LayerObjects))
	assertContiguous(t, eng)
}

func TestSwitchKindDiscardsIncompleteObject(t *testing.T) {
	eng, _, labels := newEngine(t)
	_, err := eng.SetDrawKind(shape.Polygon)
	require.NoError(t, err)

	poly := eng.Drawing()
	click(eng, pt(0, 0))
	click(eng, pt(100, 0))

	c, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.True(t, poly.Destroyed())
	assert.Empty(t, labels.requests)

	require.Equal(t, 1, eng.Len())
	assert.Equal(t, shape.Line, eng.Drawing().Kind())
}

func TestSwitchKindCompletesInFlightObject(t *testing.T) {
	eng, _, labels := newEngine(t)
	_, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	press(eng, pt(0, 0))
	moveHeld(eng, pt(0, 60))

	var kinds []string
	eng.Bus().On(event.Draw, func(d interface{}) { kinds = append(kinds, d.(event.DrawPayload).Type) })

	c, err := eng.SetDrawKind(shape.Circle)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Len(t, labels.requests, 1)

	// the new kind waits for the label
	assert.Equal(t, shape.Line, eng.DrawKind())
	assert.Nil(t, eng.Drawing())
	assert.Equal(t, 1, eng.Len())
	assert.Empty(t, kinds)

	require.NoError(t, labels.requests[0].Resolve(annotation.LabelData{Label: "edge"}))
	assert.True(t, c.Committed())
	assert.Equal(t, shape.Circle, eng.DrawKind())
	require.NotNil(t, eng.Drawing())
	assert.Equal(t, shape.Circle, eng.Drawing().Kind())
	assert.Equal(t, 1, countStatus(eng, annotation.StatusDraw))
	assert.Equal(t, 2, eng.Len())
	assert.Len(t, eng.Export(), 1)
	assert.Equal(t, []string{"circle"}, kinds)
	assertContiguous(t, eng)
}

func TestRejectAfterSwitchKeepsDrawing(t *testing.T) {
	eng, _, labels := newEngine(t)
	_, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	press(eng, pt(0, 0))
	moveHeld(eng, pt(0, 60))
	line := eng.Drawing()
	c, err := eng.SetDrawKind(shape.Circle)
	require.NoError(t, err)

	require.NoError(t, labels.requests[0].Reject())
	assert.ErrorIs(t, c.Err(), annotation.ErrNoLabel)

	require.Equal(t, 1, eng.Len())
	assert.Equal(t, shape.Line, eng.DrawKind())
	assert.Same(t, line, eng.Drawing())
	assert.Equal(t, annotation.StatusDraw, line.Status())
	assert.Empty(t, line.Points())
	assert.False(t, line.Destroyed())
	assert.Equal(t, 1, line.Index())
}

func TestSwitchKindWhileLabelPending(t *testing.T) {
	eng, _, labels := newEngine(t)
	_, err := eng.SetDrawKind(shape.Rectangle)
	require.NoError(t, err)

	drag(eng, pt(0, 0), pt(50, 50))
	require.Len(t, labels.requests, 1)
	pending := eng.List()[0]
	assert.Equal(t, annotation.StatusPending, pending.Status())

	c, err := eng.SetDrawKind(shape.Polygon)
	require.NoError(t, err)
	assert.Len(t, labels.requests, 1)
	assert.Equal(t, shape.Rectangle, eng.DrawKind())

	// a later request replaces the waiting kind
	_, err = eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	require.NoError(t, labels.requests[0].Resolve(annotation.LabelData{Label: "box"}))
	assert.True(t, c.Committed())
	assert.Equal(t, shape.Line, eng.DrawKind())
	require.NotNil(t, eng.Drawing())
	assert.Equal(t, shape.Line, eng.Drawing().Kind())
	assert.Equal(t, 2, eng.Len())
}

func TestSwitchKindAnsweredInsideCompletion(t *testing.T) {
	eng, _, _ := newEngine(t)
	eng.Bus().On(event.Complete, func(d interface{}) {
		require.NoError(t, d.(*LabelRequest).Resolve(annotation.LabelData{Label: "edge"}))
	})
	_, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	press(eng, pt(0, 0))
	moveHeld(eng, pt(0, 60))
	c, err := eng.SetDrawKind(shape.Circle)
	require.NoError(t, err)

	assert.True(t, c.Committed())
	assert.Equal(t, shape.Circle, eng.DrawKind())
	assert.Equal(t, shape.Circle, eng.Drawing().Kind())
	assert.Equal(t, 2, eng.Len())
}

func TestSelectModeWaitsForPendingLabel(t *testing.T) {
	eng, _, labels := newEngine(t)
	_, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	press(eng, pt(0, 0))
	moveHeld(eng, pt(0, 60))
	eng.SetSelectMode(true)
	require.Len(t, labels.requests, 1)

	// rejecting abandons the switch, so selection goes back off
	require.NoError(t, labels.requests[0].Reject())
	assert.False(t, eng.SelectMode())
	assert.Equal(t, shape.Line, eng.DrawKind())
	assert.Equal(t, IntentDraw, eng.Intent())
	require.NotNil(t, eng.Drawing())
}

func TestDeletingPendingObjectArmsNextKind(t *testing.T) {
	eng, _, _ := newEngine(t)
	_, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	press(eng, pt(0, 0))
	moveHeld(eng, pt(0, 60))
	line := eng.Drawing()
	_, err = eng.SetDrawKind(shape.Circle)
	require.NoError(t, err)

	eng.Delete(line.ID())
	assert.Equal(t, 0, eng.PendingLabels())
	assert.Equal(t, shape.Circle, eng.DrawKind())
	require.NotNil(t, eng.Drawing())
	assert.Equal(t, 1, eng.Len())
}

func TestSameKindTogglesOff(t *testing.T) {
	eng, _, _ := newEngine(t)
	var kinds []string
	var selects []bool
	eng.Bus().On(event.Draw, func(d interface{}) { kinds = append(kinds, d.(event.DrawPayload).Type) })
	eng.Bus().On(event.Select, func(d interface{}) { selects = append(selects, d.(event.SelectPayload).Status) })

	_, err := eng.SetDrawKind(shape.Rectangle)
	require.NoError(t, err)
	assert.Equal(t, IntentDraw, eng.Intent())
	assert.False(t, eng.SelectMode())

	_, err = eng.SetDrawKind(shape.Rectangle)
	require.NoError(t, err)

	assert.Equal(t, shape.None, eng.DrawKind())
	assert.Equal(t, 0, eng.Len())
	assert.Equal(t, []string{"rect", "none"}, kinds)
	assert.Equal(t, []bool{false}, selects)

	_, err = eng.SetDrawKind(shape.Kind("hexagon"))
	assert.ErrorIs(t, err, shape.ErrUnknownKind)
}

func TestSelectModeStopsDrawing(t *testing.T) {
	eng, _, _ := newEngine(t)
	_, err := eng.SetDrawKind(shape.Circle)
	require.NoError(t, err)

	eng.SetSelectMode(true)
	assert.True(t, eng.SelectMode())
	assert.Equal(t, shape.None, eng.DrawKind())
	assert.Nil(t, eng.Drawing())
	assert.Equal(t, IntentSelect, eng.Intent())
}

func TestSelectModeOffDeselects(t *testing.T) {
	eng, _, _ := newEngine(t)
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 10, 10)}))
	o := eng.List()[0]
	eng.SelectByID(o.ID())

	eng.SetSelectMode(false)
	assert.Equal(t, annotation.StatusDone, o.Status())
	assert.Nil(t, eng.Selected())
	assert.Equal(t, IntentNone, eng.Intent())
}

func TestEnterCompletesPolygon(t *testing.T) {
	eng, _, labels := newEngine(t)
	_, err := eng.SetDrawKind(shape.Polygon)
	require.NoError(t, err)

	click(eng, pt(0, 0))
	click(eng, pt(100, 0))
	eng.KeyDown(KeyEnter)
	assert.Empty(t, labels.requests)

	click(eng, pt(0, 100))
	hover(eng, pt(40, 40))
	eng.KeyDown(KeyNumpadEnter)
	require.Len(t, labels.requests, 1)
	assert.Equal(t, []geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}}, labels.requests[0].PointList)
}

func TestDoubleClickRefits(t *testing.T) {
	eng, _, _ := newEngine(t)
	eng.SetBackground(geometry.Size{Width: 200, Height: 100})
	eng.Resize(geometry.Size{Width: 800, Height: 600})

	assert.InDelta(t, 4.0, eng.Zoom(), 1e-12)
	assert.InDelta(t, 100.0, eng.Viewport().Current().OffsetY, 1e-12)

	eng.Wheel(WheelEvent{Position: pt(10, 10), Delta: 1})
	assert.InDelta(t, 4.4, eng.Zoom(), 1e-12)

	eng.DoubleClick(PointerEvent{Position: pt(10, 10)})
	assert.InDelta(t, 4.0, eng.Zoom(), 1e-12)
	assert.Equal(t, eng.Viewport().Initial(), eng.Viewport().Current())
}

func TestDoubleClickWhileDrawingDoesNotRefit(t *testing.T) {
	eng, _, labels := newEngine(t)
	eng.SetBackground(geometry.Size{Width: 200, Height: 100})
	eng.Resize(geometry.Size{Width: 200, Height: 100})
	_, err := eng.SetDrawKind(shape.Polygon)
	require.NoError(t, err)

	eng.Wheel(WheelEvent{Position: pt(0, 0), Delta: 1})
	click(eng, pt(0, 0))
	click(eng, pt(50, 0))
	click(eng, pt(0, 50))
	click(eng, pt(0, 50))
	eng.DoubleClick(PointerEvent{Position: pt(0, 50)})

	assert.InDelta(t, 1.1, eng.Zoom(), 1e-12)
	require.Len(t, labels.requests, 1)
	assert.Len(t, labels.requests[0].PointList, 3)
}

func TestObjectsAndExportSkipDrawing(t *testing.T) {
	eng, _, _ := newEngine(t)
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 10, 10)}))
	_, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	require.Equal(t, 2, eng.Len())
	infos := eng.Objects()
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Index)
	assert.False(t, infos[0].Select)
	assert.Len(t, eng.Export(), 1)
}

func TestImportKeepsDrawObjectLast(t *testing.T) {
	eng, _, _ := newEngine(t)
	_, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	err = eng.Import([]annotation.Record{
		rect(0, 0, 10, 10),
		{Type: shape.Kind("star")},
		{Type: shape.Circle, PointList: []geometry.Point2D{pt(5, 5), pt(6, 5)}},
	})
	assert.ErrorIs(t, err, shape.ErrUnknownKind)

	require.Equal(t, 3, eng.Len())
	assert.Same(t, eng.Drawing(), eng.List()[2])
	assertContiguous(t, eng)
}

func TestClear(t *testing.T) {
	eng, scene, _ := newEngine(t)
	scene.SetBackground(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	eng.SetBackground(geometry.Size{Width: 10, Height: 10})
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 10, 10), rect(1, 1, 2, 2)}))
	_, err := eng.SetDrawKind(shape.Rectangle)
	require.NoError(t, err)

	eng.Clear()

	require.Equal(t, 1, eng.Len())
	assert.Equal(t, annotation.StatusDraw, eng.List()[0].Status())
	assert.True(t, eng.Content().Empty())
	assert.Equal(t, 1, scene.Count(surface.LayerObjects))
	assert.Nil(t, scene.Background())
}

func TestUnknownIDsAreIgnored(t *testing.T) {
	eng, _, _ := newEngine(t)
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 10, 10)}))

	eng.SelectByID("nope")
	eng.SetLabel("nope", annotation.LabelData{Label: "x"})
	eng.Delete("nope")

	assert.Equal(t, 1, eng.Len())
	assert.Nil(t, eng.Selected())
	assert.ErrorIs(t, eng.ResolveLabel("nope", annotation.LabelData{}), ErrUnknownRequest)
}

func TestSetLabelAndDelete(t *testing.T) {
	eng, _, _ := newEngine(t)
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 10, 10), rect(1, 1, 2, 2)}))
	first := eng.List()[0]

	eng.SetLabel(first.ID(), annotation.LabelData{Label: "tree", Color: "#00ff00"})
	assert.Equal(t, "tree", eng.Export()[0].Label)

	eng.Delete(first.ID())
	require.Equal(t, 1, eng.Len())
	assert.Equal(t, 1, eng.List()[0].Index())
}

func TestContextMenuRelaysImagePoint(t *testing.T) {
	eng, _, _ := newEngine(t)
	eng.Viewport().Apply(viewport.Layout{Zoom: 2, OffsetX: 10, OffsetY: 20})

	var got geometry.Point2D
	eng.Bus().On(event.ContextMenu, func(d interface{}) { got = d.(geometry.Point2D) })

	eng.ContextMenu(PointerEvent{Position: pt(30, 40), Button: ButtonSecondary})
	assert.Equal(t, pt(10, 10), got)
}

func TestSecondaryPressIsNotRelayed(t *testing.T) {
	eng, _, _ := newEngine(t)
	downs := 0
	eng.Bus().On(event.PointDown, func(interface{}) { downs++ })

	eng.PointerDown(PointerEvent{Position: pt(1, 1), Button: ButtonSecondary})
	press(eng, pt(1, 1))
	assert.Equal(t, 1, downs)
}

func TestGuideFollowsPointer(t *testing.T) {
	eng, _, _ := newEngine(t)
	eng.Resize(geometry.Size{Width: 200, Height: 100})

	hover(eng, pt(50, 40))
	require.Len(t, eng.Guide().Children(), 2)
	horizontal := eng.Guide().Children()[0].(*surface.Path)
	assert.Equal(t, []geometry.Point2D{{X: 0, Y: 40}, {X: 200, Y: 40}}, horizontal.Points)
	assert.Equal(t, [2]float64{10, 15}, horizontal.Dash)

	eng.KeyDown(KeySpace)
	assert.Empty(t, eng.Guide().Children())

	eng.KeyUp(KeySpace)
	assert.Len(t, eng.Guide().Children(), 2)

	eng.PointerLeave()
	assert.Empty(t, eng.Guide().Children())
}

type fakeInput struct {
	handler Handler
}

func (f *fakeInput) Subscribe(h Handler) func() {
	f.handler = h
	return func() { f.handler = nil }
}

func TestAttachAndClose(t *testing.T) {
	scene := surface.NewScene()
	eng := New(scene, DefaultOptions())
	in := &fakeInput{}

	release := eng.Attach(in)
	assert.Same(t, eng, in.handler)
	release()
	assert.Nil(t, in.handler)

	eng.Attach(in)
	require.NoError(t, eng.Import([]annotation.Record{rect(0, 0, 10, 10)}))
	_, err := eng.SetDrawKind(shape.Line)
	require.NoError(t, err)

	eng.Close()
	assert.Nil(t, in.handler)
	assert.Equal(t, 0, eng.Len())
	assert.Equal(t, 0, eng.Bus().Count(event.PointDown))
	assert.Equal(t, 0, scene.Count(surface.LayerObjects))
	assert.Equal(t, 0, scene.Count(surface.LayerGuide))

	_, err = eng.SetDrawKind(shape.Line)
	assert.ErrorIs(t, err, ErrClosed)
	eng.Close()
}

func TestPendingObjectIsNotHit(t *testing.T) {
	eng, _, labels := newEngine(t)
	_, err := eng.SetDrawKind(shape.Rectangle)
	require.NoError(t, err)
	drag(eng, pt(0, 0), pt(100, 100))
	require.Len(t, labels.requests, 1)

	pending := eng.List()[0]
	assert.Equal(t, annotation.StatusPending, pending.Status())

	eng.SetSelectMode(true)
	hover(eng, pt(50, 50))
	assert.False(t, pending.Hovered())

	// a second completion returns the one in flight
	c := pending.Complete()
	assert.False(t, c.Settled())
	assert.Len(t, labels.requests, 1)
}
