package engine

import (
	"markcanvas/internal/event"
	"markcanvas/pkg/geometry"
)

// Key names a keyboard key by its physical code.
type Key string

const (
	KeySpace       Key = "Space"
	KeyEnter       Key = "Enter"
	KeyNumpadEnter Key = "NumpadEnter"
	KeyDelete      Key = "Delete"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonNone Button = iota
	ButtonPrimary
	ButtonSecondary
	ButtonTertiary
)

// PointerEvent is a device-space pointer sample. For moves, Button is the
// button held during the move.
type PointerEvent struct {
	Position geometry.Point2D
	Button   Button
}

// WheelEvent is a scroll or pinch step; positive Delta zooms in.
type WheelEvent struct {
	Position geometry.Point2D
	Delta    float64
}

// Handler receives raw device input.
type Handler interface {
	PointerMove(ev PointerEvent)
	PointerDown(ev PointerEvent)
	PointerUp(ev PointerEvent)
	PointerLeave()
	DoubleClick(ev PointerEvent)
	Wheel(ev WheelEvent)
	KeyDown(k Key)
	KeyUp(k Key)
	ContextMenu(ev PointerEvent)
	Resize(view geometry.Size)
}

// Input is a source of device input, such as a UI widget.
type Input interface {
	// Subscribe starts delivering input to h and returns a release func.
	Subscribe(h Handler) (release func())
}

var _ Handler = (*Engine)(nil)

// PointerMove updates pan, hover and the guide, then relays the point.
func (e *Engine) PointerMove(ev PointerEvent) {
	if e.closed {
		return
	}
	dev := ev.Position
	if e.panMode && ev.Button == ButtonPrimary && e.hasPointer {
		e.view.PanBy(dev.X-e.pointer.X, dev.Y-e.pointer.Y)
	}
	e.pointer = dev
	e.hasPointer = true

	p := e.view.ToImage(dev)
	e.updateHover(p)
	e.renderGuide()
	e.bus.EmitPoint(event.PointMove, p)
}

// PointerDown relays primary presses unless panning.
func (e *Engine) PointerDown(ev PointerEvent) {
	if e.closed || e.panMode || ev.Button != ButtonPrimary {
		return
	}
	e.pointer = ev.Position
	e.hasPointer = true
	e.bus.EmitPoint(event.PointDown, e.view.ToImage(ev.Position))
}

// PointerUp relays releases unless panning.
func (e *Engine) PointerUp(ev PointerEvent) {
	if e.closed || e.panMode {
		return
	}
	e.bus.EmitPoint(event.PointUp, e.view.ToImage(ev.Position))
}

// PointerLeave drops the guide and relays the leave.
func (e *Engine) PointerLeave() {
	if e.closed {
		return
	}
	e.hasPointer = false
	for _, o := range e.objects {
		if o.Hovered() {
			o.SetHover(false)
			o.Render()
		}
	}
	e.guide.Clear()
	e.bus.Emit(event.PointLeave, nil)
}

// DoubleClick confirms an in-progress polygon; with nothing mid-draw it
// refits the view and makes that the new baseline.
func (e *Engine) DoubleClick(ev PointerEvent) {
	if e.closed {
		return
	}
	if d := e.drawing(); d != nil && len(d.Points()) > 0 {
		d.Confirm()
		return
	}
	e.Fit()
}

// Wheel zooms around the pointer.
func (e *Engine) Wheel(ev WheelEvent) {
	if e.closed || ev.Delta == 0 {
		return
	}
	e.view.ZoomAt(ev.Position, ev.Delta)
	e.renderGuide()
}

// KeyDown handles the pan modifier, Enter and Delete.
func (e *Engine) KeyDown(k Key) {
	if e.closed {
		return
	}
	switch {
	case k == e.opts.PanKey:
		e.setPanMode(true)
	case k == KeyEnter || k == KeyNumpadEnter:
		if d := e.drawing(); d != nil && d.HasMinimum() {
			d.Complete()
		}
	case k == KeyDelete:
		if e.selected != nil {
			e.remove(e.selected)
		}
	}
}

// KeyUp releases the pan modifier.
func (e *Engine) KeyUp(k Key) {
	if e.closed {
		return
	}
	if k == e.opts.PanKey {
		e.setPanMode(false)
	}
}

// ContextMenu relays a secondary click in image space.
func (e *Engine) ContextMenu(ev PointerEvent) {
	if e.closed {
		return
	}
	e.bus.EmitPoint(event.ContextMenu, e.view.ToImage(ev.Position))
}

func (e *Engine) setPanMode(on bool) {
	if e.panMode == on {
		return
	}
	e.panMode = on
	if on {
		for _, o := range e.objects {
			if o.Hovered() {
				o.SetHover(false)
				o.Render()
			}
		}
	} else if e.hasPointer {
		e.updateHover(e.view.ToImage(e.pointer))
	}
	e.renderGuide()
	e.bus.Emit(event.Move, event.MovePayload{Status: on})
}

// updateHover clears every hover flag and marks the topmost hit, testing in
// reverse list order. Only objects whose flag changed are re-rendered.
func (e *Engine) updateHover(p geometry.Point2D) {
	hit := -1
	if e.selectMode && !e.panMode {
		for i := len(e.objects) - 1; i >= 0; i-- {
			if e.objects[i].HitTest(p) {
				hit = i
				break
			}
		}
	}
	for i, o := range e.objects {
		want := i == hit
		if o.Hovered() != want {
			o.SetHover(want)
			o.Render()
		}
	}
}
