package annotation

import (
	"markcanvas/internal/event"
	"markcanvas/internal/shape"
	"markcanvas/pkg/geometry"
)

// Pointer handlers receive image-space points relayed by the engine. Each
// object reacts to every relay; status and hover decide what happens.

func (o *Object) onPointDown(p geometry.Point2D) {
	switch o.status {
	case StatusPending:
		return
	case StatusDraw:
		o.drawPress(p)
		return
	}

	if o.hover {
		wasEditing := o.status == StatusEdit
		o.Select()
		o.drag = true
		o.dragMoved = false
		o.dragFrom = p
		o.activeHandle = o.geom.NearestHandle(o.points, p, o.expand())
		if !wasEditing {
			o.host.Bus().Emit(event.Change, nil)
		}
	} else if o.status == StatusEdit {
		o.Deselect()
		o.host.Bus().Emit(event.Change, nil)
	}
	o.Render()
}

func (o *Object) drawPress(p geometry.Point2D) {
	switch o.geom.Gesture() {
	case shape.GestureDrag:
		o.points = []geometry.Point2D{p, p}
		o.provisional = false
		o.Render()

	case shape.GestureClick:
		vertices := o.vertices()
		radius := o.host.Thresholds().CloseRadius / o.host.Zoom()
		if shape.ClosesRing(vertices, p, radius) {
			o.Complete()
			return
		}
		o.points = append(append([]geometry.Point2D(nil), vertices...), p, p)
		o.provisional = true
		o.Render()
	}
}

func (o *Object) onPointMove(p geometry.Point2D) {
	switch o.status {
	case StatusPending:
		return

	case StatusDraw:
		if len(o.points) == 0 {
			return
		}
		switch o.geom.Gesture() {
		case shape.GestureDrag:
			o.points[1] = p
		case shape.GestureClick:
			if o.provisional {
				o.points[len(o.points)-1] = p
			} else {
				o.points = append(o.points, p)
				o.provisional = true
			}
		}

	case StatusEdit:
		if o.drag {
			delta := p.Sub(o.dragFrom)
			if o.activeHandle >= 0 && o.activeHandle < len(o.points) {
				// the grabbed point follows the pointer
				delta = p.Sub(o.points[o.activeHandle])
				o.points[o.activeHandle] = p
			} else {
				o.points = geometry.Translate(o.points, delta)
			}
			o.dragFrom = p
			o.dragMoved = o.dragMoved || delta != (geometry.Point2D{})
		} else {
			o.activeHandle = o.geom.NearestHandle(o.points, p, o.expand())
		}

	default:
		return
	}
	o.Render()
}

func (o *Object) onPointUp(geometry.Point2D) {
	if o.status == StatusPending {
		return
	}
	moved := o.drag && o.dragMoved
	o.drag = false
	o.dragMoved = false

	if o.status == StatusDraw && o.geom.Gesture() == shape.GestureDrag && len(o.points) == 2 {
		o.Complete()
		return
	}
	if moved {
		o.host.Bus().Emit(event.Change, nil)
	}
	o.Render()
}

func (o *Object) onPointLeave() {
	o.drag = false
	o.dragMoved = false
	o.activeHandle = -1
	o.Render()
}

// Confirm completes a click-gesture object from a double-click. The press
// half of the double-click placed a vertex on top of the previous one; it is
// merged before completing.
func (o *Object) Confirm() *Completion {
	if o.status == StatusDraw && o.geom.Gesture() == shape.GestureClick {
		vertices := o.vertices()
		if n := len(vertices); n >= 2 {
			tol := o.host.Thresholds().CloseRadius / o.host.Zoom()
			if vertices[n-1].Distance(vertices[n-2]) <= tol {
				o.points = append([]geometry.Point2D(nil), vertices[:n-1]...)
				o.provisional = false
			}
		}
	}
	return o.Complete()
}
