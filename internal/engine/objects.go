package engine

import (
	"errors"
	"fmt"

	"markcanvas/internal/annotation"
	"markcanvas/internal/event"
	"markcanvas/internal/shape"
	"markcanvas/pkg/geometry"
)

// BackgroundClearer is implemented by surfaces that hold a background image.
type BackgroundClearer interface {
	ClearBackground()
}

// Len returns the number of objects, including one being drawn.
func (e *Engine) Len() int { return len(e.objects) }

// List returns the objects in display order.
func (e *Engine) List() []*annotation.Object {
	return append([]*annotation.Object(nil), e.objects...)
}

// Get returns the object with id, or nil.
func (e *Engine) Get(id string) *annotation.Object {
	for _, o := range e.objects {
		if o.ID() == id {
			return o
		}
	}
	return nil
}

// Drawing returns the object currently in draw status, or nil.
func (e *Engine) Drawing() *annotation.Object { return e.drawing() }

func (e *Engine) drawing() *annotation.Object {
	for i := len(e.objects) - 1; i >= 0; i-- {
		if e.objects[i].Status() == annotation.StatusDraw {
			return e.objects[i]
		}
	}
	return nil
}

func (e *Engine) otherDrawing(except *annotation.Object) bool {
	for _, o := range e.objects {
		if o != except && o.Status() == annotation.StatusDraw {
			return true
		}
	}
	return false
}

// spawnIfDrawing appends a fresh draw object when a drawing kind is active
// and no object is in draw.
func (e *Engine) spawnIfDrawing() {
	if e.closed || e.drawKind == shape.None || e.switching != nil || e.drawing() != nil {
		return
	}
	o, err := annotation.New(e, e.drawKind, len(e.objects)+1)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to create draw object")
		return
	}
	e.objects = append(e.objects, o)
}

// remove destroys o, drops it from the list and renumbers.
func (e *Engine) remove(o *annotation.Object) {
	o.Destroy()
	e.dropRequests(o)
	if e.selected == o {
		e.selected = nil
	}
	for i, existing := range e.objects {
		if existing == o {
			e.objects = append(e.objects[:i], e.objects[i+1:]...)
			break
		}
	}
	e.reindex()
	e.bus.Emit(event.Change, nil)

	if sw := e.switching; sw != nil && sw.obj == o {
		e.switching = nil
		e.armKind(sw.next)
	}
}

func (e *Engine) moveToEnd(o *annotation.Object) {
	for i, existing := range e.objects {
		if existing == o {
			e.objects = append(append(e.objects[:i:i], e.objects[i+1:]...), o)
			break
		}
	}
	e.reindex()
}

// reindex assigns 1..N in list order.
func (e *Engine) reindex() {
	for i, o := range e.objects {
		o.SetIndex(i + 1)
	}
}

// kindSwitch is a drawing-kind change waiting on the label of the object
// that was in flight when it was requested.
type kindSwitch struct {
	obj  *annotation.Object
	prev shape.Kind
	next shape.Kind
}

// SetDrawKind switches the drawing kind. Selection mode is turned off first.
// An object in flight is completed when it has enough points and discarded
// otherwise; its completion, if one was started, is returned. While that
// completion waits for a label the previous kind stays armed: a resolved
// label arms the new kind, a rejected one abandons the switch and the object
// keeps drawing. Choosing the active kind again turns drawing off.
func (e *Engine) SetDrawKind(kind shape.Kind) (*annotation.Completion, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if kind != shape.None {
		if _, ok := shape.For(kind); !ok {
			return nil, fmt.Errorf("%w: %q", shape.ErrUnknownKind, string(kind))
		}
	}

	e.SetSelectMode(false)

	prev := e.drawKind
	if kind == prev {
		kind = shape.None
	}
	if sw := e.switching; sw != nil {
		sw.next = kind
		return sw.obj.Complete(), nil
	}

	var c *annotation.Completion
	if d := e.inFlight(); d != nil {
		if d.Status() == annotation.StatusPending || d.HasMinimum() {
			e.switching = &kindSwitch{obj: d, prev: prev, next: kind}
			c = d.Complete()
			if d.Status() == annotation.StatusPending {
				e.log.Debug().Str("kind", kind.String()).Str("object", d.ID()).Msg("draw kind waits for label")
				return c, nil
			}
			if e.switching == nil {
				// label answered from inside the completion
				return c, nil
			}
			e.switching = nil
		}
		if !d.Destroyed() && d.Status() == annotation.StatusDraw {
			e.remove(d)
		}
	}

	e.armKind(kind)
	return c, nil
}

// armKind makes kind the drawing kind and spawns its draw object.
func (e *Engine) armKind(kind shape.Kind) {
	e.drawKind = kind
	e.spawnIfDrawing()
	e.renderGuide()

	e.log.Debug().Str("kind", kind.String()).Msg("draw kind")
	e.bus.Emit(event.Draw, event.DrawPayload{Type: kind.String()})
}

// inFlight returns the object in draw or, failing that, one awaiting a label.
func (e *Engine) inFlight() *annotation.Object {
	if d := e.drawing(); d != nil {
		return d
	}
	for i := len(e.objects) - 1; i >= 0; i-- {
		if e.objects[i].Status() == annotation.StatusPending {
			return e.objects[i]
		}
	}
	return nil
}

// SetSelectMode toggles selection mode. Turning it on stops drawing; turning
// it off returns any edit object to done.
func (e *Engine) SetSelectMode(on bool) {
	if e.closed || e.selectMode == on {
		return
	}
	if on && e.drawKind != shape.None {
		// SetDrawKind(None) calls back here with false, a no-op.
		_, _ = e.SetDrawKind(shape.None)
		if e.drawKind != shape.None && e.switching == nil {
			// the label was rejected and drawing goes on
			return
		}
	}
	if !on {
		if e.selected != nil {
			e.selected.Deselect()
			e.selected = nil
		}
		for _, o := range e.objects {
			if o.Hovered() {
				o.SetHover(false)
				o.Render()
			}
		}
	}
	e.selectMode = on
	if on && e.hasPointer {
		e.updateHover(e.view.ToImage(e.pointer))
	}
	e.bus.Emit(event.Select, event.SelectPayload{Status: on})
}

// SelectByID puts a committed object into edit. Unknown ids are ignored.
func (e *Engine) SelectByID(id string) {
	o := e.Get(id)
	if o == nil {
		return
	}
	if o.Status() != annotation.StatusDone && o.Status() != annotation.StatusEdit {
		return
	}
	o.Select()
	e.bus.Emit(event.Change, nil)
}

// SetLabel overwrites an object's label and color. Unknown ids are ignored.
func (e *Engine) SetLabel(id string, data annotation.LabelData) {
	o := e.Get(id)
	if o == nil {
		return
	}
	o.SetLabel(data)
	e.bus.Emit(event.Change, nil)
}

// Delete removes an object. Unknown ids are ignored.
func (e *Engine) Delete(id string) {
	if o := e.Get(id); o != nil {
		e.remove(o)
	}
}

// Reorder moves the listed objects, in the given order, after every object
// that is not listed, then renumbers. Unknown ids are ignored and an object
// in draw stays last.
func (e *Engine) Reorder(ids []string) {
	listed := make([]*annotation.Object, 0, len(ids))
	seen := make(map[*annotation.Object]bool, len(ids))
	for _, id := range ids {
		if o := e.Get(id); o != nil && !seen[o] {
			seen[o] = true
			listed = append(listed, o)
		}
	}

	ordered := make([]*annotation.Object, 0, len(e.objects))
	for _, o := range e.objects {
		if !seen[o] {
			ordered = append(ordered, o)
		}
	}
	ordered = append(ordered, listed...)

	if d := e.drawing(); d != nil {
		for i, o := range ordered {
			if o == d {
				ordered = append(append(ordered[:i:i], ordered[i+1:]...), d)
				break
			}
		}
	}

	e.objects = ordered
	e.reindex()
	e.bus.Emit(event.Change, nil)
}

// Clear destroys every object and drops the background. Drawing stays armed.
func (e *Engine) Clear() {
	for _, o := range e.objects {
		o.Destroy()
	}
	e.objects = nil
	e.selected = nil
	e.requests = make(map[string]pendingLabel)
	e.content = geometry.Size{}
	if bc, ok := e.surface.(BackgroundClearer); ok {
		bc.ClearBackground()
	}
	if sw := e.switching; sw != nil {
		e.switching = nil
		e.armKind(sw.next)
	}
	e.spawnIfDrawing()
	e.bus.Emit(event.Change, nil)
}

// Objects lists every object except one being drawn or awaiting a label.
func (e *Engine) Objects() []annotation.Info {
	out := make([]annotation.Info, 0, len(e.objects))
	for _, o := range e.objects {
		if committed(o) {
			out = append(out, o.Info())
		}
	}
	return out
}

// Export returns the records of every committed object in list order.
func (e *Engine) Export() []annotation.Record {
	out := make([]annotation.Record, 0, len(e.objects))
	for _, o := range e.objects {
		if committed(o) {
			out = append(out, o.Export())
		}
	}
	return out
}

// Import appends records as done objects without validating their geometry.
// Records of unknown kinds are skipped and reported in the returned error;
// the rest are still imported.
func (e *Engine) Import(records []annotation.Record) error {
	if e.closed {
		return ErrClosed
	}

	var errs []error
	var imported []*annotation.Object
	for i, rec := range records {
		o, err := annotation.FromRecord(e, rec, len(e.objects)+len(imported)+1)
		if err != nil {
			e.log.Warn().Err(err).Int("record", i).Msg("skipping record")
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		imported = append(imported, o)
	}

	if d := e.drawing(); d != nil {
		rest := make([]*annotation.Object, 0, len(e.objects)+len(imported))
		for _, o := range e.objects {
			if o != d {
				rest = append(rest, o)
			}
		}
		e.objects = append(append(rest, imported...), d)
	} else {
		e.objects = append(e.objects, imported...)
	}

	e.reindex()
	e.bus.Emit(event.Change, nil)
	return errors.Join(errs...)
}

func committed(o *annotation.Object) bool {
	s := o.Status()
	return s == annotation.StatusDone || s == annotation.StatusEdit
}
