// Package annotation implements the annotation object: one lifecycle state
// machine shared by every shape kind, parametrised by the kind's geometry.
package annotation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"markcanvas/internal/event"
	"markcanvas/internal/shape"
	"markcanvas/internal/surface"
	"markcanvas/pkg/geometry"
)

// Status is the lifecycle state of an object.
type Status string

const (
	StatusDraw    Status = "draw"
	StatusPending Status = "pending"
	StatusEdit    Status = "edit"
	StatusDone    Status = "done"
)

var (
	// ErrNoLabel is reported when the host rejects a label request.
	ErrNoLabel = errors.New("object has no assigned label")
	// ErrDestroyed is reported when an object is destroyed mid-completion.
	ErrDestroyed = errors.New("object destroyed")
	// ErrInvalidTransition is returned for a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

var transitions = map[Status][]Status{
	StatusDraw:    {StatusPending},
	StatusPending: {StatusDone, StatusDraw},
	StatusDone:    {StatusEdit},
	StatusEdit:    {StatusDone},
}

// Style holds the cosmetic settings used when rendering objects.
type Style struct {
	LineWidth    float64
	DefaultColor string
}

// Host is the owner of a set of objects: the engine.
type Host interface {
	Bus() *event.Bus
	Surface() surface.Surface
	Zoom() float64
	Thresholds() shape.Thresholds
	Style() Style
	Logger() zerolog.Logger

	// Selected returns the object currently in edit, if any.
	Selected() *Object
	// SetSelected records the object in edit; nil clears it.
	SetSelected(o *Object)
	// RequestLabel asks the host application for a label. The engine must
	// eventually call Commit or Restart on o, which settles c.
	RequestLabel(o *Object, c *Completion)
}

// Object is one annotation.
type Object struct {
	host Host
	geom shape.Geometry
	log  zerolog.Logger

	id     string
	kind   shape.Kind
	index  int
	points []geometry.Point2D
	label  string
	color  string
	status Status

	// provisional marks the trailing point of a click-gesture object as the
	// pointer position rather than a placed vertex.
	provisional  bool
	activeHandle int
	hover        bool
	drag         bool
	dragFrom     geometry.Point2D
	dragMoved    bool

	completion *Completion
	group      *surface.Group
	subs       []event.Subscription
	destroyed  bool
}

// New creates an object of kind in draw status and registers it with the
// host's bus and surface.
func New(host Host, kind shape.Kind, index int) (*Object, error) {
	geom, ok := shape.For(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", shape.ErrUnknownKind, string(kind))
	}

	o := &Object{
		host:         host,
		geom:         geom,
		id:           uuid.NewString(),
		kind:         kind,
		index:        index,
		status:       StatusDraw,
		activeHandle: -1,
		group:        surface.NewGroup(surface.LayerObjects),
	}
	o.log = host.Logger().With().Str("object", o.id).Str("kind", string(kind)).Logger()
	o.attach()
	return o, nil
}

// FromRecord reconstructs a committed object in done status. The geometry is
// taken as-is without validation.
func FromRecord(host Host, rec Record, index int) (*Object, error) {
	o, err := New(host, rec.Type, index)
	if err != nil {
		return nil, err
	}
	o.points = append([]geometry.Point2D(nil), rec.PointList...)
	o.label = rec.Label
	o.color = rec.Color
	o.status = StatusDone
	o.Render()
	return o, nil
}

func (o *Object) attach() {
	bus := o.host.Bus()
	o.subs = []event.Subscription{
		bus.On(event.PointDown, func(d interface{}) { o.onPointDown(d.(geometry.Point2D)) }),
		bus.On(event.PointMove, func(d interface{}) { o.onPointMove(d.(geometry.Point2D)) }),
		bus.On(event.PointUp, func(d interface{}) { o.onPointUp(d.(geometry.Point2D)) }),
		bus.On(event.PointLeave, func(interface{}) { o.onPointLeave() }),
		bus.On(event.Zoom, func(interface{}) { o.Render() }),
	}
	o.host.Surface().Add(o.group)
}

// Destroy releases the object's subscriptions and visuals. A pending
// completion fails with ErrDestroyed. Destroy is idempotent.
func (o *Object) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	o.host.Bus().Off(o.subs...)
	o.subs = nil
	o.host.Surface().Remove(o.group)

	if o.completion != nil {
		c := o.completion
		o.completion = nil
		c.settle(false, ErrDestroyed)
	}
	if o.host.Selected() == o {
		o.host.SetSelected(nil)
	}
	o.log.Debug().Msg("destroyed")
}

// ID returns the immutable identifier.
func (o *Object) ID() string { return o.id }

// Kind returns the immutable shape kind.
func (o *Object) Kind() shape.Kind { return o.kind }

// Index returns the 1-based display position.
func (o *Object) Index() int { return o.index }

// SetIndex updates the display position.
func (o *Object) SetIndex(i int) {
	if o.index == i {
		return
	}
	o.index = i
	o.Render()
}

// Status returns the lifecycle state.
func (o *Object) Status() Status { return o.status }

// Label returns the assigned label, empty before completion.
func (o *Object) Label() string { return o.label }

// Color returns the assigned color, empty before completion.
func (o *Object) Color() string { return o.color }

// Points returns a copy of the placed points, without any provisional
// pointer-tracking vertex.
func (o *Object) Points() []geometry.Point2D {
	return append([]geometry.Point2D(nil), o.vertices()...)
}

// ActiveHandle returns the index of the handle under the pointer, or -1.
func (o *Object) ActiveHandle() int { return o.activeHandle }

// Hovered reports the hover flag.
func (o *Object) Hovered() bool { return o.hover }

// Dragging reports the drag flag.
func (o *Object) Dragging() bool { return o.drag }

// Destroyed reports whether Destroy has run.
func (o *Object) Destroyed() bool { return o.destroyed }

// MinPointCount is the kind's minimum number of points.
func (o *Object) MinPointCount() int { return o.geom.MinPointCount() }

// HasMinimum reports whether enough points are placed to attempt completion.
func (o *Object) HasMinimum() bool {
	return len(o.vertices()) >= o.geom.MinPointCount()
}

func (o *Object) vertices() []geometry.Point2D {
	if o.provisional && len(o.points) > 0 {
		return o.points[:len(o.points)-1]
	}
	return o.points
}

func (o *Object) expand() float64 {
	z := o.host.Zoom()
	if z <= 0 {
		z = 1
	}
	return o.host.Thresholds().HandleRadius / z
}

// HitTest reports whether p lies in the object's hit region. Objects that are
// being drawn or awaiting a label never hit.
func (o *Object) HitTest(p geometry.Point2D) bool {
	if o.status != StatusDone && o.status != StatusEdit {
		return false
	}
	return o.geom.Contains(o.points, p, o.expand())
}

// SetHover sets the hover flag without re-rendering.
func (o *Object) SetHover(h bool) { o.hover = h }

func (o *Object) transition(to Status) error {
	for _, allowed := range transitions[o.status] {
		if allowed == to {
			o.log.Debug().Str("from", string(o.status)).Str("to", string(to)).Msg("status")
			o.status = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.status, to)
}

// Complete attempts to commit a draw object. With too few points nothing
// happens; invalid geometry is discarded and the object keeps drawing. Both
// cases settle immediately without committing. Otherwise the object becomes
// pending and the host is asked for a label. Calling Complete on a pending
// object returns the completion already in flight.
func (o *Object) Complete() *Completion {
	if o.status == StatusPending && o.completion != nil {
		return o.completion
	}
	if o.status != StatusDraw {
		return settledCompletion(false, fmt.Errorf("%w: complete from %s", ErrInvalidTransition, o.status))
	}

	o.points = append([]geometry.Point2D(nil), o.vertices()...)
	o.provisional = false

	if len(o.points) < o.geom.MinPointCount() {
		o.Render()
		return settledCompletion(false, nil)
	}
	if !o.geom.CompletionValid(o.points, o.host.Thresholds()) {
		o.log.Debug().Int("points", len(o.points)).Msg("discarding degenerate shape")
		o.points = nil
		o.Render()
		return settledCompletion(false, nil)
	}

	if err := o.transition(StatusPending); err != nil {
		return settledCompletion(false, err)
	}
	o.drag = false
	o.hover = false
	o.completion = newCompletion()
	c := o.completion
	o.Render()
	o.host.RequestLabel(o, c)
	return c
}

// Commit finishes a pending completion with the host's label.
func (o *Object) Commit(data LabelData) error {
	if o.status != StatusPending {
		return fmt.Errorf("%w: commit from %s", ErrInvalidTransition, o.status)
	}
	if err := o.transition(StatusDone); err != nil {
		return err
	}
	o.label = data.Label
	o.color = data.Color
	c := o.completion
	o.completion = nil
	o.Render()
	if c != nil {
		c.settle(true, nil)
	}
	return nil
}

// Restart abandons a pending completion: the points are cleared and the
// object draws again. The completion fails with ErrNoLabel.
func (o *Object) Restart() error {
	if o.status != StatusPending {
		return fmt.Errorf("%w: restart from %s", ErrInvalidTransition, o.status)
	}
	if err := o.transition(StatusDraw); err != nil {
		return err
	}
	o.points = nil
	o.provisional = false
	o.activeHandle = -1
	c := o.completion
	o.completion = nil
	o.Render()
	if c != nil {
		c.settle(false, ErrNoLabel)
	}
	return nil
}

// Select moves a committed object into edit, releasing any other selection.
func (o *Object) Select() {
	if o.status != StatusDone && o.status != StatusEdit {
		return
	}
	if sel := o.host.Selected(); sel != nil && sel != o {
		sel.Deselect()
	}
	if o.status == StatusDone {
		_ = o.transition(StatusEdit)
	}
	o.host.SetSelected(o)
	o.Render()
}

// Deselect returns an edit object to done.
func (o *Object) Deselect() {
	if o.status != StatusEdit {
		return
	}
	_ = o.transition(StatusDone)
	o.drag = false
	o.activeHandle = -1
	if o.host.Selected() == o {
		o.host.SetSelected(nil)
	}
	o.Render()
}

// SetLabel overwrites label and color.
func (o *Object) SetLabel(data LabelData) {
	o.label = data.Label
	o.color = data.Color
	o.Render()
}
