// Package engine is the annotation interaction controller. It owns the
// object list, the viewport and the interaction modes, turns raw device
// input into object state transitions and publishes every change on its bus.
//
// An Engine is not safe for concurrent use; drive it from one goroutine.
package engine

import (
	"errors"
	"image/color"

	"github.com/rs/zerolog"

	"markcanvas/internal/annotation"
	"markcanvas/internal/config"
	"markcanvas/internal/event"
	"markcanvas/internal/shape"
	"markcanvas/internal/surface"
	"markcanvas/internal/viewport"
	"markcanvas/pkg/colorutil"
	"markcanvas/pkg/geometry"
)

// ErrUnknownRequest is returned when answering a label request that is not
// outstanding.
var ErrUnknownRequest = errors.New("unknown label request")

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("engine closed")

// GuideStyle configures the crosshair overlay.
type GuideStyle struct {
	Enabled bool
	Dash    float64
	Period  float64
	Color   color.RGBA
}

// Options configures an Engine.
type Options struct {
	Thresholds shape.Thresholds
	Style      annotation.Style
	Viewport   viewport.Options
	Guide      GuideStyle
	PanKey     Key
	Logger     zerolog.Logger
}

// DefaultOptions returns the stock settings with logging disabled.
func DefaultOptions() Options {
	return Options{
		Thresholds: shape.DefaultThresholds,
		Style:      annotation.Style{LineWidth: 2, DefaultColor: "#ff0000"},
		Viewport:   viewport.DefaultOptions,
		Guide: GuideStyle{
			Enabled: true,
			Dash:    10,
			Period:  15,
			Color:   color.RGBA{R: 255, G: 255, B: 255, A: 204},
		},
		PanKey: KeySpace,
		Logger: zerolog.Nop(),
	}
}

// OptionsFromConfig converts loaded settings into engine options.
func OptionsFromConfig(c config.Config, log zerolog.Logger) Options {
	opts := DefaultOptions()
	e := c.Engine
	opts.Thresholds = shape.Thresholds{
		HandleRadius:    e.HandleRadius,
		CloseRadius:     e.CloseRadius,
		LineMinLength:   e.LineMinLength,
		CircleMinRadius: e.CircleMinRadius,
	}
	opts.Style = annotation.Style{LineWidth: e.LineWidth, DefaultColor: e.DefaultColor}
	opts.Viewport = viewport.Options{ZoomIn: e.ZoomIn, ZoomOut: e.ZoomOut, MinZoom: e.MinZoom, MaxZoom: e.MaxZoom}
	if e.PanKey != "" {
		opts.PanKey = Key(e.PanKey)
	}
	opts.Guide = GuideStyle{
		Enabled: c.Guide.Enabled,
		Dash:    c.Guide.Dash,
		Period:  c.Guide.Period,
		Color:   colorutil.ParseOr(c.Guide.Color, opts.Guide.Color),
	}
	opts.Logger = log
	return opts
}

// Engine drives a set of annotation objects over a background image.
type Engine struct {
	bus     *event.Bus
	surface surface.Surface
	view    *viewport.Viewport
	opts    Options
	log     zerolog.Logger

	objects    []*annotation.Object
	selected   *annotation.Object
	drawKind   shape.Kind
	selectMode bool
	panMode    bool

	pointer    geometry.Point2D
	hasPointer bool
	content    geometry.Size
	viewSize   geometry.Size

	requests  map[string]pendingLabel
	switching *kindSwitch
	guide    *surface.Group
	releases []func()
	closed   bool
}

var _ annotation.Host = (*Engine)(nil)

// New creates an engine drawing into surf. A nil surf gets an in-memory scene.
func New(surf surface.Surface, opts Options) *Engine {
	if surf == nil {
		surf = surface.NewScene()
	}
	bus := event.NewBus()
	e := &Engine{
		bus:        bus,
		surface:    surf,
		view:       viewport.New(bus, surf, opts.Viewport),
		opts:       opts,
		log:        opts.Logger,
		selectMode: true,
		requests:   make(map[string]pendingLabel),
		guide:      surface.NewGroup(surface.LayerGuide),
	}
	surf.Add(e.guide)
	return e
}

// Bus returns the notification bus.
func (e *Engine) Bus() *event.Bus { return e.bus }

// Surface returns the rendering surface.
func (e *Engine) Surface() surface.Surface { return e.surface }

// Viewport returns the viewport.
func (e *Engine) Viewport() *viewport.Viewport { return e.view }

// Zoom returns the current zoom factor.
func (e *Engine) Zoom() float64 { return e.view.Zoom() }

// Thresholds returns the interaction tolerances.
func (e *Engine) Thresholds() shape.Thresholds { return e.opts.Thresholds }

// Style returns the render settings.
func (e *Engine) Style() annotation.Style { return e.opts.Style }

// Logger returns the engine logger.
func (e *Engine) Logger() zerolog.Logger { return e.log }

// Selected returns the object in edit, if any.
func (e *Engine) Selected() *annotation.Object { return e.selected }

// SetSelected records the object in edit.
func (e *Engine) SetSelected(o *annotation.Object) { e.selected = o }

// DrawKind returns the active drawing kind, shape.None when not drawing.
func (e *Engine) DrawKind() shape.Kind { return e.drawKind }

// SelectMode reports whether selection mode is on.
func (e *Engine) SelectMode() bool { return e.selectMode }

// PanMode reports whether the pan modifier is held.
func (e *Engine) PanMode() bool { return e.panMode }

// Pointer returns the last pointer position in image space.
func (e *Engine) Pointer() (geometry.Point2D, bool) {
	return e.view.ToImage(e.pointer), e.hasPointer
}

// Content returns the natural size of the background.
func (e *Engine) Content() geometry.Size { return e.content }

// Intent is the exclusive cursor intent derived from the modes.
type Intent int

const (
	IntentNone Intent = iota
	IntentPan
	IntentSelect
	IntentDraw
)

func (i Intent) String() string {
	switch i {
	case IntentPan:
		return "pan"
	case IntentSelect:
		return "select"
	case IntentDraw:
		return "draw"
	}
	return "none"
}

// Intent returns the current cursor intent. Pan wins while its key is held.
func (e *Engine) Intent() Intent {
	switch {
	case e.panMode:
		return IntentPan
	case e.drawKind != shape.None:
		return IntentDraw
	case e.selectMode:
		return IntentSelect
	}
	return IntentNone
}

// SetBackground is the image-load callback: it records the natural size and
// fits the view to it.
func (e *Engine) SetBackground(size geometry.Size) {
	e.content = size
	e.Fit()
}

// Resize records the view size. The first usable size fits the background.
func (e *Engine) Resize(view geometry.Size) {
	first := e.viewSize.Empty()
	e.viewSize = view
	if first && !e.content.Empty() {
		e.Fit()
	}
	e.renderGuide()
}

// Fit fits the background into the view and makes that the new baseline.
func (e *Engine) Fit() {
	if e.content.Empty() || e.viewSize.Empty() {
		return
	}
	l := e.view.Fit(e.content, e.viewSize)
	e.log.Debug().Float64("zoom", l.Zoom).Float64("x", l.OffsetX).Float64("y", l.OffsetY).Msg("fit to view")
}

// Attach subscribes the engine to an input source. The returned function
// releases the subscription; Close releases every attachment.
func (e *Engine) Attach(in Input) func() {
	release := in.Subscribe(e)
	done := false
	once := func() {
		if !done {
			done = true
			release()
		}
	}
	e.releases = append(e.releases, once)
	return once
}

// Close releases input attachments, destroys every object and removes the
// guide overlay. Outstanding label requests fail with annotation.ErrDestroyed.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	for _, release := range e.releases {
		release()
	}
	e.releases = nil
	for _, o := range e.objects {
		o.Destroy()
	}
	e.objects = nil
	e.selected = nil
	e.requests = make(map[string]pendingLabel)
	e.switching = nil
	e.surface.Remove(e.guide)
}
