// Package canvas provides the annotation canvas widget: it paints a scene and
// feeds raw pointer, wheel and key input to an engine.
package canvas

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"markcanvas/internal/engine"
	"markcanvas/internal/surface"
	"markcanvas/pkg/geometry"
)

// AnnotationCanvas is a widget that displays a surface.Scene and is an
// engine.Input.
type AnnotationCanvas struct {
	widget.BaseWidget

	scene  *surface.Scene
	raster *fynecanvas.Raster

	mu       sync.Mutex
	handlers []engine.Handler
	intent   func() engine.Intent

	held     desktop.MouseButton
	lastSize fyne.Size

	// Last rendered output, for snapshots
	lastOutput *image.RGBA
}

var (
	_ engine.Input           = (*AnnotationCanvas)(nil)
	_ desktop.Mouseable      = (*AnnotationCanvas)(nil)
	_ desktop.Hoverable      = (*AnnotationCanvas)(nil)
	_ desktop.Cursorable     = (*AnnotationCanvas)(nil)
	_ fyne.Scrollable        = (*AnnotationCanvas)(nil)
	_ fyne.DoubleTappable    = (*AnnotationCanvas)(nil)
	_ fyne.SecondaryTappable = (*AnnotationCanvas)(nil)
)

// NewAnnotationCanvas creates a canvas painting scene. The widget refreshes
// whenever the scene changes.
func NewAnnotationCanvas(scene *surface.Scene) *AnnotationCanvas {
	ac := &AnnotationCanvas{scene: scene}

	ac.raster = fynecanvas.NewRaster(ac.draw)
	ac.raster.ScaleMode = fynecanvas.ImageScalePixels
	scene.SetOnChange(ac.raster.Refresh)

	ac.ExtendBaseWidget(ac)
	return ac
}

// Scene returns the painted scene.
func (ac *AnnotationCanvas) Scene() *surface.Scene { return ac.scene }

// SetBackground sets the image painted under the annotations.
func (ac *AnnotationCanvas) SetBackground(img image.Image) {
	ac.scene.SetBackground(img)
}

// SetIntentSource supplies the mode used to pick the mouse cursor.
func (ac *AnnotationCanvas) SetIntentSource(fn func() engine.Intent) {
	ac.mu.Lock()
	ac.intent = fn
	ac.mu.Unlock()
}

// Subscribe delivers input to h until the returned func is called.
func (ac *AnnotationCanvas) Subscribe(h engine.Handler) func() {
	ac.mu.Lock()
	ac.handlers = append(ac.handlers, h)
	ac.mu.Unlock()

	if size := ac.Size(); size.Width > 0 && size.Height > 0 {
		h.Resize(toSize(size))
	}

	return func() {
		ac.mu.Lock()
		defer ac.mu.Unlock()
		for i, existing := range ac.handlers {
			if existing == h {
				ac.handlers = append(ac.handlers[:i], ac.handlers[i+1:]...)
				return
			}
		}
	}
}

// AttachKeys routes key presses on c to the subscribers. Keys only arrive on
// desktop canvases.
func (ac *AnnotationCanvas) AttachKeys(c fyne.Canvas) {
	dc, ok := c.(desktop.Canvas)
	if !ok {
		return
	}
	dc.SetOnKeyDown(ac.keyDown)
	dc.SetOnKeyUp(ac.keyUp)
}

func (ac *AnnotationCanvas) each(fn func(h engine.Handler)) {
	ac.mu.Lock()
	hs := append([]engine.Handler(nil), ac.handlers...)
	ac.mu.Unlock()
	for _, h := range hs {
		fn(h)
	}
}

// MouseDown implements desktop.Mouseable.
func (ac *AnnotationCanvas) MouseDown(ev *desktop.MouseEvent) {
	ac.held = ev.Button
	pe := engine.PointerEvent{Position: toPoint(ev.Position), Button: toButton(ev.Button)}
	ac.each(func(h engine.Handler) { h.PointerDown(pe) })
}

// MouseUp implements desktop.Mouseable.
func (ac *AnnotationCanvas) MouseUp(ev *desktop.MouseEvent) {
	ac.held = 0
	pe := engine.PointerEvent{Position: toPoint(ev.Position), Button: toButton(ev.Button)}
	ac.each(func(h engine.Handler) { h.PointerUp(pe) })
}

// MouseIn implements desktop.Hoverable.
func (ac *AnnotationCanvas) MouseIn(ev *desktop.MouseEvent) {
	ac.MouseMoved(ev)
}

// MouseMoved implements desktop.Hoverable. The held button comes from the
// last press since move events do not reliably carry it.
func (ac *AnnotationCanvas) MouseMoved(ev *desktop.MouseEvent) {
	pe := engine.PointerEvent{Position: toPoint(ev.Position), Button: toButton(ac.held)}
	ac.each(func(h engine.Handler) { h.PointerMove(pe) })
}

// MouseOut implements desktop.Hoverable.
func (ac *AnnotationCanvas) MouseOut() {
	ac.held = 0
	ac.each(func(h engine.Handler) { h.PointerLeave() })
}

// Scrolled implements fyne.Scrollable; the wheel zooms.
func (ac *AnnotationCanvas) Scrolled(ev *fyne.ScrollEvent) {
	var delta float64
	switch {
	case ev.Scrolled.DY > 0:
		delta = 1
	case ev.Scrolled.DY < 0:
		delta = -1
	default:
		return
	}
	we := engine.WheelEvent{Position: toPoint(ev.Position), Delta: delta}
	ac.each(func(h engine.Handler) { h.Wheel(we) })
}

// DoubleTapped implements fyne.DoubleTappable.
func (ac *AnnotationCanvas) DoubleTapped(ev *fyne.PointEvent) {
	pe := engine.PointerEvent{Position: toPoint(ev.Position), Button: engine.ButtonPrimary}
	ac.each(func(h engine.Handler) { h.DoubleClick(pe) })
}

// TappedSecondary implements fyne.SecondaryTappable.
func (ac *AnnotationCanvas) TappedSecondary(ev *fyne.PointEvent) {
	// Workaround for Fyne bug: reject clicks outside widget bounds
	size := ac.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	pe := engine.PointerEvent{Position: toPoint(ev.Position), Button: engine.ButtonSecondary}
	ac.each(func(h engine.Handler) { h.ContextMenu(pe) })
}

// Cursor implements desktop.Cursorable.
func (ac *AnnotationCanvas) Cursor() desktop.Cursor {
	ac.mu.Lock()
	fn := ac.intent
	ac.mu.Unlock()
	if fn == nil {
		return desktop.DefaultCursor
	}
	switch fn() {
	case engine.IntentPan:
		return desktop.PointerCursor
	case engine.IntentDraw:
		return desktop.CrosshairCursor
	}
	return desktop.DefaultCursor
}

func (ac *AnnotationCanvas) keyDown(ev *fyne.KeyEvent) {
	k := toKey(ev.Name)
	ac.each(func(h engine.Handler) { h.KeyDown(k) })
}

func (ac *AnnotationCanvas) keyUp(ev *fyne.KeyEvent) {
	k := toKey(ev.Name)
	ac.each(func(h engine.Handler) { h.KeyUp(k) })
}

// checkResize forwards a changed widget size to the subscribers.
func (ac *AnnotationCanvas) checkResize(size fyne.Size) {
	if size.Width <= 0 || size.Height <= 0 || size == ac.lastSize {
		return
	}
	ac.lastSize = size
	s := toSize(size)
	ac.each(func(h engine.Handler) { h.Resize(s) })
}

// GetRenderedOutput returns the last painted frame.
func (ac *AnnotationCanvas) GetRenderedOutput() *image.RGBA {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.lastOutput
}

// draw paints at the widget's logical size so device coordinates match the
// pointer events; the raster stretches the result onto the pixel grid.
func (ac *AnnotationCanvas) draw(w, h int) image.Image {
	if size := ac.Size(); size.Width > 0 && size.Height > 0 {
		w, h = int(size.Width), int(size.Height)
	}
	output := ac.scene.Paint(w, h)

	ac.mu.Lock()
	ac.lastOutput = output
	ac.mu.Unlock()
	return output
}

// CreateRenderer implements fyne.Widget.
func (ac *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &annotationCanvasRenderer{canvas: ac}
}

type annotationCanvasRenderer struct {
	canvas *AnnotationCanvas
}

func (r *annotationCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
	r.canvas.checkResize(size)
}

func (r *annotationCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *annotationCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *annotationCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *annotationCanvasRenderer) Destroy() {}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

func toSize(s fyne.Size) geometry.Size {
	return geometry.Size{Width: float64(s.Width), Height: float64(s.Height)}
}

func toButton(b desktop.MouseButton) engine.Button {
	switch b {
	case desktop.MouseButtonPrimary:
		return engine.ButtonPrimary
	case desktop.MouseButtonSecondary:
		return engine.ButtonSecondary
	case desktop.MouseButtonTertiary:
		return engine.ButtonTertiary
	}
	return engine.ButtonNone
}

// toKey maps fyne key names onto engine keys. Return is the main Enter key
// and fyne's Enter is the keypad one. Other names pass through, so a
// configured pan key can be any fyne key name.
func toKey(name fyne.KeyName) engine.Key {
	switch name {
	case fyne.KeySpace:
		return engine.KeySpace
	case fyne.KeyReturn:
		return engine.KeyEnter
	case fyne.KeyEnter:
		return engine.KeyNumpadEnter
	case fyne.KeyDelete:
		return engine.KeyDelete
	}
	return engine.Key(name)
}
