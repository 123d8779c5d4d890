package surface

import (
	"image"
	"sync"
)

// Scene is an in-memory Surface. It records groups in insertion order along
// with the current layer transform, and can rasterise itself with Paint.
type Scene struct {
	mu sync.RWMutex

	groups     []*Group
	scaleX     float64
	scaleY     float64
	translateX float64
	translateY float64
	background image.Image

	onChange func()
}

var _ Surface = (*Scene)(nil)

// NewScene creates an empty scene with an identity transform.
func NewScene() *Scene {
	return &Scene{scaleX: 1, scaleY: 1}
}

// SetOnChange registers a callback invoked after any structural change.
func (s *Scene) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Scene) changed() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Add appends a group. Adding a group twice is a no-op.
func (s *Scene) Add(g *Group) {
	s.mu.Lock()
	for _, existing := range s.groups {
		if existing == g {
			s.mu.Unlock()
			return
		}
	}
	s.groups = append(s.groups, g)
	s.mu.Unlock()
	s.changed()
}

// Remove detaches a group.
func (s *Scene) Remove(g *Group) {
	s.mu.Lock()
	for i, existing := range s.groups {
		if existing == g {
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.changed()
}

// Scale sets the image-space layer scale.
func (s *Scene) Scale(x, y float64) {
	s.mu.Lock()
	s.scaleX, s.scaleY = x, y
	s.mu.Unlock()
	s.changed()
}

// Translate sets the image-space layer offset in device pixels.
func (s *Scene) Translate(x, y float64) {
	s.mu.Lock()
	s.translateX, s.translateY = x, y
	s.mu.Unlock()
	s.changed()
}

// Transform returns the current scale and translation.
func (s *Scene) Transform() (sx, sy, tx, ty float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scaleX, s.scaleY, s.translateX, s.translateY
}

// SetBackground sets the image painted beneath the objects layer. Nil clears it.
func (s *Scene) SetBackground(img image.Image) {
	s.mu.Lock()
	s.background = img
	s.mu.Unlock()
	s.changed()
}

// Background returns the current background image, if any.
func (s *Scene) Background() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

// Groups returns the groups in paint order.
func (s *Scene) Groups() []*Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Group(nil), s.groups...)
}

// Count returns how many groups live on a layer.
func (s *Scene) Count(layer Layer) int {
	n := 0
	for _, g := range s.Groups() {
		if g.Layer == layer {
			n++
		}
	}
	return n
}

// ClearBackground drops the background image.
func (s *Scene) ClearBackground() {
	s.SetBackground(nil)
}
