// Package event provides the synchronous notification bus that decouples the
// annotation engine from its rendering surface and host application.
package event

import (
	"sync"

	"markcanvas/pkg/geometry"
)

// Type identifies different engine events.
type Type int

const (
	// Change fires when the object list is mutated (add, remove, reorder, label set).
	Change Type = iota
	// Select fires when selection mode is toggled. Payload: SelectPayload.
	Select
	// Draw fires when the active drawing kind changes. Payload: DrawPayload.
	Draw
	// Zoom fires when the viewport zoom changes. Payload: ZoomPayload.
	Zoom
	// Translate fires when the viewport pan changes. Payload: TranslatePayload.
	Translate
	// PointMove relays pointer movement in image space. Payload: geometry.Point2D.
	PointMove
	// PointDown relays primary button presses in image space. Payload: geometry.Point2D.
	PointDown
	// PointUp relays button releases in image space. Payload: geometry.Point2D.
	PointUp
	// PointLeave fires when the pointer leaves the view.
	PointLeave
	// Move fires when pan mode toggles. Payload: MovePayload.
	Move
	// Complete is the label request. Payload is a request the host must answer.
	Complete
	// ContextMenu relays secondary clicks. Payload: geometry.Point2D.
	ContextMenu
)

var typeNames = map[Type]string{
	Change:      "onchange",
	Select:      "onselect",
	Draw:        "ondraw",
	Zoom:        "onzoom",
	Translate:   "onTranslate",
	PointMove:   "onpointmove",
	PointDown:   "onpointdown",
	PointUp:     "onpointup",
	PointLeave:  "onpointleave",
	Move:        "onmove",
	Complete:    "oncomplete",
	ContextMenu: "oncontextmenu",
}

// String returns the wire name of the event.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// SelectPayload carries the new selection-mode state.
type SelectPayload struct {
	Status bool `json:"status"`
}

// DrawPayload carries the new drawing kind; "none" when drawing is off.
type DrawPayload struct {
	Type string `json:"type"`
}

// ZoomPayload carries the new zoom factor.
type ZoomPayload struct {
	Zoom float64 `json:"zoom"`
}

// TranslatePayload carries the new pan offset in device space.
type TranslatePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MovePayload carries the new pan-mode state.
type MovePayload struct {
	Status bool `json:"status"`
}

// Listener is a callback function for events.
type Listener func(data interface{})

type entry struct {
	id       uint64
	listener Listener
	removed  bool
}

// Subscription identifies one registered listener.
type Subscription struct {
	typ Type
	id  uint64
}

// Bus dispatches events to listeners synchronously, in subscription order.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Type][]*entry
	nextID    uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[Type][]*entry)}
}

// On registers a listener for the specified event type.
func (b *Bus) On(typ Type, listener Listener) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners[typ] = append(b.listeners[typ], &entry{id: b.nextID, listener: listener})
	return Subscription{typ: typ, id: b.nextID}
}

// Off removes the given subscriptions. A listener removed while an event is
// being dispatched is not invoked for the remainder of that dispatch.
func (b *Bus) Off(subs ...Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range subs {
		list := b.listeners[sub.typ]
		for i, e := range list {
			if e.id == sub.id {
				e.removed = true
				b.listeners[sub.typ] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Emit triggers all listeners for the specified event type. Listeners added
// during dispatch only see later events.
func (b *Bus) Emit(typ Type, data interface{}) {
	b.mu.RLock()
	listeners := make([]*entry, len(b.listeners[typ]))
	copy(listeners, b.listeners[typ])
	b.mu.RUnlock()

	for _, e := range listeners {
		b.mu.RLock()
		removed := e.removed
		b.mu.RUnlock()
		if removed {
			continue
		}
		e.listener(data)
	}
}

// Count returns the number of listeners for an event type.
func (b *Bus) Count(typ Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[typ])
}

// EmitPoint is a convenience for the pointer relay events.
func (b *Bus) EmitPoint(typ Type, p geometry.Point2D) {
	b.Emit(typ, p)
}
