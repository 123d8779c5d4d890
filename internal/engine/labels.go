package engine

import (
	"github.com/google/uuid"

	"markcanvas/internal/annotation"
	"markcanvas/internal/event"
	"markcanvas/internal/shape"
	"markcanvas/pkg/geometry"
)

type pendingLabel struct {
	obj        *annotation.Object
	completion *annotation.Completion
}

// LabelRequest is the payload of an oncomplete event. The host answers it
// exactly once with Resolve or Reject, either synchronously from the
// listener or later from the engine's goroutine.
type LabelRequest struct {
	Token     string             `json:"token"`
	ObjectID  string             `json:"objectId"`
	Type      shape.Kind         `json:"type"`
	Index     int                `json:"index"`
	PointList []geometry.Point2D `json:"pointList"`

	engine *Engine
}

// Resolve commits the object with the given label.
func (r *LabelRequest) Resolve(data annotation.LabelData) error {
	return r.engine.ResolveLabel(r.Token, data)
}

// Reject cancels labelling; the object restarts drawing.
func (r *LabelRequest) Reject() error {
	return r.engine.RejectLabel(r.Token)
}

// RequestLabel registers a request token for o and emits oncomplete.
func (e *Engine) RequestLabel(o *annotation.Object, c *annotation.Completion) {
	token := uuid.NewString()
	e.requests[token] = pendingLabel{obj: o, completion: c}

	e.log.Debug().Str("token", token).Str("object", o.ID()).Msg("label requested")
	e.bus.Emit(event.Complete, &LabelRequest{
		Token:     token,
		ObjectID:  o.ID(),
		Type:      o.Kind(),
		Index:     o.Index(),
		PointList: o.Points(),
		engine:    e,
	})
}

// PendingLabels returns the number of outstanding label requests.
func (e *Engine) PendingLabels() int { return len(e.requests) }

// ResolveLabel answers a request with a label: the object becomes done and,
// if drawing is still active, a fresh object of the drawing kind is armed. A
// kind switch waiting on the object takes effect here.
func (e *Engine) ResolveLabel(token string, data annotation.LabelData) error {
	p, ok := e.requests[token]
	if !ok {
		return ErrUnknownRequest
	}
	delete(e.requests, token)

	if err := p.obj.Commit(data); err != nil {
		return err
	}
	e.log.Debug().Str("object", p.obj.ID()).Str("label", data.Label).Msg("label resolved")

	if sw := e.switching; sw != nil && sw.obj == p.obj {
		e.switching = nil
		e.armKind(sw.next)
	} else {
		e.spawnIfDrawing()
	}
	e.bus.Emit(event.Change, nil)
	return nil
}

// RejectLabel cancels a request. The object clears its points and draws
// again at the end of the list. A kind switch waiting on it is abandoned.
// If drawing has moved on to another object or kind, it is removed instead.
func (e *Engine) RejectLabel(token string) error {
	p, ok := e.requests[token]
	if !ok {
		return ErrUnknownRequest
	}
	delete(e.requests, token)

	if err := p.obj.Restart(); err != nil {
		return err
	}
	e.log.Debug().Str("object", p.obj.ID()).Msg("label rejected")

	if sw := e.switching; sw != nil && sw.obj == p.obj {
		// the kind switch is abandoned and the object keeps drawing
		e.switching = nil
		e.SetSelectMode(false)
		e.moveToEnd(p.obj)
		return nil
	}
	if e.drawKind != p.obj.Kind() || e.otherDrawing(p.obj) {
		e.remove(p.obj)
		return nil
	}
	e.moveToEnd(p.obj)
	return nil
}

func (e *Engine) dropRequests(o *annotation.Object) {
	for token, p := range e.requests {
		if p.obj == o {
			delete(e.requests, token)
		}
	}
}
