// Package panels provides UI panels for the application.
package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"markcanvas/internal/annotation"
	"markcanvas/internal/engine"
	"markcanvas/internal/event"
)

// ObjectsPanel lists the committed annotations and edits their order.
type ObjectsPanel struct {
	engine    *engine.Engine
	container fyne.CanvasObject

	list  *widget.List
	items []annotation.Info

	// OnRelabel is called with the id of the annotation to relabel.
	OnRelabel func(id string)

	// syncing suppresses list callbacks while the selection is mirrored
	syncing bool
}

// NewObjectsPanel creates the panel and keeps it in sync with eng.
func NewObjectsPanel(eng *engine.Engine) *ObjectsPanel {
	op := &ObjectsPanel{engine: eng}

	op.list = widget.NewList(
		func() int { return len(op.items) },
		func() fyne.CanvasObject { return widget.NewLabel("00  polygon  label") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(op.items) {
				obj.(*widget.Label).SetText(ItemText(op.items[id]))
			}
		},
	)
	op.list.OnSelected = func(id widget.ListItemID) {
		if op.syncing || id >= len(op.items) {
			return
		}
		op.engine.SelectByID(op.items[id].ID)
	}

	upBtn := widget.NewButton("Up", func() { op.move(-1) })
	downBtn := widget.NewButton("Down", func() { op.move(1) })
	relabelBtn := widget.NewButton("Label...", func() {
		if info, ok := op.selected(); ok && op.OnRelabel != nil {
			op.OnRelabel(info.ID)
		}
	})
	deleteBtn := widget.NewButton("Delete", func() {
		if info, ok := op.selected(); ok {
			op.engine.Delete(info.ID)
		}
	})
	deleteBtn.Importance = widget.DangerImportance

	buttons := container.NewGridWithColumns(4, upBtn, downBtn, relabelBtn, deleteBtn)
	op.container = container.NewBorder(widget.NewLabel("Annotations"), buttons, nil, nil, op.list)

	eng.Bus().On(event.Change, func(interface{}) { op.Refresh() })
	op.Refresh()
	return op
}

// Container returns the panel for embedding in layouts.
func (op *ObjectsPanel) Container() fyne.CanvasObject {
	return op.container
}

// Items returns the rows currently shown.
func (op *ObjectsPanel) Items() []annotation.Info {
	return append([]annotation.Info(nil), op.items...)
}

// Refresh reloads the rows and mirrors the engine's selection.
func (op *ObjectsPanel) Refresh() {
	op.items = op.engine.Objects()
	op.list.Refresh()

	op.syncing = true
	defer func() { op.syncing = false }()
	for i, info := range op.items {
		if info.Select {
			op.list.Select(i)
			return
		}
	}
	op.list.UnselectAll()
}

func (op *ObjectsPanel) selected() (annotation.Info, bool) {
	for _, info := range op.items {
		if info.Select {
			return info, true
		}
	}
	return annotation.Info{}, false
}

// move shifts the selected row by delta positions.
func (op *ObjectsPanel) move(delta int) {
	pos := -1
	for i, info := range op.items {
		if info.Select {
			pos = i
			break
		}
	}
	target := pos + delta
	if pos < 0 || target < 0 || target >= len(op.items) {
		return
	}

	ids := make([]string, len(op.items))
	for i, info := range op.items {
		ids[i] = info.ID
	}
	ids[pos], ids[target] = ids[target], ids[pos]
	op.engine.Reorder(ids)
}

// ItemText formats a row.
func ItemText(info annotation.Info) string {
	label := info.Label
	if label == "" {
		label = "-"
	}
	return fmt.Sprintf("%2d  %-7s  %s", info.Index, info.Type, label)
}
