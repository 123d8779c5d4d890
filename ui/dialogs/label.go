// Package dialogs provides application dialogs.
package dialogs

import (
	"errors"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"markcanvas/internal/annotation"
	"markcanvas/pkg/colorutil"
)

var errEmptyLabel = errors.New("label is required")

// History remembers the labels used in a session with their last colour.
type History struct {
	mu     sync.Mutex
	order  []string
	colors map[string]string
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{colors: make(map[string]string)}
}

// Remember records data as the most recent use of its label.
func (h *History) Remember(data annotation.LabelData) {
	if data.Label == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, l := range h.order {
		if l == data.Label {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.order = append([]string{data.Label}, h.order...)
	h.colors[data.Label] = data.Color
}

// Labels returns the labels, most recent first.
func (h *History) Labels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

// ColorFor returns the colour last used with label.
func (h *History) ColorFor(label string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.colors[label]
	return c, ok
}

// LabelDialog asks for a label and colour.
type LabelDialog struct {
	title   string
	window  fyne.Window
	history *History
	onDone  func(data annotation.LabelData, ok bool)

	labelEntry *widget.SelectEntry
	colorEntry *widget.Entry
}

// NewLabelDialog creates a dialog prefilled with initial. onDone runs once,
// with ok false when the dialog is dismissed.
func NewLabelDialog(title string, initial annotation.LabelData, history *History, window fyne.Window,
	onDone func(data annotation.LabelData, ok bool)) *LabelDialog {
	d := &LabelDialog{
		title:   title,
		window:  window,
		history: history,
		onDone:  onDone,
	}

	d.labelEntry = widget.NewSelectEntry(history.Labels())
	d.labelEntry.SetPlaceHolder("e.g. car")
	d.labelEntry.Validator = func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errEmptyLabel
		}
		return nil
	}

	d.colorEntry = widget.NewEntry()
	d.colorEntry.SetPlaceHolder("#ff0000")
	d.colorEntry.Validator = func(s string) error {
		if s == "" {
			return nil
		}
		_, err := colorutil.Parse(s)
		return err
	}

	// Picking a known label brings its colour along
	d.labelEntry.OnChanged = func(s string) {
		if c, ok := history.ColorFor(strings.TrimSpace(s)); ok && c != "" {
			d.colorEntry.SetText(c)
		}
	}

	d.labelEntry.SetText(initial.Label)
	if initial.Color != "" {
		d.colorEntry.SetText(initial.Color)
	}
	return d
}

// Show displays the dialog.
func (d *LabelDialog) Show() {
	items := []*widget.FormItem{
		widget.NewFormItem("Label", d.labelEntry),
		widget.NewFormItem("Color", d.colorEntry),
	}
	dlg := dialog.NewForm(d.title, "OK", "Cancel", items, d.submit, d.window)
	dlg.Resize(fyne.NewSize(360, dlg.MinSize().Height))
	dlg.Show()
	if c := d.window.Canvas(); c != nil {
		c.Focus(d.labelEntry)
	}
}

// submit answers the dialog. A confirmation without a valid label counts as
// a dismissal.
func (d *LabelDialog) submit(ok bool) {
	data := annotation.LabelData{
		Label: strings.TrimSpace(d.labelEntry.Text),
		Color: strings.TrimSpace(d.colorEntry.Text),
	}
	if ok && (d.labelEntry.Validate() != nil || d.colorEntry.Validate() != nil) {
		ok = false
	}
	if ok {
		d.history.Remember(data)
	}
	if d.onDone != nil {
		done := d.onDone
		d.onDone = nil
		done(data, ok)
	}
}
