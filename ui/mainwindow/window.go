// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"markcanvas/internal/annotation"
	"markcanvas/internal/app"
	"markcanvas/internal/background"
	"markcanvas/internal/engine"
	"markcanvas/internal/event"
	"markcanvas/internal/project"
	"markcanvas/internal/shape"
	"markcanvas/internal/version"
	"markcanvas/pkg/geometry"
	"markcanvas/ui/canvas"
	"markcanvas/ui/dialogs"
	"markcanvas/ui/panels"
	"markcanvas/ui/prefs"
)

const appTitle = "MarkCanvas"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs
	log   zerolog.Logger

	canvas    *canvas.AnnotationCanvas
	objects   *panels.ObjectsPanel
	statusBar *widget.Label
	modeLabel *widget.Label
	history   *dialogs.History

	defaultColor string
}

// New creates the main window around an engine whose surface is the scene
// painted by the canvas widget.
func New(fyneApp fyne.App, state *app.State, ac *canvas.AnnotationCanvas, p *prefs.Prefs, log zerolog.Logger) *MainWindow {
	mw := &MainWindow{
		Window:       fyneApp.NewWindow(appTitle),
		app:          fyneApp,
		state:        state,
		prefs:        p,
		log:          log,
		canvas:       ac,
		history:      dialogs.NewHistory(),
		defaultColor: state.Engine.Style().DefaultColor,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	w, h := p.WindowSize()
	mw.Resize(fyne.NewSize(float32(w), float32(h)))
	mw.SetCloseIntercept(mw.onClose)
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	eng := mw.state.Engine

	mw.canvas.SetIntentSource(eng.Intent)
	eng.Attach(mw.canvas)
	mw.canvas.AttachKeys(mw.Canvas())

	mw.objects = panels.NewObjectsPanel(eng)
	mw.objects.OnRelabel = mw.relabel

	mw.statusBar = widget.NewLabel("Ready")
	mw.modeLabel = widget.NewLabel("")
	mw.updateMode()

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,   // top
		nil,       // bottom
		nil,       // left
		nil,       // right
		mw.canvas, // center
	)

	split := container.NewHSplit(mw.objects.Container(), canvasArea)
	split.SetOffset(0.2)

	content := container.NewBorder(
		nil, // top
		container.NewPadded(container.NewBorder(nil, nil, nil, mw.modeLabel, mw.statusBar)), // bottom
		nil,   // left
		nil,   // right
		split, // center
	)
	mw.SetContent(content)
}

// createToolbar creates the toolbar with the mode buttons.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	eng := mw.state.Engine

	kindButton := func(label string, kind shape.Kind) *widget.Button {
		return widget.NewButton(label, func() { mw.onDrawKind(kind) })
	}

	return widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), mw.onOpenImage),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), mw.onSaveProject),
		widget.NewToolbarSeparator(),
		toolbarObject{widget.NewButton("Select", func() {
			eng.SetSelectMode(!eng.SelectMode())
			mw.updateMode()
		})},
		toolbarObject{kindButton("Rect", shape.Rectangle)},
		toolbarObject{kindButton("Polygon", shape.Polygon)},
		toolbarObject{kindButton("Line", shape.Line)},
		toolbarObject{kindButton("Circle", shape.Circle)},
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomFitIcon(), mw.onFit),
		widget.NewToolbarAction(theme.DeleteIcon(), mw.onDeleteSelected),
	)
}

// toolbarObject places an arbitrary widget in a toolbar.
type toolbarObject struct {
	obj fyne.CanvasObject
}

func (t toolbarObject) ToolbarObject() fyne.CanvasObject { return t.obj }

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItem("Export JSON...", mw.onExportJSON),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Delete Selected", mw.onDeleteSelected),
		fyne.NewMenuItem("Clear Annotations", mw.onClear),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.zoomCenter(1) }),
		fyne.NewMenuItem("Zoom Out", func() { mw.zoomCenter(-1) }),
		fyne.NewMenuItem("Fit to Window", mw.onFit),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for engine and application events.
func (mw *MainWindow) setupEventHandlers() {
	bus := mw.state.Engine.Bus()

	bus.On(event.Complete, func(data interface{}) {
		if req, ok := data.(*engine.LabelRequest); ok {
			mw.askLabel(req)
		}
	})
	bus.On(event.ContextMenu, func(data interface{}) {
		if p, ok := data.(geometry.Point2D); ok {
			mw.showContextMenu(p)
		}
	})
	bus.On(event.Zoom, func(data interface{}) {
		if z, ok := data.(event.ZoomPayload); ok {
			mw.updateStatus(fmt.Sprintf("Zoom %.0f%%", z.Zoom*100))
		}
	})
	for _, e := range []event.Type{event.Draw, event.Select, event.Move} {
		bus.On(e, func(interface{}) { mw.updateMode() })
	}

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Image loaded: " + path)
		}
	})
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
		}
	})
	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Saved " + path)
		}
	})
	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

// RestoreSession reopens the last project or image.
func (mw *MainWindow) RestoreSession() {
	if path := mw.prefs.LastProject(); path != "" {
		if err := mw.state.LoadProject(path); err == nil {
			return
		}
		mw.log.Warn().Str("path", path).Msg("could not reopen last project")
	}
	if path := mw.prefs.LastImage(); path != "" {
		if err := mw.state.LoadImage(path); err != nil {
			mw.log.Warn().Err(err).Str("path", path).Msg("could not reopen last image")
		}
	}
	if kind, err := shape.ParseKind(mw.prefs.LastKind()); err == nil && kind != shape.None {
		mw.onDrawKind(kind)
	}
}

// OpenPath loads a project or an image given on the command line.
func (mw *MainWindow) OpenPath(path string) error {
	if strings.EqualFold(filepath.Ext(path), project.Extension) {
		if err := mw.state.LoadProject(path); err != nil {
			return err
		}
		mw.prefs.SetLastProject(path)
		return nil
	}
	if err := mw.state.LoadImage(path); err != nil {
		return err
	}
	mw.prefs.SetLastImage(path)
	return nil
}

// askLabel answers a label request through the label dialog.
func (mw *MainWindow) askLabel(req *engine.LabelRequest) {
	initial := annotation.LabelData{Color: mw.defaultColor}
	if labels := mw.history.Labels(); len(labels) > 0 {
		initial.Label = labels[0]
		if c, ok := mw.history.ColorFor(labels[0]); ok && c != "" {
			initial.Color = c
		}
	}

	title := fmt.Sprintf("Label %s #%d", req.Type, req.Index)
	dialogs.NewLabelDialog(title, initial, mw.history, mw.Window, func(data annotation.LabelData, ok bool) {
		var err error
		if ok {
			err = req.Resolve(data)
		} else {
			err = req.Reject()
		}
		if err != nil {
			mw.log.Error().Err(err).Str("object", req.ObjectID).Msg("label request failed")
		}
	}).Show()
}

// relabel edits the label of a committed annotation.
func (mw *MainWindow) relabel(id string) {
	o := mw.state.Engine.Get(id)
	if o == nil {
		return
	}
	initial := annotation.LabelData{Label: o.Label(), Color: o.Color()}
	title := fmt.Sprintf("Label %s #%d", o.Kind(), o.Index())
	dialogs.NewLabelDialog(title, initial, mw.history, mw.Window, func(data annotation.LabelData, ok bool) {
		if ok {
			mw.state.Engine.SetLabel(id, data)
		}
	}).Show()
}

func (mw *MainWindow) showContextMenu(p geometry.Point2D) {
	sel := mw.state.Engine.Selected()
	if sel == nil {
		return
	}
	id := sel.ID()
	menu := fyne.NewMenu("",
		fyne.NewMenuItem("Label...", func() { mw.relabel(id) }),
		fyne.NewMenuItem("Delete", func() { mw.state.Engine.Delete(id) }),
	)
	dev := mw.state.Engine.Viewport().ToDevice(p)
	pos := fyne.CurrentApp().Driver().AbsolutePositionForObject(mw.canvas).
		Add(fyne.NewPos(float32(dev.X), float32(dev.Y)))
	widget.ShowPopUpMenuAtPosition(menu, mw.Canvas(), pos)
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateMode() {
	eng := mw.state.Engine
	text := eng.Intent().String()
	if eng.DrawKind() != shape.None {
		text += ": " + eng.DrawKind().String()
	}
	mw.modeLabel.SetText(text)
	mw.canvas.Refresh()
}

// getLastDir returns the directory of the last opened file as a ListableURI.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.LastImage()
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(path)))
	if err != nil {
		return nil
	}
	return listable
}

// Action handlers

func (mw *MainWindow) onDrawKind(kind shape.Kind) {
	if _, err := mw.state.Engine.SetDrawKind(kind); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.prefs.SetLastKind(string(mw.state.Engine.DrawKind()))
	mw.updateMode()
}

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		if err := mw.OpenPath(reader.URI().Path()); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(background.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		if err := mw.OpenPath(reader.URI().Path()); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{project.Extension}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != project.Extension {
			path += project.Extension
		}
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetLastProject(path)
	}, mw.Window)
	name := "annotations" + project.Extension
	if mw.state.ImagePath != "" {
		name = filepath.Base(project.PathFor(mw.state.ImagePath))
	}
	fd.SetFileName(name)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportJSON() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		if err := mw.state.ExportJSON(writer.URI().Path()); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported " + writer.URI().Path())
	}, mw.Window)
	fd.SetFileName("annotations.json")
	fd.Show()
}

func (mw *MainWindow) onDeleteSelected() {
	if sel := mw.state.Engine.Selected(); sel != nil {
		mw.state.Engine.Delete(sel.ID())
	}
}

func (mw *MainWindow) onClear() {
	dialog.ShowConfirm("Clear Annotations", "Remove every annotation from this image?", func(ok bool) {
		if !ok {
			return
		}
		// Engine.Clear would also drop the background.
		for _, info := range mw.state.Engine.Objects() {
			mw.state.Engine.Delete(info.ID)
		}
	}, mw.Window)
}

func (mw *MainWindow) onFit() {
	mw.state.Engine.Fit()
}

func (mw *MainWindow) zoomCenter(delta float64) {
	size := mw.canvas.Size()
	mw.state.Engine.Wheel(engine.WheelEvent{
		Position: geometry.Point2D{X: float64(size.Width) / 2, Y: float64(size.Height) / 2},
		Delta:    delta,
	})
}

func (mw *MainWindow) onClose() {
	size := mw.Canvas().Size()
	mw.prefs.SetWindowSize(float64(size.Width), float64(size.Height))
	if err := mw.state.SaveToStore(); err != nil {
		mw.log.Error().Err(err).Msg("failed to save annotations")
	}
	if err := mw.prefs.Save(); err != nil {
		mw.log.Error().Err(err).Msg("failed to save preferences")
	}
	mw.state.Engine.Close()
	mw.Close()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Image annotation with rectangles, polygons, lines and circles.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
