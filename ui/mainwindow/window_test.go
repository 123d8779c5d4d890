package mainwindow

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markcanvas/internal/app"
	"markcanvas/internal/engine"
	"markcanvas/internal/shape"
	"markcanvas/internal/surface"
	"markcanvas/ui/canvas"
	"markcanvas/ui/prefs"
)

func newWindow(t *testing.T) (*MainWindow, *app.State) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	scene := surface.NewScene()
	eng := engine.New(scene, engine.DefaultOptions())
	t.Cleanup(eng.Close)
	state := app.NewState(eng, nil, zerolog.Nop())
	p := prefs.LoadFrom(filepath.Join(t.TempDir(), "preferences.json"))

	return New(a, state, canvas.NewAnnotationCanvas(scene), p, zerolog.Nop()), state
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "street.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 64, 48))))
	require.NoError(t, f.Close())
	return path
}

func TestOpenImage(t *testing.T) {
	mw, state := newWindow(t)
	path := writePNG(t)

	require.NoError(t, mw.OpenPath(path))
	assert.Equal(t, "MarkCanvas - street.png", mw.Title())
	assert.Equal(t, path, mw.prefs.LastImage())
	assert.Equal(t, 64, state.Background.Width())

	state.SetModified(true)
	assert.Equal(t, "MarkCanvas - street.png *", mw.Title())
}

func TestOpenMissingProject(t *testing.T) {
	mw, _ := newWindow(t)
	err := mw.OpenPath(filepath.Join(t.TempDir(), "gone.markproj"))
	assert.Error(t, err)
	assert.Empty(t, mw.prefs.LastProject())
}

func TestDrawKindUpdatesMode(t *testing.T) {
	mw, state := newWindow(t)

	mw.onDrawKind(shape.Polygon)
	assert.Equal(t, shape.Polygon, state.Engine.DrawKind())
	assert.Equal(t, "polygon", mw.prefs.LastKind())
	assert.Equal(t, "draw: polygon", mw.modeLabel.Text)

	// choosing the same kind again stops drawing
	mw.onDrawKind(shape.Polygon)
	assert.Equal(t, shape.None, state.Engine.DrawKind())
	assert.Equal(t, "none", mw.modeLabel.Text)
}

func TestRestoreSessionReopensImage(t *testing.T) {
	mw, state := newWindow(t)
	path := writePNG(t)
	mw.prefs.SetLastImage(path)
	mw.prefs.SetLastKind("rect")

	mw.RestoreSession()
	assert.NotEmpty(t, state.ImagePath)
	assert.Equal(t, shape.Rectangle, state.Engine.DrawKind())
}
