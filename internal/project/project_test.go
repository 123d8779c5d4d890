package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markcanvas/internal/annotation"
	"markcanvas/internal/shape"
	"markcanvas/pkg/geometry"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	projPath := filepath.Join(dir, "street.markproj")

	p := New("street")
	p.SetImage(projPath, filepath.Join(dir, "images", "street.png"), geometry.Size{Width: 640, Height: 480})
	p.SetAnnotations([]annotation.Record{{
		Index:     1,
		Type:      shape.Rectangle,
		Label:     "car",
		Color:     "#00ff00",
		PointList: []geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 100}},
	}})
	require.NoError(t, p.Save(projPath))

	loaded, err := Load(projPath)
	require.NoError(t, err)
	assert.Equal(t, "street", loaded.Name)
	assert.Equal(t, filepath.Join("images", "street.png"), loaded.ImagePath)
	assert.Equal(t, filepath.Join(dir, "images", "street.png"), loaded.GetImagePath(projPath))
	assert.Equal(t, geometry.Size{Width: 640, Height: 480}, loaded.ImageSize)
	assert.Equal(t, p.Annotations, loaded.Annotations)
	assert.False(t, loaded.Modified.Before(loaded.Created))
}

func TestEmptyAnnotationsSerialiseAsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.markproj")
	p := &File{Version: CurrentVersion}
	require.NoError(t, p.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"annotations": []`)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.markproj"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.markproj")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse project")

	future := filepath.Join(dir, "future.markproj")
	require.NoError(t, os.WriteFile(future, []byte(`{"version": 99}`), 0644))
	_, err = Load(future)
	assert.ErrorContains(t, err, "unsupported version")
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/data/scan.markproj", PathFor("/data/scan.tiff"))
	assert.Equal(t, "", (&File{}).GetImagePath("/x/p.markproj"))
	assert.Equal(t, "/abs/img.png", (&File{ImagePath: "/abs/img.png"}).GetImagePath("/x/p.markproj"))
}
