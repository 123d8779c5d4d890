package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markcanvas/pkg/geometry"
)

func TestFitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 200, 100))))
	require.NoError(t, f.Close())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"fit", path, "400", "400"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "(png, 200x100)")
	assert.Contains(t, out.String(), "Zoom:  2.000000")
	assert.Contains(t, out.String(), "Pan:   0.000, 100.000")
}

func TestParseSize(t *testing.T) {
	s, err := parseSize("640", "480")
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 640, Height: 480}, s)

	_, err = parseSize("wide", "480")
	assert.Error(t, err)
	_, err = parseSize("0", "480")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "markcanvas")
}
