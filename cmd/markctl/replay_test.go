package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markcanvas/internal/annotation"
	"markcanvas/internal/engine"
	"markcanvas/internal/shape"
	"markcanvas/internal/store"
	"markcanvas/pkg/geometry"
)

func rectScript() *Script {
	return &Script{
		Content: geometry.Size{Width: 800, Height: 600},
		View:    geometry.Size{Width: 800, Height: 600},
		Labels:  []annotation.LabelData{{Label: "car", Color: "#00ff00"}},
		Steps: []Step{
			{Op: "draw", Kind: "rect"},
			{Op: "down", X: 10, Y: 10},
			{Op: "move", X: 110, Y: 60, Button: "primary"},
			{Op: "up", X: 110, Y: 60},
		},
	}
}

func writeScript(t *testing.T, s *Script) string {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "script.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReplayDrawsAndLabels(t *testing.T) {
	s := rectScript()
	r, err := NewReplay(s, engine.DefaultOptions())
	require.NoError(t, err)
	defer r.Engine.Close()

	require.NoError(t, r.Run(s.Steps))

	assert.Equal(t, []annotation.Record{{
		Index:     1,
		Type:      shape.Rectangle,
		Label:     "car",
		Color:     "#00ff00",
		PointList: []geometry.Point2D{{X: 10, Y: 10}, {X: 110, Y: 60}},
	}}, r.Engine.Export())
	assert.Equal(t, shape.Rectangle, r.Engine.DrawKind())
}

func TestReplayWithoutLabelsRejects(t *testing.T) {
	s := &Script{
		View: geometry.Size{Width: 800, Height: 600},
		Steps: []Step{
			{Op: "draw", Kind: "polygon"},
			{Op: "down", X: 0, Y: 0}, {Op: "up", X: 0, Y: 0},
			{Op: "down", X: 100, Y: 0}, {Op: "up", X: 100, Y: 0},
			{Op: "down", X: 100, Y: 100}, {Op: "up", X: 100, Y: 100},
			{Op: "keydown", Key: "Enter"},
		},
	}
	r, err := NewReplay(s, engine.DefaultOptions())
	require.NoError(t, err)
	defer r.Engine.Close()

	require.NoError(t, r.Run(s.Steps))

	assert.Empty(t, r.Engine.Export())
	d := r.Engine.Drawing()
	require.NotNil(t, d)
	assert.Empty(t, d.Points())
	assert.Equal(t, 0, r.Engine.PendingLabels())
}

func TestReplayRejectsUnknownSteps(t *testing.T) {
	r, err := NewReplay(&Script{View: geometry.Size{Width: 10, Height: 10}}, engine.DefaultOptions())
	require.NoError(t, err)
	defer r.Engine.Close()

	assert.ErrorContains(t, r.Run([]Step{{Op: "jump"}}), `unknown op "jump"`)
	assert.ErrorIs(t, r.Run([]Step{{Op: "draw", Kind: "star"}}), shape.ErrUnknownKind)
}

func TestLoadScriptDefaultsView(t *testing.T) {
	path := writeScript(t, &Script{})
	s, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 800, Height: 600}, s.View)

	_, err = LoadScript(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReplayCommandWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, rectScript())
	out := filepath.Join(dir, "out.json")
	pic := filepath.Join(dir, "out.png")
	db := filepath.Join(dir, "annotations.db")

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"replay", script, "--out", out, "--png", pic, "--db", db, "--key", "street.png", "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var records []annotation.Record
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "car", records[0].Label)

	f, err := os.Open(pic)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 600), img.Bounds())

	st, err := store.Open(db, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()
	stored, size, err := st.Load("street.png")
	require.NoError(t, err)
	assert.Equal(t, records, stored)
	assert.Equal(t, geometry.Size{Width: 800, Height: 600}, size)
}

func TestReplayCommandPrintsJSON(t *testing.T) {
	script := writeScript(t, rectScript())

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"replay", script, "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	var records []annotation.Record
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, shape.Rectangle, records[0].Type)
}
