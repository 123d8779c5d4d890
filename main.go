// Package main provides the entry point for the MarkCanvas annotation tool.
package main

import (
	"log"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2/app"

	appstate "markcanvas/internal/app"
	"markcanvas/internal/config"
	"markcanvas/internal/engine"
	"markcanvas/internal/logging"
	"markcanvas/internal/store"
	"markcanvas/internal/surface"
	"markcanvas/internal/version"
	"markcanvas/ui/canvas"
	"markcanvas/ui/mainwindow"
	"markcanvas/ui/prefs"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appPrefs := prefs.Load()
	if err := config.Load(filepath.Dir(appPrefs.Path())); err != nil && !config.IsNotFound(err) {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.Get()

	logger := logging.New(cfg.LogLevel, os.Stderr, false)
	logger.Info().Str("version", version.Version).Msg("starting markcanvas")

	var st *store.Store
	if cfg.Store.Path != "" {
		var err error
		st, err = store.Open(cfg.Store.Path, logger)
		if err != nil {
			log.Fatalf("Failed to open store %s: %v", cfg.Store.Path, err)
		}
		defer st.Close()
	}

	fyneApp := app.NewWithID("com.markcanvas.app")
	fyneApp.Settings().SetTheme(appstate.NewMarkCanvasTheme(cfg.Engine.DefaultColor))

	opts := engine.OptionsFromConfig(cfg, logger)
	opts.Guide.Enabled = appPrefs.ShowGuide(opts.Guide.Enabled)

	scene := surface.NewScene()
	eng := engine.New(scene, opts)
	state := appstate.NewState(eng, st, logger)

	win := mainwindow.New(fyneApp, state, canvas.NewAnnotationCanvas(scene), appPrefs, logger)

	// Handle command line arguments
	if len(os.Args) > 1 {
		if err := win.OpenPath(os.Args[1]); err != nil {
			logger.Error().Err(err).Str("path", os.Args[1]).Msg("failed to open")
		}
	} else {
		win.RestoreSession()
	}

	win.ShowAndRun()
}
