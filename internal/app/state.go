// Package app holds the state of an annotation session and its events.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	goimage "image"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"markcanvas/internal/annotation"
	"markcanvas/internal/background"
	"markcanvas/internal/engine"
	"markcanvas/internal/event"
	"markcanvas/internal/project"
	"markcanvas/internal/store"
)

// backgroundSetter is implemented by surfaces that paint a background image.
type backgroundSetter interface {
	SetBackground(img goimage.Image)
}

// State holds the current session: the background, the project file and
// the engine holding the annotations.
type State struct {
	mu sync.RWMutex

	ProjectPath string
	ImagePath   string
	Modified    bool
	Background  *background.Image

	Engine *engine.Engine
	Store  *store.Store

	log       zerolog.Logger
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventImageLoaded
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates session state around eng. st may be nil when no store is
// configured.
func NewState(eng *engine.Engine, st *store.Store, log zerolog.Logger) *State {
	s := &State{
		Engine:    eng,
		Store:     st,
		log:       log,
		listeners: make(map[EventType][]EventListener),
	}
	eng.Bus().On(event.Change, func(interface{}) { s.SetModified(true) })
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the session as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.Modified != modified
	s.Modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// IsModified reports unsaved changes.
func (s *State) IsModified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Modified
}

// LoadImage replaces the background and drops every annotation. Annotations
// saved in the store for the same image are restored.
func (s *State) LoadImage(path string) error {
	if err := s.loadImage(path, true); err != nil {
		return err
	}
	s.mu.Lock()
	s.ProjectPath = ""
	s.mu.Unlock()
	s.SetModified(false)
	return nil
}

func (s *State) loadImage(path string, restore bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	bg, err := background.Load(abs)
	if err != nil {
		return err
	}

	s.Engine.Clear()
	if setter, ok := s.Engine.Surface().(backgroundSetter); ok {
		setter.SetBackground(bg.Image)
	}
	s.Engine.SetBackground(bg.Size())

	s.mu.Lock()
	s.Background = bg
	s.ImagePath = abs
	s.mu.Unlock()

	if restore && s.Store != nil {
		records, _, err := s.Store.Load(abs)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			s.log.Error().Err(err).Str("image", abs).Msg("failed to restore annotations")
		default:
			if err := s.Engine.Import(records); err != nil {
				s.log.Warn().Err(err).Msg("some stored annotations were skipped")
			}
		}
	}

	s.log.Info().Str("path", abs).Str("format", bg.Format).Int("width", bg.Width()).Int("height", bg.Height()).Msg("image loaded")
	s.Emit(EventImageLoaded, abs)
	return nil
}

// LoadProject opens a project file: its image and its annotations.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}

	imagePath := proj.GetImagePath(path)
	if imagePath == "" {
		return fmt.Errorf("project %s has no image", path)
	}

	if err := s.loadImage(imagePath, false); err != nil {
		return err
	}

	importErr := s.Engine.Import(proj.Annotations)
	if importErr != nil {
		s.log.Warn().Err(importErr).Str("project", path).Msg("some annotations were skipped")
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.mu.Unlock()

	s.SetModified(false)
	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject writes the session to a project file and, when a store is
// configured, to the store.
func (s *State) SaveProject(path string) error {
	s.mu.RLock()
	imagePath, bg := s.ImagePath, s.Background
	s.mu.RUnlock()

	name := filepath.Base(path)
	name = name[:len(name)-len(filepath.Ext(name))]
	proj := project.New(name)
	if prev, err := project.Load(path); err == nil {
		proj.Created = prev.Created
	}
	if imagePath != "" {
		proj.SetImage(path, imagePath, bg.Size())
	}
	records := s.Engine.Export()
	proj.SetAnnotations(records)

	if err := proj.Save(path); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	if err := s.SaveToStore(); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.mu.Unlock()

	s.log.Info().Str("path", path).Int("annotations", len(records)).Msg("project saved")
	s.SetModified(false)
	s.Emit(EventProjectSaved, path)
	return nil
}

// SaveToStore persists the annotations for the current image. Without a
// store or an image it does nothing.
func (s *State) SaveToStore() error {
	s.mu.RLock()
	imagePath, bg := s.ImagePath, s.Background
	s.mu.RUnlock()
	if s.Store == nil || imagePath == "" {
		return nil
	}
	return s.Store.Save(imagePath, bg.Size(), s.Engine.Export())
}

// ExportJSON writes the exported records to path.
func (s *State) ExportJSON(path string) error {
	return WriteRecords(path, s.Engine.Export())
}

// WriteRecords writes records as indented JSON.
func WriteRecords(path string, records []annotation.Record) error {
	if records == nil {
		records = []annotation.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
