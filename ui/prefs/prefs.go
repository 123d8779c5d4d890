// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const prefsFile = "preferences.json"

const (
	keyWindowWidth  = "window.width"
	keyWindowHeight = "window.height"
	keyLastImage    = "session.lastImage"
	keyLastProject  = "session.lastProject"
	keyLastKind     = "session.lastKind"
	keyShowGuide    = "view.showGuide"
)

// Default window size.
const (
	DefaultWidth  = 1280
	DefaultHeight = 800
)

// Prefs stores application preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Load reads preferences from ~/.config/markcanvas/preferences.json.
// Returns a Prefs with defaults if the file doesn't exist.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "markcanvas", prefsFile))
}

// LoadFrom reads preferences from path.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Path returns the preferences file location.
func (p *Prefs) Path() string { return p.path }

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// WindowSize returns the saved main window size.
func (p *Prefs) WindowSize() (width, height float64) {
	return p.floatOr(keyWindowWidth, DefaultWidth), p.floatOr(keyWindowHeight, DefaultHeight)
}

// SetWindowSize records the main window size. Non-positive sizes are ignored.
func (p *Prefs) SetWindowSize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	p.set(keyWindowWidth, width)
	p.set(keyWindowHeight, height)
}

// LastImage returns the background opened last, or "".
func (p *Prefs) LastImage() string { return p.str(keyLastImage) }

// SetLastImage records the background path.
func (p *Prefs) SetLastImage(path string) { p.set(keyLastImage, path) }

// LastProject returns the project file saved last, or "".
func (p *Prefs) LastProject() string { return p.str(keyLastProject) }

// SetLastProject records the project path.
func (p *Prefs) SetLastProject(path string) { p.set(keyLastProject, path) }

// LastKind returns the drawing kind chosen last, "" for selection.
func (p *Prefs) LastKind() string { return p.str(keyLastKind) }

// SetLastKind records the drawing kind.
func (p *Prefs) SetLastKind(kind string) { p.set(keyLastKind, kind) }

// ShowGuide reports whether the crosshair guide is wanted; fallback when unset.
func (p *Prefs) ShowGuide(fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[keyShowGuide].(bool); ok {
		return b
	}
	return fallback
}

// SetShowGuide records the guide toggle.
func (p *Prefs) SetShowGuide(on bool) { p.set(keyShowGuide, on) }

func (p *Prefs) floatOr(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

func (p *Prefs) str(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.values[key].(string); ok {
		return s
	}
	return ""
}

func (p *Prefs) set(key string, val interface{}) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}
