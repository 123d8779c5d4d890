// Package project provides the annotation project file.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"markcanvas/internal/annotation"
	"markcanvas/pkg/geometry"
)

// CurrentVersion is the file format version written by Save.
const CurrentVersion = 1

// Extension is the project file extension.
const Extension = ".markproj"

// File is an annotation project (.markproj): one background image and the
// annotations drawn over it.
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// ImagePath is relative to the project file when possible.
	ImagePath string        `json:"image,omitempty"`
	ImageSize geometry.Size `json:"imageSize"`

	Annotations []annotation.Record `json:"annotations"`
}

// New creates an empty project.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:     CurrentVersion,
		Name:        name,
		Created:     now,
		Modified:    now,
		Annotations: []annotation.Record{},
	}
}

// Load reads a project file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("failed to parse project %s: %w", path, err)
	}
	if proj.Version > CurrentVersion {
		return nil, fmt.Errorf("project %s has unsupported version %d", path, proj.Version)
	}
	return &proj, nil
}

// Save writes the project to path and bumps Modified.
func (p *File) Save(path string) error {
	p.Modified = time.Now()
	if p.Annotations == nil {
		p.Annotations = []annotation.Record{}
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetImage records the background path relative to the project file.
func (p *File) SetImage(projectPath, imagePath string, size geometry.Size) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		p.ImagePath = imagePath
	} else {
		p.ImagePath = rel
	}
	p.ImageSize = size
	p.Modified = time.Now()
}

// GetImagePath returns the absolute path to the background image.
func (p *File) GetImagePath(projectPath string) string {
	if p.ImagePath == "" {
		return ""
	}
	if filepath.IsAbs(p.ImagePath) {
		return p.ImagePath
	}
	return filepath.Join(filepath.Dir(projectPath), p.ImagePath)
}

// SetAnnotations replaces the stored records.
func (p *File) SetAnnotations(records []annotation.Record) {
	p.Annotations = append([]annotation.Record{}, records...)
	p.Modified = time.Now()
}

// PathFor returns the default project path next to an image.
func PathFor(imagePath string) string {
	return imagePath[:len(imagePath)-len(filepath.Ext(imagePath))] + Extension
}
