// Package background loads the image an annotation session is drawn over.
package background

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"markcanvas/pkg/geometry"
)

// Image is a decoded background.
type Image struct {
	Path   string
	Format string
	Image  image.Image
}

// Load decodes the image at path.
func Load(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Image{Path: path, Format: format, Image: img}, nil
}

// DecodeSize reads only the header of the image at path and returns its
// natural size.
func DecodeSize(path string) (geometry.Size, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return geometry.Size{}, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return geometry.Size{}, "", fmt.Errorf("failed to decode image header: %w", err)
	}
	return geometry.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}, format, nil
}

// Width returns the width in pixels.
func (b *Image) Width() int {
	if b == nil || b.Image == nil {
		return 0
	}
	return b.Image.Bounds().Dx()
}

// Height returns the height in pixels.
func (b *Image) Height() int {
	if b == nil || b.Image == nil {
		return 0
	}
	return b.Image.Bounds().Dy()
}

// Size returns the natural size, the content size used to fit the view.
func (b *Image) Size() geometry.Size {
	return geometry.Size{Width: float64(b.Width()), Height: float64(b.Height())}
}

// SupportedFormats lists the file extensions Load understands.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp"}
}

// IsSupportedFormat checks the extension of path.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
