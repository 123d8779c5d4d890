package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"markcanvas/pkg/colorutil"
)

// DefaultAccent is the outline highlight colour of the canvas, rgb(230,82,82).
var DefaultAccent = color.RGBA{R: 0xE6, G: 0x52, B: 0x52, A: 0xFF}

// MarkCanvasTheme is the default theme tinted with the annotation accent, so
// list selections and focused inputs match what the canvas highlights.
type MarkCanvasTheme struct {
	accent color.RGBA
}

var _ fyne.Theme = (*MarkCanvasTheme)(nil)

// NewMarkCanvasTheme builds the theme from a CSS colour, usually the
// configured default annotation colour. Unparseable values use DefaultAccent.
func NewMarkCanvasTheme(accent string) *MarkCanvasTheme {
	return &MarkCanvasTheme{accent: colorutil.ParseOr(accent, DefaultAccent)}
}

// Accent returns the opaque accent colour.
func (t *MarkCanvasTheme) Accent() color.RGBA {
	if t.accent.A == 0 {
		return DefaultAccent
	}
	return colorutil.WithAlpha(t.accent, 0xFF)
}

func (t *MarkCanvasTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	accent := t.Accent()
	switch name {
	case theme.ColorNamePrimary:
		return straight(accent, 0xFF)
	case theme.ColorNameSelection:
		return straight(accent, 0x40)
	case theme.ColorNameHover:
		// same 0.2 alpha as the canvas hover fill
		return straight(accent, 0x33)
	case theme.ColorNameFocus:
		return straight(accent, 0x80)
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

// straight converts a colorutil colour, which is not premultiplied, for fyne.
func straight(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

func (t *MarkCanvasTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *MarkCanvasTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *MarkCanvasTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 16
	case theme.SizeNameScrollBarSmall:
		return 12
	default:
		return theme.DefaultTheme().Size(name)
	}
}
