// Package colorutil provides shared color utilities for painting annotations.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Common overlay colors used throughout the application.
var (
	Black       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red         = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	BadgeFill   = color.RGBA{R: 0, G: 0, B: 0, A: 153}
	HoverFill   = color.RGBA{R: 230, G: 82, B: 82, A: 51}
	Transparent = color.RGBA{}
)

// Parse converts a CSS-style color string into RGBA. Accepted forms are
// "#rgb", "#rrggbb", "rgb(r,g,b)" and "rgba(r,g,b,a)" with a in 0..1.
func Parse(s string) (color.RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	switch {
	case strings.HasPrefix(s, "#"):
		c, err := colorful.Hex(s)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		r, g, b := c.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: 255}, nil

	case strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb("):
		open := strings.IndexByte(s, '(')
		if !strings.HasSuffix(s, ")") {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
		parts := strings.Split(s[open+1:len(s)-1], ",")
		if len(parts) != 3 && len(parts) != 4 {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}

		var ch [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil || v < 0 || v > 255 {
				return color.RGBA{}, fmt.Errorf("invalid color channel in %q", s)
			}
			ch[i] = uint8(v)
		}

		alpha := uint8(255)
		if len(parts) == 4 {
			a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
			if err != nil || a < 0 || a > 1 {
				return color.RGBA{}, fmt.Errorf("invalid alpha in %q", s)
			}
			alpha = uint8(a*255 + 0.5)
		}
		return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
	}

	return color.RGBA{}, fmt.Errorf("unsupported color %q", s)
}

// ParseOr parses s and falls back to def when s is empty or malformed.
func ParseOr(s string, def color.RGBA) color.RGBA {
	if s == "" {
		return def
	}
	c, err := Parse(s)
	if err != nil {
		return def
	}
	return c
}

// WithAlpha returns c with its alpha replaced.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// Blend composites src over dst (non-premultiplied straight alpha).
func Blend(dst, src color.RGBA) color.RGBA {
	if src.A == 255 {
		return src
	}
	if src.A == 0 {
		return dst
	}
	a := float64(src.A) / 255
	mix := func(d, s uint8) uint8 {
		return uint8(float64(s)*a + float64(d)*(1-a) + 0.5)
	}
	outA := float64(src.A) + float64(dst.A)*(1-a)
	if outA > 255 {
		outA = 255
	}
	return color.RGBA{
		R: mix(dst.R, src.R),
		G: mix(dst.G, src.G),
		B: mix(dst.B, src.B),
		A: uint8(outA + 0.5),
	}
}
