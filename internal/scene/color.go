package scene

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a packed 0xAARRGGBB value.
type Color uint32

// ARGB packs the four channels into a Color.
func ARGB(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// String renders the colour as #AARRGGBB.
func (c Color) String() string {
	return fmt.Sprintf("#%08X", uint32(c))
}

// MarshalText keeps colours readable in JSON output.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

var namedColors = map[string]Color{
	"black":     0xFF000000,
	"darkgray":  0xFF444444,
	"darkgrey":  0xFF444444,
	"gray":      0xFF888888,
	"grey":      0xFF888888,
	"lightgray": 0xFFCCCCCC,
	"lightgrey": 0xFFCCCCCC,
	"white":     0xFFFFFFFF,
	"red":       0xFFFF0000,
	"green":     0xFF00FF00,
	"blue":      0xFF0000FF,
	"yellow":    0xFFFFFF00,
	"cyan":      0xFF00FFFF,
	"magenta":   0xFFFF00FF,
	"aqua":      0xFF00FFFF,
	"fuchsia":   0xFFFF00FF,
	"lime":      0xFF00FF00,
	"maroon":    0xFF800000,
	"navy":      0xFF000080,
	"olive":     0xFF808000,
	"purple":    0xFF800080,
	"silver":    0xFFC0C0C0,
	"teal":      0xFF008080,
}

// ParseColor accepts #RGB, #RRGGBB, #AARRGGBB and a small set of colour names.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	alpha := uint8(0xFF)
	hex := s
	if strings.HasPrefix(s, "#") && len(s) == 9 {
		a, err := strconv.ParseUint(s[1:3], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("parse colour %q: %w", s, err)
		}
		alpha = uint8(a)
		hex = "#" + s[3:]
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return ARGB(alpha, r, g, b), nil
}

// Color reads key as a colour, falling back to def when missing or malformed.
func (a Attributes) Color(key string, def Color) Color {
	v, ok := a[key]
	if !ok {
		return def
	}
	c, err := ParseColor(v)
	if err != nil {
		slog.Warn("malformed colour, using default", "key", key, "value", v, "err", err)
		return def
	}
	return c
}
