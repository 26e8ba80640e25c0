package scene

import (
	"log/slog"
	"strings"
)

// AltitudeMode controls how a point's altitude is interpreted.
type AltitudeMode int

const (
	ClampToGround AltitudeMode = iota
	Absolute
	RelativeToGround
	RelativeToMesh
)

func (m AltitudeMode) String() string {
	switch m {
	case Absolute:
		return "absolute"
	case RelativeToGround:
		return "relative_to_ground"
	case RelativeToMesh:
		return "relative_to_mesh"
	default:
		return "clamp_to_ground"
	}
}

// ParseAltitudeMode matches s case-insensitively. Unknown values fall back to
// ClampToGround; only non-empty unknown values are logged.
func ParseAltitudeMode(s string) AltitudeMode {
	switch strings.ToLower(s) {
	case "absolute":
		return Absolute
	case "relative_to_ground":
		return RelativeToGround
	case "relative_to_mesh":
		return RelativeToMesh
	case "clamp_to_ground":
		return ClampToGround
	}
	if s != "" {
		slog.Warn("unrecognized altitude mode, defaulting to clamp_to_ground", "mode", s)
	}
	return ClampToGround
}

// MapMode selects the base imagery of the map.
type MapMode int

const (
	Satellite MapMode = iota
	Hybrid
)

func (m MapMode) String() string {
	if m == Hybrid {
		return "hybrid"
	}
	return "satellite"
}

// ParseMapMode accepts "hybrid" or "satellite"; anything else is Satellite.
func ParseMapMode(s string) MapMode {
	switch strings.ToLower(s) {
	case "hybrid":
		return Hybrid
	case "satellite":
		return Satellite
	}
	slog.Warn("unsupported map mode, defaulting to satellite", "mode", s)
	return Satellite
}

// MapOptions is the initial state of the map for a scenario.
type MapOptions struct {
	Camera            Camera  `json:"camera"`
	Mode              MapMode `json:"mode"`
	DefaultUIDisabled bool    `json:"default_ui_disabled"`
	MinHeading        float64 `json:"min_heading"`
	MaxHeading        float64 `json:"max_heading"`
	MinTilt           float64 `json:"min_tilt"`
	MaxTilt           float64 `json:"max_tilt"`
}

// Wide view used when no camera is specified.
const (
	defaultViewAltitude = 10_000_000.0
	defaultViewRange    = 10_000_000.0
)

// DefaultMapOptions is the wide default view with UI chrome disabled.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		Camera: Camera{
			Center: LatLngAltitude{Altitude: defaultViewAltitude},
			Range:  defaultViewRange,
		},
		Mode:              Satellite,
		DefaultUIDisabled: true,
		MaxHeading:        360,
		MaxTilt:           MaxTilt,
	}
}

// ToMapOptions parses "mode=...;camera=..." into map options.
func ToMapOptions(s string) MapOptions {
	opts := DefaultMapOptions()
	trimmed := strings.TrimRight(strings.TrimSpace(s), ";")
	if strings.TrimSpace(trimmed) == "" {
		slog.Warn("empty initial state, using default map options")
		return opts
	}
	for _, option := range strings.Split(trimmed, ";") {
		option = strings.TrimSpace(option)
		label, value, ok := strings.Cut(option, "=")
		if !ok {
			slog.Warn("ignoring invalid map option", "option", option)
			continue
		}
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "mode":
			opts.Mode = ParseMapMode(strings.TrimSpace(value))
		case "camera":
			opts.Camera = ToCamera(value)
		default:
			slog.Warn("unsupported map option key", "key", label)
		}
	}
	return opts
}
