package scene

import (
	"log/slog"
	"net/url"
	"strings"
)

// CollisionBehavior decides how a marker competes with overlapping labels.
type CollisionBehavior int

const (
	RequiredAndHidesOptional CollisionBehavior = iota
	Required
	OptionalAndHidesLower
)

func (c CollisionBehavior) String() string {
	switch c {
	case Required:
		return "required"
	case OptionalAndHidesLower:
		return "optional_and_hides_lower"
	default:
		return "required_and_hides_optional"
	}
}

func parseCollision(s string) CollisionBehavior {
	switch strings.ToLower(s) {
	case "", "required_and_hides_optional":
		return RequiredAndHidesOptional
	case "required":
		return Required
	case "optional_and_hides_lower":
		return OptionalAndHidesLower
	}
	slog.Warn("unrecognized collision behavior, using required_and_hides_optional", "value", s)
	return RequiredAndHidesOptional
}

// Marker is a labelled pin placed in the scene.
type Marker struct {
	ID                string            `json:"id,omitempty"`
	Position          LatLngAltitude    `json:"position"`
	Label             string            `json:"label"`
	ZIndex            int               `json:"z_index"`
	AltitudeMode      AltitudeMode      `json:"altitude_mode"`
	Collision         CollisionBehavior `json:"collision"`
	Extruded          bool              `json:"extruded"`
	DrawnWhenOccluded bool              `json:"drawn_when_occluded"`
}

// Vector3 is a per-axis scale.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Orientation rotates a model around its anchor.
type Orientation struct {
	Heading float64 `json:"heading"`
	Tilt    float64 `json:"tilt"`
	Roll    float64 `json:"roll"`
}

// Model is a glTF model placed in the scene.
type Model struct {
	ID           string         `json:"id"`
	Position     LatLngAltitude `json:"position"`
	URL          string         `json:"url"`
	Scale        Vector3        `json:"scale"`
	Orientation  Orientation    `json:"orientation"`
	AltitudeMode AltitudeMode   `json:"altitude_mode"`
}

// splitEntries trims a ';' separated list; blank input yields nothing.
func splitEntries(s string) []string {
	trimmed := strings.TrimRight(strings.TrimSpace(s), ";")
	if strings.TrimSpace(trimmed) == "" {
		return nil
	}
	return strings.Split(trimmed, ";")
}

// ToMarkers parses ';' separated marker descriptors. Entries missing lat or lng are dropped.
func ToMarkers(s string) []Marker {
	var markers []Marker
	for _, entry := range splitEntries(s) {
		a := ParseAttributes(entry)
		if !a.Has("lat") || !a.Has("lng") {
			slog.Warn("skipping marker without lat/lng", "marker", entry)
			continue
		}
		markers = append(markers, Marker{
			ID:                a.String("id", ""),
			Position:          a.ToLatLngAltitude(),
			Label:             a.String("label", "Marker"),
			ZIndex:            a.Int("z", 1),
			AltitudeMode:      ParseAltitudeMode(a.String("altMode", "")),
			Collision:         parseCollision(a.String("collision", "")),
			Extruded:          true,
			DrawnWhenOccluded: true,
		})
	}
	return markers
}

// ToModels parses ';' separated model descriptors. Each needs a non-blank id and url
// plus lat and lng; a bad entry only drops itself.
func ToModels(s string) []Model {
	var models []Model
	for _, entry := range splitEntries(s) {
		a := ParseAttributes(entry)
		id := a.String("id", "")
		rawURL := a.String("url", "")
		if strings.TrimSpace(id) == "" || strings.TrimSpace(rawURL) == "" || !a.Has("lat") || !a.Has("lng") {
			slog.Warn("skipping model without id, url, lat or lng", "model", entry)
			continue
		}
		if _, err := url.Parse(rawURL); err != nil {
			slog.Error("skipping model with bad url", "model", entry, "err", err)
			continue
		}
		scale := Vector3{
			X: a.Float64("scaleX", 1),
			Y: a.Float64("scaleY", 1),
			Z: a.Float64("scaleZ", 1),
		}
		if uniform := a.Float64("scale", -1); uniform >= 0 {
			scale = Vector3{X: uniform, Y: uniform, Z: uniform}
		}
		models = append(models, Model{
			ID:       id,
			Position: a.ToLatLngAltitude(),
			URL:      rawURL,
			Scale:    scale,
			Orientation: Orientation{
				Heading: a.Float64("hdg", 0),
				Tilt:    a.Float64("tilt", 0),
				Roll:    a.Float64("roll", 0),
			},
			AltitudeMode: ParseAltitudeMode(a.String("altMode", "")),
		})
	}
	return models
}
