package scenario

import (
	"strings"

	"map3d-scenarios/internal/animation"
	"map3d-scenarios/internal/scene"
)

// Kind selects how a scenario is played.
type Kind string

const (
	// KindScript plays the compiled animation script.
	KindScript Kind = "script"
	// KindCameraSweep plays the hand-authored heading, tilt, range and roll sweep.
	KindCameraSweep Kind = "camera_sweep"
)

// Definition is the authored form of a scenario: descriptor strings as they
// appear in catalogue files.
type Definition struct {
	Name         string `yaml:"name" json:"name"`
	Title        string `yaml:"title,omitempty" json:"title,omitempty"`
	Kind         Kind   `yaml:"kind,omitempty" json:"kind,omitempty"`
	InitialState string `yaml:"initial_state,omitempty" json:"initial_state,omitempty"`
	Animation    string `yaml:"animation,omitempty" json:"animation,omitempty"`
	Markers      string `yaml:"markers,omitempty" json:"markers,omitempty"`
	Models       string `yaml:"models,omitempty" json:"models,omitempty"`
	Polylines    string `yaml:"polylines,omitempty" json:"polylines,omitempty"`
	Polygons     string `yaml:"polygons,omitempty" json:"polygons,omitempty"`
}

// Scenario is a decoded, ready to play definition.
type Scenario struct {
	Name      string
	Title     string
	Kind      Kind
	Options   scene.MapOptions
	Steps     []animation.Step
	Markers   []scene.Marker
	Models    []scene.Model
	Polylines []scene.Polyline
	Polygons  []scene.Polygon
	Source    Definition
}

// New decodes every descriptor of d. Malformed entries are dropped or
// defaulted by the decoders; New itself never fails.
func New(d Definition) *Scenario {
	kind := d.Kind
	if kind == "" {
		kind = KindScript
	}
	title := d.Title
	if title == "" {
		title = titleFromName(d.Name)
	}
	s := &Scenario{
		Name:    d.Name,
		Title:   title,
		Kind:    kind,
		Options: scene.ToMapOptions(d.InitialState),
		Source:  d,
	}
	if kind == KindScript {
		s.Steps = animation.Compile(d.Animation)
	}
	if strings.TrimSpace(d.Markers) != "" {
		s.Markers = scene.ToMarkers(d.Markers)
	}
	if strings.TrimSpace(d.Models) != "" {
		s.Models = scene.ToModels(d.Models)
	}
	if strings.TrimSpace(d.Polylines) != "" {
		s.Polylines = scene.ToPolylines(d.Polylines)
	}
	if strings.TrimSpace(d.Polygons) != "" {
		s.Polygons = scene.ToPolygons(d.Polygons)
	}
	return s
}

func titleFromName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
