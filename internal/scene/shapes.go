package scene

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	polyline "github.com/twpayne/go-polyline"
)

// Route styling. Every route is drawn as a wide translucent shadow under a
// narrower foreground line.
const (
	routeColor           Color   = 0xFF0F53FF
	routeWidth           float64 = 7
	routeZIndex                  = 5
	routeShadowWidth     float64 = 13
	routeShadowZIndex            = 2
	routeOuterWidth      float64 = 1
	routeShadowIDSuffix          = "_background"
	defaultPolygonWidth  float64 = 3
	defaultPolygonFill   Color   = 0x46FFFF00 // argb(70, 255, 255, 0)
	defaultPolygonStroke Color   = 0xFF00FF00
)

var routeShadowColor = ARGB(128, 0, 0, 0)

// Polyline is a path drawn on the map.
type Polyline struct {
	ID           string           `json:"id"`
	Path         []LatLngAltitude `json:"path"`
	StrokeColor  Color            `json:"stroke_color"`
	StrokeWidth  float64          `json:"stroke_width"`
	OuterColor   Color            `json:"outer_color"`
	OuterWidth   float64          `json:"outer_width"`
	ZIndex       int              `json:"z_index"`
	AltitudeMode AltitudeMode     `json:"altitude_mode"`
}

// Polygon is a filled area with optional holes.
type Polygon struct {
	Outer        []LatLngAltitude   `json:"outer"`
	Holes        [][]LatLngAltitude `json:"holes,omitempty"`
	FillColor    Color              `json:"fill_color"`
	StrokeColor  Color              `json:"stroke_color"`
	StrokeWidth  float64            `json:"stroke_width"`
	AltitudeMode AltitudeMode       `json:"altitude_mode"`
}

// ToPolylines decodes ';' separated encoded polylines. Each valid route yields a
// foreground line followed by its shadow; routes with fewer than two points are dropped.
func ToPolylines(s string) []Polyline {
	var lines []Polyline
	for _, encoded := range strings.Split(s, ";") {
		lines = append(lines, ToRoute(encoded, "")...)
	}
	return lines
}

// ToRoute decodes a single encoded polyline into its foreground and shadow lines.
// A random id is generated when id is empty.
func ToRoute(encoded, id string) []Polyline {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		slog.Error("failed to decode polyline", "polyline", encoded, "err", err)
		return nil
	}
	if len(coords) < 2 {
		slog.Warn("decoded polyline has fewer than 2 points", "points", len(coords))
		return nil
	}
	path := make([]LatLngAltitude, len(coords))
	for i, c := range coords {
		path[i] = LatLngAltitude{Latitude: c[0], Longitude: c[1]}
	}
	if id == "" {
		id = uuid.New().String()
	}
	slog.Debug("decoded polyline", "id", id, "points", len(path))

	return []Polyline{
		{
			ID:           id,
			Path:         path,
			StrokeColor:  routeColor,
			StrokeWidth:  routeWidth,
			OuterColor:   routeColor,
			OuterWidth:   routeOuterWidth,
			ZIndex:       routeZIndex,
			AltitudeMode: ClampToGround,
		},
		{
			ID:           id + routeShadowIDSuffix,
			Path:         path,
			StrokeColor:  routeShadowColor,
			StrokeWidth:  routeShadowWidth,
			OuterColor:   routeColor,
			OuterWidth:   routeOuterWidth,
			ZIndex:       routeShadowZIndex,
			AltitudeMode: ClampToGround,
		},
	}
}

// ToPolygons parses a single polygon descriptor:
//
//	outer=lat:lng[:alt]|...,inner=lat:lng[:alt]|...,fill=#AARRGGBB,stroke=#RRGGBB,width=3,altMode=absolute
//
// It returns no polygon when the outer ring has no valid points.
func ToPolygons(s string) []Polygon {
	a := ParseAttributes(s)
	outerRaw, ok := a["outer"]
	if !ok {
		return nil
	}
	outer := parseRing(outerRaw)
	if len(outer) == 0 {
		slog.Warn("polygon has no valid outer points", "outer", outerRaw)
		return nil
	}
	var holes [][]LatLngAltitude
	if innerRaw, ok := a["inner"]; ok {
		if inner := parseRing(innerRaw); len(inner) > 0 {
			holes = [][]LatLngAltitude{inner}
		}
	}
	return []Polygon{{
		Outer:        outer,
		Holes:        holes,
		FillColor:    a.Color("fill", defaultPolygonFill),
		StrokeColor:  a.Color("stroke", defaultPolygonStroke),
		StrokeWidth:  a.Float64("width", defaultPolygonWidth),
		AltitudeMode: ParseAltitudeMode(a.String("altMode", "")),
	}}
}

func parseRing(s string) []LatLngAltitude {
	var ring []LatLngAltitude
	for _, tuple := range strings.Split(s, "|") {
		if p, ok := ParseLatLngAltitude(tuple); ok {
			ring = append(ring, p)
		}
	}
	return ring
}

// ParseLatLngAltitude parses "lat:lng" or "lat:lng:alt".
func ParseLatLngAltitude(s string) (LatLngAltitude, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return LatLngAltitude{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return LatLngAltitude{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return LatLngAltitude{}, false
	}
	var alt float64
	if len(parts) >= 3 {
		if alt, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err != nil {
			return LatLngAltitude{}, false
		}
	}
	return LatLngAltitude{Latitude: lat, Longitude: lng, Altitude: alt}, true
}
