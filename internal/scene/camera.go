package scene

import (
	"fmt"
	"math"
)

// Camera bounds accepted by the map surface.
const (
	MinTilt  = 0.0
	MaxTilt  = 90.0
	MinRange = 1.0
	MaxRange = 63_170_000.0

	DefaultTilt  = 45.0
	DefaultRange = 1500.0
)

// LatLngAltitude is a geographic point with altitude in meters.
type LatLngAltitude struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Altitude  float64 `json:"alt"`
}

// Camera describes a camera pose looking at Center.
// Values are plain copies; derive a new pose instead of sharing one.
type Camera struct {
	Center  LatLngAltitude `json:"center"`
	Heading float64        `json:"heading"`
	Tilt    float64        `json:"tilt"`
	Range   float64        `json:"range"`
	Roll    float64        `json:"roll"`
}

// WithHeading returns a copy of c with the given heading.
func (c Camera) WithHeading(h float64) Camera { c.Heading = h; return c }

// WithTilt returns a copy of c with the given tilt.
func (c Camera) WithTilt(t float64) Camera { c.Tilt = t; return c }

// WithRange returns a copy of c with the given range.
func (c Camera) WithRange(r float64) Camera { c.Range = r; return c }

// WithRoll returns a copy of c with the given roll.
func (c Camera) WithRoll(r float64) Camera { c.Roll = r; return c }

// String formats the pose as a descriptor that ToCamera accepts.
func (c Camera) String() string {
	return fmt.Sprintf("lat=%.6f,lng=%.6f,alt=%.1f,hdg=%.1f,tilt=%.1f,range=%.1f,roll=%.1f",
		c.Center.Latitude, c.Center.Longitude, c.Center.Altitude,
		c.Heading, c.Tilt, c.Range, c.Roll)
}

// WrapHeading maps h into [-180, 180].
func WrapHeading(h float64) float64 {
	if h >= -180 && h <= 180 {
		return h
	}
	w := math.Mod(h+180, 360)
	if w < 0 {
		w += 360
	}
	return w - 180
}

// WrapRoll maps r into [-360, 360].
func WrapRoll(r float64) float64 {
	if r >= -360 && r <= 360 {
		return r
	}
	return math.Mod(r, 360)
}

// ClampTilt limits t to [MinTilt, MaxTilt].
func ClampTilt(t float64) float64 {
	return math.Min(MaxTilt, math.Max(MinTilt, t))
}

// ClampRange limits r to [MinRange, MaxRange].
func ClampRange(r float64) float64 {
	return math.Min(MaxRange, math.Max(MinRange, r))
}

// ToLatLngAltitude reads lat, lng and the optional alt (default 0).
func (a Attributes) ToLatLngAltitude() LatLngAltitude {
	return LatLngAltitude{
		Latitude:  a.Float64("lat", 0),
		Longitude: a.Float64("lng", 0),
		Altitude:  a.Float64("alt", 0),
	}
}

// ToCamera builds a camera pose, normalising heading, tilt, range and roll.
func (a Attributes) ToCamera() Camera {
	return Camera{
		Center:  a.ToLatLngAltitude(),
		Heading: WrapHeading(a.Float64("hdg", 0)),
		Tilt:    ClampTilt(a.Float64("tilt", DefaultTilt)),
		Range:   ClampRange(a.Float64("range", DefaultRange)),
		Roll:    WrapRoll(a.Float64("roll", 0)),
	}
}

// ToCamera parses a camera descriptor such as "lat=10,lng=20,hdg=200".
func ToCamera(s string) Camera {
	return ParseAttributes(s).ToCamera()
}
