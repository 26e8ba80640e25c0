// Package surface defines the map surface the sequencer drives and a headless
// implementation that records every command it receives.
package surface

import (
	"errors"
	"time"

	"map3d-scenarios/internal/scene"
)

// ErrInterrupted is delivered on a flight's completion channel when a newer
// camera command replaces it before it finished.
var ErrInterrupted = errors.New("camera animation interrupted")

// Surface is the command interface of a 3D map. Commands never block; camera
// animations report completion (or failure) on the returned channel, which
// receives exactly one value.
type Surface interface {
	Camera() scene.Camera
	SetCamera(scene.Camera)
	SetMapMode(scene.MapMode)
	ClearObjects()
	AddMarker(scene.Marker)
	AddModel(scene.Model)
	AddPolyline(scene.Polyline)
	AddPolygon(scene.Polygon)
	FlyTo(end scene.Camera, d time.Duration) <-chan error
	FlyAround(center scene.Camera, d time.Duration, rounds float64) <-chan error
	Steady() bool
	// OnSteadyChange registers fn for steady transitions. The returned func unregisters it.
	OnSteadyChange(fn func(steady bool)) (cancel func())
}
