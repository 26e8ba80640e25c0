// Package animation compiles semicolon separated camera scripts into ordered steps.
package animation

import (
	"fmt"
	"strings"
	"time"

	"map3d-scenarios/internal/scene"
)

// Step is one unit of work in a camera script. The concrete types are
// Delay, WaitUntilSteady, FlyTo and FlyAround.
type Step interface {
	fmt.Stringer
	isStep()
}

// Delay pauses the script without touching the map.
type Delay struct {
	Duration time.Duration
}

// WaitUntilSteady blocks until the map reports a settled camera.
// A zero Timeout waits without a time bound.
type WaitUntilSteady struct {
	Timeout time.Duration
}

// FlyTo animates the camera to End.
type FlyTo struct {
	End      scene.Camera
	Duration time.Duration
}

// FlyAround orbits Center. Negative Rounds orbit in the opposite direction.
type FlyAround struct {
	Center   scene.Camera
	Duration time.Duration
	Rounds   float64
}

func (Delay) isStep()           {}
func (WaitUntilSteady) isStep() {}
func (FlyTo) isStep()           {}
func (FlyAround) isStep()       {}

func (s Delay) String() string {
	return fmt.Sprintf("delay=dur=%d", s.Duration.Milliseconds())
}

func (s WaitUntilSteady) String() string {
	if s.Timeout <= 0 {
		return keyWaitSteady
	}
	return fmt.Sprintf("%s=timeout=%d", keyWaitSteady, s.Timeout.Milliseconds())
}

func (s FlyTo) String() string {
	return fmt.Sprintf("flyTo=%s,dur=%d", s.End, s.Duration.Milliseconds())
}

func (s FlyAround) String() string {
	return fmt.Sprintf("flyAround=%s,dur=%d,count=%g", s.Center, s.Duration.Milliseconds(), s.Rounds)
}

// Format serialises steps back into script form.
func Format(steps []Step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, ";")
}
