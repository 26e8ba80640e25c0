package animation

import (
	"log/slog"
	"strings"
	"time"

	"map3d-scenarios/internal/scene"
)

const (
	keyFlyTo      = "flyto"
	keyFlyAround  = "flyaround"
	keyDelay      = "delay"
	keyWaitSteady = "waituntilthemapissteady"

	defaultDurationMs = 1000
	defaultRounds     = 1.0
)

// Compile turns a script such as
//
//	delay=dur=500;flyTo=lat=1,lng=2,dur=1000;waitUntilTheMapIsSteady
//
// into steps in textual order. Unknown keywords are logged and skipped.
func Compile(script string) []Step {
	trimmed := strings.TrimRight(strings.TrimSpace(script), ";")
	if strings.TrimSpace(trimmed) == "" {
		return nil
	}
	var steps []Step
	for _, segment := range strings.Split(trimmed, ";") {
		segment = strings.TrimSpace(segment)
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			if strings.ToLower(segment) == keyWaitSteady {
				steps = append(steps, WaitUntilSteady{})
				continue
			}
			slog.Warn("ignoring invalid animation step", "step", segment)
			continue
		}
		a := scene.ParseAttributes(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case keyFlyTo:
			steps = append(steps, FlyTo{End: a.ToCamera(), Duration: duration(a)})
		case keyDelay:
			steps = append(steps, Delay{Duration: duration(a)})
		case keyFlyAround:
			steps = append(steps, FlyAround{
				Center:   a.ToCamera(),
				Duration: duration(a),
				Rounds:   a.Float64("count", defaultRounds),
			})
		case keyWaitSteady:
			steps = append(steps, WaitUntilSteady{Timeout: time.Duration(a.Int64("timeout", 0)) * time.Millisecond})
		default:
			slog.Warn("unsupported animation step type", "type", key)
		}
	}
	return steps
}

func duration(a scene.Attributes) time.Duration {
	return time.Duration(a.Int64("dur", defaultDurationMs)) * time.Millisecond
}
