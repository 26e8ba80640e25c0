package sim

// Phase is the sequencer's position in a run.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseCountdown       Phase = "countdown"
	PhaseAwaitingSurface Phase = "awaiting_surface"
	PhaseResetting       Phase = "resetting"
	PhaseExecuting       Phase = "executing"
	PhasePostDelay       Phase = "post_delay"
	PhaseFinished        Phase = "finished"
	PhaseFailed          Phase = "failed"
)

// RunState is the observable state of the active scenario run.
type RunState struct {
	Scenario         string `json:"scenario,omitempty"`
	Countdown        int    `json:"countdown"`
	CountdownVisible bool   `json:"countdown_visible"`
	Finished         bool   `json:"finished"`
	Phase            Phase  `json:"phase"`
	Step             int    `json:"step"`
	Steps            int    `json:"steps"`
	Err              string `json:"error,omitempty"`
}

// Attribute is the camera attribute currently being swept.
type Attribute string

const (
	AttrNone    Attribute = ""
	AttrHeading Attribute = "heading"
	AttrTilt    Attribute = "tilt"
	AttrRange   Attribute = "range"
	AttrRoll    Attribute = "roll"
)
