// Sequencer playing scenarios against a map surface
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"map3d-scenarios/internal/animation"
	"map3d-scenarios/internal/logging"
	"map3d-scenarios/internal/observe"
	"map3d-scenarios/internal/scenario"
	"map3d-scenarios/internal/scene"
	"map3d-scenarios/internal/surface"
)

var (
	// ErrUnknownScenario is returned when selecting a name the registry does not hold.
	ErrUnknownScenario = errors.New("unknown scenario")
	// ErrNoScenario is returned by actions that need an active scenario.
	ErrNoScenario = errors.New("no scenario selected")
	// ErrNoSurface is returned by ad-hoc camera commands while no surface is attached.
	ErrNoSurface = errors.New("no surface attached")
)

const (
	countdownFrom    = 3
	countdownTick    = time.Second
	postDelay        = 2 * time.Second
	orbitApproach    = 5 * time.Second
	DefaultReadyPoll = 100 * time.Millisecond
)

// Options tunes sequencer timing.
type Options struct {
	// Speed divides every scripted duration. Values <= 0 mean 1.
	Speed float64
	// ReadyPoll is the surface availability polling interval.
	ReadyPoll time.Duration
	// TweenPeriod is the roll tween cadence.
	TweenPeriod time.Duration
	Logger      *slog.Logger
}

// Sequencer owns the active scenario and the single run playing it. Every
// control action cancels the previous run and waits for it to exit before
// publishing new state, so commands from two runs never interleave.
type Sequencer struct {
	reg         *scenario.Registry
	speed       float64
	readyPoll   time.Duration
	tweenPeriod time.Duration
	log         *slog.Logger
	base        context.Context
	stopBase    context.CancelFunc

	state   *observe.Value[RunState]
	tracked *observe.Value[Attribute]
	roll    *observe.Value[float64]
	camera  *observe.Value[scene.Camera]

	mu      sync.Mutex
	active  *scenario.Scenario
	current *run

	surfaceMu sync.RWMutex
	surface   surface.Surface
}

type run struct {
	id       string
	scenario *scenario.Scenario
	cancel   context.CancelFunc
	done     chan struct{}

	mu      sync.Mutex
	stopped bool
}

func (r *run) stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.cancel()
	<-r.done
}

// New creates an idle sequencer over reg.
func New(reg *scenario.Registry, opts Options) *Sequencer {
	speed := opts.Speed
	if speed <= 0 {
		speed = 1
	}
	poll := opts.ReadyPoll
	if poll <= 0 {
		poll = DefaultReadyPoll
	}
	tween := opts.TweenPeriod
	if tween <= 0 {
		tween = DefaultTweenPeriod
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base, stop := context.WithCancel(logging.NewContext(context.Background(), logger))
	return &Sequencer{
		reg:         reg,
		speed:       speed,
		readyPoll:   poll,
		tweenPeriod: tween,
		log:         logger,
		base:        base,
		stopBase:    stop,
		state:       observe.NewValue(RunState{Phase: PhaseIdle}),
		tracked:     observe.NewValue(AttrNone),
		roll:        observe.NewValue(0.0),
		camera:      observe.NewValue(scene.DefaultMapOptions().Camera),
	}
}

// Registry returns the scenarios the sequencer selects from.
func (s *Sequencer) Registry() *scenario.Registry { return s.reg }

// State is the observable run state.
func (s *Sequencer) State() *observe.Value[RunState] { return s.state }

// Tracked is the observable camera attribute being swept.
func (s *Sequencer) Tracked() *observe.Value[Attribute] { return s.tracked }

// Roll is the observable roll value published by the roll sweep.
func (s *Sequencer) Roll() *observe.Value[float64] { return s.roll }

// Camera is the observable camera pose, refreshed after each camera command.
func (s *Sequencer) Camera() *observe.Value[scene.Camera] { return s.camera }

// Active returns the selected scenario, if any.
func (s *Sequencer) Active() (*scenario.Scenario, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != nil
}

// Select makes name the active scenario and starts playing it. Selecting the
// scenario that is already active does nothing.
func (s *Sequencer) Select(name string) error {
	sc, ok := s.reg.Get(name)
	if !ok {
		s.log.Warn("unrecognized scenario", "scenario", name)
		return fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.Name == sc.Name {
		return nil
	}
	s.startLocked(sc)
	return nil
}

// Repeat restarts the active scenario from the countdown.
func (s *Sequencer) Repeat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ErrNoScenario
	}
	s.startLocked(s.active)
	return nil
}

// Next advances to the scenario after the active one, wrapping around. With
// no active scenario it starts the first one.
func (s *Sequencer) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sc *scenario.Scenario
	var ok bool
	if s.active == nil {
		sc, ok = s.reg.First()
	} else {
		sc, ok = s.reg.Next(s.active.Name)
	}
	if !ok {
		return ErrNoScenario
	}
	s.log.Debug("advancing scenario", "to", sc.Name)
	s.startLocked(sc)
	return nil
}

// Exit cancels any run and clears the active scenario.
func (s *Sequencer) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.active = nil
	s.state.Set(RunState{Phase: PhaseIdle})
	s.tracked.Set(AttrNone)
}

// CloseOverlay clears the finished flag only.
func (s *Sequencer) CloseOverlay() {
	s.state.Update(func(st RunState) RunState {
		st.Finished = false
		return st
	})
}

// Snapshot logs and returns the current camera as a descriptor string.
func (s *Sequencer) Snapshot() string {
	cam := s.camera.Get()
	if surf := s.currentSurface(); surf != nil {
		cam = surf.Camera()
	}
	desc := cam.String()
	s.log.Warn("camera snapshot", "camera", desc)
	return desc
}

// SetSurface attaches a ready surface. An active scenario restarts from the countdown.
func (s *Sequencer) SetSurface(surf surface.Surface) {
	s.surfaceMu.Lock()
	s.surface = surf
	s.surfaceMu.Unlock()
	if surf == nil {
		return
	}
	s.camera.Set(surf.Camera())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.log.Debug("surface ready, restarting scenario", "scenario", s.active.Name)
		s.startLocked(s.active)
	}
}

// ReleaseSurface detaches the surface. A running scenario waits until a new one is set.
func (s *Sequencer) ReleaseSurface() {
	s.surfaceMu.Lock()
	s.surface = nil
	s.surfaceMu.Unlock()
}

// Orbit exits the active scenario, flies to cam and then orbits it for rounds
// over d. It blocks until the orbit completes or ctx is cancelled. The orbit
// holds the run slot, so Select, Next, Repeat and Exit cancel it.
func (s *Sequencer) Orbit(ctx context.Context, cam scene.Camera, d time.Duration, rounds float64) error {
	if s.currentSurface() == nil {
		return ErrNoSurface
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopBase := context.AfterFunc(s.base, cancel)
	defer stopBase()

	r := &run{id: uuid.New().String(), cancel: cancel, done: make(chan struct{})}
	s.mu.Lock()
	s.stopLocked()
	s.active = nil
	s.current = r
	s.state.Set(RunState{Phase: PhaseIdle})
	s.tracked.Set(AttrNone)
	s.mu.Unlock()
	defer func() {
		close(r.done)
		s.mu.Lock()
		if s.current == r {
			s.current = nil
		}
		s.mu.Unlock()
	}()

	if err := s.flyTo(ctx, r, cam, orbitApproach); err != nil {
		return err
	}
	return s.flyAround(ctx, r, cam, d, rounds)
}

// Close cancels any run. The sequencer must not be used afterwards.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.stopBase()
}

func (s *Sequencer) startLocked(sc *scenario.Scenario) {
	s.stopLocked()
	s.active = sc
	s.state.Set(RunState{
		Scenario:         sc.Name,
		Countdown:        countdownFrom,
		CountdownVisible: true,
		Phase:            PhaseCountdown,
		Steps:            len(sc.Steps),
	})
	s.tracked.Set(AttrNone)

	ctx, cancel := context.WithCancel(s.base)
	r := &run{id: uuid.New().String(), scenario: sc, cancel: cancel, done: make(chan struct{})}
	s.current = r
	go func() {
		defer close(r.done)
		s.execute(ctx, r)
	}()
}

func (s *Sequencer) stopLocked() {
	if s.current == nil {
		return
	}
	s.current.stop()
	s.current = nil
}

func (s *Sequencer) currentSurface() surface.Surface {
	s.surfaceMu.RLock()
	defer s.surfaceMu.RUnlock()
	return s.surface
}

func (s *Sequencer) execute(ctx context.Context, r *run) {
	log := logging.FromContext(ctx).With("scenario", r.scenario.Name, "run", r.id)
	ctx = logging.NewContext(ctx, log)
	log.Info("scenario started")

	err := s.play(ctx, r)
	switch {
	case err == nil:
		log.Info("scenario finished")
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		log.Debug("scenario cancelled")
	default:
		log.Error("scenario failed", "err", err)
		s.publish(r, func(st RunState) RunState {
			st.Phase = PhaseFailed
			st.Err = err.Error()
			st.CountdownVisible = false
			return st
		})
	}
}

func (s *Sequencer) play(ctx context.Context, r *run) error {
	sc := r.scenario
	for n := countdownFrom; n >= 1; n-- {
		if !s.publish(r, func(st RunState) RunState {
			st.Countdown = n
			st.CountdownVisible = true
			st.Phase = PhaseCountdown
			return st
		}) {
			return context.Canceled
		}
		if err := s.sleep(ctx, countdownTick); err != nil {
			return err
		}
	}
	s.publish(r, func(st RunState) RunState {
		st.Countdown = 0
		st.CountdownVisible = false
		return st
	})

	var err error
	if sc.Kind == scenario.KindCameraSweep {
		err = s.cameraSweep(ctx, r)
	} else {
		err = s.playScript(ctx, r)
	}
	if err != nil {
		return err
	}

	s.setPhase(r, PhasePostDelay)
	if err := s.sleep(ctx, postDelay); err != nil {
		return err
	}
	if !s.publish(r, func(st RunState) RunState {
		st.Phase = PhaseFinished
		st.Finished = true
		return st
	}) {
		return context.Canceled
	}
	return nil
}

func (s *Sequencer) playScript(ctx context.Context, r *run) error {
	if err := s.prepare(ctx, r); err != nil {
		return err
	}
	for i, step := range r.scenario.Steps {
		s.publish(r, func(st RunState) RunState {
			st.Phase = PhaseExecuting
			st.Step = i + 1
			return st
		})
		if err := s.runStep(ctx, r, step); err != nil {
			return fmt.Errorf("step %d %q: %w", i+1, step, err)
		}
	}
	return nil
}

// prepare waits for a surface and resets it to the scenario's initial state.
func (s *Sequencer) prepare(ctx context.Context, r *run) error {
	s.setPhase(r, PhaseAwaitingSurface)
	if err := s.awaitSurface(ctx); err != nil {
		return err
	}
	s.setPhase(r, PhaseResetting)
	sc := r.scenario
	if err := s.issue(ctx, r, func(surf surface.Surface) {
		surf.SetCamera(sc.Options.Camera)
		surf.SetMapMode(sc.Options.Mode)
		surf.ClearObjects()
		for _, m := range sc.Markers {
			surf.AddMarker(m)
		}
		for _, m := range sc.Models {
			surf.AddModel(m)
		}
		for _, p := range sc.Polylines {
			surf.AddPolyline(p)
		}
		for _, p := range sc.Polygons {
			surf.AddPolygon(p)
		}
	}); err != nil {
		return err
	}
	s.syncCamera(r)
	return nil
}

func (s *Sequencer) runStep(ctx context.Context, r *run, step animation.Step) error {
	switch st := step.(type) {
	case animation.Delay:
		return s.sleep(ctx, st.Duration)
	case animation.WaitUntilSteady:
		return s.awaitSteady(ctx, r, st.Timeout)
	case animation.FlyTo:
		return s.flyTo(ctx, r, st.End, st.Duration)
	case animation.FlyAround:
		return s.flyAround(ctx, r, st.Center, st.Duration, st.Rounds)
	default:
		return fmt.Errorf("unsupported step %T", step)
	}
}

func (s *Sequencer) flyTo(ctx context.Context, r *run, end scene.Camera, d time.Duration) error {
	return s.await(ctx, r, func(surf surface.Surface) <-chan error {
		return surf.FlyTo(end, s.scale(d))
	})
}

func (s *Sequencer) flyAround(ctx context.Context, r *run, center scene.Camera, d time.Duration, rounds float64) error {
	return s.await(ctx, r, func(surf surface.Surface) <-chan error {
		return surf.FlyAround(center, s.scale(d), rounds)
	})
}

// await issues an animation and blocks until the surface reports completion.
func (s *Sequencer) await(ctx context.Context, r *run, cmd func(surface.Surface) <-chan error) error {
	var done <-chan error
	if err := s.issue(ctx, r, func(surf surface.Surface) { done = cmd(surf) }); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return err
		}
	}
	s.syncCamera(r)
	return nil
}

// awaitSteady returns once the surface is steady, or after timeout if it is
// positive. A timeout is not an error.
func (s *Sequencer) awaitSteady(ctx context.Context, r *run, timeout time.Duration) error {
	settled := make(chan struct{}, 1)
	var steady bool
	var cancel func()
	if err := s.issue(ctx, r, func(surf surface.Surface) {
		cancel = surf.OnSteadyChange(func(ok bool) {
			if !ok {
				return
			}
			select {
			case settled <- struct{}{}:
			default:
			}
		})
		steady = surf.Steady()
	}); err != nil {
		return err
	}
	defer cancel()
	if steady {
		return nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(s.scale(timeout))
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-settled:
	case <-expired:
		logging.FromContext(ctx).Debug("map not steady before timeout, continuing", "timeout", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// awaitSurface polls until a surface is attached.
func (s *Sequencer) awaitSurface(ctx context.Context) error {
	for s.currentSurface() == nil {
		t := time.NewTimer(s.readyPoll)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// issue runs fn against the attached surface unless r has been stopped. fn is
// called with r's lock held, so no command of a cancelled run reaches the
// surface once stop has returned. fn must not block.
func (s *Sequencer) issue(ctx context.Context, r *run, fn func(surface.Surface)) error {
	for {
		r.mu.Lock()
		if r.stopped {
			r.mu.Unlock()
			return context.Canceled
		}
		if surf := s.currentSurface(); surf != nil {
			fn(surf)
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()
		if err := s.awaitSurface(ctx); err != nil {
			return err
		}
	}
}

// publish applies fn to the run state unless r has been stopped.
func (s *Sequencer) publish(r *run, fn func(RunState) RunState) bool {
	return s.guard(r, func() { s.state.Update(fn) })
}

func (s *Sequencer) setPhase(r *run, p Phase) {
	s.publish(r, func(st RunState) RunState {
		st.Phase = p
		return st
	})
}

func (s *Sequencer) track(r *run, a Attribute) {
	s.guard(r, func() { s.tracked.Set(a) })
}

func (s *Sequencer) syncCamera(r *run) {
	s.guard(r, func() {
		if surf := s.currentSurface(); surf != nil {
			s.camera.Set(surf.Camera())
		}
	})
}

func (s *Sequencer) guard(r *run, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	fn()
	return true
}

func (s *Sequencer) scale(d time.Duration) time.Duration {
	return time.Duration(float64(d) / s.speed)
}

// sleep suspends for the speed-scaled duration d.
func (s *Sequencer) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(s.scale(d))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
