package sim

import (
	"context"
	"time"

	"map3d-scenarios/internal/scene"
	"map3d-scenarios/internal/surface"
)

const (
	sweepLeadIn      = 2 * time.Second
	sweepSteadyLimit = 10 * time.Second
	sweepDuration    = 3 * time.Second
	rollDuration     = 2 * time.Second
)

// cameraSweep is the hand-authored choreography of the camera scenario: it
// sweeps heading, tilt, range and roll around the scenario's initial camera.
func (s *Sequencer) cameraSweep(ctx context.Context, r *run) error {
	if err := s.sleep(ctx, sweepLeadIn); err != nil {
		return err
	}
	if err := s.prepare(ctx, r); err != nil {
		return err
	}
	s.setPhase(r, PhaseExecuting)
	if err := s.awaitSteady(ctx, r, sweepSteadyLimit); err != nil {
		return err
	}

	cam := r.scenario.Options.Camera
	for _, sweep := range []func(context.Context, *run, scene.Camera) error{
		s.headingSweep,
		s.tiltSweep,
		s.rangeSweep,
		s.rollSweep,
	} {
		if err := sweep(ctx, r, cam); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) headingSweep(ctx context.Context, r *run, cam scene.Camera) error {
	s.track(r, AttrHeading)
	if err := s.flyTo(ctx, r, cam.WithHeading(75), sweepDuration); err != nil {
		return err
	}
	if err := s.flyTo(ctx, r, cam.WithHeading(0), sweepDuration); err != nil {
		return err
	}
	for _, rounds := range []float64{1, -1} {
		if err := s.await(ctx, r, func(surf surface.Surface) <-chan error {
			return surf.FlyAround(surf.Camera(), s.scale(sweepDuration), rounds)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) tiltSweep(ctx context.Context, r *run, original scene.Camera) error {
	cam := original.WithHeading(163)
	s.track(r, AttrHeading)
	if err := s.flyTo(ctx, r, cam, sweepDuration); err != nil {
		return err
	}
	if err := s.sleep(ctx, 1500*time.Millisecond); err != nil {
		return err
	}
	s.track(r, AttrTilt)
	if err := s.sleep(ctx, 2500*time.Millisecond); err != nil {
		return err
	}
	for _, end := range []scene.Camera{cam.WithTilt(0), cam.WithTilt(85), original} {
		if err := s.flyTo(ctx, r, end, sweepDuration); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) rangeSweep(ctx context.Context, r *run, cam scene.Camera) error {
	s.track(r, AttrRange)
	if err := s.sleep(ctx, sweepDuration); err != nil {
		return err
	}
	if err := s.flyTo(ctx, r, cam.WithRange(200), sweepDuration); err != nil {
		return err
	}
	long := sweepDuration * 13 / 10
	if err := s.flyTo(ctx, r, cam.WithRange(10e6), long); err != nil {
		return err
	}
	return s.flyTo(ctx, r, cam, long)
}

// rollSweep tweens roll by hand since surfaces have no roll animation.
func (s *Sequencer) rollSweep(ctx context.Context, r *run, cam scene.Camera) error {
	s.track(r, AttrRoll)
	setRoll := func(v float64) error {
		if err := s.issue(ctx, r, func(surf surface.Surface) { surf.SetCamera(cam.WithRoll(v)) }); err != nil {
			return err
		}
		s.guard(r, func() {
			s.roll.Set(v)
			s.camera.Set(cam.WithRoll(v))
		})
		return nil
	}
	tweens := []struct {
		from, to float64
		total    time.Duration
	}{
		{0, 90, rollDuration / 2},
		{90, 0, rollDuration / 2},
		{0, 360, rollDuration},
	}
	for _, tw := range tweens {
		if err := s.sleep(ctx, rollDuration); err != nil {
			return err
		}
		if err := AnimateValue(ctx, tw.from, tw.to, s.tweenPeriod, s.scale(tw.total), setRoll); err != nil {
			return err
		}
	}
	if err := s.issue(ctx, r, func(surf surface.Surface) { surf.SetCamera(cam) }); err != nil {
		return err
	}
	s.syncCamera(r)
	s.track(r, AttrNone)
	return nil
}
