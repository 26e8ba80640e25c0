package sim

import (
	"context"
	"time"
)

// DefaultTweenPeriod is the cadence of AnimateValue callbacks.
const DefaultTweenPeriod = 20 * time.Millisecond

// AnimateValue linearly interpolates from start to end, calling fn every period
// over total. The final call always delivers exactly end. It returns early with
// the context error on cancellation or with the first error from fn.
func AnimateValue(ctx context.Context, start, end float64, period, total time.Duration, fn func(float64) error) error {
	if period <= 0 {
		period = DefaultTweenPeriod
	}
	cycles := int(total / period)
	if cycles < 1 {
		cycles = 1
	}
	step := (end - start) / float64(cycles)
	t := time.NewTicker(period)
	defer t.Stop()
	for i := 0; i < cycles; i++ {
		if err := fn(start + step*float64(i)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return fn(end)
}
