package integrators

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/vspace"
)

const defaultMaxTrials = 500

// Controlled is a stepper that proposes its own step sizes.
type Controlled[T any] interface {
	TryStep(sys dynamo.System[T], x *vspace.Vector[T], t, dt *float64) (bool, error)
	Evaluations() int
	Reset()
}

// Stepper is a fixed-step method advancing x in place.
type Stepper[T any] interface {
	Step(sys dynamo.System[T], x *vspace.Vector[T], t, dt float64) error
}

var (
	_ Controlled[float64] = (*RK45[float64, vspace.Float64])(nil)
	_ Stepper[float64]    = (*RK4[float64, vspace.Float64])(nil)
	_ Stepper[float64]    = (*Euler[float64, vspace.Float64])(nil)
)

// lessWithSign reports whether a lies strictly before b in the direction of dt.
func lessWithSign(a, b, dt float64) bool {
	const eps = 2.220446049250313e-16
	if dt > 0 {
		return b-a > eps
	}
	return a-b > eps
}

// IntegrateAdaptive advances x from cfg.T0 to cfg.T1 with a controlled
// stepper. The last step is shortened to land on T1 exactly. The observer,
// if any, sees the initial state and every accepted step, and rejected
// trials too when it is a [dynamo.RejectObserver].
//
// MaxSteps of 0 means no step limit; MaxTrials of 0 means 500 consecutive
// rejections before giving up.
func IntegrateAdaptive[T any](ctx context.Context, st Controlled[T], sys dynamo.System[T], x *vspace.Vector[T], cfg dynamo.Config, obs dynamo.Observer[T]) (dynamo.Stats, error) {
	var stats dynamo.Stats
	if err := cfg.Validate(); err != nil {
		return stats, err
	}

	maxTrials := cfg.MaxTrials
	if maxTrials == 0 {
		maxTrials = defaultMaxTrials
	}

	st.Reset()
	t, dt := cfg.T0, cfg.Dt
	if obs != nil {
		obs.OnStep(*x, t)
	}

	fail := func(err error) (dynamo.Stats, error) {
		stats.Time, stats.NextDt, stats.Evaluations = t, dt, st.Evaluations()
		return stats, &dynamo.SimulationError{Step: stats.Steps, Time: t, Dt: dt, Wrapped: err}
	}

	for lessWithSign(t, cfg.T1, dt) {
		select {
		case <-ctx.Done():
			return fail(fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()))
		default:
		}

		if cfg.MaxSteps > 0 && stats.Steps >= cfg.MaxSteps {
			return fail(dynamo.ErrTooManySteps)
		}

		if lessWithSign(cfg.T1, t+dt, dt) {
			dt = cfg.T1 - t
		}

		for trials := 0; ; {
			t0, h := t, dt
			ok, err := st.TryStep(sys, x, &t, &dt)
			if err != nil {
				return fail(err)
			}
			if ok {
				stats.LastDt = h
				if h == cfg.T1-t0 {
					t = cfg.T1
				}
				break
			}
			stats.Rejected++
			if ro, ok := obs.(dynamo.RejectObserver); ok {
				ro.OnReject(t, dt)
			}
			trials++
			if trials >= maxTrials {
				return fail(fmt.Errorf("%w: %d trials", dynamo.ErrStepAdjust, trials))
			}
		}

		stats.Steps++
		if obs != nil {
			obs.OnStep(*x, t)
		}
	}

	stats.Time, stats.NextDt, stats.Evaluations = t, dt, st.Evaluations()
	return stats, nil
}

// IntegrateConst advances x from cfg.T0 to cfg.T1 in steps of cfg.Dt, the
// last one shortened to land on T1.
func IntegrateConst[T any](ctx context.Context, st Stepper[T], sys dynamo.System[T], x *vspace.Vector[T], cfg dynamo.Config, obs dynamo.Observer[T]) (dynamo.Stats, error) {
	var stats dynamo.Stats
	if err := cfg.Validate(); err != nil {
		return stats, err
	}

	t, dt := cfg.T0, cfg.Dt
	if obs != nil {
		obs.OnStep(*x, t)
	}

	for lessWithSign(t, cfg.T1, dt) {
		select {
		case <-ctx.Done():
			return stats, &dynamo.SimulationError{Step: stats.Steps, Time: t, Dt: dt, Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())}
		default:
		}
		if cfg.MaxSteps > 0 && stats.Steps >= cfg.MaxSteps {
			return stats, &dynamo.SimulationError{Step: stats.Steps, Time: t, Dt: dt, Wrapped: dynamo.ErrTooManySteps}
		}

		h := dt
		last := false
		if lessWithSign(cfg.T1, t+h, h) || math.Abs(cfg.T1-(t+h)) <= 1e-9*math.Abs(h) {
			h, last = cfg.T1-t, true
		}
		if err := st.Step(sys, x, t, h); err != nil {
			return stats, &dynamo.SimulationError{Step: stats.Steps, Time: t, Dt: h, Wrapped: err}
		}
		if last {
			t = cfg.T1
		} else {
			t += h
		}
		stats.Steps++
		stats.LastDt = h
		if obs != nil {
			obs.OnStep(*x, t)
		}
	}

	stats.Time, stats.NextDt = t, dt
	return stats, nil
}
