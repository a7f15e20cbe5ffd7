package dynamo

import (
	"fmt"
	"math"

	"github.com/san-kum/daprop/internal/vspace"
)

// System is an ODE right-hand side. Derive must resize dxdt to len(x)
// before filling it; integrators learn the problem dimension this way.
type System[T any] interface {
	Derive(x vspace.Vector[T], dxdt *vspace.Vector[T], t float64)
}

// SystemFunc adapts a plain function to System.
type SystemFunc[T any] func(x vspace.Vector[T], dxdt *vspace.Vector[T], t float64)

func (f SystemFunc[T]) Derive(x vspace.Vector[T], dxdt *vspace.Vector[T], t float64) {
	f(x, dxdt, t)
}

type Observer[T any] interface {
	OnStep(x vspace.Vector[T], t float64)
}

type ObserverFunc[T any] func(x vspace.Vector[T], t float64)

func (f ObserverFunc[T]) OnStep(x vspace.Vector[T], t float64) { f(x, t) }

// RejectObserver is an optional extension of Observer. Adaptive integration
// calls OnReject for every rejected trial step with the shrunk dt.
type RejectObserver interface {
	OnReject(t, dt float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	T0        float64
	T1        float64
	Dt        float64
	AbsTol    float64
	RelTol    float64
	MaxSteps  int
	MaxTrials int
}

func DefaultConfig() Config {
	return Config{
		T0:        0,
		T1:        10.0,
		Dt:        0.1,
		AbsTol:    1e-10,
		RelTol:    1e-10,
		MaxSteps:  1_000_000,
		MaxTrials: 500,
	}
}

func (c Config) Validate() error {
	if math.IsNaN(c.T0) || math.IsNaN(c.T1) || math.IsInf(c.T0, 0) || math.IsInf(c.T1, 0) {
		return fmt.Errorf("%w: time span [%g, %g] is not finite", ErrInvalidConfig, c.T0, c.T1)
	}
	if c.Dt == 0 || math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: initial dt must be finite and non-zero, got %g", ErrInvalidConfig, c.Dt)
	}
	if c.T1 != c.T0 && (c.T1-c.T0)*c.Dt < 0 {
		return fmt.Errorf("%w: dt %g points away from t1 %g", ErrInvalidConfig, c.Dt, c.T1)
	}
	if c.AbsTol < 0 || c.RelTol < 0 || c.AbsTol+c.RelTol == 0 {
		return fmt.Errorf("%w: tolerances must be non-negative and not both zero", ErrInvalidConfig)
	}
	if c.MaxSteps < 0 || c.MaxTrials < 0 {
		return fmt.Errorf("%w: step limits must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Stats summarises one integration run.
type Stats struct {
	Steps       int
	Rejected    int
	Evaluations int
	LastDt      float64
	NextDt      float64
	Time        float64
}

// IsValid reports whether every element magnitude is finite.
func IsValid[T any, M vspace.Magnituder[T]](m M, x vspace.Vector[T]) bool {
	for _, v := range x {
		mag := m.Magnitude(v)
		if math.IsNaN(mag) || math.IsInf(mag, 0) {
			return false
		}
	}
	return true
}
