package physics

import (
	"fmt"

	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/vspace"
)

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x
type VanDerPol[T any, F vspace.Field[T]] struct {
	f  F
	mu float64 // Nonlinearity parameter
}

func NewVanDerPol[T any, F vspace.Field[T]](f F) *VanDerPol[T, F] {
	return &VanDerPol[T, F]{
		f:  f,
		mu: 1.0, // Classic value for limit cycle
	}
}

func (v *VanDerPol[T, F]) Name() string { return "vanderpol" }

func (v *VanDerPol[T, F]) Derive(state vspace.Vector[T], dxdt *vspace.Vector[T], _ float64) {
	f := v.f
	x, y := state[0], state[1]

	damping := f.Sub(f.Lift(1, x), f.Mul(x, x))

	dxdt.Resize(len(state))
	(*dxdt)[0] = y
	(*dxdt)[1] = f.Sub(f.Scale(f.Mul(damping, y), v.mu), x)
}

func (v *VanDerPol[T, F]) DefaultState() []float64 {
	return []float64{2.0, 0.0}
}

// GetParams implements dynamo.Configurable
func (v *VanDerPol[T, F]) GetParams() map[string]float64 {
	return map[string]float64{
		"mu": v.mu,
	}
}

// SetParam implements dynamo.Configurable
func (v *VanDerPol[T, F]) SetParam(name string, value float64) error {
	if name != "mu" {
		return fmt.Errorf("%w: vanderpol has no parameter %q", dynamo.ErrParameterBounds, name)
	}
	if value < 0 {
		return fmt.Errorf("%w: mu must be non-negative, got %g", dynamo.ErrParameterBounds, value)
	}
	v.mu = value
	return nil
}
