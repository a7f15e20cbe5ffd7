package physics

import (
	"fmt"

	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/vspace"
)

type Lorenz[T any, F vspace.Field[T]] struct {
	f                F
	sigma, rho, beta float64
}

func NewLorenz[T any, F vspace.Field[T]](f F) *Lorenz[T, F] {
	return &Lorenz[T, F]{f: f, sigma: 10.0, rho: 28.0, beta: 8.0 / 3.0}
}

func (l *Lorenz[T, F]) Name() string { return "lorenz" }

// Derive calculates the Lorenz attractor derivatives.
func (l *Lorenz[T, F]) Derive(s vspace.Vector[T], dxdt *vspace.Vector[T], _ float64) {
	f := l.f
	dxdt.Resize(len(s))
	(*dxdt)[0] = f.Scale(f.Sub(s[1], s[0]), l.sigma)
	(*dxdt)[1] = f.Sub(f.Sub(f.Scale(s[0], l.rho), s[1]), f.Mul(s[0], s[2]))
	(*dxdt)[2] = f.Add(f.Scale(s[2], -l.beta), f.Mul(s[0], s[1]))
}

func (l *Lorenz[T, F]) DefaultState() []float64 { return []float64{10.0, 5.0, 5.0} }

func (l *Lorenz[T, F]) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}

func (l *Lorenz[T, F]) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.sigma = v
	case "rho", "r":
		l.rho = v
	case "beta", "b":
		l.beta = v
	default:
		return fmt.Errorf("%w: lorenz has no parameter %q", dynamo.ErrParameterBounds, n)
	}
	return nil
}
