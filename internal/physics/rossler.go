package physics

import (
	"fmt"

	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/vspace"
)

type Rossler[T any, F vspace.Field[T]] struct {
	f       F
	a, b, c float64
}

func NewRossler[T any, F vspace.Field[T]](f F) *Rossler[T, F] {
	return &Rossler[T, F]{f: f, a: 0.2, b: 0.2, c: 5.7}
}

func (r *Rossler[T, F]) Name() string { return "rossler" }

// Derive calculates the Rossler attractor derivatives.
func (r *Rossler[T, F]) Derive(s vspace.Vector[T], dxdt *vspace.Vector[T], _ float64) {
	f := r.f
	dxdt.Resize(len(s))
	(*dxdt)[0] = f.Sub(f.Scale(s[1], -1), s[2])
	(*dxdt)[1] = f.Add(s[0], f.Scale(s[1], r.a))
	(*dxdt)[2] = f.Add(f.Lift(r.b, s[2]), f.Mul(s[2], f.Sub(s[0], f.Lift(r.c, s[0]))))
}

func (r *Rossler[T, F]) DefaultState() []float64 { return []float64{1.0, 1.0, 1.0} }

func (r *Rossler[T, F]) GetParams() map[string]float64 {
	return map[string]float64{"a": r.a, "b": r.b, "c": r.c}
}

func (r *Rossler[T, F]) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.a = v
	case "b":
		r.b = v
	case "c":
		r.c = v
	default:
		return fmt.Errorf("%w: rossler has no parameter %q", dynamo.ErrParameterBounds, n)
	}
	return nil
}
