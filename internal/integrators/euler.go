package integrators

import (
	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/vspace"
)

type Euler[T any, A vspace.Algebra[T]] struct {
	alg A
	dx  vspace.Vector[T]
}

func NewEuler[T any, A vspace.Algebra[T]](alg A) *Euler[T, A] {
	return &Euler[T, A]{alg: alg}
}

func (e *Euler[T, A]) Step(sys dynamo.System[T], x *vspace.Vector[T], t, dt float64) error {
	sys.Derive(*x, &e.dx, t)
	if len(e.dx) != len(*x) {
		return dynamo.ErrDimensionMismatch
	}
	for i := range *x {
		(*x)[i] = e.alg.Add((*x)[i], e.alg.Scale(e.dx[i], dt))
	}
	return nil
}
