package integrators

import (
	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/vspace"
)

// RK4 is the classic fixed-step fourth order Runge-Kutta method.
type RK4[T any, A vspace.Algebra[T]] struct {
	alg            A
	k1, k2, k3, k4 vspace.Vector[T]
	scratch        vspace.Vector[T]
}

func NewRK4[T any, A vspace.Algebra[T]](alg A) *RK4[T, A] {
	return &RK4[T, A]{alg: alg}
}

func (r *RK4[T, A]) ensureScratch(n int) {
	if len(r.scratch) != n {
		r.scratch.Resize(n)
	}
}

func (r *RK4[T, A]) derive(sys dynamo.System[T], x vspace.Vector[T], dxdt *vspace.Vector[T], t float64) error {
	sys.Derive(x, dxdt, t)
	if len(*dxdt) != len(x) {
		return dynamo.ErrDimensionMismatch
	}
	return nil
}

func (r *RK4[T, A]) axpy(dst, x vspace.Vector[T], h float64, k vspace.Vector[T]) {
	for i := range dst {
		dst[i] = r.alg.Add(x[i], r.alg.Scale(k[i], h))
	}
}

// Step advances x in place by dt.
func (r *RK4[T, A]) Step(sys dynamo.System[T], x *vspace.Vector[T], t, dt float64) error {
	x0 := *x
	r.ensureScratch(len(x0))

	if err := r.derive(sys, x0, &r.k1, t); err != nil {
		return err
	}
	r.axpy(r.scratch, x0, dt*0.5, r.k1)

	if err := r.derive(sys, r.scratch, &r.k2, t+dt*0.5); err != nil {
		return err
	}
	r.axpy(r.scratch, x0, dt*0.5, r.k2)

	if err := r.derive(sys, r.scratch, &r.k3, t+dt*0.5); err != nil {
		return err
	}
	r.axpy(r.scratch, x0, dt, r.k3)

	if err := r.derive(sys, r.scratch, &r.k4, t+dt); err != nil {
		return err
	}

	dt6 := dt / 6.0
	for i := range x0 {
		sum := r.alg.Add(r.k1[i], r.alg.Scale(r.k2[i], 2))
		sum = r.alg.Add(sum, r.alg.Scale(r.k3[i], 2))
		sum = r.alg.Add(sum, r.k4[i])
		x0[i] = r.alg.Add(x0[i], r.alg.Scale(sum, dt6))
	}
	return nil
}
