package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/vspace"
)

// Dormand-Prince coefficients (RK45)
const (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

const (
	rk45Order      = 5
	rk45ErrorOrder = 4
)

// RK45 is a controlled Dormand-Prince 5(4) stepper. The last stage of an
// accepted step is reused as the first stage of the next one.
//
// The error of a trial step is the infinity norm of the vector
//
//	xerr_i / (absTol + relTol*(|x_i| + |dt|*|dxdt_i|))
//
// where |.| is the element magnitude of the algebra, so the same control
// law applies to plain and to algebraic states.
type RK45[T any, A vspace.Algebra[T]] struct {
	alg    A
	absTol float64
	relTol float64

	safety   float64
	minScale float64
	maxScale float64

	resizeable bool

	k1, k2, k3, k4, k5, k6, k7 vspace.Vector[T]
	stage, xNew, xErr          vspace.Vector[T]

	fsal  bool
	evals int
}

func NewRK45[T any, A vspace.Algebra[T]](alg A, absTol, relTol float64) *RK45[T, A] {
	return &RK45[T, A]{
		alg:        alg,
		absTol:     absTol,
		relTol:     relTol,
		safety:     0.9,
		minScale:   0.2,
		maxScale:   5.0,
		resizeable: vspace.IsResizeable[vspace.Vector[T]](),
	}
}

// Reset forgets the cached derivative and evaluation count.
func (r *RK45[T, A]) Reset() {
	r.fsal = false
	r.evals = 0
}

func (r *RK45[T, A]) Evaluations() int { return r.evals }

func (r *RK45[T, A]) ensureScratch(n int) error {
	if len(r.k2) == n {
		return nil
	}
	if !r.resizeable {
		return dynamo.ErrNotResizeable
	}
	for _, buf := range []*vspace.Vector[T]{&r.k2, &r.k3, &r.k4, &r.k5, &r.k6, &r.k7, &r.stage, &r.xNew, &r.xErr} {
		buf.Resize(n)
	}
	return nil
}

func (r *RK45[T, A]) derive(sys dynamo.System[T], x vspace.Vector[T], dxdt *vspace.Vector[T], t float64) error {
	sys.Derive(x, dxdt, t)
	r.evals++
	if len(*dxdt) != len(x) {
		return fmt.Errorf("%w: state %d, derivative %d", dynamo.ErrDimensionMismatch, len(x), len(*dxdt))
	}
	return nil
}

// combine writes dst = x + h*sum(coeffs[j]*ks[j]).
func (r *RK45[T, A]) combine(dst, x vspace.Vector[T], h float64, coeffs []float64, ks ...vspace.Vector[T]) {
	for i := range dst {
		sum := r.alg.Scale(ks[0][i], coeffs[0])
		for j := 1; j < len(ks); j++ {
			sum = r.alg.Add(sum, r.alg.Scale(ks[j][i], coeffs[j]))
		}
		dst[i] = r.alg.Add(x[i], r.alg.Scale(sum, h))
	}
}

// TryStep attempts one step of size *dt from (*x, *t). On acceptance x and
// t advance and *dt becomes the proposed next step; on rejection only *dt
// shrinks.
func (r *RK45[T, A]) TryStep(sys dynamo.System[T], x *vspace.Vector[T], t, dt *float64) (bool, error) {
	n := len(*x)
	if err := r.ensureScratch(n); err != nil {
		return false, err
	}
	if !r.fsal || len(r.k1) != n {
		if err := r.derive(sys, *x, &r.k1, *t); err != nil {
			return false, err
		}
		r.fsal = true
	}

	h, t0, x0 := *dt, *t, *x

	r.combine(r.stage, x0, h, []float64{b21}, r.k1)
	if err := r.derive(sys, r.stage, &r.k2, t0+a2*h); err != nil {
		return false, err
	}

	r.combine(r.stage, x0, h, []float64{b31, b32}, r.k1, r.k2)
	if err := r.derive(sys, r.stage, &r.k3, t0+a3*h); err != nil {
		return false, err
	}

	r.combine(r.stage, x0, h, []float64{b41, b42, b43}, r.k1, r.k2, r.k3)
	if err := r.derive(sys, r.stage, &r.k4, t0+a4*h); err != nil {
		return false, err
	}

	r.combine(r.stage, x0, h, []float64{b51, b52, b53, b54}, r.k1, r.k2, r.k3, r.k4)
	if err := r.derive(sys, r.stage, &r.k5, t0+a5*h); err != nil {
		return false, err
	}

	r.combine(r.stage, x0, h, []float64{b61, b62, b63, b64, b65}, r.k1, r.k2, r.k3, r.k4, r.k5)
	if err := r.derive(sys, r.stage, &r.k6, t0+h); err != nil {
		return false, err
	}

	r.combine(r.xNew, x0, h, []float64{c1, c3, c4, c5, c6}, r.k1, r.k3, r.k4, r.k5, r.k6)
	if err := r.derive(sys, r.xNew, &r.k7, t0+h); err != nil {
		return false, err
	}

	absH := math.Abs(h)
	for i := range r.xErr {
		est := r.alg.Scale(r.k1[i], dc1)
		for _, term := range []struct {
			k vspace.Vector[T]
			c float64
		}{{r.k3, dc3}, {r.k4, dc4}, {r.k5, dc5}, {r.k6, dc6}, {r.k7, dc7}} {
			est = r.alg.Add(est, r.alg.Scale(term.k[i], term.c))
		}
		est = r.alg.Scale(est, h)

		den := r.absTol + r.relTol*(r.alg.Magnitude(x0[i])+absH*r.alg.Magnitude(r.k1[i]))
		r.xErr[i] = r.alg.Scale(est, 1/den)
	}

	errMax := vspace.NormInf[T](r.alg, r.xErr)
	if math.IsNaN(errMax) || math.IsInf(errMax, 0) {
		return false, dynamo.ErrInvalidState
	}

	if errMax > 1 {
		scale := math.Max(r.safety*math.Pow(errMax, -1.0/(rk45ErrorOrder-1)), r.minScale)
		*dt = h * scale
		return false, nil
	}

	copy(*x, r.xNew)
	r.k1, r.k7 = r.k7, r.k1
	*t = t0 + h

	if errMax < 0.5 {
		errMax = math.Max(math.Pow(r.maxScale, -rk45Order), errMax)
		*dt = h * r.safety * math.Pow(errMax, -1.0/rk45Order)
	} else {
		*dt = h
	}
	return true, nil
}
