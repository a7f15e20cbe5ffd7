package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/daprop/internal/da"
)

var ErrNoMap = errors.New("analysis: no propagated map")

// Jacobian returns dx(T)/dx(0). The initial state was seeded as
// x0 + scale*dx_i, so linear coefficients are divided by scale.
func Jacobian(final []da.DA, scale float64) (*mat.Dense, error) {
	if len(final) == 0 || final[0].Config() == nil {
		return nil, ErrNoMap
	}
	if scale == 0 {
		return nil, fmt.Errorf("%w: zero perturbation scale", ErrNoMap)
	}

	vars := final[0].Config().Vars()
	j := mat.NewDense(len(final), vars, nil)
	exps := make([]int, vars)
	for r, x := range final {
		for c := range exps {
			exps[c] = 1
			j.Set(r, c, x.Coeff(exps...)/scale)
			exps[c] = 0
		}
	}
	return j, nil
}

// LyapunovExponent is ln(sigma_max)/duration for the Jacobian of the map.
func LyapunovExponent(final []da.DA, scale, duration float64) (float64, error) {
	if duration == 0 {
		return 0, fmt.Errorf("%w: zero duration", ErrNoMap)
	}
	j, err := Jacobian(final, scale)
	if err != nil {
		return 0, err
	}

	var svd mat.SVD
	if ok := svd.Factorize(j, mat.SVDNone); !ok {
		return 0, errors.New("analysis: SVD failed to converge")
	}
	sigma := svd.Values(nil)[0]
	return math.Log(sigma) / math.Abs(duration), nil
}

// OrderProfile returns the largest absolute coefficient of each order
// 0..Order. A profile that does not decay hints at too low an order.
func OrderProfile(x da.DA) []float64 {
	cfg := x.Config()
	if cfg == nil {
		return nil
	}
	out := make([]float64, cfg.Order()+1)
	for _, t := range x.Terms() {
		deg := 0
		for _, p := range t.Exps {
			deg += p
		}
		out[deg] = math.Max(out[deg], math.Abs(t.Coeff))
	}
	return out
}
