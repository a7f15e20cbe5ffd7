package da

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DA is a truncated power series: a nominal value plus its sensitivities
// to the perturbation variables of its Config. Values are immutable; every
// operation returns a new DA.
//
// The zero value has no algebra attached and acts as the zero element of
// whatever algebra it is combined with.
type DA struct {
	cfg *Config
	c   []float64
}

// Term is one non-zero monomial of a DA value.
type Term struct {
	Exps  []int
	Coeff float64
}

func (c *Config) Const(v float64) DA {
	coeffs := make([]float64, c.Size())
	coeffs[0] = v
	return DA{cfg: c, c: coeffs}
}

// Var returns the i-th perturbation variable (1-based, as in DA literature).
func (c *Config) Var(i int) DA {
	if i < 1 || i > c.vars {
		panic(fmt.Errorf("%w: variable %d outside 1..%d", ErrInvalidConfig, i, c.vars))
	}
	coeffs := make([]float64, c.Size())
	// Degree-one monomials follow the constant, first variable first.
	coeffs[i] = 1
	return DA{cfg: c, c: coeffs}
}

// Identity returns the first n variables, one per vector component.
func (c *Config) Identity(n int) []DA {
	out := make([]DA, n)
	for i := range out {
		out[i] = c.Var(i + 1)
	}
	return out
}

// Vector lifts plain values into constants of this algebra.
func (c *Config) Vector(values ...float64) []DA {
	out := make([]DA, len(values))
	for i, v := range values {
		out[i] = c.Const(v)
	}
	return out
}

// Config returns the algebra of a, nil for the detached zero value.
func (a DA) Config() *Config { return a.cfg }

func (a DA) IsZero() bool {
	for _, v := range a.c {
		if v != 0 {
			return false
		}
	}
	return true
}

// Cons is the nominal (constant) part.
func (a DA) Cons() float64 {
	if len(a.c) == 0 {
		return 0
	}
	return a.c[0]
}

// Coeff returns the coefficient of the monomial with the given exponents.
// Missing trailing exponents are zero; monomials above the order read as 0.
func (a DA) Coeff(exps ...int) float64 {
	if a.cfg == nil {
		return 0
	}
	i, ok := a.cfg.indexOf(exps)
	if !ok {
		return 0
	}
	return a.c[i]
}

// Coeffs returns a copy of the coefficients in monomial order.
func (a DA) Coeffs() []float64 {
	out := make([]float64, len(a.c))
	copy(out, a.c)
	return out
}

// FromCoeffs builds a value from coefficients in monomial order.
func (c *Config) FromCoeffs(coeffs []float64) (DA, error) {
	if len(coeffs) != c.Size() {
		return DA{}, fmt.Errorf("%w: %d coefficients for an algebra of size %d", ErrInvalidConfig, len(coeffs), c.Size())
	}
	out := make([]float64, len(coeffs))
	copy(out, coeffs)
	return DA{cfg: c, c: out}, nil
}

// join picks the algebra of a binary operation, panicking on mismatch.
func join(a, b DA) *Config {
	switch {
	case a.cfg == nil:
		return b.cfg
	case b.cfg == nil:
		return a.cfg
	case !a.cfg.Compatible(b.cfg):
		panic(fmt.Errorf("%w: %s and %s", ErrConfigMismatch, a.cfg, b.cfg))
	}
	return a.cfg
}

func (a DA) coeffsIn(c *Config) []float64 {
	if a.cfg == nil {
		return make([]float64, c.Size())
	}
	return a.c
}

func (a DA) Add(b DA) DA {
	cfg := join(a, b)
	if cfg == nil {
		return DA{}
	}
	out := make([]float64, cfg.Size())
	floats.AddTo(out, a.coeffsIn(cfg), b.coeffsIn(cfg))
	return DA{cfg: cfg, c: out}
}

func (a DA) Sub(b DA) DA {
	cfg := join(a, b)
	if cfg == nil {
		return DA{}
	}
	out := make([]float64, cfg.Size())
	floats.SubTo(out, a.coeffsIn(cfg), b.coeffsIn(cfg))
	return DA{cfg: cfg, c: out}
}

// Mul multiplies and truncates everything above the algebra's order.
func (a DA) Mul(b DA) DA {
	cfg := join(a, b)
	if cfg == nil {
		return DA{}
	}
	ac, bc := a.coeffsIn(cfg), b.coeffsIn(cfg)
	out := make([]float64, cfg.Size())
	for _, p := range cfg.mul {
		if ac[p.i] == 0 {
			continue
		}
		out[p.k] += ac[p.i] * bc[p.j]
	}
	return DA{cfg: cfg, c: out}
}

func (a DA) Scale(k float64) DA {
	if a.cfg == nil {
		return DA{}
	}
	out := make([]float64, len(a.c))
	floats.ScaleTo(out, k, a.c)
	return DA{cfg: a.cfg, c: out}
}

func (a DA) Neg() DA { return a.Scale(-1) }

// AddConst shifts the nominal part. The detached zero value has no
// algebra to hold a constant and panics.
func (a DA) AddConst(v float64) DA {
	if a.cfg == nil {
		panic(fmt.Errorf("%w: constant added to a value without an algebra", ErrInvalidConfig))
	}
	out := a.Coeffs()
	out[0] += v
	return DA{cfg: a.cfg, c: out}
}

// Abs is the scalar magnitude used for error control, chosen by the
// algebra's Magnitude mode. It is 0 for the zero element.
func (a DA) Abs() float64 {
	if len(a.c) == 0 {
		return 0
	}
	if a.cfg.mag == MagnitudeNominal {
		return math.Abs(a.c[0])
	}
	return floats.Norm(a.c, math.Inf(1))
}

// Eval evaluates the polynomial at a perturbation point. Missing
// coordinates are treated as 0.
func (a DA) Eval(point []float64) float64 {
	if a.cfg == nil {
		return 0
	}
	sum := 0.0
	for i, coeff := range a.c {
		if coeff == 0 {
			continue
		}
		term := coeff
		for v, p := range a.cfg.exps[i] {
			if p == 0 {
				continue
			}
			x := 0.0
			if v < len(point) {
				x = point[v]
			}
			term *= math.Pow(x, float64(p))
		}
		sum += term
	}
	return sum
}

// Terms lists the non-zero monomials in graded order.
func (a DA) Terms() []Term {
	var out []Term
	for i, coeff := range a.c {
		if coeff == 0 {
			continue
		}
		out = append(out, Term{Exps: a.cfg.Exponents(i), Coeff: coeff})
	}
	return out
}

func (a DA) String() string {
	terms := a.Terms()
	if len(terms) == 0 {
		return "ALL COEFFICIENTS ZERO"
	}
	var sb strings.Builder
	sb.WriteString("     I  COEFFICIENT              ORDER EXPONENTS\n")
	for i, t := range terms {
		deg := 0
		exps := make([]string, len(t.Exps))
		for v, p := range t.Exps {
			deg += p
			exps[v] = fmt.Sprintf("%d", p)
		}
		fmt.Fprintf(&sb, "%6d  %24.16e %3d   %s\n", i+1, t.Coeff, deg, strings.Join(exps, " "))
	}
	return sb.String()
}
