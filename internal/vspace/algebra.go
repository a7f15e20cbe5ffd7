package vspace

import (
	"math"

	"github.com/san-kum/daprop/internal/da"
)

// Magnituder maps one element to a non-negative scalar size. It must be
// pure and return 0 for the zero element.
type Magnituder[T any] interface {
	Magnitude(x T) float64
}

// Algebra is the element arithmetic an integrator combines stages with.
type Algebra[T any] interface {
	Magnituder[T]
	Zero() T
	Add(a, b T) T
	Sub(a, b T) T
	Scale(a T, k float64) T
}

// Field extends Algebra with what right-hand sides need beyond linear
// combinations.
type Field[T any] interface {
	Algebra[T]
	Mul(a, b T) T
	// Lift turns a plain value into an element compatible with like.
	Lift(v float64, like T) T
}

// Float64 is the algebra of plain scalars.
type Float64 struct{}

var _ Field[float64] = Float64{}

func (Float64) Magnitude(x float64) float64 { return math.Abs(x) }
func (Float64) Zero() float64               { return 0 }
func (Float64) Add(a, b float64) float64    { return a + b }
func (Float64) Sub(a, b float64) float64    { return a - b }
func (Float64) Scale(a, k float64) float64  { return a * k }
func (Float64) Mul(a, b float64) float64    { return a * b }
func (Float64) Lift(v, _ float64) float64   { return v }

// DA is the algebra of truncated power series. Its magnitude forwards to
// [da.DA.Abs], whose definition is fixed by the element's Config.
type DA struct{}

var _ Field[da.DA] = DA{}

func (DA) Magnitude(x da.DA) float64      { return x.Abs() }
func (DA) Zero() da.DA                    { return da.DA{} }
func (DA) Add(a, b da.DA) da.DA           { return a.Add(b) }
func (DA) Sub(a, b da.DA) da.DA           { return a.Sub(b) }
func (DA) Scale(a da.DA, k float64) da.DA { return a.Scale(k) }
func (DA) Mul(a, b da.DA) da.DA           { return a.Mul(b) }

// Lift needs like to carry an algebra; the detached zero panics.
func (DA) Lift(v float64, like da.DA) da.DA {
	return like.Scale(0).AddConst(v)
}
