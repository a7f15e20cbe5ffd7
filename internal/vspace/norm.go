package vspace

import "math"

// NormInf is the infinity norm of v: the largest element magnitude, or 0
// for an empty vector. Whatever the element magnitude does on ill-formed
// input propagates unchanged, including NaN.
func NormInf[T any, M Magnituder[T]](m M, v Vector[T]) float64 {
	maxMag := 0.0
	for _, x := range v {
		mag := m.Magnitude(x)
		if math.IsNaN(mag) {
			return mag
		}
		if mag > maxMag {
			maxMag = mag
		}
	}
	return maxMag
}
