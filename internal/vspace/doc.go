// Package vspace adapts algebraic element types to the vector-space
// capabilities a generic integrator needs.
//
// An integrator works on a [Vector] of elements of some type T and asks
// three things of it:
//
//   - [NormInf]: the infinity norm of a vector, the largest element
//     magnitude, used to accept or reject a step.
//   - [IsResizeable]: whether the container can change length once the
//     problem dimension is known.
//   - [Magnituder]: the per-element magnitude NormInf reduces over.
//
// The capabilities are selected by type parameter, so an integrator
// instantiated for [DA] elements uses the algebra-aware magnitude and one
// instantiated for [Float64] uses the absolute value, with no branching
// per call.
//
// # Example
//
//	cfg := da.MustConfig(8, 3)
//	x := vspace.Vector[da.DA](cfg.Vector(10, 5, 5))
//	alg := vspace.DA{}
//	size := vspace.NormInf[da.DA](alg, x)
//
// All functions here are pure: they borrow their inputs for the duration of
// the call and never mutate or retain them.
package vspace
