// Package physics provides dynamical system models for integration.
//
// Each model implements [dynamo.System] for any element type with a
// [vspace.Field], so one definition serves float64 reference runs and
// differential-algebra runs alike:
//
//   - [Lorenz]: butterfly attractor
//   - [Rossler]: spiral attractor
//   - [VanDerPol]: relaxation oscillator
//
// Models also implement [dynamo.Configurable] for parameter adjustment.
//
//	lorenz := physics.NewLorenz[da.DA](vspace.DA{})
//	lorenz.SetParam("rho", 99.96)
package physics
