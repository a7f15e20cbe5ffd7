// Package dynamo defines the contracts shared by integrators and models.
//
//   - [System]: right-hand side dX/dt = f(X, t) over a [vspace.Vector]
//   - [Observer]: callback after every accepted step
//   - [Config]: time span, initial step and tolerances
//   - [Stats]: step, rejection and evaluation counts of a run
//
// Everything is generic over the element type, so the same model runs on
// float64 states and on differential-algebra states.
//
// # Example
//
//	lorenz := physics.NewLorenz[da.DA](vspace.DA{})
//	stepper := integrators.NewRK45[da.DA](vspace.DA{}, 1e-10, 1e-10)
//	stats, err := integrators.IntegrateAdaptive[da.DA](ctx, stepper, lorenz, &x, cfg, nil)
//
// # Thread Safety
//
// Steppers keep scratch buffers and are NOT thread-safe. Use one stepper
// per goroutine.
package dynamo
