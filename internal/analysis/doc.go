// Package analysis reads dynamics out of a propagated DA map.
//
//   - [Jacobian]: state transition matrix from the linear coefficients
//   - [LyapunovExponent]: finite-time largest Lyapunov exponent of that matrix
//   - [OrderProfile]: coefficient size per order, a truncation check
//
// A positive exponent indicates chaotic divergence over the integration window:
//
//	lambda, err := analysis.LyapunovExponent(result.Final, cfg.Scale, cfg.T1-cfg.T0)
package analysis
