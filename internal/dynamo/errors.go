package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration runs.
var (
	// ErrInvalidConfig indicates an unusable time span, step or tolerance.
	ErrInvalidConfig = errors.New("dynamo: invalid integration config")

	// ErrInvalidState indicates a state element with NaN or Inf magnitude.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a model parameter that does not exist or is out of range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the integration was interrupted.
	ErrContextCanceled = errors.New("dynamo: integration canceled by context")

	// ErrStepAdjust indicates no acceptable step size was found within the trial limit.
	ErrStepAdjust = errors.New("dynamo: step size adjustment failed")

	// ErrTooManySteps indicates the step limit was reached before t1.
	ErrTooManySteps = errors.New("dynamo: maximum step count exceeded")

	// ErrNotResizeable indicates a state container that cannot follow the problem dimension.
	ErrNotResizeable = errors.New("dynamo: state container is not resizeable")

	// ErrDimensionMismatch indicates a derivative whose length differs from the state.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and derivative")
)

// SimulationError wraps an error with integration context.
type SimulationError struct {
	Step    int
	Time    float64
	Dt      float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g, dt=%.3g): %v", e.Step, e.Time, e.Dt, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
