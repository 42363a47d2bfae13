package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for propagation.
var (
	// ErrInvalidState indicates a state vector holding NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepRejected indicates an adaptive step whose error estimate exceeded tolerance.
	ErrStepRejected = errors.New("dynamo: adaptive step rejected")

	// ErrMaxSteps indicates the solver hit its configured step budget.
	ErrMaxSteps = errors.New("dynamo: maximum number of steps exceeded")

	// ErrDimensionMismatch indicates mismatched state/derivative dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrUndefined is matched by every UndefinedError.
	ErrUndefined = errors.New("dynamo: undefined")

	// ErrUnsupported is matched by every UnsupportedError.
	ErrUnsupported = errors.New("dynamo: unsupported")
)

// UndefinedError reports a required capability that is not usable.
type UndefinedError struct {
	Capability string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("{%s} is undefined.", e.Capability)
}

func (e *UndefinedError) Is(target error) bool {
	return target == ErrUndefined
}

// Undefined returns an UndefinedError for capability.
func Undefined(capability string) error {
	return &UndefinedError{Capability: capability}
}

// UnsupportedError reports a configuration that is not implemented.
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string {
	return e.Reason
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// SimulationError wraps an error with propagation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
