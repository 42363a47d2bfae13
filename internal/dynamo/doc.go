// Package dynamo provides the numeric primitives shared by the propagator.
//
//   - [State]: ordered state vector, Cartesian layout [x y z vx vy vz]
//   - [System]: first-order ODE right-hand side, dx/dt = f(x, t)
//   - [Stepper], [AdaptiveStepper]: single-step integration schemes
//   - [Metric], [Observer]: per-step trajectory hooks
//   - [StatePool]: scratch buffer reuse for steppers
//
// Errors returned by the other packages wrap the sentinels declared here,
// so callers can use errors.Is against [ErrUndefined], [ErrUnsupported],
// [ErrInvalidState] and friends.
//
// # Thread Safety
//
// State values are plain slices and are not synchronized. Systems and
// steppers in this module hold no mutable state and may be shared across
// goroutines as long as each goroutine works on its own State buffers.
package dynamo
