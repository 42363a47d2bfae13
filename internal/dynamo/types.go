package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// CartesianDim is the length of a position/velocity state.
const CartesianDim = 6

type State []float64

func NewCartesian(position, velocity r3.Vec) State {
	return State{position.X, position.Y, position.Z, velocity.X, velocity.Y, velocity.Z}
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Position returns the first three components. The state must be Cartesian.
func (s State) Position() r3.Vec {
	return r3.Vec{X: s[0], Y: s[1], Z: s[2]}
}

// Velocity returns components three to five. The state must be Cartesian.
func (s State) Velocity() r3.Vec {
	return r3.Vec{X: s[3], Y: s[4], Z: s[5]}
}

func (s State) IsCartesian() bool {
	return len(s) >= CartesianDim
}

// System is a first-order ODE dx/dt = f(x, t). Derive writes f into dxdt,
// which has the same length as x.
type System interface {
	Derive(x, dxdt State, t float64) error
	StateDim() int
}

// SystemFunc adapts a plain function to a System.
type SystemFunc struct {
	Dim int
	F   func(x, dxdt State, t float64) error
}

func (f SystemFunc) Derive(x, dxdt State, t float64) error { return f.F(x, dxdt, t) }
func (f SystemFunc) StateDim() int                         { return f.Dim }

type Stepper interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

// AdaptiveStepper returns the proposed next step with every attempt. A
// rejected attempt returns ErrStepRejected together with the smaller step
// to retry with.
type AdaptiveStepper interface {
	Stepper
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}
