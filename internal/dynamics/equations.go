package dynamics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

var ErrNoDynamics = errors.New("dynamics: no dynamics to compose")

// Equations sums an ordered set of dynamics into one dynamo.System. Time
// arguments are seconds elapsed since the reference instant. It holds no
// scratch state, so one value can drive concurrent propagations.
type Equations struct {
	dynamics  []Dynamics
	reference time.Time
}

func NewEquations(ds []Dynamics, reference time.Time) (Equations, error) {
	if len(ds) == 0 {
		return Equations{}, ErrNoDynamics
	}
	for i, d := range ds {
		if d == nil {
			return Equations{}, fmt.Errorf("dynamics %d: %w", i, dynamo.Undefined("Dynamics"))
		}
		if !d.IsDefined() {
			return Equations{}, fmt.Errorf("%s: %w", d.Name(), dynamo.Undefined("Dynamics"))
		}
	}
	return Equations{
		dynamics:  append([]Dynamics(nil), ds...),
		reference: reference,
	}, nil
}

func (e Equations) Reference() time.Time { return e.reference }

func (e Equations) Dynamics() []Dynamics {
	return append([]Dynamics(nil), e.dynamics...)
}

func (e Equations) StateDim() int { return dynamo.CartesianDim }

// Derive zeroes dxdt and adds every contribution in insertion order. On
// failure dxdt is zeroed again.
func (e Equations) Derive(x, dxdt dynamo.State, t float64) error {
	if len(dxdt) != len(x) {
		return dynamo.ErrDimensionMismatch
	}
	clear(dxdt)

	at := InstantAt(e.reference, t)
	for _, d := range e.dynamics {
		if err := d.ApplyContribution(x, dxdt, at); err != nil {
			clear(dxdt)
			return fmt.Errorf("%s: %w", d.Name(), err)
		}
	}
	return nil
}

// InstantAt returns reference shifted by seconds, rounded to the nanosecond.
func InstantAt(reference time.Time, seconds float64) time.Time {
	return reference.Add(time.Duration(math.Round(seconds * float64(time.Second))))
}
