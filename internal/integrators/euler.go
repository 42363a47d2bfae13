package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/astroprop/internal/dynamo"
)

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	if err := checkDim(sys, x); err != nil {
		return nil, err
	}
	dx := scratch.Get(len(x))
	defer scratch.Put(dx)

	if err := sys.Derive(x, dx, t); err != nil {
		return nil, err
	}
	result := make(dynamo.State, len(x))
	floats.AddScaledTo(result, x, dt, dx)
	return result, nil
}
