package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// RK4 is the classical fixed-step fourth-order Runge-Kutta scheme. The
// arithmetic order is fixed, so equal inputs give bit-identical outputs.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	if err := checkDim(sys, x); err != nil {
		return nil, err
	}
	n := len(x)
	k1, k2, k3, k4 := scratch.Get(n), scratch.Get(n), scratch.Get(n), scratch.Get(n)
	tmp := scratch.Get(n)
	defer func() {
		for _, s := range []dynamo.State{k1, k2, k3, k4, tmp} {
			scratch.Put(s)
		}
	}()

	if err := sys.Derive(x, k1, t); err != nil {
		return nil, err
	}

	floats.AddScaledTo(tmp, x, dt*0.5, k1)
	if err := sys.Derive(tmp, k2, t+dt*0.5); err != nil {
		return nil, err
	}

	floats.AddScaledTo(tmp, x, dt*0.5, k2)
	if err := sys.Derive(tmp, k3, t+dt*0.5); err != nil {
		return nil, err
	}

	floats.AddScaledTo(tmp, x, dt, k3)
	if err := sys.Derive(tmp, k4, t+dt); err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	return result, nil
}
