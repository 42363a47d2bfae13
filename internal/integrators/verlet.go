package integrators

import "github.com/san-kum/astroprop/internal/dynamo"

// Verlet is velocity Verlet for states laid out as [positions, velocities]
// where the position rows of the derivative equal the velocities. Only the
// acceleration rows of the system output are read.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	if err := checkDim(sys, x); err != nil {
		return nil, err
	}
	n := len(x)
	half := n / 2
	dx, dxNew, tmp := scratch.Get(n), scratch.Get(n), scratch.Get(n)
	defer func() {
		scratch.Put(dx)
		scratch.Put(dxNew)
		scratch.Put(tmp)
	}()

	if err := sys.Derive(x, dx, t); err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	dt2 := dt * dt
	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + 0.5*dx[half+i]*dt2
	}

	for i := 0; i < half; i++ {
		tmp[i] = result[i]
		tmp[half+i] = x[half+i]
	}

	if err := sys.Derive(tmp, dxNew, t+dt); err != nil {
		return nil, err
	}

	halfDt := 0.5 * dt
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + (dx[half+i]+dxNew[half+i])*halfDt
	}

	return result, nil
}

// Leapfrog is the kick-drift-kick form of the same scheme.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	if err := checkDim(sys, x); err != nil {
		return nil, err
	}
	n := len(x)
	half := n / 2
	dx, dxNew, tmp := scratch.Get(n), scratch.Get(n), scratch.Get(n)
	defer func() {
		scratch.Put(dx)
		scratch.Put(dxNew)
		scratch.Put(tmp)
	}()

	if err := sys.Derive(x, dx, t); err != nil {
		return nil, err
	}
	halfDt := dt * 0.5

	for i := 0; i < half; i++ {
		tmp[half+i] = x[half+i] + dx[half+i]*halfDt
	}

	result := make(dynamo.State, n)
	for i := 0; i < half; i++ {
		result[i] = x[i] + tmp[half+i]*dt
		tmp[i] = result[i]
	}

	if err := sys.Derive(tmp, dxNew, t+dt); err != nil {
		return nil, err
	}

	for i := 0; i < half; i++ {
		result[half+i] = tmp[half+i] + dxNew[half+i]*halfDt
	}

	return result, nil
}
