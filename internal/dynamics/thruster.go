package dynamics

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// Thruster applies a constant thrust along the velocity direction. Negative
// thrust points against the velocity. Mass depletion is not modeled.
type Thruster struct {
	named
	system SatelliteSystem
	thrust float64 // N
}

func NewThruster(system SatelliteSystem, thrust float64, opts ...Option) (*Thruster, error) {
	if !system.IsDefined() {
		return nil, dynamo.Undefined("Satellite System")
	}
	if thrust == 0 {
		return nil, dynamo.Undefined("Thrust")
	}
	return &Thruster{
		named:  newNamed("Constant Thrust", opts),
		system: system,
		thrust: thrust,
	}, nil
}

func (t *Thruster) IsDefined() bool {
	return t.system.IsDefined() && t.thrust != 0
}

// Acceleration is the signed magnitude of the thrust acceleration in m/s^2.
func (t *Thruster) Acceleration() float64 {
	if !t.system.IsDefined() {
		return 0
	}
	return t.thrust / t.system.Mass
}

func (t *Thruster) ApplyContribution(x, dxdt dynamo.State, _ time.Time) error {
	if err := checkCartesian(x, dxdt); err != nil {
		return err
	}
	v := x.Velocity()
	speed := r3.Norm(v)
	if speed == 0 {
		return &dynamo.UnsupportedError{Reason: "Cannot orient velocity-aligned thrust at zero velocity."}
	}
	a := r3.Scale(t.Acceleration()/speed, v)
	addVelocityDerivative(dxdt, a.X, a.Y, a.Z)
	return nil
}

func (t *Thruster) Print(w io.Writer, decorated bool) {
	dynamo.PrintHeader(w, "Thruster Dynamics", decorated)
	dynamo.PrintLine(w, "Name", t.Name())
	dynamo.PrintLine(w, "Defined", t.IsDefined())
	dynamo.PrintLine(w, "Thrust", fmt.Sprintf("%.4f N", t.thrust))
	dynamo.PrintLine(w, "Satellite System", t.system)
	dynamo.PrintFooter(w, decorated)
}
