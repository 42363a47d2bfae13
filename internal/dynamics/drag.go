package dynamics

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/environment"
)

// AtmosphericDrag decelerates the spacecraft against an atmosphere that
// co-rotates with its body:
//
//	a = -1/2 rho (Cd A / m) |v_rel| v_rel,  v_rel = v - w x r
type AtmosphericDrag struct {
	named
	celestial *environment.Celestial
	system    SatelliteSystem
}

func NewAtmosphericDrag(c *environment.Celestial, system SatelliteSystem, opts ...Option) (*AtmosphericDrag, error) {
	if !c.IsDefined() {
		return nil, dynamo.Undefined("Celestial")
	}
	if !c.Atmosphere.IsDefined() {
		return nil, dynamo.Undefined("Atmospheric Model")
	}
	if !system.IsDefined() {
		return nil, dynamo.Undefined("Satellite System")
	}
	return &AtmosphericDrag{
		named:     newNamed(fmt.Sprintf("Atmospheric Drag [%s]", c.Name), opts),
		celestial: c,
		system:    system,
	}, nil
}

func (d *AtmosphericDrag) IsDefined() bool {
	return d.celestial.IsDefined() && d.celestial.Atmosphere.IsDefined() && d.system.IsDefined()
}

func (d *AtmosphericDrag) ApplyContribution(x, dxdt dynamo.State, at time.Time) error {
	if err := checkCartesian(x, dxdt); err != nil {
		return err
	}
	r := r3.Sub(x.Position(), d.celestial.PositionAt(at))
	rho := d.celestial.Atmosphere.DensityAt(r3.Norm(r) - d.celestial.Radius)
	if rho == 0 {
		return nil
	}

	spin := r3.Vec{Z: d.celestial.RotationRate}
	vRel := r3.Sub(x.Velocity(), r3.Cross(spin, r))
	a := r3.Scale(-0.5*rho*d.system.BallisticFactor()*r3.Norm(vRel), vRel)
	addVelocityDerivative(dxdt, a.X, a.Y, a.Z)
	return nil
}

func (d *AtmosphericDrag) Print(w io.Writer, decorated bool) {
	dynamo.PrintHeader(w, "Atmospheric Drag Dynamics", decorated)
	dynamo.PrintLine(w, "Name", d.Name())
	dynamo.PrintLine(w, "Defined", d.IsDefined())
	if d.celestial != nil {
		dynamo.PrintLine(w, "Celestial", d.celestial.Name)
		dynamo.PrintLine(w, "Atmospheric Model", d.celestial.Atmosphere)
	}
	dynamo.PrintLine(w, "Satellite System", d.system)
	dynamo.PrintFooter(w, decorated)
}
