package dynamics

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/environment"
)

// CentralBodyGravity adds the field of the body the frame is centered on.
type CentralBodyGravity struct {
	named
	celestial *environment.Celestial
}

func NewCentralBodyGravity(c *environment.Celestial, opts ...Option) (*CentralBodyGravity, error) {
	if !c.IsDefined() {
		return nil, dynamo.Undefined("Celestial")
	}
	if !c.Gravity.IsDefined() {
		return nil, dynamo.Undefined("Gravitational Model")
	}
	return &CentralBodyGravity{
		named:     newNamed(fmt.Sprintf("Central Body Gravity [%s]", c.Name), opts),
		celestial: c,
	}, nil
}

func (g *CentralBodyGravity) Celestial() *environment.Celestial { return g.celestial }

func (g *CentralBodyGravity) IsDefined() bool {
	return g.celestial.IsDefined() && g.celestial.Gravity.IsDefined()
}

func (g *CentralBodyGravity) ApplyContribution(x, dxdt dynamo.State, at time.Time) error {
	if err := checkCartesian(x, dxdt); err != nil {
		return err
	}
	a := g.celestial.GravitationalFieldAt(x.Position(), at)
	addVelocityDerivative(dxdt, a.X, a.Y, a.Z)
	return nil
}

func (g *CentralBodyGravity) Print(w io.Writer, decorated bool) {
	dynamo.PrintHeader(w, "Central Body Gravitational Dynamics", decorated)
	dynamo.PrintLine(w, "Name", g.Name())
	dynamo.PrintLine(w, "Defined", g.IsDefined())
	if g.celestial != nil {
		dynamo.PrintLine(w, "Celestial", g.celestial.Name)
		dynamo.PrintLine(w, "Gravitational Model", g.celestial.Gravity)
	}
	dynamo.PrintFooter(w, decorated)
}

// ThirdBodyGravity adds the tidal pull of a perturbing body: its field at
// the spacecraft minus its field at the frame origin, both taken with the
// body position at the same instant.
type ThirdBodyGravity struct {
	named
	celestial *environment.Celestial
}

func NewThirdBodyGravity(c *environment.Celestial, opts ...Option) (*ThirdBodyGravity, error) {
	if c == nil {
		return nil, dynamo.Undefined("Celestial")
	}
	if !c.Gravity.IsDefined() {
		return nil, dynamo.Undefined("Gravitational Model")
	}
	if c.Name == environment.EarthName {
		return nil, &dynamo.UnsupportedError{Reason: "Cannot calculate third body acceleration for the Earth yet."}
	}
	if c.Ephemeris == nil {
		return nil, dynamo.Undefined("Ephemeris")
	}
	if c.IsCentral() {
		return nil, &dynamo.UnsupportedError{
			Reason: fmt.Sprintf("Cannot calculate third body acceleration for the central body %s.", c.Name),
		}
	}
	return &ThirdBodyGravity{
		named:     newNamed(fmt.Sprintf("Third Body Gravity [%s]", c.Name), opts),
		celestial: c,
	}, nil
}

func (g *ThirdBodyGravity) Celestial() *environment.Celestial { return g.celestial }

func (g *ThirdBodyGravity) IsDefined() bool {
	return g.celestial.IsDefined() && g.celestial.Gravity.IsDefined()
}

func (g *ThirdBodyGravity) ApplyContribution(x, dxdt dynamo.State, at time.Time) error {
	if err := checkCartesian(x, dxdt); err != nil {
		return err
	}
	body := g.celestial.PositionAt(at)
	field := g.celestial.Gravity

	a := r3.Sub(
		field.FieldAt(r3.Sub(x.Position(), body)),
		field.FieldAt(r3.Sub(r3.Vec{}, body)),
	)
	addVelocityDerivative(dxdt, a.X, a.Y, a.Z)
	return nil
}

func (g *ThirdBodyGravity) Print(w io.Writer, decorated bool) {
	dynamo.PrintHeader(w, "Third Body Gravitational Dynamics", decorated)
	dynamo.PrintLine(w, "Name", g.Name())
	dynamo.PrintLine(w, "Defined", g.IsDefined())
	if g.celestial != nil {
		dynamo.PrintLine(w, "Celestial", g.celestial.Name)
		dynamo.PrintLine(w, "Gravitational Model", g.celestial.Gravity)
		dynamo.PrintLine(w, "Ephemeris", fmt.Sprintf("%T", g.celestial.Ephemeris))
	}
	dynamo.PrintFooter(w, decorated)
}
