package environment

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Celestial is a body with its gravity, atmosphere and ephemeris. Values are
// treated as immutable once built and are shared by pointer between
// dynamics.
type Celestial struct {
	Name         string
	Radius       float64 // equatorial, m
	// RotationRate is the spin about the frame z axis, rad/s.
	RotationRate float64
	Gravity      GravitationalModel
	Atmosphere   AtmosphericModel
	Ephemeris    Ephemeris
}

func (c *Celestial) IsDefined() bool {
	return c != nil && c.Name != "" && c.Ephemeris != nil
}

// IsCentral reports whether the body sits at the origin of the frame.
func (c *Celestial) IsCentral() bool {
	_, ok := c.Ephemeris.(Origin)
	return ok
}

func (c *Celestial) PositionAt(at time.Time) r3.Vec {
	return c.Ephemeris.PositionAt(at)
}

// GravitationalFieldAt returns the body's acceleration at position, expressed
// in the propagation frame, at instant at.
func (c *Celestial) GravitationalFieldAt(position r3.Vec, at time.Time) r3.Vec {
	return c.Gravity.FieldAt(r3.Sub(position, c.PositionAt(at)))
}

// AltitudeOf returns the height of position above the body's equatorial
// sphere.
func (c *Celestial) AltitudeOf(position r3.Vec, at time.Time) float64 {
	return r3.Norm(r3.Sub(position, c.PositionAt(at))) - c.Radius
}

func (c *Celestial) Print(w io.Writer) {
	fmt.Fprintf(w, "Name: %s\n", c.Name)
	fmt.Fprintf(w, "Radius: %.1f m\n", c.Radius)
	fmt.Fprintf(w, "Gravitational Model: %s\n", c.Gravity)
	fmt.Fprintf(w, "Atmospheric Model: %s\n", c.Atmosphere)
	fmt.Fprintf(w, "Ephemeris: %T\n", c.Ephemeris)
}
