package environment

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

type GravityType int

const (
	GravityUndefined GravityType = iota
	GravitySpherical
	GravityJ2
)

func (t GravityType) String() string {
	switch t {
	case GravitySpherical:
		return "Spherical"
	case GravityJ2:
		return "J2"
	default:
		return "Undefined"
	}
}

// GravitationalModel describes a body's gravity field. Mu is in m^3/s^2 and
// EquatorialRadius in meters. J2 is only read by the J2 type.
type GravitationalModel struct {
	Type             GravityType
	Mu               float64
	EquatorialRadius float64
	J2               float64
}

func (g GravitationalModel) IsDefined() bool {
	if g.Mu <= 0 {
		return false
	}
	switch g.Type {
	case GravitySpherical:
		return true
	case GravityJ2:
		return g.EquatorialRadius > 0
	default:
		return false
	}
}

// FieldAt returns the gravitational acceleration at r, a position relative
// to the body's center, in m/s^2.
func (g GravitationalModel) FieldAt(r r3.Vec) r3.Vec {
	a := PointMass(g.Mu, r)
	if g.Type == GravityJ2 {
		a = r3.Add(a, zonalJ2(g.Mu, g.EquatorialRadius, g.J2, r))
	}
	return a
}

func (g GravitationalModel) String() string {
	if g.Type == GravityJ2 {
		return fmt.Sprintf("%s (mu=%.6e m3/s2, Re=%.1f m, J2=%.6e)", g.Type, g.Mu, g.EquatorialRadius, g.J2)
	}
	return fmt.Sprintf("%s (mu=%.6e m3/s2)", g.Type, g.Mu)
}

// PointMass is the Newtonian field -mu r/|r|^3.
func PointMass(mu float64, r r3.Vec) r3.Vec {
	n := r3.Norm(r)
	return r3.Scale(-mu/(n*n*n), r)
}

func zonalJ2(mu, re, j2 float64, r r3.Vec) r3.Vec {
	n2 := r3.Norm2(r)
	n := r3.Norm(r)
	z2 := r.Z * r.Z / n2
	f := -1.5 * j2 * mu * re * re / (n2 * n2 * n)
	return r3.Vec{
		X: f * r.X * (1 - 5*z2),
		Y: f * r.Y * (1 - 5*z2),
		Z: f * r.Z * (3 - 5*z2),
	}
}
