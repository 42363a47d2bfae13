// Package orbit converts Cartesian states to and from classical orbital
// elements. Angles are in radians, distances in meters.
package orbit

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	eccentricityε = 1e-11
	angleε        = 1e-12
)

type Element int

const (
	SemiMajorAxis Element = iota
	Eccentricity
	Inclination
	RAAN
	ArgumentOfPeriapsis
	TrueAnomaly
	MeanAnomaly
	EccentricAnomaly
)

var elementNames = map[Element]string{
	SemiMajorAxis:       "SemiMajorAxis",
	Eccentricity:        "Eccentricity",
	Inclination:         "Inclination",
	RAAN:                "RAAN",
	ArgumentOfPeriapsis: "ArgumentOfPeriapsis",
	TrueAnomaly:         "TrueAnomaly",
	MeanAnomaly:         "MeanAnomaly",
	EccentricAnomaly:    "EccentricAnomaly",
}

func (e Element) String() string {
	if name, ok := elementNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Element(%d)", int(e))
}

func ParseElement(s string) (Element, error) {
	for e, name := range elementNames {
		if strings.EqualFold(name, s) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown orbital element: %s", s)
}

func (e Element) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Element) UnmarshalText(text []byte) error {
	parsed, err := ParseElement(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// COE is a set of classical orbital elements.
type COE struct {
	SemiMajorAxis       float64
	Eccentricity        float64
	Inclination         float64
	RAAN                float64
	ArgumentOfPeriapsis float64
	TrueAnomaly         float64
}

// FromCartesian follows Vallado's RV2COE. Elliptic orbits only; circular and
// equatorial cases fold the undefined angles into the true anomaly.
func FromCartesian(r, v r3.Vec, mu float64) COE {
	h := r3.Cross(r, v)
	n := r3.Cross(r3.Vec{Z: 1}, h)
	rn := r3.Norm(r)
	vn := r3.Norm(v)

	eVec := r3.Scale(1/mu, r3.Sub(r3.Scale(vn*vn-mu/rn, r), r3.Scale(r3.Dot(r, v), v)))
	e := r3.Norm(eVec)

	coe := COE{
		SemiMajorAxis: -mu / (2 * SpecificEnergy(r, v, mu)),
		Eccentricity:  e,
		Inclination:   math.Acos(clampUnit(h.Z / r3.Norm(h))),
	}

	nn := r3.Norm(n)
	if nn > angleε*rn {
		coe.RAAN = math.Acos(clampUnit(n.X / nn))
		if n.Y < 0 {
			coe.RAAN = 2*math.Pi - coe.RAAN
		}
	}

	switch {
	case e >= eccentricityε && nn > angleε*rn:
		coe.ArgumentOfPeriapsis = angleFrom(n, eVec, eVec.Z < 0)
		coe.TrueAnomaly = angleFrom(eVec, r, r3.Dot(r, v) < 0)
	case e >= eccentricityε:
		// Equatorial: periapsis measured from the x axis.
		coe.ArgumentOfPeriapsis = angleFrom(r3.Vec{X: 1}, eVec, h.Z*eVec.Y < 0)
		coe.TrueAnomaly = angleFrom(eVec, r, r3.Dot(r, v) < 0)
	case nn > angleε*rn:
		// Circular inclined: argument of latitude.
		coe.TrueAnomaly = angleFrom(n, r, r.Z < 0)
	default:
		// Circular equatorial: true longitude.
		coe.TrueAnomaly = angleFrom(r3.Vec{X: 1}, r, h.Z*r.Y < 0)
	}
	return coe
}

// ToCartesian is the inverse of FromCartesian.
func (c COE) ToCartesian(mu float64) (r, v r3.Vec) {
	p := c.SemiParameter()
	sinν, cosν := math.Sincos(c.TrueAnomaly)

	rPQW := r3.Vec{X: p * cosν / (1 + c.Eccentricity*cosν), Y: p * sinν / (1 + c.Eccentricity*cosν)}
	k := math.Sqrt(mu / p)
	vPQW := r3.Vec{X: -k * sinν, Y: k * (c.Eccentricity + cosν)}

	return pqwToECI(c.Inclination, c.ArgumentOfPeriapsis, c.RAAN, rPQW),
		pqwToECI(c.Inclination, c.ArgumentOfPeriapsis, c.RAAN, vPQW)
}

func (c COE) SemiParameter() float64 {
	return c.SemiMajorAxis * (1 - c.Eccentricity*c.Eccentricity)
}

func (c COE) EccentricAnomaly() float64 {
	sinν, cosν := math.Sincos(c.TrueAnomaly)
	e := c.Eccentricity
	E := math.Atan2(math.Sqrt(1-e*e)*sinν, e+cosν)
	return wrapTwoPi(E)
}

func (c COE) MeanAnomaly() float64 {
	E := c.EccentricAnomaly()
	return wrapTwoPi(E - c.Eccentricity*math.Sin(E))
}

// Period is the Keplerian period in seconds.
func (c COE) Period(mu float64) float64 {
	a := c.SemiMajorAxis
	return 2 * math.Pi * math.Sqrt(a*a*a/mu)
}

func (c COE) Get(e Element) float64 {
	switch e {
	case SemiMajorAxis:
		return c.SemiMajorAxis
	case Eccentricity:
		return c.Eccentricity
	case Inclination:
		return c.Inclination
	case RAAN:
		return c.RAAN
	case ArgumentOfPeriapsis:
		return c.ArgumentOfPeriapsis
	case TrueAnomaly:
		return c.TrueAnomaly
	case MeanAnomaly:
		return c.MeanAnomaly()
	case EccentricAnomaly:
		return c.EccentricAnomaly()
	default:
		return math.NaN()
	}
}

func (c COE) String() string {
	deg := 180 / math.Pi
	return fmt.Sprintf("a=%.1f e=%.6f i=%.3f Ω=%.3f ω=%.3f ν=%.3f",
		c.SemiMajorAxis, c.Eccentricity, c.Inclination*deg, c.RAAN*deg, c.ArgumentOfPeriapsis*deg, c.TrueAnomaly*deg)
}

// SpecificEnergy is v^2/2 - mu/r in J/kg.
func SpecificEnergy(r, v r3.Vec, mu float64) float64 {
	vn := r3.Norm(v)
	return vn*vn/2 - mu/r3.Norm(r)
}

func angleFrom(from, to r3.Vec, reflex bool) float64 {
	θ := math.Acos(clampUnit(r3.Dot(from, to) / (r3.Norm(from) * r3.Norm(to))))
	if reflex {
		θ = 2*math.Pi - θ
	}
	return math.Mod(θ, 2*math.Pi)
}

func clampUnit(x float64) float64 {
	if math.Abs(x) > 1 && scalar.EqualWithinAbs(math.Abs(x), 1, 1e-12) {
		return math.Copysign(1, x)
	}
	return x
}

func wrapTwoPi(θ float64) float64 {
	θ = math.Mod(θ, 2*math.Pi)
	if θ < 0 {
		θ += 2 * math.Pi
	}
	return θ
}

func pqwToECI(i, ω, Ω float64, p r3.Vec) r3.Vec {
	sω, cω := math.Sincos(ω)
	sΩ, cΩ := math.Sincos(Ω)
	si, ci := math.Sincos(i)

	return r3.Vec{
		X: (cΩ*cω-sΩ*sω*ci)*p.X + (-cΩ*sω-sΩ*cω*ci)*p.Y + sΩ*si*p.Z,
		Y: (sΩ*cω+cΩ*sω*ci)*p.X + (-sΩ*sω+cΩ*cω*ci)*p.Y - cΩ*si*p.Z,
		Z: sω*si*p.X + cω*si*p.Y + ci*p.Z,
	}
}
