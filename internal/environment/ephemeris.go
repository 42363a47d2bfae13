package environment

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"
)

// Ephemeris gives a body's position, in meters, in the Earth-centered
// inertial frame the propagation state is expressed in.
type Ephemeris interface {
	PositionAt(t time.Time) r3.Vec
}

// Origin is the ephemeris of the frame's central body.
type Origin struct{}

func (Origin) PositionAt(time.Time) r3.Vec { return r3.Vec{} }

// Linear moves with constant velocity from Position at Epoch. It is accurate
// over short spans around Epoch only.
type Linear struct {
	Epoch    time.Time
	Position r3.Vec
	Velocity r3.Vec
}

func (l Linear) PositionAt(t time.Time) r3.Vec {
	dt := t.Sub(l.Epoch).Seconds()
	return r3.Add(l.Position, r3.Scale(dt, l.Velocity))
}

type AnalyticalBody int

const (
	AnalyticalSun AnalyticalBody = iota
	AnalyticalMoon
)

const (
	astronomicalUnit = 149597870700.0 // m
	// J2000 mean obliquity of the ecliptic.
	obliquityJ2000 = 23.4392911 * math.Pi / 180
	// General precession in longitude, arcseconds per Julian century.
	precessionRate = 5028.796
)

// Analytical evaluates low-precision geocentric Sun and Moon positions from
// the series in Meeus, Astronomical Algorithms. Longitudes are precessed back
// to J2000 and rotated onto the J2000 equator. Accuracy is of the order of
// 0.01 degree, which is ample for third-body perturbations.
type Analytical struct {
	Body AnalyticalBody
}

func (a Analytical) PositionAt(t time.Time) r3.Vec {
	jde := julian.TimeToJD(t.UTC())
	T := base.J2000Century(jde)

	var lon, lat unit.Angle
	var dist float64
	switch a.Body {
	case AnalyticalMoon:
		lon, lat, dist = moonposition.Position(jde)
		dist *= 1e3
	default:
		lon, _ = solar.True(T)
		dist = solar.Radius(T) * astronomicalUnit
	}
	lon -= unit.AngleFromSec(precessionRate * T)

	return eclipticToEquatorial(lon, lat, dist)
}

func eclipticToEquatorial(lon, lat unit.Angle, dist float64) r3.Vec {
	sl, cl := math.Sincos(lon.Rad())
	sb, cb := math.Sincos(lat.Rad())
	se, ce := math.Sincos(obliquityJ2000)

	x := dist * cb * cl
	y := dist * cb * sl
	z := dist * sb
	return r3.Vec{X: x, Y: y*ce - z*se, Z: y*se + z*ce}
}
