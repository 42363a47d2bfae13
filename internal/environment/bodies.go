package environment

import (
	"fmt"
	"sort"
	"strings"
)

const (
	EarthName = "Earth"
	SunName   = "Sun"
	MoonName  = "Moon"
)

// EGM2008 / DE430 constants.
const (
	EarthMu     = 3.986004415e14
	EarthRadius = 6378137.0
	EarthJ2Coef = 1.0826266835531513e-3
	EarthSpin   = 7.2921159e-5
	SunMu       = 1.32712440018e20
	SunRadius   = 6.955e8
	MoonMu      = 4.9028e12
	MoonRadius  = 1737400.0
)

// EarthExponentialAtmosphere is anchored at 400 km (Vallado, table 8-4).
var EarthExponentialAtmosphere = AtmosphericModel{
	Type:              AtmosphereExponential,
	ReferenceDensity:  2.803e-12,
	ReferenceAltitude: 400e3,
	ScaleHeight:       58.515e3,
	Ceiling:           1000e3,
}

func NewEarth(gravity GravityType, atmosphere AtmosphereType) *Celestial {
	c := &Celestial{
		Name:         EarthName,
		Radius:       EarthRadius,
		RotationRate: EarthSpin,
		Ephemeris:    Origin{},
		Gravity: GravitationalModel{
			Type:             gravity,
			Mu:               EarthMu,
			EquatorialRadius: EarthRadius,
			J2:               EarthJ2Coef,
		},
	}
	if atmosphere == AtmosphereExponential {
		c.Atmosphere = EarthExponentialAtmosphere
	}
	return c
}

// NewSun builds the Sun. A nil ephemeris selects the analytical series.
func NewSun(eph Ephemeris) *Celestial {
	if eph == nil {
		eph = Analytical{Body: AnalyticalSun}
	}
	return &Celestial{
		Name:      SunName,
		Radius:    SunRadius,
		Ephemeris: eph,
		Gravity:   GravitationalModel{Type: GravitySpherical, Mu: SunMu},
	}
}

// NewMoon builds the Moon. A nil ephemeris selects the analytical series.
func NewMoon(eph Ephemeris) *Celestial {
	if eph == nil {
		eph = Analytical{Body: AnalyticalMoon}
	}
	return &Celestial{
		Name:      MoonName,
		Radius:    MoonRadius,
		Ephemeris: eph,
		Gravity:   GravitationalModel{Type: GravitySpherical, Mu: MoonMu},
	}
}

func EarthSpherical() *Celestial { return NewEarth(GravitySpherical, AtmosphereUndefined) }
func EarthJ2() *Celestial        { return NewEarth(GravityJ2, AtmosphereExponential) }
func SunSpherical() *Celestial   { return NewSun(nil) }
func MoonSpherical() *Celestial  { return NewMoon(nil) }

var bodies = map[string]func() *Celestial{
	"earth":    EarthSpherical,
	"earth-j2": EarthJ2,
	"earth-undefined": func() *Celestial {
		return NewEarth(GravityUndefined, AtmosphereUndefined)
	},
	"sun":  SunSpherical,
	"moon": MoonSpherical,
}

// BodyByName returns a fresh body for a registry key such as "earth-j2".
func BodyByName(name string) (*Celestial, error) {
	ctor, ok := bodies[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown body: %s", name)
	}
	return ctor(), nil
}

func ListBodies() []string {
	names := make([]string, 0, len(bodies))
	for name := range bodies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
