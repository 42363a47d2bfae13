package dynamics

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/environment"
)

var referenceInstant = time.Date(2021, time.March, 20, 12, 0, 0, 0, time.UTC)

// Linear fits of a high-precision lunar ephemeris around referenceInstant,
// exact enough to reproduce published third-body vectors.
func moonLinear() *environment.Celestial {
	return environment.NewMoon(environment.Linear{
		Epoch:    referenceInstant,
		Position: r3.Vec{X: 86652254.4366117, Y: 359322016.8523916, Z: 158615040.22970125},
		Velocity: r3.Vec{X: -951.7820062008897, Y: 128.8075211848043, Z: 148.91554015859202},
	})
}

type failing struct {
	named
}

func (f *failing) IsDefined() bool { return true }
func (f *failing) ApplyContribution(_, dxdt dynamo.State, _ time.Time) error {
	return errors.New("boom")
}
func (f *failing) Print(w io.Writer, decorated bool) {}

func TestConstructionFailures(t *testing.T) {
	undefinedEarth := environment.NewEarth(environment.GravityUndefined, environment.AtmosphereUndefined)

	_, err := NewCentralBodyGravity(undefinedEarth)
	var undef *dynamo.UndefinedError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "Gravitational Model", undef.Capability)
	assert.EqualError(t, err, "{Gravitational Model} is undefined.")

	undefinedMoon := moonLinear()
	undefinedMoon.Gravity.Type = environment.GravityUndefined
	_, err = NewThirdBodyGravity(undefinedMoon)
	assert.EqualError(t, err, "{Gravitational Model} is undefined.")

	_, err = NewThirdBodyGravity(environment.EarthSpherical())
	assert.ErrorIs(t, err, dynamo.ErrUnsupported)
	assert.EqualError(t, err, "Cannot calculate third body acceleration for the Earth yet.")

	_, err = NewThirdBodyGravity(nil)
	assert.ErrorIs(t, err, dynamo.ErrUndefined)

	_, err = NewCentralBodyGravity(nil)
	assert.ErrorIs(t, err, dynamo.ErrUndefined)

	_, err = NewAtmosphericDrag(environment.EarthSpherical(), DefaultSatelliteSystem())
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "Atmospheric Model", undef.Capability)

	_, err = NewThruster(SatelliteSystem{}, 1)
	assert.ErrorIs(t, err, dynamo.ErrUndefined)
}

func TestIsDefined(t *testing.T) {
	assert.False(t, (&CentralBodyGravity{}).IsDefined())
	assert.False(t, (&ThirdBodyGravity{}).IsDefined())
	assert.False(t, (&AtmosphericDrag{}).IsDefined())
	assert.False(t, (&Thruster{}).IsDefined())

	central, err := NewCentralBodyGravity(environment.EarthSpherical())
	require.NoError(t, err)
	assert.True(t, central.IsDefined())

	third, err := NewThirdBodyGravity(moonLinear())
	require.NoError(t, err)
	assert.True(t, third.IsDefined())

	assert.True(t, NewPositionDerivative().IsDefined())
}

func TestPositionDerivative(t *testing.T) {
	x := dynamo.State{1, 2, 3, 4, 5, 6}
	dxdt := dynamo.State{1, 1, 1, 1, 1, 1}

	require.NoError(t, NewPositionDerivative().ApplyContribution(x, dxdt, referenceInstant))
	assert.Equal(t, dynamo.State{5, 6, 7, 1, 1, 1}, dxdt)

	err := NewPositionDerivative().ApplyContribution(dynamo.State{1, 2}, dynamo.State{0, 0}, referenceInstant)
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestThirdBodyMoonReference(t *testing.T) {
	moon, err := NewThirdBodyGravity(moonLinear())
	require.NoError(t, err)

	x := dynamo.State{7e6, 0, 0, 0, 0, 0}
	dxdt := make(dynamo.State, 6)
	require.NoError(t, moon.ApplyContribution(x, dxdt, referenceInstant))

	want := dynamo.State{0, 0, 0, -4.620543790697659e-07, 2.948717888154649e-07, 1.301648617451192e-07}
	for i := range want {
		assert.InDelta(t, want[i], dxdt[i], 1e-15, "component %d", i)
	}
}

func TestCentralBodyGravity(t *testing.T) {
	earth, err := NewCentralBodyGravity(environment.EarthSpherical())
	require.NoError(t, err)

	x := dynamo.State{0, 7e6, 0, 0, 0, 0}
	dxdt := make(dynamo.State, 6)
	require.NoError(t, earth.ApplyContribution(x, dxdt, referenceInstant))

	assert.InDelta(t, -environment.EarthMu/49e12, dxdt[4], 1e-12)
	assert.Zero(t, dxdt[3])
	assert.Zero(t, dxdt[0])
}

func TestAdditivity(t *testing.T) {
	central, err := NewCentralBodyGravity(environment.EarthSpherical())
	require.NoError(t, err)
	moon, err := NewThirdBodyGravity(moonLinear())
	require.NoError(t, err)
	members := []Dynamics{NewPositionDerivative(), central, moon}

	eq, err := NewEquations(members, referenceInstant)
	require.NoError(t, err)

	x := dynamo.State{6.8e6, 1.2e6, -3e5, -1.1e3, 7.3e3, 1.5e2}
	elapsed := 42.5

	composed := make(dynamo.State, 6)
	require.NoError(t, eq.Derive(x, composed, elapsed))

	sum := make(dynamo.State, 6)
	for _, d := range members {
		part := make(dynamo.State, 6)
		require.NoError(t, d.ApplyContribution(x, part, InstantAt(referenceInstant, elapsed)))
		for i := range sum {
			sum[i] += part[i]
		}
	}

	for i := range sum {
		assert.InDelta(t, sum[i], composed[i], 1e-15*math.Max(1, math.Abs(sum[i])), "component %d", i)
	}
}

func TestEquationsDerive(t *testing.T) {
	_, err := NewEquations(nil, referenceInstant)
	assert.ErrorIs(t, err, ErrNoDynamics)

	_, err = NewEquations([]Dynamics{&CentralBodyGravity{}}, referenceInstant)
	assert.ErrorIs(t, err, dynamo.ErrUndefined)

	eq, err := NewEquations([]Dynamics{NewPositionDerivative()}, referenceInstant)
	require.NoError(t, err)
	assert.Equal(t, 6, eq.StateDim())
	assert.Equal(t, referenceInstant, eq.Reference())

	dxdt := dynamo.State{9, 9, 9, 9, 9, 9}
	require.NoError(t, eq.Derive(dynamo.State{0, 0, 0, 1, 2, 3}, dxdt, 0))
	assert.Equal(t, dynamo.State{1, 2, 3, 0, 0, 0}, dxdt, "output is reset before accumulating")

	assert.ErrorIs(t, eq.Derive(dynamo.State{0, 0, 0, 1, 2, 3}, make(dynamo.State, 5), 0), dynamo.ErrDimensionMismatch)
}

func TestEquationsFailureResetsOutput(t *testing.T) {
	bad := &failing{named: named{name: "bad"}}
	eq, err := NewEquations([]Dynamics{NewPositionDerivative(), bad}, referenceInstant)
	require.NoError(t, err)

	dxdt := make(dynamo.State, 6)
	err = eq.Derive(dynamo.State{0, 0, 0, 1, 2, 3}, dxdt, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, make(dynamo.State, 6), dxdt)
}

func TestInstantAt(t *testing.T) {
	assert.Equal(t, referenceInstant.Add(1500*time.Millisecond), InstantAt(referenceInstant, 1.5))
	assert.Equal(t, referenceInstant.Add(-10*time.Second), InstantAt(referenceInstant, -10))
	assert.Equal(t, referenceInstant.Add(time.Nanosecond), InstantAt(referenceInstant, 1e-9))
	assert.Equal(t, referenceInstant.Add(30*24*time.Hour), InstantAt(referenceInstant, 30*86400))
}

func TestAtmosphericDrag(t *testing.T) {
	sys := SatelliteSystem{Mass: 100, DragArea: 2, DragCoefficient: 2.2}
	drag, err := NewAtmosphericDrag(environment.EarthJ2(), sys)
	require.NoError(t, err)

	r := environment.EarthRadius + 400e3
	x := dynamo.State{r, 0, 0, 0, 7670, 0}
	dxdt := make(dynamo.State, 6)
	require.NoError(t, drag.ApplyContribution(x, dxdt, referenceInstant))

	vRel := 7670 - environment.EarthSpin*r
	rho := environment.EarthExponentialAtmosphere.ReferenceDensity
	want := -0.5 * rho * sys.BallisticFactor() * vRel * vRel
	assert.InEpsilon(t, want, dxdt[4], 1e-9)
	assert.Zero(t, dxdt[3])
	assert.Zero(t, dxdt[0])

	high := dynamo.State{environment.EarthRadius + 2000e3, 0, 0, 0, 7000, 0}
	clear(dxdt)
	require.NoError(t, drag.ApplyContribution(high, dxdt, referenceInstant))
	assert.Equal(t, make(dynamo.State, 6), dxdt)
}

func TestThruster(t *testing.T) {
	thr, err := NewThruster(SatelliteSystem{Mass: 500}, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.002, thr.Acceleration(), 1e-18)

	dxdt := make(dynamo.State, 6)
	require.NoError(t, thr.ApplyContribution(dynamo.State{7e6, 0, 0, 0, 3, 4}, dxdt, referenceInstant))
	assert.InDelta(t, 0.002*0.6, dxdt[4], 1e-18)
	assert.InDelta(t, 0.002*0.8, dxdt[5], 1e-18)

	dxdt = dynamo.State{1, 1, 1, 1, 1, 1}
	err = thr.ApplyContribution(dynamo.State{7e6, 0, 0, 0, 0, 0}, dxdt, referenceInstant)
	assert.ErrorIs(t, err, dynamo.ErrUnsupported)
	assert.Equal(t, dynamo.State{1, 1, 1, 1, 1, 1}, dxdt)
}

func TestNamesAndPrint(t *testing.T) {
	central, err := NewCentralBodyGravity(environment.EarthSpherical(), WithName("Earth"))
	require.NoError(t, err)
	assert.Equal(t, "Earth", central.Name())

	central.SetName("Earth Point Mass")
	assert.Equal(t, "Earth Point Mass", central.Name())

	moon, err := NewThirdBodyGravity(moonLinear())
	require.NoError(t, err)
	assert.Equal(t, "Third Body Gravity [Moon]", moon.Name())

	drag, err := NewAtmosphericDrag(environment.EarthJ2(), DefaultSatelliteSystem())
	require.NoError(t, err)
	thr, err := NewThruster(DefaultSatelliteSystem(), -0.5)
	require.NoError(t, err)

	for _, d := range []Dynamics{NewPositionDerivative(), central, moon, drag, thr} {
		plain := Describe(d, false)
		decorated := Describe(d, true)
		assert.NotEmpty(t, plain)
		assert.Contains(t, plain, d.Name())
		assert.Greater(t, len(decorated), len(plain))
		assert.Greater(t, strings.Count(plain, "\n"), 1, "description of %s is multi-line", d.Name())
	}
}
