package eventcondition

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/orbit"
)

// NewDurationCondition monitors elapsed propagation time against d.
func NewDurationCondition(criteria Criteria, d time.Duration) (*RealCondition, error) {
	return NewRealCondition(
		fmt.Sprintf("Duration Condition [%s]", d),
		criteria,
		func(_ dynamo.State, t float64) float64 { return t },
		d.Seconds(),
	)
}

// NewComponentCondition monitors x[index]. States too short to hold index
// evaluate to NaN, which satisfies no criteria.
func NewComponentCondition(name string, criteria Criteria, index int, target float64) (*RealCondition, error) {
	if index < 0 {
		return nil, fmt.Errorf("%s: negative state index %d: %w", name, index, dynamo.ErrDimensionMismatch)
	}
	return NewRealCondition(name, criteria, func(x dynamo.State, _ float64) float64 {
		if index >= len(x) {
			return math.NaN()
		}
		return x[index]
	}, target)
}

// NewRadiusCondition monitors the distance from the frame origin, in meters.
func NewRadiusCondition(name string, criteria Criteria, radius float64) (*RealCondition, error) {
	return NewRealCondition(name, criteria, func(x dynamo.State, _ float64) float64 {
		return r3.Norm(x.Position())
	}, radius)
}

// NewCOECondition monitors one classical orbital element of a Cartesian
// state about a body with gravitational parameter mu.
func NewCOECondition(name string, criteria Criteria, element orbit.Element, target, mu float64) (*RealCondition, error) {
	if mu <= 0 {
		return nil, fmt.Errorf("%s: %w", name, dynamo.Undefined("Gravitational Parameter"))
	}
	return NewRealCondition(name, criteria, func(x dynamo.State, _ float64) float64 {
		return orbit.FromCartesian(x.Position(), x.Velocity(), mu).Get(element)
	}, target)
}
