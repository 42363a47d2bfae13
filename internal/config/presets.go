package config

import (
	"slices"
	"time"

	"github.com/san-kum/astroprop/internal/eventcondition"
	"github.com/san-kum/astroprop/internal/orbit"
)

var Presets = map[string]func() *Scenario{
	"leo":           leo,
	"leo-lunisolar": leoLunisolar,
	"leo-drag":      leoDrag,
	"geo-lunisolar": geoLunisolar,
	"reference":     reference,
	"apogee-raise":  apogeeRaise,
	"orbit-raise":   orbitRaise,
}

func leo() *Scenario {
	sc := DefaultScenario()
	sc.Name = "leo"
	return sc
}

func leoLunisolar() *Scenario {
	sc := leo()
	sc.Name = "leo-lunisolar"
	sc.Dynamics = append(sc.Dynamics,
		DynamicsConfig{Type: "third-body", Body: "sun"},
		DynamicsConfig{Type: "third-body", Body: "moon"},
	)
	return sc
}

// leoDrag decays a low orbit until it drops below 150 km.
func leoDrag() *Scenario {
	sc := DefaultScenario()
	sc.Name = "leo-drag"
	sc.Central = "earth-j2"
	sc.Duration = 30 * 24 * time.Hour
	sc.Initial.Elements.SemiMajorAxis = 6378137 + 250e3
	sc.Initial.Elements.Eccentricity = 0.001
	sc.Solver.StepSize = 30
	sc.Dynamics = append(sc.Dynamics, DynamicsConfig{Type: "drag"})
	sc.Condition = &ConditionConfig{
		Type:     "altitude",
		Name:     "reentry",
		Criteria: eventcondition.NegativeCrossing,
		Target:   150e3,
	}
	return sc
}

func geoLunisolar() *Scenario {
	sc := DefaultScenario()
	sc.Name = "geo-lunisolar"
	sc.Duration = 7 * 24 * time.Hour
	sc.Initial.Elements = &ElementsConfig{
		SemiMajorAxis: 42164137,
		Eccentricity:  0.0001,
		Inclination:   0.05,
	}
	sc.Solver.StepSize = 300
	sc.Solver.Adaptive = true
	sc.Solver.Tolerance = 1e-11
	sc.Stepper = "rk45"
	sc.Dynamics = append(sc.Dynamics,
		DynamicsConfig{Type: "third-body", Body: "sun"},
		DynamicsConfig{Type: "third-body", Body: "moon"},
	)
	return sc
}

// reference is a single one-second step with point-mass Earth, Sun and Moon.
func reference() *Scenario {
	sc := DefaultScenario()
	sc.Name = "reference"
	sc.Duration = time.Second
	sc.Solver.StepSize = 1
	sc.Initial = InitialState{Cartesian: []float64{7e6, 0, 0, 0, 0, 0}}
	sc.Dynamics = append(sc.Dynamics,
		DynamicsConfig{Type: "third-body", Body: "sun"},
		DynamicsConfig{Type: "third-body", Body: "moon"},
	)
	return sc
}

// apogeeRaise burns prograde for ten minutes then coasts to apogee, three
// times over.
func apogeeRaise() *Scenario {
	sc := DefaultScenario()
	sc.Name = "apogee-raise"
	sc.Duration = 6 * time.Hour
	sc.Repetitions = 3
	sc.Segments = []SegmentConfig{
		{
			Name:   "burn",
			Kind:   SegmentManeuver,
			Thrust: 1,
			Condition: ConditionConfig{
				Type:     "duration",
				Criteria: eventcondition.StrictlyPositive,
				Duration: 10 * time.Minute,
			},
		},
		{
			Name: "coast",
			Kind: SegmentCoast,
			Condition: ConditionConfig{
				Type:     "radial-velocity",
				Name:     "apogee",
				Criteria: eventcondition.NegativeCrossing,
			},
		},
	}
	return sc
}

// orbitRaise repeats the apogee-raise sequence until the semi-major axis
// passes 6895 km.
func orbitRaise() *Scenario {
	sc := apogeeRaise()
	sc.Name = "orbit-raise"
	sc.Duration = 24 * time.Hour
	sc.Repetitions = 0
	for i := range sc.Segments {
		sc.Segments[i].MaxDuration = 6 * time.Hour
	}
	sc.Condition = &ConditionConfig{
		Type:     "coe",
		Name:     "target orbit",
		Criteria: eventcondition.PositiveCrossing,
		Element:  orbit.SemiMajorAxis,
		Target:   6895e3,
	}
	return sc
}

// GetPreset returns a fresh copy of the named scenario, or nil.
func GetPreset(name string) *Scenario {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
