// Package config loads propagation scenarios from YAML and process settings
// from the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/astroprop/internal/dynamics"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/eventcondition"
	"github.com/san-kum/astroprop/internal/orbit"
	"github.com/san-kum/astroprop/internal/solver"
)

const (
	DefaultCentral  = "earth"
	DefaultStepper  = "rk4"
	DefaultDuration = 3 * time.Hour
)

// DefaultEpoch is the instant used by every built-in scenario.
var DefaultEpoch = time.Date(2021, time.March, 20, 12, 0, 0, 0, time.UTC)

var ErrInvalidScenario = errors.New("config: invalid scenario")

// Scenario describes one propagation. Without segments it is a single coast
// of length Duration, stopped early by Condition. With segments each leg runs
// to its own condition, capped by its MaxDuration or else Duration. The
// sequence repeats Repetitions times, or until Condition holds when one is
// set, in which case Duration bounds the total.
type Scenario struct {
	Name        string                   `yaml:"name,omitempty"`
	Epoch       time.Time                `yaml:"epoch"`
	Central     string                   `yaml:"central"`
	Stepper     string                   `yaml:"stepper"`
	Duration    time.Duration            `yaml:"duration"`
	Initial     InitialState             `yaml:"initial"`
	Solver      solver.Config            `yaml:"solver"`
	Dynamics    []DynamicsConfig         `yaml:"dynamics"`
	Satellite   dynamics.SatelliteSystem `yaml:"satellite"`
	Condition   *ConditionConfig         `yaml:"condition,omitempty"`
	Segments    []SegmentConfig          `yaml:"segments,omitempty"`
	Repetitions int                      `yaml:"repetitions,omitempty"`
}

// InitialState is either a Cartesian vector [x y z vx vy vz] in meters and
// m/s, or classical elements.
type InitialState struct {
	Cartesian []float64       `yaml:"cartesian,omitempty,flow"`
	Elements  *ElementsConfig `yaml:"elements,omitempty"`
}

// UnmarshalYAML replaces the whole initial state, so a file giving only a
// cartesian vector does not inherit default elements.
func (s *InitialState) UnmarshalYAML(value *yaml.Node) error {
	type plain InitialState
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = InitialState(p)
	return nil
}

// ElementsConfig holds classical elements with angles in degrees.
type ElementsConfig struct {
	SemiMajorAxis       float64 `yaml:"semi_major_axis"`
	Eccentricity        float64 `yaml:"eccentricity"`
	Inclination         float64 `yaml:"inclination"`
	RAAN                float64 `yaml:"raan"`
	ArgumentOfPeriapsis float64 `yaml:"argument_of_periapsis"`
	TrueAnomaly         float64 `yaml:"true_anomaly"`
}

func (e ElementsConfig) COE() orbit.COE {
	return orbit.COE{
		SemiMajorAxis:       e.SemiMajorAxis,
		Eccentricity:        e.Eccentricity,
		Inclination:         deg2rad(e.Inclination),
		RAAN:                deg2rad(e.RAAN),
		ArgumentOfPeriapsis: deg2rad(e.ArgumentOfPeriapsis),
		TrueAnomaly:         deg2rad(e.TrueAnomaly),
	}
}

// DynamicsConfig names one contribution. Body defaults to the central body
// for gravity and drag.
type DynamicsConfig struct {
	Type   string  `yaml:"type"`
	Body   string  `yaml:"body,omitempty"`
	Thrust float64 `yaml:"thrust,omitempty"`
}

// ConditionConfig is a node of a condition tree. Leaves carry a criteria and
// target; "all" and "any" nodes carry children.
type ConditionConfig struct {
	Type       string                  `yaml:"type"`
	Name       string                  `yaml:"name,omitempty"`
	Criteria   eventcondition.Criteria `yaml:"criteria,omitempty"`
	Target     float64                 `yaml:"target,omitempty"`
	Index      int                     `yaml:"index,omitempty"`
	Element    orbit.Element           `yaml:"element,omitempty"`
	Duration   time.Duration           `yaml:"duration,omitempty"`
	Conditions []ConditionConfig       `yaml:"conditions,omitempty"`
}

// IsComposite reports whether the node combines children.
func (c ConditionConfig) IsComposite() bool {
	return c.Type == "all" || c.Type == "any"
}

const (
	SegmentCoast    = "coast"
	SegmentManeuver = "maneuver"
)

// SegmentConfig is one leg of a sequence. Maneuvers add a velocity-aligned
// thruster to the scenario dynamics.
type SegmentConfig struct {
	Name        string          `yaml:"name"`
	Kind        string          `yaml:"kind"`
	Thrust      float64         `yaml:"thrust,omitempty"`
	MaxDuration time.Duration   `yaml:"max_duration,omitempty"`
	Condition   ConditionConfig `yaml:"condition"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Name:     "default",
		Epoch:    DefaultEpoch,
		Central:  DefaultCentral,
		Stepper:  DefaultStepper,
		Duration: DefaultDuration,
		Initial: InitialState{
			Elements: &ElementsConfig{
				SemiMajorAxis: 6878137,
				Eccentricity:  0.0005,
				Inclination:   51.6,
			},
		},
		Solver: solver.DefaultConfig(),
		Dynamics: []DynamicsConfig{
			{Type: "position-derivative"},
			{Type: "central-gravity"},
		},
		Satellite: dynamics.DefaultSatelliteSystem(),
	}
}

// Load reads path on top of DefaultScenario, so omitted fields keep their
// defaults.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return sc, nil
}

func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// InitialCartesian resolves the initial state using the central body's
// gravitational parameter for element conversion.
func (s *Scenario) InitialCartesian(mu float64) (dynamo.State, error) {
	x, err := s.Initial.resolve(mu)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return x, nil
}

func (i InitialState) resolve(mu float64) (dynamo.State, error) {
	switch {
	case len(i.Cartesian) > 0 && i.Elements != nil:
		return nil, errors.New("initial state has both cartesian and elements")
	case len(i.Cartesian) > 0:
		if len(i.Cartesian) != dynamo.CartesianDim {
			return nil, fmt.Errorf("cartesian state needs %d components, got %d",
				dynamo.CartesianDim, len(i.Cartesian))
		}
		return dynamo.State(append([]float64(nil), i.Cartesian...)), nil
	case i.Elements != nil:
		r, v := i.Elements.COE().ToCartesian(mu)
		return dynamo.NewCartesian(r, v), nil
	default:
		return nil, errors.New("no initial state")
	}
}

// Validate checks the scenario's shape. Names of bodies, steppers and
// dynamics are resolved later by the mission registry.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Epoch.IsZero() {
		errs = append(errs, errors.New("epoch is required"))
	}
	if s.Central == "" {
		errs = append(errs, errors.New("central body is required"))
	}
	if s.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %s", s.Duration))
	}
	if _, err := s.Initial.resolve(1); err != nil {
		errs = append(errs, err)
	}
	if err := s.Solver.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("solver: %w", err))
	}
	if len(s.Dynamics) == 0 {
		errs = append(errs, errors.New("at least one dynamics is required"))
	}
	for i, d := range s.Dynamics {
		if d.Type == "" {
			errs = append(errs, fmt.Errorf("dynamics[%d]: type is required", i))
		}
	}
	if s.Condition != nil {
		if err := s.Condition.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("condition: %w", err))
		}
	}
	if s.Repetitions < 0 {
		errs = append(errs, fmt.Errorf("repetitions must not be negative, got %d", s.Repetitions))
	}
	for i, seg := range s.Segments {
		if err := seg.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("segments[%d]: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	return nil
}

func (c ConditionConfig) Validate() error {
	if c.Type == "" {
		return errors.New("type is required")
	}
	if c.IsComposite() {
		if len(c.Conditions) == 0 {
			return fmt.Errorf("%q needs at least one child condition", c.Type)
		}
		for i, child := range c.Conditions {
			if err := child.Validate(); err != nil {
				return fmt.Errorf("conditions[%d]: %w", i, err)
			}
		}
		return nil
	}
	if !c.Criteria.IsDefined() {
		return fmt.Errorf("%q needs a criteria", c.Type)
	}
	return nil
}

func (s SegmentConfig) Validate() error {
	switch s.Kind {
	case SegmentCoast:
	case SegmentManeuver:
		if s.Thrust <= 0 {
			return fmt.Errorf("maneuver %q needs positive thrust", s.Name)
		}
	default:
		return fmt.Errorf("unknown segment kind %q", s.Kind)
	}
	if s.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative, got %s", s.MaxDuration)
	}
	return s.Condition.Validate()
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
