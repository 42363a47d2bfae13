package mission

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/dynamics"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/environment"
	"github.com/san-kum/astroprop/internal/eventcondition"
	"github.com/san-kum/astroprop/internal/integrators"
)

// Env is what builders may read from the scenario being built.
type Env struct {
	Central   *environment.Celestial
	Satellite dynamics.SatelliteSystem
	// Start is when the owning segment begins, in seconds from the epoch.
	// Duration conditions count from it.
	Start float64
}

type DynamicsBuilder func(cfg config.DynamicsConfig, env Env) (dynamics.Dynamics, error)

type ConditionBuilder func(cfg config.ConditionConfig, env Env) (eventcondition.Condition, error)

// Registry maps scenario names to steppers, dynamics and conditions.
type Registry struct {
	steppers   map[string]func() dynamo.Stepper
	dynamics   map[string]DynamicsBuilder
	conditions map[string]ConditionBuilder
}

func NewRegistry() *Registry {
	r := &Registry{
		steppers:   make(map[string]func() dynamo.Stepper),
		dynamics:   make(map[string]DynamicsBuilder),
		conditions: make(map[string]ConditionBuilder),
	}

	r.steppers["euler"] = func() dynamo.Stepper { return integrators.NewEuler() }
	r.steppers["rk4"] = func() dynamo.Stepper { return integrators.NewRK4() }
	r.steppers["rk45"] = func() dynamo.Stepper { return integrators.NewRK45() }
	r.steppers["verlet"] = func() dynamo.Stepper { return integrators.NewVerlet() }
	r.steppers["leapfrog"] = func() dynamo.Stepper { return integrators.NewLeapfrog() }

	r.dynamics["position-derivative"] = func(config.DynamicsConfig, Env) (dynamics.Dynamics, error) {
		return dynamics.NewPositionDerivative(), nil
	}
	r.dynamics["central-gravity"] = func(cfg config.DynamicsConfig, env Env) (dynamics.Dynamics, error) {
		body, err := bodyOrCentral(cfg.Body, env)
		if err != nil {
			return nil, err
		}
		return dynamics.NewCentralBodyGravity(body)
	}
	r.dynamics["third-body"] = func(cfg config.DynamicsConfig, env Env) (dynamics.Dynamics, error) {
		if cfg.Body == "" {
			return nil, fmt.Errorf("third-body: %w", dynamo.Undefined("Celestial"))
		}
		body, err := environment.BodyByName(cfg.Body)
		if err != nil {
			return nil, err
		}
		return dynamics.NewThirdBodyGravity(body)
	}
	r.dynamics["drag"] = func(cfg config.DynamicsConfig, env Env) (dynamics.Dynamics, error) {
		body, err := bodyOrCentral(cfg.Body, env)
		if err != nil {
			return nil, err
		}
		return dynamics.NewAtmosphericDrag(body, env.Satellite)
	}
	r.dynamics["thruster"] = func(cfg config.DynamicsConfig, env Env) (dynamics.Dynamics, error) {
		return dynamics.NewThruster(env.Satellite, cfg.Thrust)
	}

	r.conditions["duration"] = func(cfg config.ConditionConfig, env Env) (eventcondition.Condition, error) {
		start := env.Start
		return eventcondition.NewRealCondition(
			nameOr(cfg.Name, fmt.Sprintf("Duration Condition [%s]", cfg.Duration)),
			cfg.Criteria,
			func(_ dynamo.State, t float64) float64 { return t - start },
			cfg.Duration.Seconds(),
		)
	}
	r.conditions["radius"] = func(cfg config.ConditionConfig, _ Env) (eventcondition.Condition, error) {
		return eventcondition.NewRadiusCondition(nameOr(cfg.Name, "Radius Condition"), cfg.Criteria, cfg.Target)
	}
	r.conditions["altitude"] = func(cfg config.ConditionConfig, env Env) (eventcondition.Condition, error) {
		if !env.Central.IsDefined() {
			return nil, dynamo.Undefined("Celestial")
		}
		return eventcondition.NewRadiusCondition(nameOr(cfg.Name, "Altitude Condition"), cfg.Criteria, env.Central.Radius+cfg.Target)
	}
	r.conditions["component"] = func(cfg config.ConditionConfig, _ Env) (eventcondition.Condition, error) {
		if cfg.Index >= dynamo.CartesianDim {
			return nil, fmt.Errorf("component index %d out of range: %w", cfg.Index, dynamo.ErrDimensionMismatch)
		}
		return eventcondition.NewComponentCondition(nameOr(cfg.Name, fmt.Sprintf("Component Condition [%d]", cfg.Index)), cfg.Criteria, cfg.Index, cfg.Target)
	}
	r.conditions["coe"] = func(cfg config.ConditionConfig, env Env) (eventcondition.Condition, error) {
		if !env.Central.IsDefined() {
			return nil, dynamo.Undefined("Celestial")
		}
		return eventcondition.NewCOECondition(nameOr(cfg.Name, "COE Condition ["+cfg.Element.String()+"]"), cfg.Criteria, cfg.Element, cfg.Target, env.Central.Gravity.Mu)
	}
	// Radial velocity falls through zero at apoapsis and rises through it at
	// periapsis.
	r.conditions["radial-velocity"] = func(cfg config.ConditionConfig, _ Env) (eventcondition.Condition, error) {
		return eventcondition.NewRealCondition(nameOr(cfg.Name, "Radial Velocity Condition"), cfg.Criteria, radialVelocity, cfg.Target)
	}
	r.conditions["all"] = func(cfg config.ConditionConfig, env Env) (eventcondition.Condition, error) {
		children, err := r.buildChildren(cfg, env)
		if err != nil {
			return nil, err
		}
		c, err := eventcondition.NewConjunctive(children...)
		if err != nil {
			return nil, err
		}
		if cfg.Name != "" {
			c.SetName(cfg.Name)
		}
		return c, nil
	}
	r.conditions["any"] = func(cfg config.ConditionConfig, env Env) (eventcondition.Condition, error) {
		children, err := r.buildChildren(cfg, env)
		if err != nil {
			return nil, err
		}
		c, err := eventcondition.NewDisjunctive(children...)
		if err != nil {
			return nil, err
		}
		if cfg.Name != "" {
			c.SetName(cfg.Name)
		}
		return c, nil
	}

	return r
}

func (r *Registry) RegisterStepper(name string, fn func() dynamo.Stepper) {
	r.steppers[name] = fn
}

func (r *Registry) RegisterDynamics(name string, fn DynamicsBuilder) {
	r.dynamics[name] = fn
}

func (r *Registry) RegisterCondition(name string, fn ConditionBuilder) {
	r.conditions[name] = fn
}

func (r *Registry) GetStepper(name string) (dynamo.Stepper, error) {
	fn, ok := r.steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown stepper: %s", name)
	}
	return fn(), nil
}

func (r *Registry) BuildDynamics(cfg config.DynamicsConfig, env Env) (dynamics.Dynamics, error) {
	fn, ok := r.dynamics[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown dynamics: %s", cfg.Type)
	}
	d, err := fn(cfg, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Type, err)
	}
	return d, nil
}

// BuildCondition builds a condition tree bottom-up.
func (r *Registry) BuildCondition(cfg config.ConditionConfig, env Env) (eventcondition.Condition, error) {
	fn, ok := r.conditions[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown condition: %s", cfg.Type)
	}
	c, err := fn(cfg, env)
	if err != nil {
		return nil, fmt.Errorf("%s condition: %w", cfg.Type, err)
	}
	return c, nil
}

func (r *Registry) buildChildren(cfg config.ConditionConfig, env Env) ([]eventcondition.Condition, error) {
	children := make([]eventcondition.Condition, 0, len(cfg.Conditions))
	for _, child := range cfg.Conditions {
		c, err := r.BuildCondition(child, env)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, nil
}

func (r *Registry) ListSteppers() []string   { return sortedKeys(r.steppers) }
func (r *Registry) ListDynamics() []string   { return sortedKeys(r.dynamics) }
func (r *Registry) ListConditions() []string { return sortedKeys(r.conditions) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func bodyOrCentral(name string, env Env) (*environment.Celestial, error) {
	if name == "" {
		return env.Central, nil
	}
	return environment.BodyByName(name)
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func radialVelocity(x dynamo.State, _ float64) float64 {
	r := x.Position()
	n := r3.Norm(r)
	if n == 0 {
		return 0
	}
	return r3.Dot(r, x.Velocity()) / n
}
