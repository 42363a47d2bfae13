// Package mission turns a config.Scenario into propagations: a single coast,
// a repeated sequence of coast and maneuver segments, or a sequence run
// until a mission condition holds.
package mission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/dynamics"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/environment"
	"github.com/san-kum/astroprop/internal/eventcondition"
	"github.com/san-kum/astroprop/internal/solver"
)

var ErrNoSegments = errors.New("mission: sequence has no segments")

type Option func(*Mission)

func WithLogger(l *slog.Logger) Option {
	return func(m *Mission) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithRegistry(r *Registry) Option {
	return func(m *Mission) { m.registry = r }
}

// WithSolverOptions forwards options such as metrics or instrumentation to
// the solver.
func WithSolverOptions(opts ...solver.Option) Option {
	return func(m *Mission) { m.solverOpts = append(m.solverOpts, opts...) }
}

// Segment is one leg of a sequence. Its condition is built when the leg
// starts, so duration conditions count from the leg's own start.
type Segment struct {
	Name        string
	Kind        string
	MaxDuration time.Duration
	Dynamics    []dynamics.Dynamics
	DeltaVRate  float64 // m/s per second of burn
	condition   config.ConditionConfig
}

// Mission is a built scenario, ready to run. Run may be called repeatedly
// but not concurrently when the solver carries metrics.
type Mission struct {
	scenario   *config.Scenario
	registry   *Registry
	central    *environment.Celestial
	dynamics   []dynamics.Dynamics
	solver     *solver.NumericalSolver
	x0         dynamo.State
	condition  eventcondition.Condition
	segments   []Segment
	logger     *slog.Logger
	solverOpts []solver.Option
}

// Build validates sc and resolves every name in it.
func Build(sc *config.Scenario, opts ...Option) (*Mission, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	m := &Mission{
		scenario: sc,
		registry: NewRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("scenario", sc.Name)

	central, err := environment.BodyByName(sc.Central)
	if err != nil {
		return nil, err
	}
	if !central.Gravity.IsDefined() {
		return nil, fmt.Errorf("central body %s: %w", central.Name, dynamo.Undefined("Gravitational Model"))
	}
	m.central = central
	env := Env{Central: central, Satellite: sc.Satellite}

	stepperName := sc.Stepper
	if stepperName == "" {
		stepperName = config.DefaultStepper
	}
	stepper, err := m.registry.GetStepper(stepperName)
	if err != nil {
		return nil, err
	}

	for _, dc := range sc.Dynamics {
		d, err := m.registry.BuildDynamics(dc, env)
		if err != nil {
			return nil, err
		}
		m.dynamics = append(m.dynamics, d)
	}
	if _, err := dynamics.NewEquations(m.dynamics, sc.Epoch); err != nil {
		return nil, err
	}

	if m.x0, err = sc.InitialCartesian(central.Gravity.Mu); err != nil {
		return nil, err
	}

	if sc.Condition != nil {
		if m.condition, err = m.registry.BuildCondition(*sc.Condition, env); err != nil {
			return nil, err
		}
	}

	for _, sg := range sc.Segments {
		seg := Segment{
			Name:        sg.Name,
			Kind:        sg.Kind,
			MaxDuration: sg.MaxDuration,
			Dynamics:    m.dynamics,
			condition:   sg.Condition,
		}
		if seg.MaxDuration == 0 {
			seg.MaxDuration = sc.Duration
		}
		if sg.Kind == config.SegmentManeuver {
			th, err := m.registry.BuildDynamics(config.DynamicsConfig{Type: "thruster", Thrust: sg.Thrust}, env)
			if err != nil {
				return nil, fmt.Errorf("segment %s: %w", sg.Name, err)
			}
			seg.Dynamics = append(append([]dynamics.Dynamics(nil), m.dynamics...), th)
			if t, ok := th.(*dynamics.Thruster); ok {
				seg.DeltaVRate = math.Abs(t.Acceleration())
			}
		}
		// Surface condition errors now rather than mid-run.
		if _, err := m.registry.BuildCondition(sg.Condition, env); err != nil {
			return nil, fmt.Errorf("segment %s: %w", sg.Name, err)
		}
		m.segments = append(m.segments, seg)
	}

	m.solver = solver.New(stepper, sc.Solver, append([]solver.Option{solver.WithLogger(m.logger)}, m.solverOpts...)...)
	return m, nil
}

func (m *Mission) Scenario() *config.Scenario          { return m.scenario }
func (m *Mission) Central() *environment.Celestial     { return m.central }
func (m *Mission) Solver() *solver.NumericalSolver     { return m.solver }
func (m *Mission) InitialState() dynamo.State          { return m.x0.Clone() }
func (m *Mission) Condition() eventcondition.Condition { return m.condition }
func (m *Mission) Segments() []Segment                 { return m.segments }

// Equations composes the scenario's base dynamics.
func (m *Mission) Equations() (dynamics.Equations, error) {
	return dynamics.NewEquations(m.dynamics, m.scenario.Epoch)
}

// Run executes the scenario as configured.
func (m *Mission) Run(ctx context.Context) (*Solution, error) {
	switch {
	case len(m.segments) == 0:
		return m.Coast(ctx, m.x0, m.scenario.Duration)
	case m.condition != nil:
		return m.SolveToCondition(ctx, m.x0, m.condition, m.scenario.Duration)
	default:
		return m.Solve(ctx, m.x0, max(m.scenario.Repetitions, 1))
	}
}

// Coast propagates the base dynamics from the epoch for d, stopping early on
// the mission condition when there is one.
func (m *Mission) Coast(ctx context.Context, x0 dynamo.State, d time.Duration) (*Solution, error) {
	eq, err := m.Equations()
	if err != nil {
		return nil, err
	}

	var res *solver.Result
	if m.condition != nil {
		res, err = m.solver.PropagateToCondition(ctx, eq, x0, 0, d.Seconds(), m.condition)
	} else {
		res, err = m.solver.Propagate(ctx, eq, x0, 0, d.Seconds())
	}

	sol := m.newSolution()
	if res != nil {
		sol.Segments = append(sol.Segments, SegmentSolution{
			Name:               "coast",
			Kind:               config.SegmentCoast,
			States:             res.States,
			Times:              res.Times,
			ConditionSatisfied: res.ConditionSatisfied,
			Metrics:            res.Metrics,
		})
	}
	if err != nil {
		return sol, err
	}
	sol.ExecutionIsComplete = m.condition == nil || res.ConditionSatisfied
	return sol, nil
}

// Solve runs the segments in order, repetitions times. Execution stops early
// and is marked incomplete when a segment reaches its duration cap.
func (m *Mission) Solve(ctx context.Context, x0 dynamo.State, repetitions int) (*Solution, error) {
	if len(m.segments) == 0 {
		return nil, ErrNoSegments
	}

	sol := m.newSolution()
	x, t := x0.Clone(), 0.0
	for rep := range repetitions {
		for _, seg := range m.segments {
			ss, err := m.solveSegment(ctx, seg, x, t, t+seg.MaxDuration.Seconds(), nil)
			if ss != nil {
				sol.Segments = append(sol.Segments, *ss)
			}
			if err != nil {
				return sol, err
			}
			if !ss.ConditionSatisfied {
				m.logger.Warn("segment hit its duration cap", "segment", seg.Name, "repetition", rep)
				return sol, nil
			}
			x, t = ss.Final()
		}
	}
	sol.ExecutionIsComplete = true
	return sol, nil
}

// SolveToCondition repeats the segments until cond holds, for at most
// maxDuration in total. A segment stops on its own condition or on cond,
// whichever comes first.
func (m *Mission) SolveToCondition(ctx context.Context, x0 dynamo.State, cond eventcondition.Condition, maxDuration time.Duration) (*Solution, error) {
	if len(m.segments) == 0 {
		return nil, ErrNoSegments
	}
	if cond == nil {
		return nil, eventcondition.ErrNilCondition
	}

	sol := m.newSolution()
	x, t := x0.Clone(), 0.0
	limit := maxDuration.Seconds()
	for t < limit {
		for _, seg := range m.segments {
			tMax := math.Min(t+seg.MaxDuration.Seconds(), limit)
			ss, err := m.solveSegment(ctx, seg, x, t, tMax, cond)
			if ss != nil {
				sol.Segments = append(sol.Segments, *ss)
			}
			if err != nil {
				return sol, err
			}
			if ss.MissionConditionSatisfied {
				sol.ExecutionIsComplete = true
				return sol, nil
			}
			if !ss.ConditionSatisfied {
				m.logger.Warn("sequence stopped before mission condition", "segment", seg.Name, "t", tMax)
				return sol, nil
			}
			x, t = ss.Final()
			if t >= limit {
				break
			}
		}
	}
	return sol, nil
}

func (m *Mission) solveSegment(ctx context.Context, seg Segment, x dynamo.State, t, tMax float64, mission eventcondition.Condition) (*SegmentSolution, error) {
	eq, err := dynamics.NewEquations(seg.Dynamics, m.scenario.Epoch)
	if err != nil {
		return nil, err
	}
	cond, err := m.registry.BuildCondition(seg.condition, Env{Central: m.central, Satellite: m.scenario.Satellite, Start: t})
	if err != nil {
		return nil, err
	}
	stop := cond
	if mission != nil {
		if stop, err = eventcondition.NewDisjunctive(cond, mission); err != nil {
			return nil, err
		}
	}

	m.logger.Debug("segment started", "segment", seg.Name, "kind", seg.Kind, "t", t)
	res, err := m.solver.PropagateToCondition(ctx, eq, x, t, tMax, stop)
	if res == nil {
		return nil, fmt.Errorf("segment %s: %w", seg.Name, err)
	}

	ss := &SegmentSolution{
		Name:               seg.Name,
		Kind:               seg.Kind,
		States:             res.States,
		Times:              res.Times,
		ConditionSatisfied: res.ConditionSatisfied,
		Metrics:            res.Metrics,
	}
	if mission != nil && res.ConditionSatisfied && len(res.States) >= 2 {
		n := len(res.States)
		ss.MissionConditionSatisfied = mission.IsSatisfied(res.States[n-1], res.Times[n-1], res.States[n-2], res.Times[n-2])
	}
	ss.DeltaV = seg.DeltaVRate * ss.Duration()
	if err != nil {
		return ss, fmt.Errorf("segment %s: %w", seg.Name, err)
	}
	return ss, nil
}

func (m *Mission) newSolution() *Solution {
	return &Solution{Epoch: m.scenario.Epoch}
}
