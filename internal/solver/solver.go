// Package solver advances a dynamo.System through time and detects event
// conditions along the way.
package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/eventcondition"
	"github.com/san-kum/astroprop/internal/integrators"
)

const maxBisections = 64

// Instrumentation receives counters from every propagation. It must be safe
// for concurrent use when the solver is shared by an Ensemble.
type Instrumentation interface {
	StepAccepted(dt float64)
	StepRejected()
	EventDetected(condition string)
	PropagationFinished(elapsed time.Duration, err error)
}

type Option func(*NumericalSolver)

func WithLogger(l *slog.Logger) Option {
	return func(s *NumericalSolver) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithObserver(o dynamo.Observer) Option {
	return func(s *NumericalSolver) { s.observers = append(s.observers, o) }
}

func WithMetric(m dynamo.Metric) Option {
	return func(s *NumericalSolver) { s.metrics = append(s.metrics, m) }
}

func WithInstrumentation(i Instrumentation) Option {
	return func(s *NumericalSolver) { s.instr = i }
}

// NumericalSolver drives a Stepper. With the default RK4 stepper and fixed
// steps, sample times are t0 + i*StepSize and results are bit-reproducible.
// Observers and metrics are stateful, so a solver carrying them must not run
// concurrent propagations.
type NumericalSolver struct {
	stepper   dynamo.Stepper
	cfg       Config
	logger    *slog.Logger
	observers []dynamo.Observer
	metrics   []dynamo.Metric
	instr     Instrumentation
}

// New builds a solver. A nil stepper selects RK4.
func New(stepper dynamo.Stepper, cfg Config, opts ...Option) *NumericalSolver {
	if stepper == nil {
		stepper = integrators.NewRK4()
	}
	s := &NumericalSolver{
		stepper: stepper,
		cfg:     cfg,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Default is RK4 with DefaultConfig.
func Default(opts ...Option) *NumericalSolver {
	return New(nil, DefaultConfig(), opts...)
}

func (s *NumericalSolver) Config() Config          { return s.cfg }
func (s *NumericalSolver) Stepper() dynamo.Stepper { return s.stepper }

// Integrate propagates x0 from t0 to t1 and returns the final state. t1 may
// precede t0.
func (s *NumericalSolver) Integrate(ctx context.Context, sys dynamo.System, x0 dynamo.State, t0, t1 float64) (dynamo.State, error) {
	res, err := s.propagate(ctx, sys, x0, t0, t1, nil, false)
	if err != nil {
		return nil, err
	}
	x, _ := res.Final()
	return x, nil
}

// Propagate is Integrate keeping every accepted sample.
func (s *NumericalSolver) Propagate(ctx context.Context, sys dynamo.System, x0 dynamo.State, t0, t1 float64) (*Result, error) {
	return s.propagate(ctx, sys, x0, t0, t1, nil, true)
}

// PropagateToCondition stops at the first sample pair satisfying cond, with
// the crossing instant refined by bisection to Config.EventTolerance. When
// tMax is reached first the result has ConditionSatisfied unset.
func (s *NumericalSolver) PropagateToCondition(ctx context.Context, sys dynamo.System, x0 dynamo.State, t0, tMax float64, cond eventcondition.Condition) (*Result, error) {
	if cond == nil {
		return nil, eventcondition.ErrNilCondition
	}
	return s.propagate(ctx, sys, x0, t0, tMax, cond, true)
}

func (s *NumericalSolver) propagate(ctx context.Context, sys dynamo.System, x0 dynamo.State, t0, t1 float64, cond eventcondition.Condition, record bool) (*Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != sys.StateDim() {
		return nil, fmt.Errorf("initial state has %d components, system expects %d: %w",
			len(x0), sys.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if math.IsNaN(t0) || math.IsNaN(t1) || math.IsInf(t0, 0) || math.IsInf(t1, 0) {
		return nil, fmt.Errorf("propagation bounds must be finite, got [%g, %g]", t0, t1)
	}

	start := time.Now()
	result := &Result{
		States:  make([]dynamo.State, 0, s.capacity(t0, t1, record)),
		Times:   make([]float64, 0, s.capacity(t0, t1, record)),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := t0
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
	s.observe(x, t)

	direction := 1.0
	if t1 < t0 {
		direction = -1.0
	}
	h := s.cfg.StepSize * direction
	adaptive, useAdaptive := s.stepper.(dynamo.AdaptiveStepper)
	useAdaptive = useAdaptive && s.cfg.Adaptive

	s.logger.Info("propagation started",
		"t0", t0, "t1", t1, "step", s.cfg.StepSize, "adaptive", useAdaptive,
		"stepper", fmt.Sprintf("%T", s.stepper))

	var runErr error
loop:
	for t != t1 {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		default:
		}

		if s.cfg.MaxSteps > 0 && result.StepsTaken >= s.cfg.MaxSteps {
			runErr = &dynamo.SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: dynamo.ErrMaxSteps}
			break
		}

		var xNew dynamo.State
		var tNew float64
		var err error
		if useAdaptive {
			xNew, tNew, h, err = s.adaptiveStep(adaptive, sys, x, t, t1, h, result)
		} else {
			tNew = t0 + float64(result.StepsTaken+1)*h
			if direction*(tNew-t1) >= 0 || math.Abs(t1-tNew) < 1e-9*math.Abs(h) {
				tNew = t1
			}
			xNew, err = s.stepper.Step(sys, x, t, tNew-t)
		}
		if err != nil {
			runErr = &dynamo.SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: err}
			break
		}

		if s.cfg.ValidateState && !xNew.IsValid() {
			runErr = &dynamo.SimulationError{Step: result.StepsTaken, Time: tNew, State: xNew, Wrapped: dynamo.ErrInvalidState}
			break
		}

		result.StepsTaken++
		if s.instr != nil {
			s.instr.StepAccepted(tNew - t)
		}

		if cond != nil && cond.IsSatisfied(xNew, tNew, x, t) {
			xe, te, err := s.refine(sys, cond, x, t, xNew, tNew)
			if err != nil {
				runErr = &dynamo.SimulationError{Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: err}
				break
			}
			x, t = xe, te
			result.ConditionSatisfied = true
			result.States = append(result.States, x.Clone())
			result.Times = append(result.Times, t)
			s.observe(x, t)

			s.logger.Info("event condition satisfied", "condition", cond.Name(), "t", t, "steps", result.StepsTaken)
			if s.instr != nil {
				s.instr.EventDetected(cond.Name())
			}
			break
		}

		x, t = xNew, tNew
		if record || t == t1 {
			result.States = append(result.States, x.Clone())
			result.Times = append(result.Times, t)
		}
		s.observe(x, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	elapsed := time.Since(start)
	if s.instr != nil {
		s.instr.PropagationFinished(elapsed, runErr)
	}
	if runErr != nil {
		s.logger.Warn("propagation stopped", "t", t, "steps", result.StepsTaken, "err", runErr)
		return result, runErr
	}
	s.logger.Info("propagation finished",
		"t", t, "steps", result.StepsTaken, "rejected", result.StepsRejected,
		"condition_satisfied", result.ConditionSatisfied, "elapsed", elapsed)
	return result, nil
}

func (s *NumericalSolver) capacity(t0, t1 float64, record bool) int {
	if !record {
		return 2
	}
	n := math.Abs(t1-t0)/s.cfg.StepSize + 2
	return int(math.Min(n, 1<<16))
}

func (s *NumericalSolver) observe(x dynamo.State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func (s *NumericalSolver) adaptiveStep(st dynamo.AdaptiveStepper, sys dynamo.System, x dynamo.State, t, t1, h float64, result *Result) (dynamo.State, float64, float64, error) {
	direction := math.Copysign(1, h)
	for {
		mag := math.Min(math.Abs(h), s.cfg.MaxStep)
		if mag < s.cfg.MinStep {
			return nil, t, h, dynamo.ErrStepTooSmall
		}

		dt := direction * mag
		last := direction*(t+dt-t1) >= 0
		if last {
			dt = t1 - t
		}

		xNew, hNext, err := st.StepAdaptive(sys, x, t, dt, s.cfg.Tolerance)
		if errors.Is(err, dynamo.ErrStepRejected) {
			result.StepsRejected++
			if s.instr != nil {
				s.instr.StepRejected()
			}
			s.logger.Debug("step rejected", "t", t, "dt", dt, "retry", hNext)
			h = hNext
			continue
		}
		if err != nil {
			return nil, t, h, err
		}

		tNew := t + dt
		if last {
			tNew = t1
		}
		return xNew, tNew, hNext, nil
	}
}

// refine bisects (t0, t1], where the pair (x0, x1) satisfies cond, down to
// the event tolerance. Every trial state is a single step from x0.
func (s *NumericalSolver) refine(sys dynamo.System, cond eventcondition.Condition, x0 dynamo.State, t0 float64, x1 dynamo.State, t1 float64) (dynamo.State, float64, error) {
	loX, loT := x0, t0
	hiX, hiT := x1, t1

	for i := 0; i < maxBisections && math.Abs(hiT-loT) > s.cfg.EventTolerance; i++ {
		midT := loT + (hiT-loT)/2
		midX, err := s.stepper.Step(sys, x0, t0, midT-t0)
		if err != nil {
			return nil, 0, err
		}
		if cond.IsSatisfied(midX, midT, loX, loT) {
			hiX, hiT = midX, midT
		} else {
			loX, loT = midX, midT
		}
		s.logger.Debug("refining event", "condition", cond.Name(), "lo", loT, "hi", hiT)
	}
	return hiX, hiT, nil
}
