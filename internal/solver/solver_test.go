package solver

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/eventcondition"
	"github.com/san-kum/astroprop/internal/integrators"
)

func oscillator() dynamo.System {
	return dynamo.SystemFunc{Dim: 2, F: func(x, dxdt dynamo.State, _ float64) error {
		dxdt[0] = x[1]
		dxdt[1] = -x[0]
		return nil
	}}
}

func fixedConfig(step float64) Config {
	cfg := DefaultConfig()
	cfg.StepSize = step
	return cfg
}

func TestPropagateFixedStep(t *testing.T) {
	s := New(integrators.NewRK4(), fixedConfig(0.1))

	res, err := s.Propagate(context.Background(), oscillator(), dynamo.State{1, 0}, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, 10, res.StepsTaken)
	assert.Len(t, res.States, 11)
	assert.Len(t, res.Times, 11)
	assert.Equal(t, 1.0, res.Times[10])
	assert.InDelta(t, 0.5, res.Times[5], 1e-15)

	x, tf := res.Final()
	assert.Equal(t, 1.0, tf)
	assert.InDelta(t, math.Cos(1), x[0], 1e-5)
	assert.InDelta(t, -math.Sin(1), x[1], 1e-5)
}

func TestFinalStepLandsOnTarget(t *testing.T) {
	s := New(nil, fixedConfig(10))

	res, err := s.Propagate(context.Background(), oscillator(), dynamo.State{1, 0}, 0, 25)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10, 20, 25}, res.Times)
}

func TestIntegrateDeterministic(t *testing.T) {
	s := Default()
	a, err := s.Integrate(context.Background(), oscillator(), dynamo.State{0.3, 0.2}, 0, 123.4)
	require.NoError(t, err)
	b, err := s.Integrate(context.Background(), oscillator(), dynamo.State{0.3, 0.2}, 0, 123.4)
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, math.Float64bits(a[i]), math.Float64bits(b[i]))
	}
}

func TestBackwardPropagation(t *testing.T) {
	s := New(nil, fixedConfig(0.01))
	ctx := context.Background()
	x0 := dynamo.State{1, 0}

	fwd, err := s.Integrate(ctx, oscillator(), x0, 0, 2)
	require.NoError(t, err)

	res, err := s.Propagate(ctx, oscillator(), fwd, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StepsTaken)

	back, tf := res.Final()
	assert.Equal(t, 0.0, tf)
	assert.InDelta(t, x0[0], back[0], 1e-8)
	assert.InDelta(t, x0[1], back[1], 1e-8)
	assert.Less(t, res.Times[1], res.Times[0])
}

func TestIntegrateZeroSpan(t *testing.T) {
	x, err := Default().Integrate(context.Background(), oscillator(), dynamo.State{1, 2}, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, dynamo.State{1, 2}, x)
}

func TestPropagateToCondition(t *testing.T) {
	cfg := fixedConfig(0.01)
	cfg.EventTolerance = 1e-9
	s := New(nil, cfg)

	cond, err := eventcondition.NewComponentCondition("x down", eventcondition.NegativeCrossing, 0, 0)
	require.NoError(t, err)

	res, err := s.PropagateToCondition(context.Background(), oscillator(), dynamo.State{1, 0}, 0, 10, cond)
	require.NoError(t, err)
	require.True(t, res.ConditionSatisfied)

	x, tf := res.Final()
	assert.InDelta(t, math.Pi/2, tf, 1e-8)
	assert.Less(t, x[0], 0.0)
	assert.InDelta(t, 0, x[0], 1e-8)
	assert.Equal(t, 158, res.StepsTaken)
}

func TestPropagateToConditionNotReached(t *testing.T) {
	s := New(nil, fixedConfig(0.1))
	cond, err := eventcondition.NewComponentCondition("x above 2", eventcondition.PositiveCrossing, 0, 2)
	require.NoError(t, err)

	res, err := s.PropagateToCondition(context.Background(), oscillator(), dynamo.State{1, 0}, 0, 3, cond)
	require.NoError(t, err)
	assert.False(t, res.ConditionSatisfied)
	_, tf := res.Final()
	assert.Equal(t, 3.0, tf)

	_, err = s.PropagateToCondition(context.Background(), oscillator(), dynamo.State{1, 0}, 0, 3, nil)
	assert.ErrorIs(t, err, eventcondition.ErrNilCondition)
}

func TestPropagateToConditionBackward(t *testing.T) {
	cfg := fixedConfig(0.01)
	cfg.EventTolerance = 1e-9
	s := New(nil, cfg)

	// x = cos(t) falls through zero at t = -pi/2 when walking back from 0.
	cond, err := eventcondition.NewComponentCondition("x down", eventcondition.NegativeCrossing, 0, 0)
	require.NoError(t, err)

	res, err := s.PropagateToCondition(context.Background(), oscillator(), dynamo.State{1, 0}, 0, -10, cond)
	require.NoError(t, err)
	require.True(t, res.ConditionSatisfied)
	_, tf := res.Final()
	assert.InDelta(t, -math.Pi/2, tf, 1e-8)
}

func TestAdaptivePropagation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Adaptive = true
	cfg.Tolerance = 1e-10
	cfg.StepSize = 5
	s := New(integrators.NewRK45(), cfg)

	res, err := s.Propagate(context.Background(), oscillator(), dynamo.State{1, 0}, 0, 10)
	require.NoError(t, err)

	x, tf := res.Final()
	assert.Equal(t, 10.0, tf)
	assert.InDelta(t, math.Cos(10), x[0], 1e-7)
	assert.Positive(t, res.StepsRejected)
	assert.Less(t, res.StepsTaken, 1000)
}

func TestAdaptiveStepTooSmall(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Adaptive = true
	cfg.Tolerance = 1e-300
	cfg.MinStep = 1e-3
	s := New(integrators.NewRK45(), cfg)

	_, err := s.Integrate(context.Background(), oscillator(), dynamo.State{1, 0}, 0, 10)
	assert.ErrorIs(t, err, dynamo.ErrStepTooSmall)

	var simErr *dynamo.SimulationError
	assert.ErrorAs(t, err, &simErr)
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero step", Config{StepSize: 0, EventTolerance: 1}},
		{"negative step", Config{StepSize: -1, EventTolerance: 1}},
		{"adaptive without tolerance", Config{StepSize: 1, Adaptive: true, MinStep: 1, MaxStep: 2, EventTolerance: 1}},
		{"adaptive inverted bounds", Config{StepSize: 1, Adaptive: true, Tolerance: 1, MinStep: 2, MaxStep: 1, EventTolerance: 1}},
		{"negative max steps", Config{StepSize: 1, MaxSteps: -1, EventTolerance: 1}},
		{"zero event tolerance", Config{StepSize: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, tt.cfg).Integrate(context.Background(), oscillator(), dynamo.State{1, 0}, 0, 1)
			assert.Error(t, err)
		})
	}
}

func TestBoundsAndDimensions(t *testing.T) {
	s := Default()
	_, err := s.Integrate(context.Background(), oscillator(), dynamo.State{1, 0, 0}, 0, 1)
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)

	_, err = s.Integrate(context.Background(), oscillator(), dynamo.State{1, 0}, 0, math.Inf(1))
	assert.Error(t, err)
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Default().Propagate(ctx, oscillator(), dynamo.State{1, 0}, 0, 100)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Zero(t, res.StepsTaken)
}

func TestInvalidStateAborts(t *testing.T) {
	blowup := dynamo.SystemFunc{Dim: 1, F: func(x, dxdt dynamo.State, tt float64) error {
		if tt > 25 {
			dxdt[0] = math.NaN()
		}
		return nil
	}}

	res, err := Default().Propagate(context.Background(), blowup, dynamo.State{1}, 0, 100)
	assert.ErrorIs(t, err, dynamo.ErrInvalidState)
	assert.Equal(t, 2, res.StepsTaken)
}

func TestMaxSteps(t *testing.T) {
	cfg := fixedConfig(1)
	cfg.MaxSteps = 5
	res, err := New(nil, cfg).Propagate(context.Background(), oscillator(), dynamo.State{1, 0}, 0, 100)
	assert.ErrorIs(t, err, dynamo.ErrMaxSteps)
	assert.Equal(t, 5, res.StepsTaken)
}

func TestDeriveErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	sys := dynamo.SystemFunc{Dim: 1, F: func(_, _ dynamo.State, _ float64) error { return boom }}

	_, err := Default().Integrate(context.Background(), sys, dynamo.State{1}, 0, 1)
	assert.ErrorIs(t, err, boom)
	var simErr *dynamo.SimulationError
	require.ErrorAs(t, err, &simErr)
	assert.Equal(t, 0, simErr.Step)
}

type countingMetric struct {
	count int
}

func (c *countingMetric) Name() string                  { return "count" }
func (c *countingMetric) Observe(dynamo.State, float64) { c.count++ }
func (c *countingMetric) Value() float64                { return float64(c.count) }
func (c *countingMetric) Reset()                        { c.count = 0 }

type recordingObserver struct {
	times []float64
}

func (r *recordingObserver) OnStep(_ dynamo.State, t float64) { r.times = append(r.times, t) }

type fakeInstrumentation struct {
	mu                               sync.Mutex
	accepted, rejected, events, runs int
}

func (f *fakeInstrumentation) bump(n *int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*n++
}

func (f *fakeInstrumentation) StepAccepted(float64)                     { f.bump(&f.accepted) }
func (f *fakeInstrumentation) StepRejected()                            { f.bump(&f.rejected) }
func (f *fakeInstrumentation) EventDetected(string)                     { f.bump(&f.events) }
func (f *fakeInstrumentation) PropagationFinished(time.Duration, error) { f.bump(&f.runs) }

func TestMetricsObserversInstrumentation(t *testing.T) {
	metric := &countingMetric{}
	obs := &recordingObserver{}
	instr := &fakeInstrumentation{}
	s := New(nil, fixedConfig(1), WithMetric(metric), WithObserver(obs), WithInstrumentation(instr), WithLogger(nil))

	res, err := s.Propagate(context.Background(), oscillator(), dynamo.State{1, 0}, 0, 10)
	require.NoError(t, err)

	assert.Equal(t, 11.0, res.Metrics["count"])
	assert.Equal(t, res.Times, obs.times)
	assert.Equal(t, 10, instr.accepted)
	assert.Equal(t, 1, instr.runs)
	assert.Zero(t, instr.events)
}

func TestEnsemble(t *testing.T) {
	instr := &fakeInstrumentation{}
	base := New(nil, fixedConfig(0.05), WithInstrumentation(instr))
	cond, err := eventcondition.NewComponentCondition("x down", eventcondition.NegativeCrossing, 0, 0)
	require.NoError(t, err)

	sys := oscillator()
	var jobs []Job
	for i := 0; i < 8; i++ {
		job := Job{Name: "run", System: sys, X0: dynamo.State{1 + float64(i), 0}, T0: 0, T1: 5}
		if i%2 == 1 {
			job.Condition = cond
		}
		jobs = append(jobs, job)
	}

	results, err := NewEnsemble(base, 3).Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, len(jobs))

	for i, res := range results {
		want, err := base.Integrate(context.Background(), sys, jobs[i].X0, 0, 5)
		require.NoError(t, err)
		if jobs[i].Condition != nil {
			assert.True(t, res.ConditionSatisfied)
			continue
		}
		got, _ := res.Final()
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 4, instr.events)
}

func TestEnsembleFailure(t *testing.T) {
	boom := errors.New("boom")
	bad := dynamo.SystemFunc{Dim: 1, F: func(_, _ dynamo.State, _ float64) error { return boom }}

	_, err := NewEnsemble(Default(), 0).Run(context.Background(), []Job{
		{Name: "good", System: oscillator(), X0: dynamo.State{1, 0}, T1: 10},
		{Name: "bad", System: bad, X0: dynamo.State{1}, T1: 10},
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `job "bad"`)
}
