package mission_test

import (
	"bytes"
	"context"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/environment"
	"github.com/san-kum/astroprop/internal/eventcondition"
	"github.com/san-kum/astroprop/internal/metrics"
	"github.com/san-kum/astroprop/internal/mission"
	"github.com/san-kum/astroprop/internal/orbit"
	"github.com/san-kum/astroprop/internal/solver"
)

func semiMajorAxis(x dynamo.State) float64 {
	return orbit.FromCartesian(x.Position(), x.Velocity(), environment.EarthMu).SemiMajorAxis
}

func radialVelocity(x dynamo.State) float64 {
	r := x.Position()
	return r3.Dot(r, x.Velocity()) / r3.Norm(r)
}

var _ = Describe("Registry", func() {
	var reg *mission.Registry
	var env mission.Env

	BeforeEach(func() {
		reg = mission.NewRegistry()
		env = mission.Env{Central: environment.EarthSpherical(), Satellite: config.DefaultScenario().Satellite}
	})

	It("lists the built-in names", func() {
		Expect(reg.ListSteppers()).To(Equal([]string{"euler", "leapfrog", "rk4", "rk45", "verlet"}))
		Expect(reg.ListDynamics()).To(ContainElements("position-derivative", "central-gravity", "third-body", "drag", "thruster"))
		Expect(reg.ListConditions()).To(ContainElements("duration", "radius", "altitude", "component", "coe", "radial-velocity", "all", "any"))
	})

	It("rejects unknown names", func() {
		_, err := reg.GetStepper("midpoint")
		Expect(err).To(MatchError(ContainSubstring("unknown stepper")))

		_, err = reg.BuildDynamics(config.DynamicsConfig{Type: "solar-sail"}, env)
		Expect(err).To(MatchError(ContainSubstring("unknown dynamics")))

		_, err = reg.BuildCondition(config.ConditionConfig{Type: "eclipse"}, env)
		Expect(err).To(MatchError(ContainSubstring("unknown condition")))
	})

	It("needs a body for third-body gravity", func() {
		_, err := reg.BuildDynamics(config.DynamicsConfig{Type: "third-body"}, env)
		Expect(err).To(MatchError(dynamo.ErrUndefined))

		_, err = reg.BuildDynamics(config.DynamicsConfig{Type: "third-body", Body: "earth"}, env)
		Expect(err).To(MatchError(dynamo.ErrUnsupported))

		d, err := reg.BuildDynamics(config.DynamicsConfig{Type: "third-body", Body: "moon"}, env)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Name()).To(ContainSubstring("Moon"))
	})

	It("defaults gravity and drag to the central body", func() {
		env.Central = environment.EarthJ2()
		_, err := reg.BuildDynamics(config.DynamicsConfig{Type: "central-gravity"}, env)
		Expect(err).NotTo(HaveOccurred())
		_, err = reg.BuildDynamics(config.DynamicsConfig{Type: "drag"}, env)
		Expect(err).NotTo(HaveOccurred())
	})

	It("bounds component indices", func() {
		_, err := reg.BuildCondition(config.ConditionConfig{
			Type: "component", Criteria: eventcondition.AnyCrossing, Index: 6,
		}, env)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("builds nested condition trees", func() {
		c, err := reg.BuildCondition(config.ConditionConfig{
			Type: "all",
			Name: "low and late",
			Conditions: []config.ConditionConfig{
				{Type: "altitude", Criteria: eventcondition.StrictlyNegative, Target: 700e3},
				{Type: "duration", Criteria: eventcondition.StrictlyPositive, Duration: time.Minute},
			},
		}, env)
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&eventcondition.Conjunctive{}))
		Expect(c.Name()).To(Equal("low and late"))

		low := dynamo.State{environment.EarthRadius + 500e3, 0, 0, 0, 7600, 0}
		Expect(c.IsSatisfied(low, 61, low, 51)).To(BeTrue())
		Expect(c.IsSatisfied(low, 59, low, 49)).To(BeFalse())
	})

	It("counts durations from the segment start", func() {
		env.Start = 1000
		c, err := reg.BuildCondition(config.ConditionConfig{
			Type: "duration", Criteria: eventcondition.PositiveCrossing, Duration: time.Minute,
		}, env)
		Expect(err).NotTo(HaveOccurred())

		x := dynamo.State{7e6, 0, 0, 0, 7500, 0}
		Expect(c.IsSatisfied(x, 1061, x, 1059)).To(BeTrue())
		Expect(c.IsSatisfied(x, 61, x, 59)).To(BeFalse())
	})

	It("accepts custom builders", func() {
		reg.RegisterCondition("never", func(cfg config.ConditionConfig, _ mission.Env) (eventcondition.Condition, error) {
			return eventcondition.NewRealCondition("never", cfg.Criteria, func(dynamo.State, float64) float64 { return -1 }, 0)
		})
		c, err := reg.BuildCondition(config.ConditionConfig{Type: "never", Criteria: eventcondition.StrictlyPositive}, env)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Name()).To(Equal("never"))
	})
})

var _ = Describe("Build", func() {
	It("rejects invalid scenarios", func() {
		sc := config.DefaultScenario()
		sc.Duration = 0
		_, err := mission.Build(sc)
		Expect(err).To(MatchError(config.ErrInvalidScenario))
	})

	It("rejects a central body without gravity", func() {
		sc := config.DefaultScenario()
		sc.Central = "earth-undefined"
		_, err := mission.Build(sc)
		Expect(err).To(MatchError(dynamo.ErrUndefined))
	})

	DescribeTable("rejects unresolvable names",
		func(mutate func(*config.Scenario), msg string) {
			sc := config.DefaultScenario()
			mutate(sc)
			_, err := mission.Build(sc)
			Expect(err).To(MatchError(ContainSubstring(msg)))
		},
		Entry("central", func(sc *config.Scenario) { sc.Central = "vulcan" }, "unknown body"),
		Entry("stepper", func(sc *config.Scenario) { sc.Stepper = "midpoint" }, "unknown stepper"),
		Entry("dynamics", func(sc *config.Scenario) {
			sc.Dynamics = append(sc.Dynamics, config.DynamicsConfig{Type: "warp"})
		}, "unknown dynamics"),
		Entry("condition", func(sc *config.Scenario) {
			sc.Condition = &config.ConditionConfig{Type: "eclipse", Criteria: eventcondition.AnyCrossing}
		}, "unknown condition"),
		Entry("segment condition", func(sc *config.Scenario) {
			sc.Segments = []config.SegmentConfig{{
				Name: "coast", Kind: config.SegmentCoast,
				Condition: config.ConditionConfig{Type: "eclipse", Criteria: eventcondition.AnyCrossing},
			}}
		}, "segment coast"),
	)

	It("resolves the initial state from elements", func() {
		m, err := mission.Build(config.GetPreset("leo"))
		Expect(err).NotTo(HaveOccurred())
		Expect(semiMajorAxis(m.InitialState())).To(BeNumerically("~", 6878137, 1e-3))
		Expect(m.Central().Name).To(Equal(environment.EarthName))
	})
})

var _ = Describe("Coast", func() {
	It("propagates for the scenario duration", func() {
		sc := config.GetPreset("leo")
		sc.Duration = 10 * time.Minute
		drift := metrics.NewEnergyDrift(environment.EarthMu)

		m, err := mission.Build(sc, mission.WithSolverOptions(solver.WithMetric(drift)))
		Expect(err).NotTo(HaveOccurred())

		sol, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.ExecutionIsComplete).To(BeTrue())
		Expect(sol.Segments).To(HaveLen(1))
		Expect(sol.Segments[0].States).To(HaveLen(61))
		Expect(sol.EndTime()).To(Equal(600.0))
		Expect(sol.PropagationDuration()).To(Equal(10 * time.Minute))
		Expect(sol.Segments[0].Metrics["energy_drift"]).To(BeNumerically("<", 1e-9))
		Expect(sol.DeltaV()).To(BeZero())
	})

	It("stops on the mission condition", func() {
		sc := config.GetPreset("leo")
		sc.Condition = &config.ConditionConfig{
			Type: "duration", Criteria: eventcondition.StrictlyPositive, Duration: 5 * time.Minute,
		}

		m, err := mission.Build(sc)
		Expect(err).NotTo(HaveOccurred())

		sol, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.ExecutionIsComplete).To(BeTrue())
		Expect(sol.EndTime()).To(BeNumerically("~", 300, 1e-3))
		Expect(sol.EndTime()).To(BeNumerically(">", 300))
	})

	It("reports an unmet condition as incomplete", func() {
		sc := config.GetPreset("leo")
		sc.Duration = time.Minute
		sc.Condition = &config.ConditionConfig{
			Type: "altitude", Criteria: eventcondition.NegativeCrossing, Target: 100e3,
		}

		m, err := mission.Build(sc)
		Expect(err).NotTo(HaveOccurred())

		sol, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.ExecutionIsComplete).To(BeFalse())
		Expect(sol.EndTime()).To(Equal(60.0))
	})

	It("matches the one-second reference step", func() {
		m, err := mission.Build(config.GetPreset("reference"))
		Expect(err).NotTo(HaveOccurred())

		sol, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		x, t := sol.Final()
		Expect(t).To(Equal(1.0))
		Expect(x[0]).To(BeNumerically("~", 6999995.932647818, 1e-6))
		Expect(x[3]).To(BeNumerically("~", -8.134705939105263, 1e-6))
	})

	It("honors cancellation", func() {
		m, err := mission.Build(config.GetPreset("leo"))
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = m.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Sequence", func() {
	It("burns then coasts to apogee", func() {
		sc := config.GetPreset("apogee-raise")
		sc.Repetitions = 1

		m, err := mission.Build(sc)
		Expect(err).NotTo(HaveOccurred())
		a0 := semiMajorAxis(m.InitialState())

		sol, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.ExecutionIsComplete).To(BeTrue())
		Expect(sol.Segments).To(HaveLen(2))

		burn, coast := sol.Segments[0], sol.Segments[1]
		Expect(burn.Kind).To(Equal(config.SegmentManeuver))
		Expect(burn.Duration()).To(BeNumerically("~", 600, 1e-3))
		Expect(burn.DeltaV).To(BeNumerically("~", 6, 1e-4))
		Expect(coast.DeltaV).To(BeZero())
		Expect(sol.DeltaV()).To(Equal(burn.DeltaV))

		x, _ := sol.Final()
		Expect(radialVelocity(x)).To(BeNumerically("~", 0, 1e-3))
		Expect(semiMajorAxis(x)).To(BeNumerically(">", a0+10e3))

		// Coast starts where the burn ended.
		end, tEnd := burn.Final()
		Expect(coast.States[0]).To(Equal(end))
		Expect(coast.Times[0]).To(Equal(tEnd))

		states, times := sol.States()
		Expect(states).To(HaveLen(len(burn.States) + len(coast.States) - 1))
		Expect(times).To(HaveLen(len(states)))
	})

	It("stops when a segment reaches its cap", func() {
		sc := config.GetPreset("apogee-raise")
		sc.Segments[1].MaxDuration = 5 * time.Minute

		m, err := mission.Build(sc)
		Expect(err).NotTo(HaveOccurred())

		sol, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.ExecutionIsComplete).To(BeFalse())
		Expect(sol.Segments).To(HaveLen(2))
		Expect(sol.Segments[1].ConditionSatisfied).To(BeFalse())
	})

	It("repeats until the mission condition holds", func() {
		m, err := mission.Build(config.GetPreset("orbit-raise"))
		Expect(err).NotTo(HaveOccurred())

		sol, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.ExecutionIsComplete).To(BeTrue())
		Expect(sol.Segments).To(HaveLen(3))

		last := sol.Segments[2]
		Expect(last.Kind).To(Equal(config.SegmentManeuver))
		Expect(last.MissionConditionSatisfied).To(BeTrue())
		Expect(last.Duration()).To(BeNumerically("<", 600))

		x, _ := sol.Final()
		Expect(semiMajorAxis(x)).To(BeNumerically("~", 6895e3, 1))
	})

	It("gives up at the maximum duration", func() {
		m, err := mission.Build(config.GetPreset("orbit-raise"))
		Expect(err).NotTo(HaveOccurred())

		sol, err := m.SolveToCondition(context.Background(), m.InitialState(), m.Condition(), 20*time.Minute)
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.ExecutionIsComplete).To(BeFalse())
		Expect(sol.EndTime()).To(BeNumerically("~", 1200, 1e-9))
	})

	It("needs segments", func() {
		m, err := mission.Build(config.GetPreset("leo"))
		Expect(err).NotTo(HaveOccurred())

		_, err = m.Solve(context.Background(), m.InitialState(), 1)
		Expect(err).To(MatchError(mission.ErrNoSegments))
	})

	It("prints a summary", func() {
		sc := config.GetPreset("apogee-raise")
		sc.Repetitions = 1
		m, err := mission.Build(sc)
		Expect(err).NotTo(HaveOccurred())
		sol, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		var buf bytes.Buffer
		sol.Print(&buf, true)
		Expect(buf.String()).To(ContainSubstring("Sequence Solution"))
		Expect(buf.String()).To(ContainSubstring("maneuver burn"))
		Expect(buf.String()).To(ContainSubstring("6.0000 m/s"))
		Expect(math.IsNaN(sol.DeltaV())).To(BeFalse())
	})
})
