package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/environment"
	"github.com/san-kum/astroprop/internal/metrics"
	"github.com/san-kum/astroprop/internal/mission"
	"github.com/san-kum/astroprop/internal/solver"
	"github.com/san-kum/astroprop/internal/storage"
	"github.com/san-kum/astroprop/internal/viz"
)

var (
	dataDir     string
	logLevel    string
	logFormat   string
	preset      string
	stepSize    float64
	duration    time.Duration
	stepper     string
	adaptive    bool
	repetitions int
	showPlot    bool
	save        bool
	metricsAddr string
	theme       string
	chunk       float64

	settings config.Settings
	logger   = slog.New(slog.DiscardHandler)
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "astroprop",
		Short:             "orbit propagation and maneuver sequencing",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".astroprop", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "propagate a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().IntVar(&repetitions, "repetitions", 0, "sequence repetitions")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot altitude")
	runCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	runCmd.Flags().StringVar(&theme, "theme", "night", "color theme")

	watchCmd := &cobra.Command{
		Use:   "watch [scenario.yaml]",
		Short: "propagate a scenario with a live view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchScenario,
	}
	addScenarioFlags(watchCmd)
	watchCmd.Flags().Float64Var(&chunk, "chunk", 0, "seconds propagated per frame (default 10 steps)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets and the names scenarios may use",
		RunE:  listPresets,
	}

	bodiesCmd := &cobra.Command{
		Use:   "bodies",
		Short: "list celestial bodies",
		RunE:  listBodies,
	}

	validateCmd := &cobra.Command{
		Use:   "validate [scenario.yaml]",
		Short: "check that a scenario can be built",
		Args:  cobra.ExactArgs(1),
		RunE:  validateScenario,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a preset to a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  initScenario,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "preset to write")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(runCmd, watchCmd, presetsCmd, bodiesCmd, validateCmd, initCmd, listCmd, plotCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	cmd.Flags().Float64Var(&stepSize, "step", 0, "step size in seconds")
	cmd.Flags().DurationVar(&duration, "duration", 0, "propagation duration")
	cmd.Flags().StringVar(&stepper, "stepper", "", "stepper (euler, rk4, rk45, verlet, leapfrog)")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive step control")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if settings, err = config.LoadSettings(); err != nil {
		return err
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	if logFormat != "" {
		settings.LogFormat = logFormat
	}
	h, err := settings.Handler(os.Stderr)
	if err != nil {
		return err
	}
	logger = slog.New(h)
	return nil
}

// loadScenario reads the scenario file when given, otherwise a preset, and
// applies flags the user set explicitly.
func loadScenario(cmd *cobra.Command, args []string) (*config.Scenario, error) {
	var sc *config.Scenario
	switch {
	case len(args) == 1:
		var err error
		if sc, err = config.Load(args[0]); err != nil {
			return nil, err
		}
	default:
		name := preset
		if name == "" {
			name = settings.DefaultPreset
		}
		if sc = config.GetPreset(name); sc == nil {
			return nil, fmt.Errorf("preset not found: %s (available: %s)", name, strings.Join(config.ListPresets(), ", "))
		}
	}

	flags := cmd.Flags()
	if flags.Changed("step") {
		sc.Solver.StepSize = stepSize
	}
	if flags.Changed("duration") {
		sc.Duration = duration
	}
	if flags.Changed("stepper") {
		sc.Stepper = stepper
	}
	if flags.Changed("adaptive") {
		sc.Solver.Adaptive = adaptive
	}
	if flags.Changed("repetitions") {
		sc.Repetitions = repetitions
	}
	return sc, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	central, err := environment.BodyByName(sc.Central)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	rec := metrics.NewRecorder()
	addr := metricsAddr
	if addr == "" {
		addr = settings.MetricsAddr
	}
	if addr != "" {
		srv := &http.Server{Addr: addr, Handler: rec.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("serving metrics", "addr", addr)
	}

	m, err := mission.Build(sc,
		mission.WithLogger(logger),
		mission.WithSolverOptions(
			solver.WithInstrumentation(rec),
			solver.WithMetric(metrics.NewEnergyDrift(central.Gravity.Mu)),
			solver.WithMetric(metrics.NewMinAltitude(central, sc.Epoch)),
		),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	sol, err := m.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("propagation finished",
		"scenario", sc.Name,
		"segments", len(sol.Segments),
		"complete", sol.ExecutionIsComplete,
		"elapsed", time.Since(start))

	styles := viz.NewStyles(viz.GetTheme(theme))
	fmt.Println(viz.RenderSolution(styles, sc.Name, sol, m.Central(), showPlot))

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(sc, sol)
		if err != nil {
			return err
		}
		fmt.Printf("saved: %s\n", runID)
	}
	return nil
}

func watchScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	// the view owns the terminal, keep logs out of it
	m, err := mission.Build(sc, mission.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		return err
	}
	w, err := viz.NewWatch(ctx, m, chunk)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(w, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fw, ok := final.(viz.Watch); ok && fw.Err() != nil {
		return fw.Err()
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCENTRAL\tSTEPPER\tSTEP\tDURATION\tSEGMENTS")
	for _, name := range config.ListPresets() {
		sc := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%gs\t%s\t%d\n",
			name,
			sc.Central,
			sc.Stepper,
			sc.Solver.StepSize,
			sc.Duration,
			len(sc.Segments),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	reg := mission.NewRegistry()
	fmt.Println()
	fmt.Printf("steppers:   %s\n", strings.Join(reg.ListSteppers(), ", "))
	fmt.Printf("dynamics:   %s\n", strings.Join(reg.ListDynamics(), ", "))
	fmt.Printf("conditions: %s\n", strings.Join(reg.ListConditions(), ", "))
	fmt.Printf("bodies:     %s\n", strings.Join(environment.ListBodies(), ", "))
	return nil
}

func listBodies(cmd *cobra.Command, args []string) error {
	for i, name := range environment.ListBodies() {
		body, err := environment.BodyByName(name)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("[%s]\n", name)
		body.Print(os.Stdout)
	}
	return nil
}

func validateScenario(cmd *cobra.Command, args []string) error {
	sc, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if _, err := mission.Build(sc, mission.WithLogger(logger)); err != nil {
		return err
	}
	fmt.Printf("%s: ok\n", args[0])
	return nil
}

func initScenario(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	name := preset
	if name == "" {
		name = settings.DefaultPreset
	}
	sc := config.GetPreset(name)
	if sc == nil {
		return fmt.Errorf("preset not found: %s", name)
	}
	if err := config.Save(path, sc); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s)\n", path, name)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tSTEP\tSTEPPER\tSEGMENTS\tCOMPLETE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0fs\t%gs\t%s\t%d\t%t\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.StepSize,
			run.Stepper,
			len(run.Segments),
			run.Complete,
		)
	}
	return w.Flush()
}

// plotRun replays a stored run's scenario and plots the trajectory.
func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	sc, err := st.LoadScenario(runID)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	m, err := mission.Build(sc, mission.WithLogger(logger))
	if err != nil {
		return err
	}
	sol, err := m.Run(ctx)
	if err != nil {
		return err
	}
	states, times := sol.States()
	if len(states) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(states))

	alt := viz.Altitudes(states, times, m.Central(), sol.Epoch)
	fmt.Println(viz.Plot(viz.Downsample(alt, 80), 80, 12, "altitude (km)"))
	fmt.Println()

	speed := make([]float64, len(states))
	for i, x := range states {
		speed[i] = r3.Norm(x.Velocity()) / 1e3
	}
	fmt.Println(viz.Plot(viz.Downsample(speed, 80), 80, 8, "speed (km/s)"))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}
