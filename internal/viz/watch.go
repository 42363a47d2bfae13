package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/astroprop/internal/dynamics"
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/mission"
	"github.com/san-kum/astroprop/internal/solver"
)

const (
	trailCapacity   = 2000
	historyCapacity = 600
	canvasCols      = 40
	canvasRows      = 16
	frameInterval   = time.Second / 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Watch propagates a mission's base dynamics a chunk per frame and draws the
// orbit, an altitude history and the current state. It stops at the
// scenario duration or when the mission condition holds.
type Watch struct {
	ctx      context.Context
	mission  *mission.Mission
	eq       dynamics.Equations
	x        dynamo.State
	t, end   float64
	chunk    float64 // simulated seconds per frame
	running  bool
	done     bool
	event    bool
	err      error
	trail    []r3.Vec
	altitude []float64
	styles   Styles
	theme    int
	width    int
}

func NewWatch(ctx context.Context, m *mission.Mission, chunk float64) (Watch, error) {
	eq, err := m.Equations()
	if err != nil {
		return Watch{}, err
	}
	if chunk <= 0 {
		chunk = 10 * m.Solver().Config().StepSize
	}
	w := Watch{
		ctx:     ctx,
		mission: m,
		eq:      eq,
		end:     m.Scenario().Duration.Seconds(),
		chunk:   chunk,
		styles:  NewStyles(Themes[0]),
		width:   80,
	}
	w.reset()
	return w, nil
}

func (w *Watch) reset() {
	w.x = w.mission.InitialState()
	w.t = 0
	w.running = true
	w.done, w.event, w.err = false, false, nil
	w.trail = append(w.trail[:0], w.x.Position())
	w.altitude = w.altitude[:0]
	w.recordAltitude()
}

func (w *Watch) recordAltitude() {
	at := w.mission.Scenario().Epoch.Add(secondsToDuration(w.t))
	w.altitude = append(w.altitude, w.mission.Central().AltitudeOf(w.x.Position(), at)/1e3)
	if len(w.altitude) > historyCapacity {
		w.altitude = w.altitude[len(w.altitude)-historyCapacity:]
	}
}

// Advance propagates one chunk.
func (w *Watch) Advance() {
	if w.done {
		return
	}
	t1 := math.Min(w.t+w.chunk, w.end)
	s := w.mission.Solver()

	var res *solver.Result
	var err error
	if cond := w.mission.Condition(); cond != nil {
		res, err = s.PropagateToCondition(w.ctx, w.eq, w.x, w.t, t1, cond)
	} else {
		res, err = s.Propagate(w.ctx, w.eq, w.x, w.t, t1)
	}
	if res != nil && len(res.States) > 0 {
		for _, x := range res.States[1:] {
			w.trail = append(w.trail, x.Position())
		}
		w.x, w.t = res.Final()
		w.event = res.ConditionSatisfied
	}
	if len(w.trail) > trailCapacity {
		w.trail = w.trail[len(w.trail)-trailCapacity:]
	}
	w.recordAltitude()

	if err != nil {
		w.err = err
		w.done = true
		return
	}
	if w.event || w.t >= w.end {
		w.done = true
	}
}

func (w Watch) Time() float64       { return w.t }
func (w Watch) State() dynamo.State { return w.x.Clone() }
func (w Watch) Done() bool          { return w.done }
func (w Watch) Running() bool       { return w.running }
func (w Watch) Chunk() float64      { return w.chunk }
func (w Watch) Err() error          { return w.err }

func (w Watch) Init() tea.Cmd { return tick() }

func (w Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return w, tea.Quit
		case " ":
			w.running = !w.running
		case "+", "=":
			w.chunk *= 2
		case "-":
			w.chunk = math.Max(w.chunk/2, w.mission.Solver().Config().StepSize)
		case "t":
			w.theme = (w.theme + 1) % len(Themes)
			w.styles = NewStyles(Themes[w.theme])
		case "r":
			w.reset()
		}
		return w, nil
	case tea.WindowSizeMsg:
		w.width = msg.Width
		return w, nil
	case TickMsg:
		if w.running && !w.done {
			w.Advance()
		}
		return w, tick()
	}
	return w, nil
}

func (w Watch) View() string {
	s := w.styles
	var b strings.Builder

	name := w.mission.Scenario().Name
	b.WriteString(s.Title.Render("astroprop watch · "+name) + "\n")

	frac := 1.0
	if w.end > 0 {
		frac = w.t / w.end
	}
	status := s.Good.Render("RUNNING")
	switch {
	case w.err != nil:
		status = s.Bad.Render("FAILED")
	case w.event:
		status = s.Good.Render("CONDITION MET")
	case w.done:
		status = s.Good.Render("DONE")
	case !w.running:
		status = s.Warn.Render("PAUSED")
	}
	b.WriteString(fmt.Sprintf("%s %s %5.1f%%\n\n", status, s.ProgressBar(frac, 40), 100*frac))

	canvas := NewCanvas(canvasCols, canvasRows)
	canvas.DrawOrbit(w.trail, w.mission.Central().Radius)
	b.WriteString(s.Panel.Render(strings.TrimRight(canvas.String(), "\n")) + "\n")

	if chart := Plot(w.altitude, 60, 6, "altitude [km]"); chart != "" {
		b.WriteString(s.Graph.Render(chart) + "\n")
	}

	r, v := w.x.Position(), w.x.Velocity()
	b.WriteString(s.Row("Elapsed", secondsToDuration(w.t).String()) + "\n")
	b.WriteString(s.Row("Position [km]", fmt.Sprintf("%.3f %.3f %.3f", r.X/1e3, r.Y/1e3, r.Z/1e3)) + "\n")
	b.WriteString(s.Row("Velocity [m/s]", fmt.Sprintf("%.3f %.3f %.3f", v.X, v.Y, v.Z)) + "\n")
	b.WriteString(s.Row("Step per frame", fmt.Sprintf("%.0f s", w.chunk)) + "\n")
	if w.err != nil {
		b.WriteString(s.Bad.Render(w.err.Error()) + "\n")
	}
	b.WriteString("\n" + s.Subtle.Render("space pause · +/- speed · t theme · r restart · q quit") + "\n")
	return b.String()
}
