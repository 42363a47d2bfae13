package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/astroprop/internal/environment"
	"github.com/san-kum/astroprop/internal/mission"
	"github.com/san-kum/astroprop/internal/orbit"
)

// RenderSolution summarizes a mission run in a bordered panel. With plot set
// an altitude chart follows the panel.
func RenderSolution(s Styles, title string, sol *mission.Solution, central *environment.Celestial, plot bool) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(title) + "\n")

	status := s.Good.Render("complete")
	if !sol.ExecutionIsComplete {
		status = s.Warn.Render("incomplete")
	}

	rows := []string{
		s.Row("Status", status),
		s.Row("Start", sol.StartInstant().Format(time.RFC3339)),
		s.Row("End", sol.EndInstant().Format(time.RFC3339Nano)),
		s.Row("Duration", sol.PropagationDuration().String()),
		s.Row("Segments", fmt.Sprint(len(sol.Segments))),
	}
	if dv := sol.DeltaV(); dv > 0 {
		rows = append(rows, s.Row("Delta V", fmt.Sprintf("%.4f m/s", dv)))
	}

	states, times := sol.States()
	if x, t := sol.Final(); x.IsCartesian() {
		r, v := x.Position(), x.Velocity()
		rows = append(rows,
			s.Row("Final position [m]", fmt.Sprintf("%.6f %.6f %.6f", r.X, r.Y, r.Z)),
			s.Row("Final velocity [m/s]", fmt.Sprintf("%.9f %.9f %.9f", v.X, v.Y, v.Z)),
		)
		if central.Gravity.IsDefined() {
			coe := orbit.FromCartesian(r, v, central.Gravity.Mu)
			rows = append(rows,
				s.Row("Semi-major axis", fmt.Sprintf("%.3f km", coe.SemiMajorAxis/1e3)),
				s.Row("Eccentricity", fmt.Sprintf("%.6f", coe.Eccentricity)),
				s.Row("Inclination", fmt.Sprintf("%.4f deg", coe.Inclination*180/math.Pi)),
			)
		}
		alt := Altitudes(states, times, central, sol.Epoch)
		if len(alt) > 0 {
			lo := alt[0]
			for _, a := range alt {
				lo = math.Min(lo, a)
			}
			rows = append(rows,
				s.Row("Final altitude", fmt.Sprintf("%.3f km", central.AltitudeOf(r, sol.Epoch.Add(secondsToDuration(t)))/1e3)),
				s.Row("Min altitude", fmt.Sprintf("%.3f km", lo)),
			)
		}
	}

	for _, seg := range sol.Segments {
		mark := s.Good.Render("✓")
		if !seg.ConditionSatisfied {
			mark = s.Subtle.Render("·")
		}
		rows = append(rows, s.Row(seg.Kind+" "+seg.Name, fmt.Sprintf("%s %.1f s", mark, seg.Duration())))
	}

	b.WriteString(s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	b.WriteString("\n")

	if plot {
		if chart := Plot(Altitudes(states, times, central, sol.Epoch), 72, 10, "altitude [km] vs sample"); chart != "" {
			b.WriteString(s.Graph.Render(chart) + "\n")
		}
	}
	return b.String()
}

func secondsToDuration(t float64) time.Duration {
	return time.Duration(math.Round(t * 1e9))
}
