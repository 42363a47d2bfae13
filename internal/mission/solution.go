package mission

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// SegmentSolution is the trajectory of one executed segment. Times are
// seconds from the mission epoch.
type SegmentSolution struct {
	Name                      string
	Kind                      string
	States                    []dynamo.State
	Times                     []float64
	ConditionSatisfied        bool
	MissionConditionSatisfied bool
	DeltaV                    float64 // m/s
	Metrics                   map[string]float64
}

func (s SegmentSolution) Final() (dynamo.State, float64) {
	if len(s.States) == 0 {
		return nil, 0
	}
	return s.States[len(s.States)-1], s.Times[len(s.Times)-1]
}

// Duration is the propagated span in seconds.
func (s SegmentSolution) Duration() float64 {
	if len(s.Times) == 0 {
		return 0
	}
	return math.Abs(s.Times[len(s.Times)-1] - s.Times[0])
}

type Solution struct {
	Epoch               time.Time
	Segments            []SegmentSolution
	ExecutionIsComplete bool
}

func (s *Solution) StartTime() float64 {
	if len(s.Segments) == 0 || len(s.Segments[0].Times) == 0 {
		return 0
	}
	return s.Segments[0].Times[0]
}

func (s *Solution) EndTime() float64 {
	if len(s.Segments) == 0 {
		return 0
	}
	_, t := s.Segments[len(s.Segments)-1].Final()
	return t
}

func (s *Solution) StartInstant() time.Time { return s.instant(s.StartTime()) }
func (s *Solution) EndInstant() time.Time   { return s.instant(s.EndTime()) }

func (s *Solution) instant(t float64) time.Time {
	return s.Epoch.Add(time.Duration(math.Round(t * 1e9)))
}

func (s *Solution) Final() (dynamo.State, float64) {
	if len(s.Segments) == 0 {
		return nil, 0
	}
	return s.Segments[len(s.Segments)-1].Final()
}

// States concatenates every segment, dropping the first sample of each
// segment after the first since it repeats the previous final sample.
func (s *Solution) States() ([]dynamo.State, []float64) {
	var states []dynamo.State
	var times []float64
	for i, seg := range s.Segments {
		from := 0
		if i > 0 && len(seg.States) > 0 {
			from = 1
		}
		states = append(states, seg.States[from:]...)
		times = append(times, seg.Times[from:]...)
	}
	return states, times
}

func (s *Solution) PropagationDuration() time.Duration {
	return s.EndInstant().Sub(s.StartInstant())
}

// DeltaV sums the velocity change delivered by maneuver segments, m/s.
func (s *Solution) DeltaV() float64 {
	var dv float64
	for _, seg := range s.Segments {
		dv += seg.DeltaV
	}
	return dv
}

func (s *Solution) Print(w io.Writer, decorated bool) {
	dynamo.PrintHeader(w, "Sequence Solution", decorated)
	dynamo.PrintLine(w, "Start", s.StartInstant().Format(time.RFC3339))
	dynamo.PrintLine(w, "End", s.EndInstant().Format(time.RFC3339))
	dynamo.PrintLine(w, "Propagation duration", s.PropagationDuration())
	dynamo.PrintLine(w, "Segments", len(s.Segments))
	dynamo.PrintLine(w, "Delta V", fmt.Sprintf("%.4f m/s", s.DeltaV()))
	dynamo.PrintLine(w, "Complete", s.ExecutionIsComplete)
	for _, seg := range s.Segments {
		dynamo.PrintLine(w, seg.Kind+" "+seg.Name, fmt.Sprintf("%.1f s, %d samples, satisfied=%t", seg.Duration(), len(seg.States), seg.ConditionSatisfied))
	}
	dynamo.PrintFooter(w, decorated)
}
