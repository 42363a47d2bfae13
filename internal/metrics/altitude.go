package metrics

import (
	"math"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/environment"
)

// MinAltitude records the lowest height above body seen during a run. Sample
// times are seconds from reference.
type MinAltitude struct {
	name      string
	body      *environment.Celestial
	reference time.Time
	min       float64
	samples   int
}

func NewMinAltitude(body *environment.Celestial, reference time.Time) *MinAltitude {
	return &MinAltitude{
		name:      "min_altitude",
		body:      body,
		reference: reference,
		min:       math.Inf(1),
	}
}

func (m *MinAltitude) Name() string { return m.name }

func (m *MinAltitude) Observe(x dynamo.State, t float64) {
	if !x.IsCartesian() {
		return
	}
	at := m.reference.Add(time.Duration(math.Round(t * 1e9)))
	m.min = math.Min(m.min, m.body.AltitudeOf(x.Position(), at))
	m.samples++
}

// Value is +Inf until a sample has been observed.
func (m *MinAltitude) Value() float64 {
	return m.min
}

func (m *MinAltitude) Reset() {
	m.min = math.Inf(1)
	m.samples = 0
}
