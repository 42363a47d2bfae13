package viz

import (
	"math"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/environment"
)

// Altitudes returns the height above body of each Cartesian sample, in km.
// Times are seconds from epoch.
func Altitudes(states []dynamo.State, times []float64, body *environment.Celestial, epoch time.Time) []float64 {
	out := make([]float64, 0, len(states))
	for i, x := range states {
		if !x.IsCartesian() {
			continue
		}
		at := epoch.Add(time.Duration(math.Round(times[i] * 1e9)))
		out = append(out, body.AltitudeOf(x.Position(), at)/1e3)
	}
	return out
}

// Downsample keeps at most n evenly spaced points, always including the
// last one.
func Downsample(data []float64, n int) []float64 {
	if n <= 0 || len(data) <= n {
		return data
	}
	out := make([]float64, n)
	step := float64(len(data)-1) / float64(n-1)
	for i := range out {
		out[i] = data[int(math.Round(float64(i)*step))]
	}
	return out
}

// Plot draws data as an ASCII line chart. It returns "" for fewer than two
// points.
func Plot(data []float64, width, height int, caption string) string {
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(Downsample(data, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
