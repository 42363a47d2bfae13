package environment

import (
	"fmt"
	"math"
)

type AtmosphereType int

const (
	AtmosphereUndefined AtmosphereType = iota
	AtmosphereExponential
)

func (t AtmosphereType) String() string {
	if t == AtmosphereExponential {
		return "Exponential"
	}
	return "Undefined"
}

// AtmosphericModel is a single-layer exponential density profile anchored at
// ReferenceAltitude.
type AtmosphericModel struct {
	Type              AtmosphereType
	ReferenceDensity  float64 // kg/m^3
	ReferenceAltitude float64 // m
	ScaleHeight       float64 // m
	// Densities above Ceiling are treated as vacuum.
	Ceiling float64
}

func (a AtmosphericModel) IsDefined() bool {
	return a.Type == AtmosphereExponential && a.ReferenceDensity > 0 && a.ScaleHeight > 0
}

// DensityAt returns the mass density at altitude h in meters.
func (a AtmosphericModel) DensityAt(h float64) float64 {
	if !a.IsDefined() || (a.Ceiling > 0 && h > a.Ceiling) {
		return 0
	}
	return a.ReferenceDensity * math.Exp(-(h-a.ReferenceAltitude)/a.ScaleHeight)
}

func (a AtmosphericModel) String() string {
	if !a.IsDefined() {
		return a.Type.String()
	}
	return fmt.Sprintf("%s (rho0=%.3e kg/m3 at %.0f km, H=%.1f km)",
		a.Type, a.ReferenceDensity, a.ReferenceAltitude/1e3, a.ScaleHeight/1e3)
}
