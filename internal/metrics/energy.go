package metrics

import (
	"math"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/orbit"
)

// EnergyDrift tracks the largest relative change in specific orbital energy
// about a body of parameter mu. Under pure two-body gravity it measures
// integrator error.
type EnergyDrift struct {
	name          string
	mu            float64
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(mu float64) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		mu:   mu,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	if !x.IsCartesian() {
		return
	}

	energy := orbit.SpecificEnergy(x.Position(), x.Velocity(), e.mu)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Current is the energy of the last observed sample, J/kg.
func (e *EnergyDrift) Current() float64 {
	return e.currentEnergy
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
