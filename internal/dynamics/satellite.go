package dynamics

import "fmt"

// SatelliteSystem holds the physical properties read by drag and thrust.
type SatelliteSystem struct {
	Mass            float64 `yaml:"mass"`             // kg
	DragArea        float64 `yaml:"drag_area"`        // m^2
	DragCoefficient float64 `yaml:"drag_coefficient"` // dimensionless
}

func DefaultSatelliteSystem() SatelliteSystem {
	return SatelliteSystem{Mass: 100, DragArea: 1, DragCoefficient: 2.2}
}

func (s SatelliteSystem) IsDefined() bool {
	return s.Mass > 0
}

// BallisticFactor is Cd*A/m in m^2/kg.
func (s SatelliteSystem) BallisticFactor() float64 {
	if s.Mass <= 0 {
		return 0
	}
	return s.DragCoefficient * s.DragArea / s.Mass
}

func (s SatelliteSystem) String() string {
	return fmt.Sprintf("mass=%.2f kg, area=%.3f m2, Cd=%.2f", s.Mass, s.DragArea, s.DragCoefficient)
}
