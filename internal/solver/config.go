package solver

import "fmt"

// Config controls stepping. Times are in seconds.
type Config struct {
	StepSize       float64 `yaml:"step_size"`
	Adaptive       bool    `yaml:"adaptive"`
	Tolerance      float64 `yaml:"tolerance"`
	MinStep        float64 `yaml:"min_step"`
	MaxStep        float64 `yaml:"max_step"`
	MaxSteps       int     `yaml:"max_steps"`
	ValidateState  bool    `yaml:"validate_state"`
	EventTolerance float64 `yaml:"event_tolerance"`
}

func DefaultConfig() Config {
	return Config{
		StepSize:       10.0,
		Adaptive:       false,
		Tolerance:      1e-10,
		MinStep:        1e-6,
		MaxStep:        600.0,
		MaxSteps:       10_000_000,
		ValidateState:  true,
		EventTolerance: 1e-3,
	}
}

func (c Config) Validate() error {
	if c.StepSize <= 0 {
		return fmt.Errorf("step size must be positive, got %g", c.StepSize)
	}
	if c.Adaptive {
		if c.Tolerance <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping")
		}
		if c.MinStep <= 0 || c.MaxStep < c.MinStep {
			return fmt.Errorf("invalid adaptive step bounds [%g, %g]", c.MinStep, c.MaxStep)
		}
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max steps must not be negative, got %d", c.MaxSteps)
	}
	if c.EventTolerance <= 0 {
		return fmt.Errorf("event tolerance must be positive, got %g", c.EventTolerance)
	}
	return nil
}
