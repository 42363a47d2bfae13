package solver

import "github.com/san-kum/astroprop/internal/dynamo"

type Result struct {
	States             []dynamo.State
	Times              []float64
	StepsTaken         int
	StepsRejected      int
	ConditionSatisfied bool
	Metrics            map[string]float64
}

// Final returns the last recorded sample.
func (r *Result) Final() (dynamo.State, float64) {
	if len(r.States) == 0 {
		return nil, 0
	}
	return r.States[len(r.States)-1], r.Times[len(r.Times)-1]
}
