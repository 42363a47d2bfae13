package metrics

import (
	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/eventcondition"
)

// EventCount counts consecutive sample pairs that satisfy a condition, e.g.
// node crossings over a long coast.
type EventCount struct {
	cond     eventcondition.Condition
	prev     dynamo.State
	prevTime float64
	count    int
}

func NewEventCount(cond eventcondition.Condition) *EventCount {
	return &EventCount{cond: cond}
}

func (e *EventCount) Name() string { return "events[" + e.cond.Name() + "]" }

func (e *EventCount) Observe(x dynamo.State, t float64) {
	if e.prev != nil && e.cond.IsSatisfied(x, t, e.prev, e.prevTime) {
		e.count++
	}
	e.prev = x.Clone()
	e.prevTime = t
}

func (e *EventCount) Value() float64 {
	return float64(e.count)
}

func (e *EventCount) Reset() {
	e.prev = nil
	e.prevTime = 0
	e.count = 0
}
