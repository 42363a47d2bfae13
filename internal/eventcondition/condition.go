// Package eventcondition evaluates predicates over consecutive propagation
// samples and composes them logically.
package eventcondition

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/astroprop/internal/dynamo"
)

var (
	ErrEmptyConditions = errors.New("eventcondition: at least one condition is required")
	ErrNilCondition    = errors.New("eventcondition: nil condition")
)

// Condition is a pure predicate over a (current, previous) sample pair.
// Times are seconds elapsed since the propagation reference instant.
// Implementations do not mutate themselves during evaluation and may be
// shared between composites and goroutines.
type Condition interface {
	Name() string
	IsSatisfied(current dynamo.State, currentTime float64, previous dynamo.State, previousTime float64) bool
	Print(w io.Writer, decorated bool)
}

// Evaluator maps a sample to the monitored scalar.
type Evaluator func(x dynamo.State, t float64) float64

// RealCondition applies a Criteria to evaluator(x, t) - target.
type RealCondition struct {
	name      string
	criteria  Criteria
	evaluator Evaluator
	target    float64
}

func NewRealCondition(name string, criteria Criteria, evaluator Evaluator, target float64) (*RealCondition, error) {
	if !criteria.IsDefined() {
		return nil, fmt.Errorf("%s: %w", name, dynamo.Undefined("Criteria"))
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%s: %w", name, dynamo.Undefined("Evaluator"))
	}
	return &RealCondition{
		name:      name,
		criteria:  criteria,
		evaluator: evaluator,
		target:    target,
	}, nil
}

func (c *RealCondition) Name() string        { return c.name }
func (c *RealCondition) SetName(name string) { c.name = name }
func (c *RealCondition) Criteria() Criteria  { return c.criteria }
func (c *RealCondition) Target() float64     { return c.target }

// Evaluate returns the monitored value relative to the target.
func (c *RealCondition) Evaluate(x dynamo.State, t float64) float64 {
	return c.evaluator(x, t) - c.target
}

func (c *RealCondition) IsSatisfied(current dynamo.State, currentTime float64, previous dynamo.State, previousTime float64) bool {
	cur := c.Evaluate(current, currentTime)
	if !c.criteria.IsCrossing() {
		return c.criteria.IsSatisfied(cur, 0)
	}
	return c.criteria.IsSatisfied(cur, c.Evaluate(previous, previousTime))
}

func (c *RealCondition) Print(w io.Writer, decorated bool) {
	dynamo.PrintHeader(w, "Real Event Condition", decorated)
	dynamo.PrintLine(w, "Name", c.name)
	dynamo.PrintLine(w, "Criteria", c.criteria)
	dynamo.PrintLine(w, "Target", c.target)
	dynamo.PrintFooter(w, decorated)
}

// Describe renders c.Print into a string.
func Describe(c Condition, decorated bool) string {
	var sb strings.Builder
	c.Print(&sb, decorated)
	return sb.String()
}
